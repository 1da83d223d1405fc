package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(Options{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTracerRecordsSpans(t *testing.T) {
	t.Parallel()

	exp := tracetest.NewInMemoryExporter()
	tp := NewProvider(sdktrace.WithSyncer(exp), sdktrace.WithResource(Resource("test")))
	defer tp.Shutdown(context.Background())

	_, span := Tracer(tp).Start(context.Background(), "scan")
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "scan", spans[0].Name)
	assert.Equal(t, InstrumentationName, spans[0].InstrumentationScope.Name)
}

func TestTracerFallsBackToGlobal(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, Tracer(nil))
}
