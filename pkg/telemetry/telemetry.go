// Package telemetry wires OpenTelemetry tracing for scans.
//
// Without Setup the scanner uses the global no-op tracer provider, so
// spans cost nothing unless an OTLP endpoint is configured.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
)

// InstrumentationName names the tracer used by the scanner.
const InstrumentationName = "github.com/Killjoybr/IA-CAI/scanner"

// Options configures the OTLP trace exporter.
type Options struct {
	// Endpoint is the OTLP gRPC endpoint, e.g. "localhost:4317".
	Endpoint string
	// ServiceName defaults to the tool name.
	ServiceName string
	// Insecure disables TLS to the collector.
	Insecure bool
	Headers  map[string]string
	// ConnectTimeout bounds exporter construction (default 10s).
	ConnectTimeout time.Duration
}

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

// Setup installs a global tracer provider exporting to opts.Endpoint.
// An empty endpoint leaves the no-op provider in place and returns a
// no-op Shutdown.
func Setup(opts Options) (Shutdown, error) {
	if opts.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	tp := NewProvider(sdktrace.WithBatcher(exporter), sdktrace.WithResource(Resource(opts.ServiceName)))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Resource describes this process to the collector.
func Resource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "scanner"),
	)
}

// NewProvider builds an always-sampling tracer provider.
func NewProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

// Tracer returns the scanner tracer from tp, or from the global
// provider when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(defaults.Version))
}
