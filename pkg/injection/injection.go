// Package injection replays crafted values into URL query parameters and
// asks a Check whether the response betrays a vulnerability.
//
// Strategy, shared by every check: for each payload, for each parameter,
// rebuild the query with only that parameter replaced (every other
// parameter keeps its first value), GET it, inspect the body. A URL with
// no parameters costs no requests.
package injection

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/params"
)

// Check is one vulnerability class the engine can probe for.
type Check interface {
	// Kind tags the findings this check emits.
	Kind() finding.Kind
	// Payloads returns the values to substitute, in probe order.
	Payloads() []string
	// Detect inspects a response body produced by payload. evidence is a
	// short description of what matched.
	Detect(payload string, body []byte) (evidence string, ok bool)
	// Detail renders the human-readable message for a hit on param.
	Detail(param, evidence string) string
}

// Engine runs checks against URLs through one fetcher.
type Engine struct {
	fetcher httpclient.Getter
	logger  *slog.Logger
}

// NewEngine creates an engine. A nil logger means slog.Default().
func NewEngine(fetcher httpclient.Getter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{fetcher: fetcher, logger: logger}
}

// Test probes every parameter of rawURL with every payload of check.
// At most len(payloads) x len(params) requests are issued. A failed
// request means no finding for that pair; the error is recorded and the
// probe continues. Cancelling ctx stops before the next request.
func (e *Engine) Test(ctx context.Context, rawURL string, check Check) finding.Outcome {
	var out finding.Outcome

	u, err := url.Parse(rawURL)
	if err != nil {
		return out
	}
	m := params.ParseQuery(u.RawQuery)
	if m.IsEmpty() {
		return out
	}

	kind := check.Kind()
	ctx = httpclient.WithPurpose(ctx, string(kind))
	names := m.Names()

	for _, payload := range check.Payloads() {
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				out.Fail(err)
				return out
			}

			probe := params.WithQuery(u, m.Substitute(name, payload))
			out.Requests++

			page, err := e.fetcher.Get(ctx, probe)
			if err != nil {
				e.logger.DebugContext(ctx, "probe failed",
					slog.String("check", string(kind)),
					slog.String("param", name),
					slog.String("error", err.Error()))
				out.Fail(fmt.Errorf("%s probe %s[%s]: %w", kind, u.Path, name, err))
				continue
			}

			evidence, hit := check.Detect(payload, page.Body)
			if !hit {
				continue
			}
			e.logger.InfoContext(ctx, "injection detected",
				slog.String("check", string(kind)),
				slog.String("url", probe),
				slog.String("param", name),
				slog.String("evidence", evidence))
			out.Add(finding.NewInjection(kind, probe, name, payload, check.Detail(name, evidence)))
		}
	}
	return out
}
