// Package scanner runs a complete scan: crawl the target, audit every
// page's headers, probe every page with query parameters for reflected
// XSS and error-based SQL injection, and collect the findings.
//
// A scan is sequential. Findings are appended in the order they are
// produced (per page: headers, then XSS, then SQLi) and never
// deduplicated; use finding.Fingerprint downstream if needed.
// Severity estimation is a separate pass (Annotate).
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Killjoybr/IA-CAI/pkg/crawler"
	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/headers"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/injection"
	"github.com/Killjoybr/IA-CAI/pkg/metrics"
	"github.com/Killjoybr/IA-CAI/pkg/params"
	"github.com/Killjoybr/IA-CAI/pkg/sqli"
	"github.com/Killjoybr/IA-CAI/pkg/telemetry"
	"github.com/Killjoybr/IA-CAI/pkg/xss"
)

// Scanner owns one HTTP client and may run several scans, each with its
// own visited set. Scan is safe to call from multiple goroutines.
type Scanner struct {
	getter   httpclient.Getter
	exclude  []string
	checks   []injection.Check
	logger   *slog.Logger
	recorder *metrics.Recorder
	tracer   trace.Tracer
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithRecorder sets the metrics recorder fed by every request.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Scanner) { s.recorder = r }
}

// WithTracerProvider sets where scan spans go. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scanner) { s.tracer = telemetry.Tracer(tp) }
}

// WithGetter replaces the HTTP fetcher.
func WithGetter(g httpclient.Getter) Option {
	return func(s *Scanner) { s.getter = g }
}

// WithExclude sets crawl exclusion patterns (regular expressions).
func WithExclude(patterns ...string) Option {
	return func(s *Scanner) { s.exclude = patterns }
}

// WithChecks replaces the injection checks run on pages with parameters.
// The default is XSS then SQLi.
func WithChecks(checks ...injection.Check) Option {
	return func(s *Scanner) { s.checks = checks }
}

// New creates a Scanner whose requests use cfg. Invalid exclusion
// patterns are reported here rather than on the first scan.
//
// cfg.Timeout is ignored: each scan bounds its requests with
// Target.Timeout, so the shared client only carries the upper limit.
func New(cfg httpclient.Config, opts ...Option) (*Scanner, error) {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = telemetry.Tracer(nil)
	}
	if s.checks == nil {
		s.checks = []injection.Check{xss.New(), sqli.New()}
	}
	if s.getter == nil {
		fopts := []httpclient.Option{httpclient.WithLogger(s.logger)}
		if s.recorder != nil {
			fopts = append(fopts, httpclient.WithObserver(s.recorder))
		}
		cfg.Timeout = defaults.MaxTimeout
		s.getter = httpclient.NewFetcher(cfg, fopts...)
	}
	if _, err := crawler.New(crawler.Config{Exclude: s.exclude}, s.getter, s.logger); err != nil {
		return nil, err
	}
	return s, nil
}

// Scan crawls t and probes every visited page. It fails only when the
// target is invalid; network failures are recorded in Report.Errors and
// the scan continues. Cancelling ctx stops the scan between requests and
// returns what was found so far.
func (s *Scanner) Scan(ctx context.Context, t Target) (*Report, error) {
	seed, err := NormalizeTarget(t.URL)
	if err != nil {
		return nil, err
	}
	t = t.withDefaults()

	rep := &Report{
		ScanID:    uuid.NewString(),
		Target:    seed,
		StartedAt: time.Now().UTC(),
		URLs:      []string{},
		Findings:  []finding.Finding{},
	}
	log := s.logger.With(slog.String("scan_id", rep.ScanID))

	ctx, span := s.tracer.Start(ctx, "scan", trace.WithAttributes(
		attribute.String("scan.id", rep.ScanID),
		attribute.String("scan.target", seed),
		attribute.Int("scan.max_pages", t.MaxPages),
	))
	defer span.End()

	log.InfoContext(ctx, "scan started",
		slog.String("target", seed),
		slog.Int("max_pages", t.MaxPages),
		slog.Duration("timeout", t.Timeout))

	getter := timeoutGetter{next: s.getter, timeout: t.Timeout}

	urls, err := s.crawl(ctx, getter, seed, t.MaxPages, log, rep)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rep.URLs = urls

	auditor := headers.NewAuditor(getter, log)
	engine := injection.NewEngine(getter, log)
	for _, u := range urls {
		if ctx.Err() != nil {
			rep.fail(fmt.Errorf("scan interrupted: %w", ctx.Err()))
			break
		}
		s.probe(ctx, u, auditor, engine, rep)
	}

	rep.Duration = time.Since(rep.StartedAt)
	rep.DurationSeconds = rep.Duration.Seconds()
	s.recorder.ObserveScan(len(rep.URLs), rep.Findings, rep.Duration)

	span.SetAttributes(
		attribute.Int("scan.pages", len(rep.URLs)),
		attribute.Int("scan.findings", len(rep.Findings)),
		attribute.Int("scan.requests", rep.Requests),
		attribute.Int("scan.errors", len(rep.Errors)),
	)
	if !rep.Reachable() {
		span.SetStatus(codes.Error, "target unreachable")
	}

	log.InfoContext(ctx, "scan finished",
		slog.Int("pages", len(rep.URLs)),
		slog.Int("findings", len(rep.Findings)),
		slog.Int("requests", rep.Requests),
		slog.Int("errors", len(rep.Errors)),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

// Crawl only discovers pages; no probes are sent.
func (s *Scanner) Crawl(ctx context.Context, t Target) (*crawler.Result, error) {
	seed, err := NormalizeTarget(t.URL)
	if err != nil {
		return nil, err
	}
	t = t.withDefaults()
	c, err := crawler.New(crawler.Config{MaxPages: t.MaxPages, Exclude: s.exclude},
		timeoutGetter{next: s.getter, timeout: t.Timeout}, s.logger)
	if err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "crawl", trace.WithAttributes(attribute.String("scan.target", seed)))
	defer span.End()
	return c.Crawl(ctx, seed)
}

func (s *Scanner) crawl(ctx context.Context, g httpclient.Getter, seed string, maxPages int, log *slog.Logger, rep *Report) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "crawl")
	defer span.End()

	c, err := crawler.New(crawler.Config{MaxPages: maxPages, Exclude: s.exclude}, g, log)
	if err != nil {
		return nil, err
	}
	res, err := c.Crawl(ctx, seed)
	if err != nil {
		if errors.Is(err, crawler.ErrInvalidSeed) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
		}
		return nil, err
	}
	rep.Requests += len(res.URLs)
	rep.PagesFetched = res.Fetched
	rep.fail(res.Errors...)
	span.SetAttributes(attribute.Int("crawl.pages", len(res.URLs)))
	return res.URLs, nil
}

// probe runs the per-page checks in their fixed order.
func (s *Scanner) probe(ctx context.Context, u string, auditor *headers.Auditor, engine *injection.Engine, rep *Report) {
	ctx, span := s.tracer.Start(ctx, "probe", trace.WithAttributes(attribute.String("page.url", u)))
	defer span.End()

	collect := func(out finding.Outcome) {
		rep.Findings = append(rep.Findings, out.Findings...)
		rep.Requests += out.Requests
		rep.fail(out.Errors...)
	}

	collect(auditor.Audit(ctx, u))

	if params.Extract(u).IsEmpty() {
		return
	}
	for _, check := range s.checks {
		if ctx.Err() != nil {
			return
		}
		collect(engine.Test(ctx, u, check))
	}
}

// timeoutGetter bounds each request with its own deadline.
type timeoutGetter struct {
	next    httpclient.Getter
	timeout time.Duration
}

func (g timeoutGetter) Get(ctx context.Context, rawURL string) (*httpclient.Page, error) {
	if g.timeout <= 0 {
		return g.next.Get(ctx, rawURL)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.next.Get(ctx, rawURL)
}
