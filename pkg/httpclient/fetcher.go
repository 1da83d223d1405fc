package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/iohelper"
)

// Page is a fetched response with its body decoded to UTF-8.
type Page struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Getter is what the crawler and the probes need from a fetcher.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*Page, error)
}

// Observer receives the outcome of every request. err is the classified
// error, nil on any HTTP response regardless of status.
type Observer interface {
	ObserveRequest(purpose string, status int, elapsed time.Duration, err error)
}

type purposeKey struct{}

// WithPurpose tags ctx so requests made with it are attributed to purpose
// (crawl, headers, xss, sqli) in logs and metrics.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose set by WithPurpose, or "other".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "other"
}

// Fetcher issues GET requests through one pooled client. It is safe for
// concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	logger    *slog.Logger
	observer  Observer
}

var _ Getter = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithObserver attaches a request observer.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// WithClient replaces the client built from Config.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher builds a Fetcher from cfg.
func NewFetcher(cfg Config, opts ...Option) *Fetcher {
	cfg = cfg.withDefaults()
	f := &Fetcher{
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = New(cfg)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *http.Client { return f.client }

// Get fetches rawURL. Any HTTP response, whatever its status, is a
// success; only transport-level failures return an error, wrapped with
// one of the package sentinels.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	purpose := PurposeFrom(ctx)
	start := time.Now()

	page, err := f.get(ctx, rawURL)
	elapsed := time.Since(start)

	status := 0
	if page != nil {
		status = page.StatusCode
	}
	if f.observer != nil {
		f.observer.ObserveRequest(purpose, status, elapsed, err)
	}
	if err != nil {
		f.logger.DebugContext(ctx, "request failed",
			slog.String("purpose", purpose),
			slog.String("url", rawURL),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return nil, err
	}
	f.logger.DebugContext(ctx, "request",
		slog.String("purpose", purpose),
		slog.String("url", rawURL),
		slog.Int("status", status),
		slog.Int("bytes", len(page.Body)),
		slog.Duration("elapsed", elapsed))
	return page, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", defaults.AcceptHTML)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	body, err := iohelper.ReadText(resp.Body, resp.Header.Get("Content-Type"), f.maxBody)
	if err != nil {
		return nil, Classify(err)
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Page{
		URL:        final,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
