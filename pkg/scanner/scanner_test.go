package scanner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/metrics"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
	"github.com/Killjoybr/IA-CAI/pkg/telemetry"
	"github.com/Killjoybr/IA-CAI/pkg/xss"
)

func newScanner(t *testing.T, opts ...Option) *Scanner {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

func kinds(fs []finding.Finding) map[finding.Kind]int {
	out := map[finding.Kind]int{}
	for _, f := range fs {
		out[f.Kind]++
	}
	return out
}

func TestScanBarePage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>nothing here</body></html>")
	}))
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL + "/"})
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL + "/"}, rep.URLs)
	require.Len(t, rep.Findings, 4)
	assert.Equal(t, map[finding.Kind]int{finding.KindMissingHeader: 4}, kinds(rep.Findings))
	assert.Equal(t, 2, rep.Requests)
	assert.Empty(t, rep.Errors)
	assert.NotEmpty(t, rep.ScanID)
	assert.Greater(t, rep.DurationSeconds, 0.0)
}

func TestScanReflectedXSS(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<p>results for %s</p>", r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL + "/search?q=test"})
	require.NoError(t, err)

	var xssHits []finding.Finding
	for _, f := range rep.Findings {
		if f.Kind == finding.KindXSSReflected {
			xssHits = append(xssHits, f)
		}
	}
	require.NotEmpty(t, xssHits)
	assert.Equal(t, "q", xssHits[0].Param)
	assert.Equal(t, `"><script>alert(1)</script>`, xssHits[0].Payload)

	u, err := url.Parse(xssHits[0].URL)
	require.NoError(t, err)
	assert.Equal(t, xssHits[0].Payload, u.Query().Get("q"))

	// 1 crawl + 1 audit + 2 XSS + 4 SQLi probes.
	assert.Equal(t, 8, rep.Requests)
	assert.Zero(t, kinds(rep.Findings)[finding.KindSQLiErrorBased])
}

func TestScanErrorBasedSQLi(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("id"), "'") {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "You have an error in your SQL syntax near ''' at line 1")
			return
		}
		fmt.Fprint(w, "item")
	}))
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL + "/item?id=1&view=full"})
	require.NoError(t, err)

	got := kinds(rep.Findings)
	assert.Equal(t, 4, got[finding.KindMissingHeader])
	assert.Zero(t, got[finding.KindXSSReflected])
	// Payloads ', ' OR '1'='1 and ';-- hit id; " OR "1"="1 does not.
	assert.Equal(t, 3, got[finding.KindSQLiErrorBased])
	for _, f := range rep.Findings {
		if f.Kind == finding.KindSQLiErrorBased {
			assert.Equal(t, "id", f.Param)
			assert.Contains(t, f.Detail, "sql syntax")
		}
	}
}

func TestScanFindingOrder(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<a href="/s?q=1">search</a>`)
	})
	mux.HandleFunc("/s", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Strict-Transport-Security", "max-age=1")
		fmt.Fprint(w, r.URL.Query().Get("q"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL})
	require.NoError(t, err)

	require.Equal(t, []string{srv.URL + "/", srv.URL + "/s?q=1"}, rep.URLs)
	require.Len(t, rep.Findings, 6)
	for i := 0; i < 4; i++ {
		assert.Equal(t, finding.KindMissingHeader, rep.Findings[i].Kind)
		assert.Equal(t, srv.URL+"/", rep.Findings[i].URL)
	}
	assert.Equal(t, finding.KindXSSReflected, rep.Findings[4].Kind)
	assert.Equal(t, finding.KindXSSReflected, rep.Findings[5].Kind)
}

func TestScanUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: addr})
	require.NoError(t, err)

	assert.False(t, rep.Reachable())
	assert.Equal(t, []string{addr + "/"}, rep.URLs)
	assert.Zero(t, rep.PagesFetched)
	assert.Empty(t, rep.Findings)
	assert.NotNil(t, rep.Findings)
	// The crawl fetch and the header audit both fail.
	assert.Equal(t, 2, rep.Requests)
	require.Len(t, rep.Errors, 2)
	assert.ErrorIs(t, rep.Err(), httpclient.ErrConnRefused)
}

func TestScanServerErrorStillAudited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/"}, rep.URLs)
	assert.True(t, rep.Reachable())
	assert.Len(t, rep.Findings, 4)
}

func TestScanInvalidTarget(t *testing.T) {
	t.Parallel()

	_, err := newScanner(t).Scan(context.Background(), Target{URL: ""})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = newScanner(t).Scan(context.Background(), Target{URL: "gopher://x"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestNewRejectsBadExclude(t *testing.T) {
	t.Parallel()

	_, err := New(httpclient.DefaultConfig(), WithExclude("("))
	assert.Error(t, err)
}

func TestScanCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newScanner(t).Scan(ctx, Target{URL: srv.URL})
	require.NoError(t, err)
	assert.Empty(t, rep.URLs)
	assert.Empty(t, rep.Findings)
	assert.ErrorIs(t, rep.Err(), context.Canceled)
}

func TestScanPerRequestTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.False(t, rep.Reachable())
	assert.Empty(t, rep.Findings)
	assert.ErrorIs(t, rep.Err(), httpclient.ErrTimeout)
}

func TestScanTimeoutLongerThanClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
		fmt.Fprint(w, "<html><body>slow</body></html>")
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 200 * time.Millisecond
	s, err := New(cfg)
	require.NoError(t, err)

	rep, err := s.Scan(context.Background(), Target{URL: srv.URL, MaxPages: 1, Timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.True(t, rep.Reachable(), "errors: %v", rep.Errors)
	assert.Equal(t, 1, rep.PagesFetched)
	assert.Empty(t, rep.Errors)
}

func TestScanMaxPages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, `<a href="/p%d">p</a>`, i)
		}
		io.WriteString(w, b.String())
	}))
	defer srv.Close()

	rep, err := newScanner(t).Scan(context.Background(), Target{URL: srv.URL, MaxPages: 3})
	require.NoError(t, err)
	assert.Len(t, rep.URLs, 3)
	assert.Len(t, rep.Findings, 12)
}

func TestScanCustomChecks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Query().Get("a"))
	}))
	defer srv.Close()

	s := newScanner(t, WithChecks(xss.New("<b>zz</b>")))
	rep, err := s.Scan(context.Background(), Target{URL: srv.URL + "/?a=1&b=2"})
	require.NoError(t, err)

	// 1 crawl + 1 audit + one payload across two params.
	assert.Equal(t, 4, rep.Requests)
	assert.Equal(t, 1, kinds(rep.Findings)[finding.KindXSSReflected])
}

func TestScanTracing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	exp := tracetest.NewInMemoryExporter()
	tp := telemetry.NewProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	_, err := newScanner(t, WithTracerProvider(tp)).Scan(context.Background(), Target{URL: srv.URL})
	require.NoError(t, err)

	var names []string
	for _, s := range exp.GetSpans() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"crawl", "probe", "scan"}, names)
}

func TestScanMetrics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	rec := metrics.NewRecorder()
	_, err := newScanner(t, WithRecorder(rec)).Scan(context.Background(), Target{URL: srv.URL})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `webprobe_requests_total{purpose="crawl",status="2xx"} 1`)
	assert.Contains(t, body, `webprobe_requests_total{purpose="headers",status="2xx"} 1`)
	assert.Contains(t, body, `webprobe_findings_total{type="missing_header"} 4`)
}

func TestCrawlOnly(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	res, err := newScanner(t).Crawl(context.Background(), Target{URL: srv.URL + "/?q=1"})
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/?q=1"}, res.URLs)
	assert.Equal(t, int32(1), hits.Load())
}

func TestReportAnnotate(t *testing.T) {
	t.Parallel()

	rep := &Report{Findings: []finding.Finding{
		finding.NewMissingHeader("http://a", "x-frame-options"),
		{Kind: finding.KindSQLiErrorBased, URL: "http://a/x?q=%27", Payload: "'"},
	}}
	assert.Len(t, rep.Items(), 2)
	assert.False(t, rep.Items()[0].Annotated())

	rep.Annotate(scoring.New(), scoring.ParseLang("pt"))
	require.Len(t, rep.Records, 2)
	assert.Equal(t, finding.Medium, rep.Records[0].SeverityClass)
	assert.Equal(t, "médio", rep.Records[0].SeverityLabel)
	assert.Equal(t, finding.High, rep.Records[1].SeverityClass)
	assert.Equal(t, "alto", rep.Records[1].SeverityLabel)
	assert.Equal(t, rep.Findings[1], rep.Records[1].Finding)
	assert.Equal(t, map[finding.Severity]int{finding.Medium: 1, finding.High: 1}, rep.CountBySeverity())
}

func TestAnnotatePreservesOrder(t *testing.T) {
	t.Parallel()

	fs := []finding.Finding{
		{Kind: "other"},
		{Kind: finding.KindXSSReflected, Payload: "p"},
		finding.NewMissingHeader("http://a", "content-security-policy"),
	}
	recs := Annotate(scoring.New(), fs)
	require.Len(t, recs, 3)
	assert.Equal(t, []finding.Severity{finding.Low, finding.High, finding.Medium},
		[]finding.Severity{recs[0].SeverityClass, recs[1].SeverityClass, recs[2].SeverityClass})
	assert.Equal(t, "high", recs[1].SeverityLabel)
	assert.Empty(t, Annotate(scoring.New(), nil))
}

func TestCountByKind(t *testing.T) {
	t.Parallel()

	rep := &Report{Findings: []finding.Finding{
		{Kind: finding.KindXSSReflected},
		{Kind: finding.KindMissingHeader},
		{Kind: finding.KindMissingHeader},
	}}
	assert.Equal(t, []KindCount{
		{Kind: finding.KindMissingHeader, Count: 2},
		{Kind: finding.KindXSSReflected, Count: 1},
	}, rep.CountByKind())
}
