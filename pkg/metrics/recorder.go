// Package metrics exposes scan metrics for Prometheus scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
)

var _ httpclient.Observer = (*Recorder)(nil)

const namespace = "webprobe"

// Recorder holds the scanner's Prometheus collectors in a private
// registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	findingsTotal   *prometheus.CounterVec
	pagesCrawled    prometheus.Counter
	scansTotal      prometheus.Counter
	scanDuration    prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "HTTP requests issued, by purpose and status code class.",
	}, []string{"purpose", "status"})

	r.requestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_errors_total",
		Help:      "HTTP requests that failed before a response, by purpose and cause.",
	}, []string{"purpose", "cause"})

	r.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"purpose"})

	r.findingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "findings_total",
		Help:      "Findings reported, by type.",
	}, []string{"type"})

	r.pagesCrawled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_crawled_total",
		Help:      "Pages visited by the crawler.",
	})

	r.scansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Scans completed.",
	})

	r.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall time of a complete scan.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	r.registry.MustRegister(
		r.requestsTotal,
		r.requestErrors,
		r.requestDuration,
		r.findingsTotal,
		r.pagesCrawled,
		r.scansTotal,
		r.scanDuration,
	)
	return r
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRequest implements httpclient.Observer.
func (r *Recorder) ObserveRequest(purpose string, status int, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.requestDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
	if err != nil {
		r.requestErrors.WithLabelValues(purpose, errorCause(err)).Inc()
		return
	}
	r.requestsTotal.WithLabelValues(purpose, statusClass(status)).Inc()
}

// ObserveScan records one finished scan.
func (r *Recorder) ObserveScan(pages int, findings []finding.Finding, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.scansTotal.Inc()
	r.scanDuration.Observe(elapsed.Seconds())
	r.pagesCrawled.Add(float64(pages))
	for _, f := range findings {
		r.findingsTotal.WithLabelValues(f.Kind.String()).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return fmt.Sprintf("%dxx", status/100)
}

func errorCause(err error) string {
	switch {
	case errors.Is(err, httpclient.ErrTimeout):
		return "timeout"
	case errors.Is(err, httpclient.ErrDNS):
		return "dns"
	case errors.Is(err, httpclient.ErrTLS):
		return "tls"
	case errors.Is(err, httpclient.ErrConnRefused):
		return "refused"
	case errors.Is(err, httpclient.ErrProxyConnect):
		return "proxy"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "other"
}

// Server serves /metrics until Close is called.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Serve starts a metrics server on addr (":9090", "127.0.0.1:0").
func Serve(addr string, r *Recorder, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	s := &Server{
		srv: &http.Server{
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", s.Addr())
	return s, nil
}

// Addr returns the metrics URL.
func (s *Server) Addr() string {
	return "http://" + s.ln.Addr().String() + "/metrics"
}

// Close shuts the server down.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
