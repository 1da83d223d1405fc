// Package httpclient builds the HTTP client every probe goes through and
// wraps it in a Fetcher that returns decoded pages.
//
// Certificate verification is OFF by default. This is a deliberate,
// documented insecurity: scan targets are frequently staging or lab hosts
// with self-signed certificates, and a scanner that refuses them is useless
// there. Nothing fetched by this package is trusted; bodies are only
// searched for markers. Set Config.InsecureSkipVerify to false (CLI flag
// --verify-tls) to scan with verification on.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
)

// maxRedirects matches net/http's own default policy.
const maxRedirects = 10

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout bounds a whole request including the body read (default: 5s)
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification (default: true).
	// See the package documentation before relying on it.
	InsecureSkipVerify bool

	// Proxy is an http, https, socks5 or socks5h proxy URL (optional)
	Proxy string

	// UserAgent is sent with every request (default: defaults.UABot)
	UserAgent string

	// FollowRedirects makes the client follow up to 10 redirects (default: true)
	FollowRedirects bool

	// MaxBodySize caps how many body bytes are read per response (default: 2MB)
	MaxBodySize int64

	// MaxIdleConns is the maximum number of idle connections (default: 16)
	MaxIdleConns int

	// IdleConnTimeout is how long idle connections stay in the pool (default: 90s)
	IdleConnTimeout time.Duration

	// DialTimeout is the timeout for establishing connections (default: Timeout)
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for the TLS handshake (default: Timeout)
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns the scanning defaults: 5s timeout, redirects
// followed and certificate verification disabled.
func DefaultConfig() Config {
	return Config{
		Timeout:            defaults.Timeout,
		InsecureSkipVerify: true,
		UserAgent:          defaults.UABot,
		FollowRedirects:    true,
		MaxBodySize:        defaults.MaxBodySize,
		MaxIdleConns:       16,
		IdleConnTimeout:    90 * time.Second,
	}
}

// WithTimeout returns DefaultConfig with the given per-request timeout.
func WithTimeout(timeout time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Timeout = timeout
	return cfg
}

// New creates an HTTP client from cfg. Zero values fall back to defaults.
// A malformed proxy URL is ignored; use ValidateProxyURL beforehand to
// surface it to the user.
func New(cfg Config) *http.Client {
	cfg = cfg.withDefaults()

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		DialContext:           dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-out documented on the package
		},
	}

	if pc, err := ParseProxyURL(cfg.Proxy); err == nil && pc != nil {
		if pc.IsSOCKS {
			if d, err := CreateSOCKSDialer(pc, cfg.DialTimeout); err == nil {
				transport.DialContext = d.DialContext
			}
		} else {
			transport.Proxy = http.ProxyURL(pc.URL)
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
	client.CheckRedirect = redirectPolicy(cfg.FollowRedirects)
	return client
}

func (cfg Config) withDefaults() Config {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UABot
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaults.MaxBodySize
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 16
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = cfg.Timeout
	}
	if cfg.TLSHandshakeTimeout <= 0 {
		cfg.TLSHandshakeTimeout = cfg.Timeout
	}
	return cfg
}

func redirectPolicy(follow bool) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return ErrTooManyRedirects
		}
		return nil
	}
}
