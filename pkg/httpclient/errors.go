package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinel errors for HTTP client failure modes.
// Fetcher.Get wraps the underlying error with one of these; use errors.Is.
var (
	// ErrProxyConnect indicates the client failed to connect through
	// the configured proxy.
	ErrProxyConnect = errors.New("httpclient: proxy connection failed")

	// ErrDNS indicates a DNS resolution failure for the target host.
	ErrDNS = errors.New("httpclient: DNS resolution failed")

	// ErrTLS indicates a TLS handshake or certificate verification failure.
	ErrTLS = errors.New("httpclient: TLS handshake failed")

	// ErrTimeout indicates the request exceeded the per-request timeout.
	ErrTimeout = errors.New("httpclient: request timed out")

	// ErrConnRefused indicates the target actively refused the connection.
	ErrConnRefused = errors.New("httpclient: connection refused")

	// ErrTooManyRedirects indicates the redirect chain exceeded its limit.
	ErrTooManyRedirects = errors.New("httpclient: too many redirects")

	// ErrInvalidURL indicates the request URL could not be parsed.
	ErrInvalidURL = errors.New("httpclient: invalid URL")

	// ErrRequest is the catch-all for failures none of the above describe.
	ErrRequest = errors.New("httpclient: request failed")
)

// Classify wraps err with the sentinel that best describes it.
// Context cancellation is returned unchanged so callers can stop early.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var (
		dnsErr  *net.DNSError
		opErr   *net.OpError
		certErr *tls.CertificateVerificationError
		authErr x509.UnknownAuthorityError
		hostErr x509.HostnameError
		recErr  tls.RecordHeaderError
		netErr  net.Error
	)

	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return err
	case errors.As(err, &opErr) && opErr.Op == "proxyconnect":
		return fmt.Errorf("%w: %w", ErrProxyConnect, err)
	case errors.As(err, &dnsErr):
		return fmt.Errorf("%w: %w", ErrDNS, err)
	case errors.As(err, &certErr), errors.As(err, &authErr), errors.As(err, &hostErr), errors.As(err, &recErr):
		return fmt.Errorf("%w: %w", ErrTLS, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %w", ErrConnRefused, err)
	}
	return fmt.Errorf("%w: %w", ErrRequest, err)
}
