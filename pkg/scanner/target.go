package scanner

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
)

// ErrInvalidTarget is returned for an empty or hostless target.
var ErrInvalidTarget = errors.New("scanner: invalid target")

// Target is what one scan is pointed at.
type Target struct {
	// URL is the seed. A missing scheme defaults to http.
	URL string
	// MaxPages caps the crawl (default 20).
	MaxPages int
	// Timeout applies to each request (default 5s).
	Timeout time.Duration
}

func (t Target) withDefaults() Target {
	if t.MaxPages <= 0 {
		t.MaxPages = defaults.MaxPages
	}
	if t.MaxPages > defaults.MaxPagesLimit {
		t.MaxPages = defaults.MaxPagesLimit
	}
	if t.Timeout <= 0 {
		t.Timeout = defaults.Timeout
	}
	if t.Timeout > defaults.MaxTimeout {
		t.Timeout = defaults.MaxTimeout
	}
	return t
}

// NormalizeTarget turns user input into an absolute http(s) URL:
// "example.com" becomes "http://example.com/". The fragment is dropped.
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidTarget, raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
