// Package defaults provides canonical default values for webprobe.
// Every flag default, config default and constructor default reads from here.
//
// Usage:
//
//	cfg.MaxPages = defaults.MaxPages
//	req.Header.Set("User-Agent", defaults.UserAgent("crawl"))
package defaults

import (
	"fmt"
	"time"
)

// ToolName is the binary and user-facing product name.
const ToolName = "webprobe"

// Version is the current webprobe version.
const Version = "0.3.0"

// ============================================================================
// SCAN LIMITS
// ============================================================================

const (
	// MaxPages is the crawl page cap when none is configured (20)
	MaxPages = 20

	// MaxPagesLimit bounds user supplied page caps (10000)
	MaxPagesLimit = 10000

	// Timeout is the per-request timeout (5s)
	Timeout = 5 * time.Second

	// MaxTimeout bounds user supplied per-request timeouts (60s)
	MaxTimeout = 60 * time.Second

	// MaxBodySize caps how much of a response body is read (2MB)
	MaxBodySize int64 = 2 * 1024 * 1024
)

// ============================================================================
// CONTENT TYPES
// ============================================================================

const (
	// ContentTypeJSON is the JSON media type
	ContentTypeJSON = "application/json"

	// ContentTypeHTML is the HTML media type
	ContentTypeHTML = "text/html"

	// AcceptHTML is the Accept header sent with every probe
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// ============================================================================
// USER AGENTS
// ============================================================================

const (
	// UABot identifies webprobe honestly to the target
	UABot = "Mozilla/5.0 (compatible; webprobe/" + Version + ")"

	// UAMinimal is a minimal user agent
	UAMinimal = "webprobe/" + Version
)

// UserAgent returns the webprobe user agent with context.
func UserAgent(context string) string {
	if context == "" {
		return UAMinimal
	}
	return fmt.Sprintf("webprobe/%s (%s)", Version, context)
}
