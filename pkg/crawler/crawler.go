// Package crawler discovers same-domain pages breadth-first from a seed.
//
// The crawl is sequential: one page is fetched at a time, in the order
// links were discovered, so the visit order is deterministic for a
// deterministic site.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
)

// ErrInvalidSeed is returned when the seed is not an absolute http(s) URL.
var ErrInvalidSeed = errors.New("crawler: seed must be an absolute http(s) URL")

// Config controls a crawl.
type Config struct {
	// MaxPages caps how many pages are visited (default: 20)
	MaxPages int

	// Exclude holds regular expressions; a discovered link matching any
	// of them is not queued. The seed is always visited.
	Exclude []string
}

// DefaultConfig returns the default crawl limits.
func DefaultConfig() Config {
	return Config{MaxPages: defaults.MaxPages}
}

// Result is the outcome of one crawl.
type Result struct {
	// URLs lists visited pages in visit order.
	URLs []string
	// Visited is the set that produced URLs.
	Visited *VisitedSet
	// Fetched counts pages that returned a response of any status.
	Fetched int
	// Errors holds fetch failures; each failed page is still in URLs.
	Errors []error
}

// Crawler walks a site breadth-first.
type Crawler struct {
	cfg     Config
	fetcher httpclient.Getter
	exclude []*regexp.Regexp
	logger  *slog.Logger
}

// New creates a crawler that fetches through fetcher. A nil logger means
// slog.Default(). It fails only on an invalid exclude pattern.
func New(cfg Config, fetcher httpclient.Getter, logger *slog.Logger) (*Crawler, error) {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaults.MaxPages
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Crawler{cfg: cfg, fetcher: fetcher, logger: logger}
	for _, pattern := range cfg.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("crawler: exclude pattern %q: %w", pattern, err)
		}
		c.exclude = append(c.exclude, re)
	}
	return c, nil
}

// Crawl visits pages starting at seed until the queue is empty or
// MaxPages pages have been visited. A page whose fetch fails is still
// counted as visited and simply yields no links. Cancelling ctx stops
// the crawl before the next page; what was visited so far is returned.
func (c *Crawler) Crawl(ctx context.Context, seed string) (*Result, error) {
	seedURL, err := url.Parse(seed)
	if err != nil || seedURL.Host == "" || (seedURL.Scheme != "http" && seedURL.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	seedURL = normalize(seedURL)
	ctx = httpclient.WithPurpose(ctx, "crawl")

	visited := NewVisitedSet()
	res := &Result{Visited: visited}
	queue := []string{seedURL.String()}
	queued := map[string]bool{seedURL.String(): true}

	for len(queue) > 0 && visited.Len() < c.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err)
			break
		}

		current := queue[0]
		queue = queue[1:]
		if !visited.Add(current) {
			continue
		}

		page, err := c.fetcher.Get(ctx, current)
		if err != nil {
			c.logger.WarnContext(ctx, "crawl fetch failed",
				slog.String("url", current), slog.String("error", err.Error()))
			res.Errors = append(res.Errors, fmt.Errorf("crawl %s: %w", current, err))
			continue
		}
		res.Fetched++

		base, err := url.Parse(page.URL)
		if err != nil {
			base, _ = url.Parse(current)
		}
		added := 0
		for _, link := range ExtractDomainLinks(base, seedURL, page.Body) {
			if visited.Contains(link) || queued[link] || c.excluded(link) {
				continue
			}
			queued[link] = true
			queue = append(queue, link)
			added++
		}
		c.logger.DebugContext(ctx, "crawled",
			slog.String("url", current),
			slog.Int("status", page.StatusCode),
			slog.Int("new_links", added),
			slog.Int("queued", len(queue)))
	}

	res.URLs = visited.List()
	c.logger.InfoContext(ctx, "crawl finished",
		slog.String("seed", seedURL.String()),
		slog.Int("pages", len(res.URLs)),
		slog.Int("errors", len(res.Errors)))
	return res, nil
}

func (c *Crawler) excluded(link string) bool {
	for _, re := range c.exclude {
		if re.MatchString(link) {
			return true
		}
	}
	return false
}
