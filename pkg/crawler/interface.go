package crawler

import "context"

// LinkCrawler is the consumer-side interface for crawling.
// The scanner depends on it so tests can substitute a fixed URL list.
type LinkCrawler interface {
	Crawl(ctx context.Context, seed string) (*Result, error)
}

var _ LinkCrawler = (*Crawler)(nil)
