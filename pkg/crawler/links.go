package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skippedSchemes are href prefixes that never lead to a crawlable page.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// ExtractLinks returns the absolute, fragment-free URLs of every anchor
// in body that is same-domain with base. A <base href> in the document
// overrides base for resolution only. Order follows the document and
// each URL appears once.
func ExtractLinks(base *url.URL, body []byte) []string {
	return ExtractDomainLinks(base, base, body)
}

// ExtractDomainLinks is ExtractLinks with the same-domain test made
// against domain instead of the page URL. Relative links still resolve
// against base, which differs from domain after a cross-host redirect.
func ExtractDomainLinks(base, domain *url.URL, body []byte) []string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	doc := goquery.NewDocumentFromNode(root)

	resolveBase := base
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := url.Parse(strings.TrimSpace(href)); err == nil {
			resolveBase = base.ResolveReference(b)
		}
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link := resolveURL(href, resolveBase)
		if link == nil || !SameDomain(domain, link) {
			return
		}
		abs := link.String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})
	return links
}

// SameDomain reports whether candidate shares base's network location
// (host and port). A candidate with an empty host is a relative link and
// counts as same-domain.
func SameDomain(base, candidate *url.URL) bool {
	if candidate.Host == "" {
		return true
	}
	return strings.EqualFold(base.Host, candidate.Host)
}

// resolveURL turns href into an absolute http(s) URL without fragment,
// or nil when the href is empty, fragment-only, non-navigational or
// unparseable.
func resolveURL(href string, base *url.URL) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	for _, prefix := range skippedSchemes {
		if strings.HasPrefix(lower, prefix) {
			return nil
		}
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	return normalize(resolved)
}

// normalize strips the fragment and gives an empty path its root slash,
// so http://t and http://t/#top are the same page.
func normalize(u *url.URL) *url.URL {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	if c.Path == "" && c.Opaque == "" {
		c.Path = "/"
	}
	return &c
}

// NormalizeURL parses rawURL and applies the same normalization links get.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	return normalize(u).String(), nil
}
