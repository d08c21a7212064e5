package mirror

import (
	"context"
	"iter"
	"strings"

	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Crawler enumerates the per-plugin listing pages linked from a repository
// index page.
type Crawler struct {
	fetcher ports.Fetcher
	links   ports.LinkExtractor
	root    string
}

// NewCrawler creates a crawler for the index at root. Listing URLs are built
// by appending each surviving href to root, so root normally ends in "/".
func NewCrawler(fetcher ports.Fetcher, links ports.LinkExtractor, root string) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		links:   links,
		root:    root,
	}
}

// Root returns the index URL.
func (c *Crawler) Root() string {
	return c.root
}

// Discover returns the listing URLs of the index. The index is fetched when
// iteration starts; restarting the sequence fetches it again. A fetch or
// parse failure is yielded once as the only element.
func (c *Crawler) Discover(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		hrefs, err := fetchLinks(ctx, c.fetcher, c.links, c.root)
		if err != nil {
			yield("", err)
			return
		}

		for _, href := range hrefs {
			if !IsListingLink(href) {
				debug(ctx, "skipping index link", ports.F("href", href))
				continue
			}
			if !yield(c.root+href, nil) {
				return
			}
		}
	}
}

// List collects Discover into a slice.
func (c *Crawler) List(ctx context.Context) ([]string, error) {
	var out []string
	for listing, err := range c.Discover(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}

// IsListingLink reports whether an index href points at a plugin listing.
// Sort links ("?C=N;O=D") and root-relative links ("/download/") are not.
func IsListingLink(href string) bool {
	if href == "" {
		return false
	}
	return !strings.HasPrefix(href, "?") && !strings.HasPrefix(href, "/")
}
