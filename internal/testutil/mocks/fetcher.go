package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Fetcher serves registered pages from memory.
type Fetcher struct {
	mu     sync.Mutex
	pages  map[string][]byte
	errors map[string]error
	calls  []string
}

// NewFetcher creates an empty Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		pages:  make(map[string][]byte),
		errors: make(map[string]error),
	}
}

// AddPage registers the raw body served for url.
func (f *Fetcher) AddPage(url string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = body
}

// AddLinks registers a page whose body is one href per line, the format
// understood by LineLinks.
func (f *Fetcher) AddLinks(url string, hrefs ...string) {
	f.AddPage(url, []byte(strings.Join(hrefs, "\n")))
}

// AddError makes Get fail for url.
func (f *Fetcher) AddError(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[url] = err
}

// Get returns the registered page.
func (f *Fetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.errors[url]; ok {
		return nil, err
	}
	if body, ok := f.pages[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("no mock page for %s", url)
}

// Calls returns the fetched URLs in order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// LineLinks is a ports.LinkExtractor that treats every non-empty line of the
// document as an href. Err, when set, is returned instead.
type LineLinks struct {
	Err error
}

// Links splits the document into hrefs.
func (l LineLinks) Links(document []byte) ([]string, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	var out []string
	for _, line := range strings.Split(string(document), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

var (
	_ ports.Fetcher       = (*Fetcher)(nil)
	_ ports.LinkExtractor = LineLinks{}
)
