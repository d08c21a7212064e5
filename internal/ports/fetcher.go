package ports

import "context"

// Fetcher retrieves the body of a URL.
// Implementations are synchronous and do not retry.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// LinkExtractor parses an HTML document and returns the href of every
// hyperlink element, in document order. Anchors without an href are omitted.
type LinkExtractor interface {
	Links(document []byte) ([]string, error)
}
