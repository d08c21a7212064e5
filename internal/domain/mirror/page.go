package mirror

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// fetchLinks downloads url and returns its hyperlink targets in page order.
func fetchLinks(ctx context.Context, fetcher ports.Fetcher, links ports.LinkExtractor, url string) ([]string, error) {
	body, err := fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %w", ErrTransport, url, err)
	}

	hrefs, err := links.Links(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, url, err)
	}
	return hrefs, nil
}

func debug(ctx context.Context, msg string, fields ...ports.Field) {
	if l := ports.LoggerFromContext(ctx); l != nil {
		l.Debug(ctx, msg, fields...)
	}
}
