// Package htmlindex extracts hyperlinks from directory index pages.
package htmlindex

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// maxTokenBuf bounds a single token, so a page with an unterminated tag
// fails instead of buffering without limit.
const maxTokenBuf = 1 << 20

// Extractor returns the href of every <a> element in document order.
type Extractor struct{}

var _ ports.LinkExtractor = Extractor{}

// New creates an Extractor.
func New() Extractor {
	return Extractor{}
}

// Links tokenizes document and collects anchor targets. Anchors without an
// href attribute are skipped; an empty href is returned as "". Attribute
// values are entity-decoded.
func (Extractor) Links(document []byte) ([]string, error) {
	var hrefs []string

	tokenizer := html.NewTokenizer(bytes.NewReader(document))
	tokenizer.SetMaxBuf(maxTokenBuf)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return hrefs, nil
			}
			return nil, fmt.Errorf("HTML tokenizer error: %w", err)

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if !hasAttr || !strings.EqualFold(string(name), "a") {
				continue
			}
			if href, ok := hrefOf(tokenizer); ok {
				hrefs = append(hrefs, href)
			}
		}
	}
}

func hrefOf(tokenizer *html.Tokenizer) (string, bool) {
	for {
		key, val, more := tokenizer.TagAttr()
		if strings.EqualFold(string(key), "href") {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}
