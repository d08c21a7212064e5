package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// Hasher returns registered digests and counts invocations per URL.
type Hasher struct {
	mu      sync.Mutex
	digests map[string]string
	errors  map[string]error
	calls   map[string]int
	order   []string
}

// NewHasher creates an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{
		digests: make(map[string]string),
		errors:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// AddDigest registers the digest returned for url.
func (h *Hasher) AddDigest(url, digest string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.digests[url] = digest
	delete(h.errors, url)
}

// AddUnavailable makes Hash report url as missing, like a 404.
func (h *Hasher) AddUnavailable(url string) {
	h.AddError(url, fmt.Errorf("%w: exit status 1", mirror.ErrArtifactUnavailable))
}

// AddError makes Hash fail for url with err.
func (h *Hasher) AddError(url string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors[url] = err
	delete(h.digests, url)
}

// Hash returns the registered digest.
func (h *Hasher) Hash(_ context.Context, url string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls[url]++
	h.order = append(h.order, url)
	if err, ok := h.errors[url]; ok {
		return "", err
	}
	if digest, ok := h.digests[url]; ok {
		return digest, nil
	}
	return "", fmt.Errorf("%w: no mock digest for %s", mirror.ErrArtifactUnavailable, url)
}

// CallCount returns how many times url was hashed.
func (h *Hasher) CallCount(url string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[url]
}

// Calls returns hashed URLs in invocation order.
func (h *Hasher) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

var _ mirror.Hasher = (*Hasher)(nil)
