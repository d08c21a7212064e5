package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// Cache is an in-memory mirror.Cache that records writes and can be told
// to fail.
type Cache struct {
	mu      sync.Mutex
	records map[string]mirror.Record
	sets    []string
	GetErr  error
	SetErr  error
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]mirror.Record)}
}

// Get returns the stored record.
func (c *Cache) Get(_ context.Context, url string) (mirror.Record, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return mirror.Record{}, false, c.GetErr
	}
	r, ok := c.records[url]
	return r, ok, nil
}

// Set stores the record.
func (c *Cache) Set(_ context.Context, url string, record mirror.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SetErr != nil {
		return c.SetErr
	}
	c.records[url] = record
	c.sets = append(c.sets, url)
	return nil
}

// Has reports whether url is stored.
func (c *Cache) Has(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.records[url]
	return ok
}

// Sets returns the URLs written, in order.
func (c *Cache) Sets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sets...)
}

var _ mirror.Cache = (*Cache)(nil)
