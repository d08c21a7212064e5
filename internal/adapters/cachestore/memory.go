package cachestore

import (
	"context"
	"maps"
	"sync"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// MemoryStore is a process-local cache. Nothing survives the run.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]mirror.Record
}

var (
	_ mirror.Cache  = (*MemoryStore)(nil)
	_ mirror.Lister = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]mirror.Record)}
}

// Get looks up url.
func (s *MemoryStore) Get(_ context.Context, url string) (mirror.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[url]
	return r, ok, nil
}

// Set stores record under url.
func (s *MemoryStore) Set(_ context.Context, url string, record mirror.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[url] = record
	return nil
}

// Entries returns a copy of the stored records.
func (s *MemoryStore) Entries(_ context.Context) (map[string]mirror.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.records), nil
}
