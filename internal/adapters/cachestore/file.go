// Package cachestore provides mirror.Cache backends: a single file (the
// default), an in-memory map, SQLite, and Redis.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// ErrSaveFailed is returned when the cache could not be persisted.
var ErrSaveFailed = errors.New("cache save failed")

// FileStore keeps the whole cache in one file. Every Get reads the file and
// every Set rewrites it, so an interrupted run loses at most the entry being
// written.
type FileStore struct {
	path  string
	codec codec
	mu    sync.Mutex
}

var (
	_ mirror.Cache  = (*FileStore)(nil)
	_ mirror.Lister = (*FileStore)(nil)
)

// NewFileStore creates a FileStore at path. The syntax follows the
// extension: .json, .toml, or YAML for anything else.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, codec: codecFor(path)}
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get looks up url. A missing file is a miss.
func (s *FileStore) Get(_ context.Context, url string) (mirror.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return mirror.Record{}, false, err
	}
	r, ok := records[url]
	return r, ok, nil
}

// Set adds or replaces the record for url and writes the file.
func (s *FileStore) Set(_ context.Context, url string, record mirror.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[url] = record
	return s.save(records)
}

// Entries returns every cached record keyed by URL.
func (s *FileStore) Entries(_ context.Context) (map[string]mirror.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (map[string]mirror.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]mirror.Record), nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	records, err := s.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]mirror.Record) error {
	data, err := s.codec.encode(records)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: failed to create directory: %w", ErrSaveFailed, err)
		}
	}

	// Write atomically by writing to temp file first
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}
