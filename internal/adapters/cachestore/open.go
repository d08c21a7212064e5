package cachestore

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// Store is a cache that can list its entries and must be closed.
type Store interface {
	mirror.Cache
	mirror.Lister
	io.Closer
	// Location describes where the records live, for display.
	Location() string
}

// Open creates the backend selected by cfg.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return nopCloser{NewFileStore(cfg.FilePath()), Describe(cfg)}, nil
	case config.BackendMemory:
		return nopCloser{NewMemoryStore(), Describe(cfg)}, nil
	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.FilePath())
		if err != nil {
			return nil, err
		}
		return closer{s, s, Describe(cfg)}, nil
	case config.BackendRedis:
		s, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		return closer{s, s, Describe(cfg)}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Describe returns where the backend selected by cfg keeps its records,
// without opening it.
func Describe(cfg config.CacheConfig) string {
	switch cfg.Backend {
	case config.BackendMemory:
		return "memory"
	case config.BackendSQLite:
		return "sqlite://" + cfg.FilePath()
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d#%s", cfg.RedisAddr, cfg.RedisDB, cfg.RedisKey)
	default:
		return cfg.FilePath()
	}
}

type listingCache interface {
	mirror.Cache
	mirror.Lister
}

type nopCloser struct {
	listingCache
	location string
}

func (nopCloser) Close() error       { return nil }
func (n nopCloser) Location() string { return n.location }

type closer struct {
	listingCache
	io.Closer
	location string
}

func (c closer) Location() string { return c.location }
