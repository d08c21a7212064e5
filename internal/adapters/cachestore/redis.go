package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// RedisStore keeps records as JSON values of one Redis hash, keyed by URL.
type RedisStore struct {
	client *redis.Client
	key    string
}

var (
	_ mirror.Cache  = (*RedisStore)(nil)
	_ mirror.Lister = (*RedisStore)(nil)
)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// OpenRedis connects to addr and checks the server is reachable.
func OpenRedis(ctx context.Context, addr string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache %s: %w", addr, err)
	}
	return NewRedisStore(client, key), nil
}

// Get looks up url.
func (s *RedisStore) Get(ctx context.Context, url string) (mirror.Record, bool, error) {
	raw, err := s.client.HGet(ctx, s.key, url).Bytes()
	if errors.Is(err, redis.Nil) {
		return mirror.Record{}, false, nil
	}
	if err != nil {
		return mirror.Record{}, false, fmt.Errorf("redis cache: %w", err)
	}

	r, err := decodeRedisValue(url, raw)
	if err != nil {
		return mirror.Record{}, false, err
	}
	return r, true, nil
}

// Set writes the record for url.
func (s *RedisStore) Set(ctx context.Context, url string, record mirror.Record) error {
	raw, err := json.Marshal(toDTO(record))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if err := s.client.HSet(ctx, s.key, url, raw).Err(); err != nil {
		return fmt.Errorf("%w: redis: %w", ErrSaveFailed, err)
	}
	return nil
}

// Entries returns every stored record keyed by URL.
func (s *RedisStore) Entries(ctx context.Context) (map[string]mirror.Record, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}

	records := make(map[string]mirror.Record, len(all))
	for url, raw := range all {
		r, err := decodeRedisValue(url, []byte(raw))
		if err != nil {
			return nil, err
		}
		records[url] = r
	}
	return records, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRedisValue(url string, raw []byte) (mirror.Record, error) {
	var dto recordDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return mirror.Record{}, fmt.Errorf("%w: entry %q: %w", mirror.ErrCacheCorrupt, url, err)
	}
	return fromDTO(url, dto)
}
