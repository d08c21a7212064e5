package cachestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// redisAddr returns the server used by the Redis tests, skipping when none
// is configured.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("PLUGMIRROR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PLUGMIRROR_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestRedisStore(t *testing.T) {
	addr := redisAddr(t)
	ctx := context.Background()

	key := "plugmirror:test:" + uuid.NewString()
	store, err := OpenRedis(ctx, addr, 0, key)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.client.Del(context.Background(), key).Err()
		_ = store.Close()
	})

	exerciseCache(t, store)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	addr := redisAddr(t)
	ctx := context.Background()

	key := "plugmirror:test:" + uuid.NewString()
	store, err := OpenRedis(ctx, addr, 0, key)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.client.Del(context.Background(), key).Err()
		_ = store.Close()
	})

	require.NoError(t, store.client.HSet(ctx, key, gitURL, "not json").Err())

	_, _, err = store.Get(ctx, gitURL)
	assert.ErrorIs(t, err, mirror.ErrCacheCorrupt)
	_, err = store.Entries(ctx)
	assert.ErrorIs(t, err, mirror.ErrCacheCorrupt)
}

func TestOpenRedis_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := OpenRedis(ctx, "127.0.0.1:1", 0, "plugmirror:cache")
	assert.Error(t, err)
}
