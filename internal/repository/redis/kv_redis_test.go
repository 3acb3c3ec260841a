package redis

import (
	"context"
	"testing"
	"time"

	"github.com/bmsuite/bms-session-server/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisKVStore(t *testing.T) (*RedisKVStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	return NewRedisKVStore(client), mr
}

func TestRedisKVStore_SetGet(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store, _ := newTestRedisKVStore(t)

		err := store.Set(ctx, "key1", []byte("value1"), time.Hour)
		require.NoError(t, err)

		value, err := store.Get(ctx, "key1")
		require.NoError(t, err)
		assert.Equal(t, []byte("value1"), value)
	})

	t.Run("NotFound", func(t *testing.T) {
		store, _ := newTestRedisKVStore(t)

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrKeyNotFound)
	})

	t.Run("TTLIsApplied", func(t *testing.T) {
		store, mr := newTestRedisKVStore(t)

		require.NoError(t, store.Set(ctx, "key1", []byte("v"), time.Hour))
		ttl := mr.TTL("key1")
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	})

	t.Run("KeyVanishesAfterTTL", func(t *testing.T) {
		store, mr := newTestRedisKVStore(t)

		require.NoError(t, store.Set(ctx, "key1", []byte("v"), time.Minute))
		mr.FastForward(2 * time.Minute)

		_, err := store.Get(ctx, "key1")
		assert.ErrorIs(t, err, repository.ErrKeyNotFound)
	})
}

func TestRedisKVStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesAllKeys", func(t *testing.T) {
		store, _ := newTestRedisKVStore(t)

		require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))

		err := store.Delete(ctx, "a", "b", "missing")
		require.NoError(t, err)

		_, err = store.Get(ctx, "a")
		assert.ErrorIs(t, err, repository.ErrKeyNotFound)
		_, err = store.Get(ctx, "b")
		assert.ErrorIs(t, err, repository.ErrKeyNotFound)
	})

	t.Run("NoKeysIsANoOp", func(t *testing.T) {
		store, _ := newTestRedisKVStore(t)
		assert.NoError(t, store.Delete(ctx))
	})
}
