package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bmsuite/bms-session-server/internal/repository"
	"github.com/redis/go-redis/v9"
)

// RedisKVStore implements KVStore using Redis. TTLs map directly onto key
// expiry so lapsed session records vanish without a sweeper.
type RedisKVStore struct {
	client *redis.Client
}

func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

// Get retrieves a record by key.
func (s *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}
	return value, nil
}

// Set stores a record. A zero ttl stores the key without expiry.
func (s *RedisKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

// Delete removes the given keys in one round trip.
func (s *RedisKVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

var _ repository.KVStore = (*RedisKVStore)(nil)
