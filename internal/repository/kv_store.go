package repository

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is absent or its record has expired.
var ErrKeyNotFound = errors.New("key not found")

// KVStore abstracts the per-scope session storage area as get/set/remove of
// raw records. Implementations may be in-memory (single process) or Redis
// (shared); the session store's logic is identical over either.
type KVStore interface {
	// Get retrieves the record stored under key.
	// It returns ErrKeyNotFound if the key is absent or its TTL has lapsed.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a record under key. A non-zero ttl bounds its lifetime;
	// a zero ttl keeps the record until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
