package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bmsuite/bms-session-server/internal/repository"
)

type record struct {
	value     []byte
	expiresAt time.Time // zero means no TTL
}

// MemoryKVStore implements KVStore in process memory. Suitable for a single
// instance deployment and for tests.
type MemoryKVStore struct {
	records       map[string]record
	mutex         sync.RWMutex
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// NewMemoryKVStore creates a new in-memory store.
// cleanupInterval defines how often lapsed records are removed in bulk;
// lapsed records are also filtered out on read regardless.
func NewMemoryKVStore(cleanupInterval time.Duration) *MemoryKVStore {
	s := &MemoryKVStore{
		records:       make(map[string]record),
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
	}
	go s.startCleanup()
	return s
}

// startCleanup runs the periodic cleanup in a background goroutine.
func (s *MemoryKVStore) startCleanup() {
	for {
		select {
		case <-s.cleanupTicker.C:
			s.cleanupLapsedRecords()
		case <-s.stopCleanup:
			s.cleanupTicker.Stop()
			return
		}
	}
}

func (s *MemoryKVStore) cleanupLapsedRecords() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	for key, rec := range s.records {
		if !rec.expiresAt.IsZero() && now.After(rec.expiresAt) {
			delete(s.records, key)
		}
	}
}

// StopCleanup stops the background cleanup task. Idempotent use is not
// supported; call once on teardown.
func (s *MemoryKVStore) StopCleanup() {
	close(s.stopCleanup)
}

// Get retrieves a record, treating lapsed records as absent.
func (s *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, exists := s.records[key]
	if !exists {
		return nil, repository.ErrKeyNotFound
	}
	if !rec.expiresAt.IsZero() && time.Now().After(rec.expiresAt) {
		return nil, repository.ErrKeyNotFound
	}
	value := make([]byte, len(rec.value))
	copy(value, rec.value)
	return value, nil
}

// Set stores a record, replacing any previous value under the key.
func (s *MemoryKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rec := record{value: make([]byte, len(value))}
	copy(rec.value, value)
	if ttl > 0 {
		rec.expiresAt = time.Now().Add(ttl)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[key] = rec
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *MemoryKVStore) Delete(ctx context.Context, keys ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

var _ repository.KVStore = (*MemoryKVStore)(nil)
