package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	blob      []byte
	counter   int64
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStorage is an in-process Storage used in tests and in deployments
// without redis. Incr holds the lock for the whole read-modify-write, so
// counter updates are atomic per key.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func (s *MemoryStorage) getEntry(key string) *memoryEntry {
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	if entry.expired(time.Now()) {
		delete(s.entries, key)
		return nil
	}
	return entry
}

func (s *MemoryStorage) Get(ctx context.Context, key string, val any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.getEntry(key)
	if entry == nil || entry.blob == nil {
		return ErrNotFound
	}
	return json.Unmarshal(entry.blob, val)
}

func (s *MemoryStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	blob, err := json.Marshal(val)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := &memoryEntry{blob: blob}
	if expiresIn > 0 {
		entry.expiresAt = time.Now().Add(expiresIn)
	}
	s.entries[key] = entry
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getEntry(key) == nil {
		return ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *MemoryStorage) Incr(ctx context.Context, key string, delta int64, expiresIn time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.getEntry(key)
	if entry == nil {
		entry = &memoryEntry{}
		if expiresIn > 0 {
			entry.expiresAt = time.Now().Add(expiresIn)
		}
		s.entries[key] = entry
	}
	entry.counter += delta
	return entry.counter, nil
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*memoryEntry),
	}
}
