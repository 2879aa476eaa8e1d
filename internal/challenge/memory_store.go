package challenge

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore builds an in-process store for development and tests.
func NewMemoryStore(ttl time.Duration) Store {
	return newMemoryStore(ttl, time.Now)
}

func newMemoryStore(ttl time.Duration, now func() time.Time) *memoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{ttl: ttl, now: now, entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Issue(_ context.Context, nonce string) (string, error) {
	if err := validateNonce(nonce); err != nil {
		return "", err
	}
	value, err := newChallenge()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[nonce] = memoryEntry{value: value, expiresAt: s.now().Add(s.ttl)}
	return value, nil
}

func (s *memoryStore) Consume(_ context.Context, nonce string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[nonce]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, nonce)
	if !s.now().Before(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.value, nil
}
