package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrStoreClosed is returned for operations on a closed store, so the
// fail-soft layer logs the dropped write instead of losing it silently.
var ErrStoreClosed = errors.New("store is closed")

// InMemoryStore is a process-local Store implementation. It serves as the
// default backend when no Redis is configured and as the backend for tests.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	closed  bool
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// NewInMemoryStore creates a new in-memory store with periodic eviction.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[string]*memEntry),
	}
	go s.evictLoop()
	return s
}

// live returns the entry for key if it exists and has not expired.
// Caller must hold mu.
func (s *InMemoryStore) live(key string) (*memEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if entry.expired() {
		delete(s.entries, key)
		return nil, false
	}
	return entry, true
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy to prevent mutation
	cp := make([]byte, len(entry.value))
	copy(cp, entry.value)
	return cp, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = &memEntry{value: cp, expiresAt: expiry(ttl)}
	return nil
}

func (s *InMemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	if _, ok := s.live(key); ok {
		return false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = &memEntry{value: cp, expiresAt: expiry(ttl)}
	return true, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(key)
	delete(s.entries, key)
	return ok, nil
}

func (s *InMemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int
	for key, entry := range s.entries {
		if strings.HasPrefix(key, prefix) {
			if !entry.expired() {
				deleted++
			}
			delete(s.entries, key)
		}
	}
	return deleted, nil
}

// IncrBy mirrors the Redis INCRBY semantics: a missing key starts at zero
// and values are stored as decimal strings.
func (s *InMemoryStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	var current int64
	var expiresAt time.Time
	if entry, ok := s.live(key); ok {
		parsed, err := strconv.ParseInt(string(entry.value), 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
		expiresAt = entry.expiresAt
	}
	current += delta
	s.entries[key] = &memEntry{
		value:     []byte(strconv.FormatInt(current, 10)),
		expiresAt: expiresAt,
	}
	return current, nil
}

func (s *InMemoryStore) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.IncrBy(ctx, key, -delta)
}

func (s *InMemoryStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = map[string]*memEntry{}
	return nil
}

func (s *InMemoryStore) evictLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		for key, entry := range s.entries {
			if entry.expired() {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}
