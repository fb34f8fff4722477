// Package cache implements the cache-aside layer for curation and product
// browsing: a raw key-value Store (Redis or in-memory), a fail-soft
// KeyValueCache decorator that absorbs backend failures, and the typed
// repositories that encode the cache key schema.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("cache: key not found")

// Store abstracts a key-value store with TTL support. Implementations
// surface backend errors as-is; the fail-soft policy lives one layer up in
// KeyValueCache. All operations are safe for concurrent use.
type Store interface {
	// Get retrieves the value associated with key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL means the entry
	// does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores the value only if the key does not already exist.
	// Reports whether this call created the key.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a key, reporting whether a key was actually removed.
	Delete(ctx context.Context, key string) (bool, error)

	// DeleteByPrefix removes every key starting with prefix and returns
	// the number of keys removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// IncrBy atomically adds delta to the integer value at key, creating
	// it at zero first if absent, and returns the new value.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// DecrBy atomically subtracts delta from the integer value at key.
	DecrBy(ctx context.Context, key string, delta int64) (int64, error)

	// Ping verifies connectivity to the underlying backend.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}
