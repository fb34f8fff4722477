package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joonhak/tripmarket/internal/logging"
	"github.com/joonhak/tripmarket/internal/metrics"
)

// DefaultTimeout bounds every cache call. A timed-out call is handled like
// any other backend failure.
const DefaultTimeout = time.Second

// KeyValueCache applies the fail-soft policy uniformly over a Store: every
// backend failure is logged and degraded to a cache miss, never returned to
// the caller. Cached data is advisory; its absence may only slow a request
// down, not fail it. Keeping the policy in one decorator means a new method
// cannot accidentally skip it.
type KeyValueCache struct {
	store   Store
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// KVOption configures a KeyValueCache.
type KVOption func(*KeyValueCache)

// WithLogger overrides the logger used for absorbed failures.
func WithLogger(log *slog.Logger) KVOption {
	return func(c *KeyValueCache) { c.log = log }
}

// WithMetrics attaches hit/miss/error counters.
func WithMetrics(m *metrics.Metrics) KVOption {
	return func(c *KeyValueCache) { c.metrics = m }
}

// WithTimeout overrides the per-operation deadline.
func WithTimeout(d time.Duration) KVOption {
	return func(c *KeyValueCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewKeyValueCache wraps a Store with the fail-soft policy.
func NewKeyValueCache(store Store, opts ...KVOption) *KeyValueCache {
	c := &KeyValueCache{
		store:   store,
		log:     logging.Op(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *KeyValueCache) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Get returns the value for key and whether it was present. Backend
// failures are logged at warn level and reported as a miss.
func (c *KeyValueCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	val, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.metrics.CacheMiss("get")
			return nil, false
		}
		c.log.Warn("cache get failed", "key", key, "error", err)
		c.metrics.CacheError("get")
		return nil, false
	}
	c.metrics.CacheHit("get")
	return val, true
}

// Set stores a value. A failed write is logged at error level and otherwise
// dropped; the entry will simply be repopulated on the next read miss.
func (c *KeyValueCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.log.Error("cache set failed", "key", key, "error", err)
		c.metrics.CacheError("set")
	}
}

// SetIfAbsent stores the value only when the key does not exist, reporting
// whether this call created it. Backend failures fail closed (false), so an
// ambiguous outcome never wins a first-writer race.
func (c *KeyValueCache) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	created, err := c.store.SetNX(ctx, key, value, ttl)
	if err != nil {
		c.log.Error("cache setnx failed", "key", key, "error", err)
		c.metrics.CacheError("setnx")
		return false
	}
	return created
}

// Delete removes a key, reporting whether one was removed. Failures are
// logged at error level: a failed invalidation leaves a stale entry behind
// until its TTL expires.
func (c *KeyValueCache) Delete(ctx context.Context, key string) bool {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	removed, err := c.store.Delete(ctx, key)
	if err != nil {
		c.log.Error("cache delete failed", "key", key, "error", err)
		c.metrics.CacheError("delete")
		return false
	}
	return removed
}

// DeleteByPrefix removes every key under prefix and returns the number
// removed (zero on failure).
func (c *KeyValueCache) DeleteByPrefix(ctx context.Context, prefix string) int {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	deleted, err := c.store.DeleteByPrefix(ctx, prefix)
	if err != nil {
		c.log.Error("cache prefix delete failed", "prefix", prefix, "error", err)
		c.metrics.CacheError("delete_prefix")
	}
	return deleted
}

// Increment adds delta to the counter at key. The second return is false
// when the backend failed and the new value is unknown; callers must treat
// that as "unknown, do not block".
func (c *KeyValueCache) Increment(ctx context.Context, key string, delta int64) (int64, bool) {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	val, err := c.store.IncrBy(ctx, key, delta)
	if err != nil {
		c.log.Warn("cache increment failed", "key", key, "error", err)
		c.metrics.CacheError("incr")
		return 0, false
	}
	return val, true
}

// Decrement subtracts delta from the counter at key.
func (c *KeyValueCache) Decrement(ctx context.Context, key string, delta int64) (int64, bool) {
	ctx, cancel := c.deadline(ctx)
	defer cancel()
	val, err := c.store.DecrBy(ctx, key, delta)
	if err != nil {
		c.log.Warn("cache decrement failed", "key", key, "error", err)
		c.metrics.CacheError("decr")
		return 0, false
	}
	return val, true
}
