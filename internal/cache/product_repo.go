package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// ProductStockKey is the cache key of a product's stock fast path.
func ProductStockKey(productID int64) string {
	return fmt.Sprintf("product:%d:stock", productID)
}

// ProductViewCountKey is the cache key of a product's view counter.
func ProductViewCountKey(productID int64) string {
	return fmt.Sprintf("product:%d:view-count", productID)
}

// ProductCacheRepository holds per-product counters: a stock fast path
// seeded from the source of truth and an eventually-reconciled view
// counter. Counters live without TTL except the stock seed, which expires
// so direct database edits cannot go stale forever.
type ProductCacheRepository struct {
	kv  *KeyValueCache
	ttl time.Duration
}

// NewProductCacheRepository creates the repository. Pass ttl <= 0 to use
// DefaultDataTTL for the stock seed.
func NewProductCacheRepository(kv *KeyValueCache, ttl time.Duration) *ProductCacheRepository {
	if ttl <= 0 {
		ttl = DefaultDataTTL
	}
	return &ProductCacheRepository{kv: kv, ttl: ttl}
}

// GetProductStock returns the cached stock count, or false when absent or
// unreadable.
func (r *ProductCacheRepository) GetProductStock(ctx context.Context, productID int64) (int64, bool) {
	data, ok := r.kv.Get(ctx, ProductStockKey(productID))
	if !ok {
		return 0, false
	}
	stock, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return stock, true
}

// SetProductStockIfAbsent seeds the stock cache only when no entry exists,
// so a seed read never clobbers a newer value written by a concurrent
// decrement. Reports whether this call created the entry.
func (r *ProductCacheRepository) SetProductStockIfAbsent(ctx context.Context, productID, stock int64) bool {
	value := []byte(strconv.FormatInt(stock, 10))
	return r.kv.SetIfAbsent(ctx, ProductStockKey(productID), value, r.ttl)
}

// IncrementProductStock adds delta to the cached stock counter.
func (r *ProductCacheRepository) IncrementProductStock(ctx context.Context, productID, delta int64) (int64, bool) {
	return r.kv.Increment(ctx, ProductStockKey(productID), delta)
}

// DecrementProductStock subtracts delta from the cached stock counter.
// A missing counter is created from zero by the backend, so a negative
// result means the decrement ran against an entry that was never seeded.
// Real stock never goes below zero. The bogus entry is dropped so the next
// read reseeds from the source of truth instead of serving it.
func (r *ProductCacheRepository) DecrementProductStock(ctx context.Context, productID, delta int64) (int64, bool) {
	stock, ok := r.kv.Decrement(ctx, ProductStockKey(productID), delta)
	if ok && stock < 0 {
		r.kv.Delete(ctx, ProductStockKey(productID))
		return 0, false
	}
	return stock, ok
}

// DeleteProductStock drops the stock entry after any product mutation; the
// next stock read repopulates it from the source of truth.
func (r *ProductCacheRepository) DeleteProductStock(ctx context.Context, productID int64) bool {
	return r.kv.Delete(ctx, ProductStockKey(productID))
}

// IncrementProductViewCount bumps the view counter. Callers treat this as
// fire-and-forget; a false result means the count is currently unknown.
func (r *ProductCacheRepository) IncrementProductViewCount(ctx context.Context, productID, delta int64) (int64, bool) {
	return r.kv.Increment(ctx, ProductViewCountKey(productID), delta)
}

// GetProductViewCount returns the current view counter value.
func (r *ProductCacheRepository) GetProductViewCount(ctx context.Context, productID int64) (int64, bool) {
	data, ok := r.kv.Get(ctx, ProductViewCountKey(productID))
	if !ok {
		return 0, false
	}
	count, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}
