package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/joonhak/tripmarket/internal/domain"
)

const (
	// curationNamespace prefixes every curation cache key. The plain
	// namespace string is itself the key of the full curation list, so a
	// single prefix delete wipes the list and every cursor page.
	curationNamespace = "curations"

	// DefaultDataTTL applies to curation and product data caches.
	DefaultDataTTL = time.Hour
)

// CurationProductsKey builds the cache key for one cursor page of a
// curation. All three pagination parameters are part of the key, so
// distinct cursor/size combinations never collide. A nil cursor is encoded
// as the literal "null".
func CurationProductsKey(curationID int64, cursorID *int64, size int) string {
	cursor := "null"
	if cursorID != nil {
		cursor = strconv.FormatInt(*cursorID, 10)
	}
	return fmt.Sprintf("%s:%d:cursor:%s:size:%d", curationNamespace, curationID, cursor, size)
}

// CurationCacheRepository caches the exposed-curation list and per-cursor
// product pages. All reads degrade to a miss on any failure.
type CurationCacheRepository struct {
	kv  *KeyValueCache
	ttl time.Duration
}

// NewCurationCacheRepository creates the repository. Pass ttl <= 0 to use
// DefaultDataTTL.
func NewCurationCacheRepository(kv *KeyValueCache, ttl time.Duration) *CurationCacheRepository {
	if ttl <= 0 {
		ttl = DefaultDataTTL
	}
	return &CurationCacheRepository{kv: kv, ttl: ttl}
}

// GetCurations returns the cached curation list, or an empty slice on miss
// or decode failure. Callers cannot distinguish "not cached" from "cached
// empty" because empty lists are never stored.
func (r *CurationCacheRepository) GetCurations(ctx context.Context) []domain.CurationCache {
	data, ok := r.kv.Get(ctx, curationNamespace)
	if !ok {
		return nil
	}
	var curations []domain.CurationCache
	if err := json.Unmarshal(data, &curations); err != nil {
		// A corrupt entry behaves like a miss; the next populate
		// overwrites it.
		return nil
	}
	return curations
}

// SetCurations stores the full curation list under the fixed list key.
func (r *CurationCacheRepository) SetCurations(ctx context.Context, curations []domain.CurationCache) {
	data, err := json.Marshal(curations)
	if err != nil {
		return
	}
	r.kv.Set(ctx, curationNamespace, data, r.ttl)
}

// GetCurationProducts returns the cached page for the exact
// (curationID, cursorID, size) triple.
func (r *CurationCacheRepository) GetCurationProducts(ctx context.Context, curationID int64, cursorID *int64, size int) (*domain.CurationProductCache, bool) {
	data, ok := r.kv.Get(ctx, CurationProductsKey(curationID, cursorID, size))
	if !ok {
		return nil, false
	}
	var page domain.CurationProductCache
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

// SetCurationProducts stores one cursor page under its triple key.
func (r *CurationCacheRepository) SetCurationProducts(ctx context.Context, curationID int64, cursorID *int64, size int, page domain.CurationProductCache) {
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	r.kv.Set(ctx, CurationProductsKey(curationID, cursorID, size), data, r.ttl)
}

// DeleteAll wipes the curation namespace: the list cache and every cached
// cursor page. Invoked whenever a curation is created or modified, trading
// a full namespace flush for read-after-write consistency. Curation lists
// are low-cardinality and rarely written, so the flush is cheap.
func (r *CurationCacheRepository) DeleteAll(ctx context.Context) int {
	return r.kv.DeleteByPrefix(ctx, curationNamespace)
}
