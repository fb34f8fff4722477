package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joonhak/tripmarket/internal/cache"
	"github.com/joonhak/tripmarket/internal/domain"
)

// deadStore fails every cache operation, simulating an unreachable backend.
type deadStore struct{}

var errCacheDown = errors.New("connection refused")

func (deadStore) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (deadStore) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (deadStore) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errCacheDown
}
func (deadStore) Delete(context.Context, string) (bool, error) { return false, errCacheDown }
func (deadStore) DeleteByPrefix(context.Context, string) (int, error) {
	return 0, errCacheDown
}
func (deadStore) IncrBy(context.Context, string, int64) (int64, error) { return 0, errCacheDown }
func (deadStore) DecrBy(context.Context, string, int64) (int64, error) { return 0, errCacheDown }
func (deadStore) Ping(context.Context) error                           { return errCacheDown }
func (deadStore) Close() error                                         { return nil }

func newCurationFixture(t *testing.T, backend cache.Store) (*CurationService, *fakeStore) {
	t.Helper()
	if backend == nil {
		mem := cache.NewInMemoryStore()
		t.Cleanup(func() { mem.Close() })
		backend = mem
	}
	store := newFakeStore()
	repo := cache.NewCurationCacheRepository(cache.NewKeyValueCache(backend), 0)
	return NewCurationService(store, store, repo), store
}

func seedCurations(store *fakeStore) {
	for id := int64(1); id <= 2; id++ {
		store.addProduct(id, domain.CategoryTicket, "seoul tower pass", 10)
	}
	store.addCuration(1, "summer picks", 2, 1, 2)
	store.addCuration(2, "weekend escapes", 1, 1)
	store.addCuration(3, "city breaks", 3, 2)
	store.addCuration(4, "island hopping", 4, 1, 2)
	store.addCuration(5, "last minute", 5, 2)
}

func TestFindCurations_ReadThrough(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	seedCurations(store)
	ctx := context.Background()

	got, err := svc.FindCurations(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 curations, got %d", len(got))
	}
	// Ordered by sort order, not id.
	if got[0].Title != "weekend escapes" || got[1].Title != "summer picks" {
		t.Fatalf("unexpected order: %v", got)
	}
	if store.listExposedCalls != 1 {
		t.Fatalf("expected 1 source query, got %d", store.listExposedCalls)
	}

	// Second call is served from the populated cache.
	again, err := svc.FindCurations(ctx)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(again) != 5 || again[0] != got[0] {
		t.Fatalf("cached result diverged: %v", again)
	}
	if store.listExposedCalls != 1 {
		t.Fatalf("expected cached read, source queried %d times", store.listExposedCalls)
	}
}

func TestFindCurations_EmptyResultNotCached(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.FindCurations(ctx)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no curations, got %v", got)
		}
	}
	// Empty lists are never cached, so both calls hit the source.
	if store.listExposedCalls != 2 {
		t.Fatalf("expected 2 source queries, got %d", store.listExposedCalls)
	}
}

func TestFindCurations_CacheBackendDown(t *testing.T) {
	svc, store := newCurationFixture(t, deadStore{})
	seedCurations(store)
	ctx := context.Background()

	// A dead cache must degrade to the source, never fail the read.
	for i := 1; i <= 2; i++ {
		got, err := svc.FindCurations(ctx)
		if err != nil {
			t.Fatalf("find with dead cache: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("expected 5 curations, got %d", len(got))
		}
		if store.listExposedCalls != i {
			t.Fatalf("expected every call to reach the source, got %d after %d calls", store.listExposedCalls, i)
		}
	}
}

func TestFindCurationProducts_PageCachedPerTriple(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	seedCurations(store)
	ctx := context.Background()

	got, err := svc.FindCurationProducts(ctx, 1, nil, 10)
	if err != nil {
		t.Fatalf("find products: %v", err)
	}
	if got.Curation.ID != 1 || got.Curation.Title != "summer picks" {
		t.Fatalf("unexpected curation header: %+v", got.Curation)
	}
	if len(got.Products.Content) != 2 || got.Products.HasNext {
		t.Fatalf("unexpected page: %+v", got.Products)
	}
	if store.listCurationProduct != 1 {
		t.Fatalf("expected 1 source query, got %d", store.listCurationProduct)
	}

	// Same triple, served from cache.
	if _, err := svc.FindCurationProducts(ctx, 1, nil, 10); err != nil {
		t.Fatalf("find products: %v", err)
	}
	if store.listCurationProduct != 1 {
		t.Fatalf("expected cached page, source queried %d times", store.listCurationProduct)
	}

	// A different size is a different cache entry.
	if _, err := svc.FindCurationProducts(ctx, 1, nil, 20); err != nil {
		t.Fatalf("find products: %v", err)
	}
	if store.listCurationProduct != 2 {
		t.Fatalf("expected a fresh query for the new size, got %d", store.listCurationProduct)
	}
}

func TestFindCurationProducts_CursorWalk(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	ids := make([]int64, 0, 25)
	for id := int64(1); id <= 25; id++ {
		store.addProduct(id, domain.CategoryAccommodation, "hanok stay", 5)
		ids = append(ids, id)
	}
	store.addCuration(1, "hanok stays", 1, ids...)
	ctx := context.Background()

	first, err := svc.FindCurationProducts(ctx, 1, nil, 10)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Products.Content) != 10 {
		t.Fatalf("expected 10 items, got %d", len(first.Products.Content))
	}
	if first.Products.Content[0].ID != 25 || first.Products.Content[9].ID != 16 {
		t.Fatalf("expected ids 25..16, got %d..%d",
			first.Products.Content[0].ID, first.Products.Content[9].ID)
	}
	if !first.Products.HasNext || *first.Products.NextCursorID != 16 {
		t.Fatalf("expected next cursor 16, got %+v", first.Products)
	}

	// The inclusive bound re-serves id 16 as the first element of page two.
	second, err := svc.FindCurationProducts(ctx, 1, first.Products.NextCursorID, 10)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if second.Products.Content[0].ID != 16 || second.Products.Content[9].ID != 7 {
		t.Fatalf("expected ids 16..7, got %d..%d",
			second.Products.Content[0].ID, second.Products.Content[9].ID)
	}
	if !second.Products.HasNext || *second.Products.NextCursorID != 7 {
		t.Fatalf("expected next cursor 7, got %+v", second.Products)
	}

	third, err := svc.FindCurationProducts(ctx, 1, second.Products.NextCursorID, 10)
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Products.Content) != 7 || third.Products.Content[0].ID != 7 {
		t.Fatalf("expected 7 items starting at id 7, got %+v", third.Products)
	}
	if third.Products.HasNext || third.Products.NextCursorID != nil {
		t.Fatal("expected final page to report no next cursor")
	}
}

func TestFindCurationProducts_UnknownCuration(t *testing.T) {
	svc, _ := newCurationFixture(t, nil)

	_, err := svc.FindCurationProducts(context.Background(), 99, nil, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCuration_FlushesCache(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	seedCurations(store)
	ctx := context.Background()

	// Warm the list and one page.
	if _, err := svc.FindCurations(ctx); err != nil {
		t.Fatalf("warm list: %v", err)
	}
	if _, err := svc.FindCurationProducts(ctx, 1, nil, 10); err != nil {
		t.Fatalf("warm page: %v", err)
	}

	id, err := svc.CreateCuration(ctx, domain.CreateCurationCommand{
		Title:      "new arrivals",
		Exposed:    true,
		SortOrder:  0,
		ProductIDs: []int64{1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 6 {
		t.Fatalf("expected id 6, got %d", id)
	}

	// Both the list and the page cache were flushed.
	got, err := svc.FindCurations(ctx)
	if err != nil {
		t.Fatalf("find after create: %v", err)
	}
	if len(got) != 6 || got[0].Title != "new arrivals" {
		t.Fatalf("expected fresh list with new curation first, got %v", got)
	}
	if store.listExposedCalls != 2 {
		t.Fatalf("expected list re-query after flush, got %d", store.listExposedCalls)
	}
	if _, err := svc.FindCurationProducts(ctx, 1, nil, 10); err != nil {
		t.Fatalf("find page after create: %v", err)
	}
	if store.listCurationProduct != 2 {
		t.Fatalf("expected page re-query after flush, got %d", store.listCurationProduct)
	}
}

func TestCreateCuration_UnknownProductRef(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	store.addProduct(1, domain.CategoryTicket, "pass", 1)
	ctx := context.Background()

	_, err := svc.CreateCuration(ctx, domain.CreateCurationCommand{
		Title:      "broken",
		ProductIDs: []int64{1, 42},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for product 42, got %v", err)
	}
	if len(store.curations) != 0 {
		t.Fatal("nothing must be persisted when a product reference is unknown")
	}
}

func TestCreateCuration_Validation(t *testing.T) {
	svc, _ := newCurationFixture(t, nil)
	ctx := context.Background()

	cases := []domain.CreateCurationCommand{
		{Title: "", ProductIDs: []int64{1}},
		{Title: "no products"},
		{Title: "dup", ProductIDs: []int64{1, 1}},
	}
	for _, cmd := range cases {
		if _, err := svc.CreateCuration(ctx, cmd); err == nil {
			t.Fatalf("expected validation error for %+v", cmd)
		}
	}
}

func TestUpdateCuration_FlushesCache(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	seedCurations(store)
	ctx := context.Background()

	if _, err := svc.FindCurations(ctx); err != nil {
		t.Fatalf("warm list: %v", err)
	}

	err := svc.UpdateCuration(ctx, 2, domain.UpdateCurationCommand{
		Title:      "weekend escapes v2",
		Exposed:    true,
		SortOrder:  1,
		ProductIDs: []int64{2},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.FindCurations(ctx)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got[0].Title != "weekend escapes v2" {
		t.Fatalf("expected updated title to surface, got %v", got[0])
	}
	if store.listExposedCalls != 2 {
		t.Fatalf("expected re-query after flush, got %d", store.listExposedCalls)
	}
}

func TestUpdateCuration_NotFound(t *testing.T) {
	svc, store := newCurationFixture(t, nil)
	store.addProduct(1, domain.CategoryTicket, "pass", 1)

	err := svc.UpdateCuration(context.Background(), 99, domain.UpdateCurationCommand{
		Title:      "ghost",
		ProductIDs: []int64{1},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
