package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/joonhak/tripmarket/internal/cache"
	"github.com/joonhak/tripmarket/internal/domain"
	"github.com/joonhak/tripmarket/internal/logging"
	"github.com/joonhak/tripmarket/internal/observability"
	"github.com/joonhak/tripmarket/internal/pagination"
)

// CurationService serves the curation browse path: cache-aside reads over
// the source of truth, and writes that flush the curation cache namespace.
//
// Persistence and invalidation are two separate steps with no transactional
// coupling; a crash between them leaves a stale entry until its TTL
// expires. That staleness window is accepted for this domain.
type CurationService struct {
	curations CurationStore
	products  ProductStore
	cache     *cache.CurationCacheRepository
	log       *slog.Logger
}

func NewCurationService(curations CurationStore, products ProductStore, cacheRepo *cache.CurationCacheRepository) *CurationService {
	return &CurationService{
		curations: curations,
		products:  products,
		cache:     cacheRepo,
		log:       logging.Op(),
	}
}

// FindCurations returns every exposed curation ordered by sort order,
// serving from cache when possible.
//
// An empty source result is never cached, so a zero-curation catalog
// re-queries the source on every call. Kept intentionally: caching "empty"
// would hide a freshly exposed curation for up to a TTL.
func (s *CurationService) FindCurations(ctx context.Context) ([]domain.CurationSummary, error) {
	ctx, span := observability.StartSpan(ctx, "curation.find_all")
	defer span.End()

	if cached := s.cache.GetCurations(ctx); len(cached) > 0 {
		summaries := make([]domain.CurationSummary, len(cached))
		for i, c := range cached {
			summaries[i] = c.Summary()
		}
		return summaries, nil
	}

	curations, err := s.curations.ListExposedCurations(ctx)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}

	if len(curations) > 0 {
		entries := make([]domain.CurationCache, len(curations))
		for i := range curations {
			entries[i] = curations[i].CacheEntry()
		}
		// One write for the whole list, not per item.
		s.cache.SetCurations(ctx, entries)
	}

	summaries := make([]domain.CurationSummary, len(curations))
	for i := range curations {
		summaries[i] = curations[i].Summary()
	}
	return summaries, nil
}

// FindCurationProducts returns one cursor page of a curation's products.
// Pages are cached per (curationID, cursorID, size) triple.
func (s *CurationService) FindCurationProducts(ctx context.Context, curationID int64, cursorID *int64, size int) (domain.CurationProducts, error) {
	ctx, span := observability.StartSpan(ctx, "curation.find_products",
		attribute.Int64("curation.id", curationID))
	defer span.End()

	size = pagination.NormalizeSize(size)

	if cached, ok := s.cache.GetCurationProducts(ctx, curationID, cursorID, size); ok {
		return cached.Read(), nil
	}

	curation, err := s.curations.GetCuration(ctx, curationID)
	if err != nil {
		observability.SetSpanError(span, err)
		return domain.CurationProducts{}, err
	}

	// Fetch one extra row to learn whether a further page exists.
	rows, err := s.curations.ListCurationProducts(ctx, curationID, cursorID, size+1)
	if err != nil {
		observability.SetSpanError(span, err)
		return domain.CurationProducts{}, err
	}

	summaries := make([]domain.ProductSummary, len(rows))
	for i := range rows {
		summaries[i] = rows[i].Summary()
	}
	page := pagination.NewCursorPage(summaries, size, func(p domain.ProductSummary) int64 { return p.ID })

	s.cache.SetCurationProducts(ctx, curationID, cursorID, size, domain.CurationProductCache{
		Curation: curation.CacheEntry(),
		Page:     page,
	})

	return domain.CurationProducts{Curation: curation.Summary(), Products: page}, nil
}

// CreateCuration validates the referenced products, persists the curation,
// and flushes the curation cache namespace. A new curation can change the
// list and any cached cursor page, so the whole namespace goes.
func (s *CurationService) CreateCuration(ctx context.Context, cmd domain.CreateCurationCommand) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "curation.create")
	defer span.End()

	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	if err := s.checkProductsExist(ctx, cmd.ProductIDs); err != nil {
		observability.SetSpanError(span, err)
		return 0, err
	}

	id, err := s.curations.SaveCuration(ctx, domain.NewCuration(cmd))
	if err != nil {
		observability.SetSpanError(span, err)
		return 0, err
	}

	deleted := s.cache.DeleteAll(ctx)
	s.log.Info("curation created", "curation_id", id, "cache_entries_flushed", deleted)
	return id, nil
}

// UpdateCuration replaces a curation and flushes the cache namespace.
func (s *CurationService) UpdateCuration(ctx context.Context, id int64, cmd domain.UpdateCurationCommand) error {
	ctx, span := observability.StartSpan(ctx, "curation.update",
		attribute.Int64("curation.id", id))
	defer span.End()

	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := s.checkProductsExist(ctx, cmd.ProductIDs); err != nil {
		observability.SetSpanError(span, err)
		return err
	}

	curation, err := s.curations.GetCuration(ctx, id)
	if err != nil {
		observability.SetSpanError(span, err)
		return err
	}
	curation.Title = cmd.Title
	curation.Exposed = cmd.Exposed
	curation.SortOrder = cmd.SortOrder
	curation.ProductIDs = cmd.ProductIDs

	if err := s.curations.UpdateCuration(ctx, curation); err != nil {
		observability.SetSpanError(span, err)
		return err
	}

	deleted := s.cache.DeleteAll(ctx)
	s.log.Info("curation updated", "curation_id", id, "cache_entries_flushed", deleted)
	return nil
}

// checkProductsExist bulk-fetches the referenced products and fails on the
// first missing id.
func (s *CurationService) checkProductsExist(ctx context.Context, ids []int64) error {
	found, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
	}
	return nil
}
