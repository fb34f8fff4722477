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

// ProductService dispatches reads and writes to per-category strategies and
// keeps the per-product counter caches in line: mutations drop the stock
// key, detail reads bump the view counter.
type ProductService struct {
	strategies *StrategyRegistry
	store      ProductStore
	cache      *cache.ProductCacheRepository
	log        *slog.Logger
}

func NewProductService(strategies *StrategyRegistry, store ProductStore, cacheRepo *cache.ProductCacheRepository) *ProductService {
	return &ProductService{
		strategies: strategies,
		store:      store,
		cache:      cacheRepo,
		log:        logging.Op(),
	}
}

// FindProducts returns one cursor page of products, optionally filtered by
// a name substring. The listing is served straight from the source of
// truth; only per-product counters are cached.
func (s *ProductService) FindProducts(ctx context.Context, cursorID *int64, size int, name string) (pagination.CursorPage[domain.ProductSummary], error) {
	ctx, span := observability.StartSpan(ctx, "product.find_all")
	defer span.End()

	size = pagination.NormalizeSize(size)
	rows, err := s.store.ListProducts(ctx, cursorID, size+1, name)
	if err != nil {
		observability.SetSpanError(span, err)
		return pagination.CursorPage[domain.ProductSummary]{}, err
	}

	summaries := make([]domain.ProductSummary, len(rows))
	for i := range rows {
		summaries[i] = rows[i].Summary()
	}
	return pagination.NewCursorPage(summaries, size, func(p domain.ProductSummary) int64 { return p.ID }), nil
}

// FindProduct loads one product through its category strategy and bumps the
// view counter best-effort. A failed bump leaves ViewCount at zero and
// never fails the read.
func (s *ProductService) FindProduct(ctx context.Context, category domain.Category, id int64) (*domain.ProductDetail, error) {
	ctx, span := observability.StartSpan(ctx, "product.find",
		attribute.String("product.category", category.String()),
		attribute.Int64("product.id", id))
	defer span.End()

	strategy, err := s.strategies.Lookup(category)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}
	product, err := strategy.FindByProductID(ctx, id)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}

	detail := &domain.ProductDetail{Product: *product}
	if count, ok := s.cache.IncrementProductViewCount(ctx, id, 1); ok {
		detail.ViewCount = count
	}
	return detail, nil
}

// CreateProduct persists a product through its category strategy, then
// drops the stock cache key so the next stock read reseeds from the source
// of truth.
func (s *ProductService) CreateProduct(ctx context.Context, cmd domain.CreateProductCommand) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "product.create",
		attribute.String("product.category", cmd.Category.String()))
	defer span.End()

	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	strategy, err := s.strategies.Lookup(cmd.Category)
	if err != nil {
		observability.SetSpanError(span, err)
		return 0, err
	}
	id, err := strategy.CreateProduct(ctx, cmd)
	if err != nil {
		observability.SetSpanError(span, err)
		return 0, err
	}

	s.cache.DeleteProductStock(ctx, id)
	s.log.Info("product created", "product_id", id, "category", cmd.Category)
	return id, nil
}

// UpdateProduct replaces a product's fields, then invalidates its stock
// cache entry.
func (s *ProductService) UpdateProduct(ctx context.Context, category domain.Category, id int64, cmd domain.UpdateProductCommand) error {
	ctx, span := observability.StartSpan(ctx, "product.update",
		attribute.String("product.category", category.String()),
		attribute.Int64("product.id", id))
	defer span.End()

	if err := cmd.Validate(); err != nil {
		return err
	}
	strategy, err := s.strategies.Lookup(category)
	if err != nil {
		observability.SetSpanError(span, err)
		return err
	}
	if err := strategy.UpdateProduct(ctx, id, cmd); err != nil {
		observability.SetSpanError(span, err)
		return err
	}

	s.cache.DeleteProductStock(ctx, id)
	return nil
}

// DeleteProduct removes a product, then invalidates its stock cache entry.
func (s *ProductService) DeleteProduct(ctx context.Context, category domain.Category, id int64) error {
	ctx, span := observability.StartSpan(ctx, "product.delete",
		attribute.String("product.category", category.String()),
		attribute.Int64("product.id", id))
	defer span.End()

	strategy, err := s.strategies.Lookup(category)
	if err != nil {
		observability.SetSpanError(span, err)
		return err
	}
	if err := strategy.DeleteProduct(ctx, id); err != nil {
		observability.SetSpanError(span, err)
		return err
	}

	s.cache.DeleteProductStock(ctx, id)
	return nil
}

// GetProductStock reads stock cache-first, seeding the cache from the
// source of truth on a miss. The seed uses set-if-absent so it never
// clobbers a value a concurrent decrement just wrote.
func (s *ProductService) GetProductStock(ctx context.Context, id int64) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "product.stock",
		attribute.Int64("product.id", id))
	defer span.End()

	if stock, ok := s.cache.GetProductStock(ctx, id); ok {
		return stock, nil
	}
	stock, err := s.store.GetProductStock(ctx, id)
	if err != nil {
		observability.SetSpanError(span, err)
		return 0, err
	}
	s.cache.SetProductStockIfAbsent(ctx, id, stock)
	return stock, nil
}

// DecrementStock takes quantity units out of a product's stock. The source
// of truth enforces the not-below-zero invariant; on success the cached
// counter is decremented to match, best-effort.
func (s *ProductService) DecrementStock(ctx context.Context, id, quantity int64) error {
	ctx, span := observability.StartSpan(ctx, "product.decrement_stock",
		attribute.Int64("product.id", id),
		attribute.Int64("quantity", quantity))
	defer span.End()

	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d: %w", quantity, domain.ErrInvalid)
	}
	if err := s.store.DecrementProductStock(ctx, id, quantity); err != nil {
		observability.SetSpanError(span, err)
		return err
	}
	s.cache.DecrementProductStock(ctx, id, quantity)
	return nil
}
