package service

import (
	"context"
	"fmt"

	"github.com/joonhak/tripmarket/internal/domain"
)

// ProductStrategy is the per-category capability set. Lookup happens
// through the registry table, so a category without a registered strategy
// is a wiring error surfaced as domain.ErrStrategyMissing, never a nil
// dereference at call time.
type ProductStrategy interface {
	Category() domain.Category
	FindByProductID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, cmd domain.CreateProductCommand) (int64, error)
	UpdateProduct(ctx context.Context, id int64, cmd domain.UpdateProductCommand) error
	DeleteProduct(ctx context.Context, id int64) error
}

// StrategyRegistry maps categories to their strategies.
type StrategyRegistry struct {
	strategies map[domain.Category]ProductStrategy
}

func NewStrategyRegistry(strategies ...ProductStrategy) *StrategyRegistry {
	m := make(map[domain.Category]ProductStrategy, len(strategies))
	for _, s := range strategies {
		m[s.Category()] = s
	}
	return &StrategyRegistry{strategies: m}
}

// Lookup returns the strategy for a category.
func (r *StrategyRegistry) Lookup(category domain.Category) (ProductStrategy, error) {
	s, ok := r.strategies[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, domain.ErrStrategyMissing)
	}
	return s, nil
}

// storeStrategy persists one category through the shared product store,
// pinning every operation to its category.
type storeStrategy struct {
	category domain.Category
	store    ProductStore
}

// NewTicketStrategy handles the ticket category.
func NewTicketStrategy(store ProductStore) ProductStrategy {
	return &storeStrategy{category: domain.CategoryTicket, store: store}
}

// NewFlightStrategy handles the flight category.
func NewFlightStrategy(store ProductStore) ProductStrategy {
	return &storeStrategy{category: domain.CategoryFlight, store: store}
}

// NewAccommodationStrategy handles the accommodation category.
func NewAccommodationStrategy(store ProductStore) ProductStrategy {
	return &storeStrategy{category: domain.CategoryAccommodation, store: store}
}

func (s *storeStrategy) Category() domain.Category { return s.category }

func (s *storeStrategy) FindByProductID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, s.category, id)
}

func (s *storeStrategy) CreateProduct(ctx context.Context, cmd domain.CreateProductCommand) (int64, error) {
	if cmd.Category != s.category {
		return 0, fmt.Errorf("strategy %s cannot create %s product: %w", s.category, cmd.Category, domain.ErrInvalid)
	}
	return s.store.SaveProduct(ctx, domain.NewProduct(cmd))
}

func (s *storeStrategy) UpdateProduct(ctx context.Context, id int64, cmd domain.UpdateProductCommand) error {
	product, err := s.store.GetProduct(ctx, s.category, id)
	if err != nil {
		return err
	}
	product.Name = cmd.Name
	product.Description = cmd.Description
	product.Price = cmd.Price
	product.Stock = cmd.Stock
	return s.store.UpdateProduct(ctx, product)
}

func (s *storeStrategy) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, s.category, id)
}
