// Package service orchestrates the browsing read paths (cache-aside over
// the source of truth) and the write paths that invalidate them.
package service

import (
	"context"

	"github.com/joonhak/tripmarket/internal/domain"
)

// CurationStore is the source-of-truth interface the curation service
// queries. *store.PostgresStore satisfies it.
type CurationStore interface {
	ListExposedCurations(ctx context.Context) ([]domain.Curation, error)
	GetCuration(ctx context.Context, id int64) (*domain.Curation, error)
	SaveCuration(ctx context.Context, c *domain.Curation) (int64, error)
	UpdateCuration(ctx context.Context, c *domain.Curation) error
	// ListCurationProducts returns up to limit products of a curation in
	// descending id order; a non-nil cursor is an inclusive upper bound.
	ListCurationProducts(ctx context.Context, curationID int64, cursorID *int64, limit int) ([]domain.Product, error)
}

// ProductStore is the source-of-truth interface for products.
// *store.PostgresStore satisfies it.
type ProductStore interface {
	GetProduct(ctx context.Context, category domain.Category, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, cursorID *int64, limit int, name string) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, category domain.Category, id int64) error
	GetProductStock(ctx context.Context, id int64) (int64, error)
	DecrementProductStock(ctx context.Context, id, quantity int64) error
}
