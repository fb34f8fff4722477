package domain

import (
	"fmt"
	"time"
)

// Category identifies the product vertical. Each category has its own
// persistence strategy registered at startup.
type Category string

const (
	CategoryTicket        Category = "ticket"
	CategoryFlight        Category = "flight"
	CategoryAccommodation Category = "accommodation"
)

// IsValid reports whether the category is one of the known verticals.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTicket, CategoryFlight, CategoryAccommodation:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// Product is the source-of-truth product entity. IDs are assigned by the
// database sequence, so they are monotonically increasing and immutable,
// which is what makes them usable as pagination cursors.
type Product struct {
	ID          int64     `json:"id"`
	Category    Category  `json:"category"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int64     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary projects the fields exposed in listings and cached cursor pages.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Category: p.Category,
		Name:     p.Name,
		Price:    p.Price,
	}
}

// ProductSummary is the listing projection of a product.
type ProductSummary struct {
	ID       int64    `json:"id"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
}

// ProductDetail is the single-product read model. ViewCount is populated
// best-effort from the counter cache and is zero when the cache is
// unavailable.
type ProductDetail struct {
	Product
	ViewCount int64 `json:"view_count,omitempty"`
}

// CreateProductCommand carries the fields needed to register a product.
type CreateProductCommand struct {
	Category    Category
	Name        string
	Description string
	Price       int64
	Stock       int64
}

func (c CreateProductCommand) Validate() error {
	if !c.Category.IsValid() {
		return fmt.Errorf("category %q: %w", c.Category, ErrInvalid)
	}
	if c.Name == "" {
		return fmt.Errorf("product name is required: %w", ErrInvalid)
	}
	if c.Price < 0 {
		return fmt.Errorf("price must not be negative: %w", ErrInvalid)
	}
	if c.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %w", ErrInvalid)
	}
	return nil
}

// NewProduct builds a product entity from a validated command.
func NewProduct(cmd CreateProductCommand) *Product {
	now := time.Now()
	return &Product{
		Category:    cmd.Category,
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateProductCommand replaces the mutable fields of a product.
type UpdateProductCommand struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
}

func (c UpdateProductCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("product name is required: %w", ErrInvalid)
	}
	if c.Price < 0 {
		return fmt.Errorf("price must not be negative: %w", ErrInvalid)
	}
	if c.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %w", ErrInvalid)
	}
	return nil
}
