package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joonhak/tripmarket/internal/domain"
)

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(&p.ID, &p.Category, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}

// GetProduct loads one product, scoped to its category so a ticket id can
// never be served through the flight path.
func (s *PostgresStore) GetProduct(ctx context.Context, category domain.Category, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.pool.QueryRow(ctx, `
		SELECT id, category, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1 AND category = $2
	`, id, category).Scan(&p.ID, &p.Category, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %d (%s): %w", id, category, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListProducts pages products by descending id, optionally filtered by a
// case-insensitive name substring. The cursor bound is inclusive; callers
// pass limit = size+1.
func (s *PostgresStore) ListProducts(ctx context.Context, cursorID *int64, limit int, name string) ([]domain.Product, error) {
	query := `
		SELECT id, category, name, description, price, stock, created_at, updated_at
		FROM products`
	var args []any
	var conds []string
	if cursorID != nil {
		args = append(args, *cursorID)
		conds = append(conds, fmt.Sprintf("id <= $%d", len(args)))
	}
	if name != "" {
		args = append(args, "%"+name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetProductsByIDs bulk-loads products keyed by id. Missing ids are simply
// absent from the map; the caller decides whether that is an error.
func (s *PostgresStore) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	products := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, category, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()
	list, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		products[p.ID] = p
	}
	return products, nil
}

// SaveProduct inserts a product and returns the generated id.
func (s *PostgresStore) SaveProduct(ctx context.Context, p *domain.Product) (int64, error) {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (category, name, description, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.Category, p.Name, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return p.ID, nil
}

// UpdateProduct replaces a product's mutable fields within its category.
func (s *PostgresStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $3, description = $4, price = $5, stock = $6, updated_at = $7
		WHERE id = $1 AND category = $2
	`, p.ID, p.Category, p.Name, p.Description, p.Price, p.Stock, time.Now())
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d (%s): %w", p.ID, p.Category, domain.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product within its category.
func (s *PostgresStore) DeleteProduct(ctx context.Context, category domain.Category, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND category = $2`, id, category)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d (%s): %w", id, category, domain.ErrNotFound)
	}
	return nil
}

// GetProductStock reads the authoritative stock count.
func (s *PostgresStore) GetProductStock(ctx context.Context, id int64) (int64, error) {
	var stock int64
	err := s.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get product stock: %w", err)
	}
	return stock, nil
}

// DecrementProductStock atomically subtracts quantity from a product's
// stock, refusing to cross zero. The guard lives in the UPDATE predicate,
// so concurrent decrements cannot oversell.
func (s *PostgresStore) DecrementProductStock(ctx context.Context, id, quantity int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock >= $2
	`, id, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing product from insufficient stock.
	var stock int64
	err = s.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return fmt.Errorf("product %d has %d in stock, need %d: %w", id, stock, quantity, domain.ErrInsufficientStock)
}
