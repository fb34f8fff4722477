package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joonhak/tripmarket/internal/domain"
)

// ListExposedCurations returns every exposed curation ordered by sort order.
func (s *PostgresStore) ListExposedCurations(ctx context.Context) ([]domain.Curation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, exposed, sort_order, created_at, updated_at
		FROM curations
		WHERE exposed
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list curations: %w", err)
	}
	defer rows.Close()

	var curations []domain.Curation
	for rows.Next() {
		var c domain.Curation
		if err := rows.Scan(&c.ID, &c.Title, &c.Exposed, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan curation: %w", err)
		}
		curations = append(curations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list curations: %w", err)
	}
	return curations, nil
}

// GetCuration loads one curation with its product ids in position order.
func (s *PostgresStore) GetCuration(ctx context.Context, id int64) (*domain.Curation, error) {
	var c domain.Curation
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, exposed, sort_order, created_at, updated_at
		FROM curations
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Title, &c.Exposed, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("curation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get curation: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT product_id
		FROM curation_products
		WHERE curation_id = $1
		ORDER BY position, product_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get curation products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		if err := rows.Scan(&productID); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		c.ProductIDs = append(c.ProductIDs, productID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get curation products: %w", err)
	}
	return &c, nil
}

// SaveCuration inserts a curation and its product links, returning the
// generated id.
func (s *PostgresStore) SaveCuration(ctx context.Context, c *domain.Curation) (int64, error) {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO curations (title, exposed, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.Title, c.Exposed, c.SortOrder, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return 0, fmt.Errorf("insert curation: %w", err)
	}

	for pos, productID := range c.ProductIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO curation_products (curation_id, product_id, position)
			VALUES ($1, $2, $3)
		`, c.ID, productID, pos)
		if err != nil {
			return 0, fmt.Errorf("insert curation product: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return c.ID, nil
}

// UpdateCuration replaces a curation's fields and product links.
func (s *PostgresStore) UpdateCuration(ctx context.Context, c *domain.Curation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE curations
		SET title = $2, exposed = $3, sort_order = $4, updated_at = $5
		WHERE id = $1
	`, c.ID, c.Title, c.Exposed, c.SortOrder, time.Now())
	if err != nil {
		return fmt.Errorf("update curation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("curation %d: %w", c.ID, domain.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM curation_products WHERE curation_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear curation products: %w", err)
	}
	for pos, productID := range c.ProductIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO curation_products (curation_id, product_id, position)
			VALUES ($1, $2, $3)
		`, c.ID, productID, pos)
		if err != nil {
			return fmt.Errorf("insert curation product: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListCurationProducts pages through a curation's products by descending
// product id. A nil cursor starts at the newest product; a non-nil cursor
// is an inclusive upper bound (`id <= cursor`). Callers pass limit = size+1
// to detect whether a further page exists.
func (s *PostgresStore) ListCurationProducts(ctx context.Context, curationID int64, cursorID *int64, limit int) ([]domain.Product, error) {
	query := `
		SELECT p.id, p.category, p.name, p.description, p.price, p.stock, p.created_at, p.updated_at
		FROM products p
		JOIN curation_products cp ON cp.product_id = p.id
		WHERE cp.curation_id = $1`
	args := []any{curationID}
	if cursorID != nil {
		query += ` AND p.id <= $2`
		args = append(args, *cursorID)
	}
	query += fmt.Sprintf(` ORDER BY p.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list curation products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}
