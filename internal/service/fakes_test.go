package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joonhak/tripmarket/internal/domain"
)

// fakeStore is an in-memory source of truth implementing CurationStore and
// ProductStore, with call counters for asserting which reads hit the source.
type fakeStore struct {
	curations      map[int64]*domain.Curation
	products       map[int64]*domain.Product
	nextCurationID int64
	nextProductID  int64

	listExposedCalls    int
	listCurationProduct int
	listProductCalls    int
	getStockCalls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		curations: make(map[int64]*domain.Curation),
		products:  make(map[int64]*domain.Product),
	}
}

// addProduct seeds a product with an explicit id.
func (f *fakeStore) addProduct(id int64, category domain.Category, name string, stock int64) {
	f.products[id] = &domain.Product{
		ID:       id,
		Category: category,
		Name:     name,
		Price:    1000,
		Stock:    stock,
	}
	if id >= f.nextProductID {
		f.nextProductID = id
	}
}

// addCuration seeds an exposed curation with an explicit id.
func (f *fakeStore) addCuration(id int64, title string, sortOrder int, productIDs ...int64) {
	f.curations[id] = &domain.Curation{
		ID:         id,
		Title:      title,
		Exposed:    true,
		SortOrder:  sortOrder,
		ProductIDs: productIDs,
	}
	if id >= f.nextCurationID {
		f.nextCurationID = id
	}
}

func (f *fakeStore) ListExposedCurations(context.Context) ([]domain.Curation, error) {
	f.listExposedCalls++
	var out []domain.Curation
	for _, c := range f.curations {
		if c.Exposed {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) GetCuration(_ context.Context, id int64) (*domain.Curation, error) {
	c, ok := f.curations[id]
	if !ok {
		return nil, fmt.Errorf("curation %d: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) SaveCuration(_ context.Context, c *domain.Curation) (int64, error) {
	f.nextCurationID++
	cp := *c
	cp.ID = f.nextCurationID
	f.curations[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) UpdateCuration(_ context.Context, c *domain.Curation) error {
	if _, ok := f.curations[c.ID]; !ok {
		return fmt.Errorf("curation %d: %w", c.ID, domain.ErrNotFound)
	}
	cp := *c
	f.curations[c.ID] = &cp
	return nil
}

func (f *fakeStore) ListCurationProducts(_ context.Context, curationID int64, cursorID *int64, limit int) ([]domain.Product, error) {
	f.listCurationProduct++
	c, ok := f.curations[curationID]
	if !ok {
		return nil, fmt.Errorf("curation %d: %w", curationID, domain.ErrNotFound)
	}
	var rows []domain.Product
	for _, id := range c.ProductIDs {
		if p, ok := f.products[id]; ok {
			rows = append(rows, *p)
		}
	}
	return pageDesc(rows, cursorID, limit), nil
}

func (f *fakeStore) GetProduct(_ context.Context, category domain.Category, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok || p.Category != category {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListProducts(_ context.Context, cursorID *int64, limit int, name string) ([]domain.Product, error) {
	f.listProductCalls++
	var rows []domain.Product
	for _, p := range f.products {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		rows = append(rows, *p)
	}
	return pageDesc(rows, cursorID, limit), nil
}

func (f *fakeStore) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (f *fakeStore) SaveProduct(_ context.Context, p *domain.Product) (int64, error) {
	f.nextProductID++
	cp := *p
	cp.ID = f.nextProductID
	f.products[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p *domain.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return fmt.Errorf("product %d: %w", p.ID, domain.ErrNotFound)
	}
	cp := *p
	cp.UpdatedAt = time.Now()
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, category domain.Category, id int64) error {
	p, ok := f.products[id]
	if !ok || p.Category != category {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) GetProductStock(_ context.Context, id int64) (int64, error) {
	f.getStockCalls++
	p, ok := f.products[id]
	if !ok {
		return 0, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return p.Stock, nil
}

func (f *fakeStore) DecrementProductStock(_ context.Context, id, quantity int64) error {
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if p.Stock < quantity {
		return fmt.Errorf("product %d has %d of %d requested: %w",
			id, p.Stock, quantity, domain.ErrInsufficientStock)
	}
	p.Stock -= quantity
	return nil
}

// pageDesc applies descending-id order, the inclusive cursor bound, and the
// row limit the way the SQL store does.
func pageDesc(rows []domain.Product, cursorID *int64, limit int) []domain.Product {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	var out []domain.Product
	for _, p := range rows {
		if cursorID != nil && p.ID > *cursorID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}
