package domain

import (
	"fmt"
	"time"

	"github.com/joonhak/tripmarket/internal/pagination"
)

// Curation is an editorially ordered collection of products surfaced on the
// browse screens. Only exposed curations are served to customers.
type Curation struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Exposed    bool      `json:"exposed"`
	SortOrder  int       `json:"sort_order"`
	ProductIDs []int64   `json:"product_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary projects the fields exposed to the curation listing.
func (c *Curation) Summary() CurationSummary {
	return CurationSummary{ID: c.ID, Title: c.Title, SortOrder: c.SortOrder}
}

// CacheEntry projects the curation into its cache representation.
func (c *Curation) CacheEntry() CurationCache {
	return CurationCache{ID: c.ID, Title: c.Title, SortOrder: c.SortOrder}
}

// CurationSummary is the listing projection of a curation.
type CurationSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order"`
}

// CurationCache is the serialized form stored under the "curations" key.
type CurationCache struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order"`
}

// Summary converts a cache entry back into the listing projection.
func (c CurationCache) Summary() CurationSummary {
	return CurationSummary{ID: c.ID, Title: c.Title, SortOrder: c.SortOrder}
}

// CurationProducts is the read model for one curation page: the curation
// header plus one cursor page of its products.
type CurationProducts struct {
	Curation CurationSummary                       `json:"curation"`
	Products pagination.CursorPage[ProductSummary] `json:"products"`
}

// CurationProductCache is the serialized form of CurationProducts stored
// under the per-cursor cache key.
type CurationProductCache struct {
	Curation CurationCache                         `json:"curation"`
	Page     pagination.CursorPage[ProductSummary] `json:"page"`
}

// Read converts the cache entry back into the read model.
func (c *CurationProductCache) Read() CurationProducts {
	return CurationProducts{Curation: c.Curation.Summary(), Products: c.Page}
}

// CreateCurationCommand carries the fields needed to publish a curation.
type CreateCurationCommand struct {
	Title      string
	Exposed    bool
	SortOrder  int
	ProductIDs []int64
}

func (c CreateCurationCommand) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("curation title is required: %w", ErrInvalid)
	}
	if len(c.ProductIDs) == 0 {
		return fmt.Errorf("curation needs at least one product: %w", ErrInvalid)
	}
	seen := make(map[int64]struct{}, len(c.ProductIDs))
	for _, id := range c.ProductIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate product id %d: %w", id, ErrInvalid)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// NewCuration builds a curation aggregate from a validated command.
func NewCuration(cmd CreateCurationCommand) *Curation {
	now := time.Now()
	return &Curation{
		Title:      cmd.Title,
		Exposed:    cmd.Exposed,
		SortOrder:  cmd.SortOrder,
		ProductIDs: cmd.ProductIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UpdateCurationCommand replaces the mutable fields of a curation.
type UpdateCurationCommand struct {
	Title      string
	Exposed    bool
	SortOrder  int
	ProductIDs []int64
}

func (c UpdateCurationCommand) Validate() error {
	return CreateCurationCommand{
		Title:      c.Title,
		ProductIDs: c.ProductIDs,
	}.Validate()
}
