// Package pagination implements id-keyed cursor pagination. Pages are built
// from a "size + 1" over-fetch, which answers has-next without a COUNT query
// and keeps deep pages cheap regardless of offset.
package pagination

const (
	// DefaultSize is used when the caller does not specify a page size.
	DefaultSize = 10
	// MaxSize caps a requested page size.
	MaxSize = 100
)

// NormalizeSize clamps a requested page size into [1, MaxSize], substituting
// DefaultSize for non-positive values.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// CursorPage is an immutable paged result. Content is ordered by descending
// id (newest first), so the cursor decreases monotonically across pages.
// NextCursorID is set iff HasNext is true and equals the id of the last
// element of Content; the follow-up query uses an inclusive `id <= cursor`
// bound, so that element reappears as the first row of the next page.
type CursorPage[T any] struct {
	Content      []T    `json:"content"`
	Size         int    `json:"size"`
	HasNext      bool   `json:"has_next"`
	NextCursorID *int64 `json:"next_cursor_id,omitempty"`
}

// NewCursorPage builds a page from rows fetched with limit size+1.
// id extracts the cursor id of a row.
func NewCursorPage[T any](rows []T, size int, id func(T) int64) CursorPage[T] {
	page := CursorPage[T]{Size: size}
	if len(rows) > size {
		rows = rows[:size]
		cursor := id(rows[len(rows)-1])
		page.HasNext = true
		page.NextCursorID = &cursor
	}
	if rows == nil {
		rows = []T{}
	}
	page.Content = rows
	return page
}

// Map converts the content of a page, preserving the pagination metadata.
func Map[T, U any](page CursorPage[T], fn func(T) U) CursorPage[U] {
	out := CursorPage[U]{
		Content:      make([]U, len(page.Content)),
		Size:         page.Size,
		HasNext:      page.HasNext,
		NextCursorID: page.NextCursorID,
	}
	for i, item := range page.Content {
		out.Content[i] = fn(item)
	}
	return out
}
