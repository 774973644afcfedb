package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

// Paginate clamps page and limit and returns the row offset for them.
// page < 1 becomes 1, limit <= 0 becomes DefaultLimit and limit > MaxLimit is
// capped at MaxLimit. page is also capped so the offset cannot overflow.
func Paginate(page, limit int) (p, l, offset int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return page, limit, (page - 1) * limit
}

// NewPage builds a Page, computing the number of pages from total and limit.
func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Items: items, TotalItems: total, TotalPages: pages, CurrentPage: page}
}
