package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// MaxPageSize caps the page size accepted by list endpoints.
const MaxPageSize = 100

// Paginate clamps page parameters and returns the window of items to return.
// Pages past the end yield an empty window.
func Paginate[T any](items []T, page, size int) ([]T, *Pagination) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	total := len(items)
	start := total
	if page-1 < (total+size-1)/size {
		start = (page - 1) * size
	}
	end := total
	if total-start > size {
		end = start + size
	}
	return items[start:end], &Pagination{Page: page, PageSize: size, TotalCount: total}
}
