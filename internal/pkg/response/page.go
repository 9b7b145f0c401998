package response

// PageResponse is the standard wrapper for list endpoints.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// NewPageResponse is a helper to quickly create a response
func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	// Handle empty slice to avoid JSON outputting null
	if items == nil {
		items = make([]T, 0)
	}

	return PageResponse[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}
}

// Paginate slices an in-memory list for the requested page.
// Page and size are clamped to 1 and 20 when unset, like the list filters do.
func Paginate[T any](all []T, page, pageSize int) PageResponse[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	// Compare before multiplying so huge page numbers cannot overflow.
	start := len(all)
	if page-1 <= len(all)/pageSize {
		start = min((page-1)*pageSize, len(all))
	}
	end := len(all)
	if pageSize < end-start {
		end = start + pageSize
	}

	return NewPageResponse(all[start:end], page, pageSize, len(all))
}
