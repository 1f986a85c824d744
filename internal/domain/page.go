package domain

// Page is one paginated slice of a larger result set.
type Page[T any] struct {
	Items   []T  `json:"data" msgpack:"items"`
	Total   int  `json:"total" msgpack:"total"`
	Limit   int  `json:"limit" msgpack:"limit"`
	Offset  int  `json:"offset" msgpack:"offset"`
	HasMore bool `json:"hasMore" msgpack:"has_more"`
}

// NewPage slices all into the [offset, offset+limit) window.
// An offset at or past the end yields an empty page with HasMore=false.
func NewPage[T any](all []T, limit, offset int) Page[T] {
	total := len(all)

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := make([]T, end-start)
	copy(items, all[start:end])

	return Page[T]{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: total > offset+limit,
	}
}
