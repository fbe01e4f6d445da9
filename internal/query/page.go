// internal/query/page.go
package query

import "github.com/ifallious/Wynncraft-Item-Viewer/internal/models"

// DefaultPageSize is the number of items the grid renders per "load more" step
const DefaultPageSize = 24

// Page is one window over a filtered and sorted result
type Page struct {
	Items   []models.Item `json:"items"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	HasMore bool          `json:"hasMore"`
}

// Paginate cuts [offset, offset+limit) out of items.
// A non-positive limit means DefaultPageSize, a negative offset means 0.
func Paginate(items []models.Item, offset, limit int) Page {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return Page{
		Items:   items[offset:end],
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: end < total,
	}
}

// NextOffset is the offset of the page after p
func (p Page) NextOffset() int {
	return p.Offset + len(p.Items)
}
