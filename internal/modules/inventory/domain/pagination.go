package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const maxPageSize = 500

// PagedQuery carries the paging and search parameters of a list request.
// A zero Limit means "every row", which is what the list views load.
type PagedQuery struct {
	Page   int
	Limit  int
	Search string
}

// Normalize returns a sanitized copy applying defaults and bounds.
func (q PagedQuery) Normalize() PagedQuery {
	normalized := q
	if normalized.Limit < 0 {
		normalized.Limit = 0
	}
	if normalized.Limit > maxPageSize {
		normalized.Limit = maxPageSize
	}
	if normalized.Page <= 0 {
		normalized.Page = 1
	}
	normalized.Search = strings.TrimSpace(normalized.Search)
	return normalized
}

func (q PagedQuery) Paged() bool { return q.Limit > 0 }

// Offset is the number of rows skipped before the requested page.
func (q PagedQuery) Offset() int {
	n := q.Normalize()
	if !n.Paged() {
		return 0
	}
	return (n.Page - 1) * n.Limit
}

// PagedQueryFromValues reads page, limit and q. Malformed numbers fall back to defaults.
func PagedQueryFromValues(values url.Values) PagedQuery {
	page, _ := strconv.Atoi(strings.TrimSpace(values.Get("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(values.Get("limit")))
	return PagedQuery{Page: page, Limit: limit, Search: values.Get("q")}.Normalize()
}

// ToURLValues returns normalized URL query parameters ready for REST calls.
func (q PagedQuery) ToURLValues() url.Values {
	normalized := q.Normalize()
	values := url.Values{}
	if normalized.Paged() {
		values.Set("page", strconv.Itoa(normalized.Page))
		values.Set("limit", strconv.Itoa(normalized.Limit))
	}
	if normalized.Search != "" {
		values.Set("q", normalized.Search)
	}
	return values
}
