// Package directory drives the paginated, searchable customer directory.
package directory

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// PageSize is the fixed number of customers per directory page
const PageSize = models.DefaultPageSize

// Query is the search and pagination intent for one listing call. The zero
// value is page 1 with no search.
type Query struct {
	page   int
	search string
	field  models.SearchField
}

// NewQuery returns page 1 with no search
func NewQuery() Query {
	return Query{page: 1, field: models.SearchByName}
}

// Page returns the requested page, starting at 1
func (q Query) Page() int {
	if q.page < 1 {
		return 1
	}
	return q.page
}

// PageSize returns the page size
func (q Query) PageSize() int { return PageSize }

// Search returns the trimmed search text, empty when unfiltered
func (q Query) Search() string { return q.search }

// Field returns the search field
func (q Query) Field() models.SearchField {
	if q.field == "" {
		return models.SearchByName
	}
	return q.field
}

// Filtered reports whether the query carries a search
func (q Query) Filtered() bool { return q.search != "" }

// WithPage returns a copy requesting page n, never below 1
func (q Query) WithPage(n int) Query {
	if n < 1 {
		n = 1
	}
	q.page = n
	return q
}

// WithSearch returns a copy searching text in field, reset to page 1.
// Whitespace-only text clears the search. An unknown field falls back to name.
func (q Query) WithSearch(text string, field models.SearchField) Query {
	if !field.IsValid() {
		field = models.SearchByName
	}
	q.search = strings.TrimSpace(text)
	q.field = field
	q.page = 1
	return q
}

// Clamp returns a copy whose page lies in [1, max(1, totalPages)]
func (q Query) Clamp(totalPages int) Query {
	q.page = models.ClampPage(q.Page(), totalPages)
	return q
}

// SameFilter reports whether q and other search for the same thing
func (q Query) SameFilter(other Query) bool {
	return q.search == other.search && (q.search == "" || q.Field() == other.Field())
}

// Params returns the listing call's query string parameters
func (q Query) Params() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page()))
	v.Set("limit", strconv.Itoa(PageSize))
	if q.search != "" {
		v.Set("search", q.search)
		v.Set("type", string(q.Field()))
	}
	return v
}
