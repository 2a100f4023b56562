package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

func TestQueryParams(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"zero value", Query{}, "limit=10&page=1"},
		{"page", NewQuery().WithPage(3), "limit=10&page=3"},
		{"search", NewQuery().WithSearch("  smith ", models.SearchByLastName), "limit=10&page=1&search=smith&type=last_name"},
		{"whitespace search", NewQuery().WithSearch("   ", models.SearchByID), "limit=10&page=1"},
		{"unknown field", NewQuery().WithSearch("ann", "email"), "limit=10&page=1&search=ann&type=name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Params().Encode())
		})
	}
}

func TestQueryIsImmutable(t *testing.T) {
	base := NewQuery().WithPage(2)
	searched := base.WithSearch("ann", models.SearchByFirstName)

	assert.Equal(t, 2, base.Page())
	assert.False(t, base.Filtered())
	assert.Equal(t, 1, searched.Page())
	assert.True(t, searched.Filtered())
}

func TestQuerySameFilter(t *testing.T) {
	a := NewQuery().WithSearch("ann", models.SearchByFirstName)
	assert.True(t, a.SameFilter(a.WithPage(4)))
	assert.False(t, a.SameFilter(NewQuery()))
	assert.False(t, a.SameFilter(NewQuery().WithSearch("ann", models.SearchByLastName)))
	assert.True(t, NewQuery().SameFilter(NewQuery().WithSearch("", models.SearchByID)))
}

func TestQueryClampProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		page := rapid.IntRange(-5, 500).Draw(t, "page")
		totalPages := rapid.IntRange(0, 100).Draw(t, "totalPages")

		got := NewQuery().WithPage(page).Clamp(totalPages).Page()

		upper := totalPages
		if upper < 1 {
			upper = 1
		}
		if got < 1 || got > upper {
			t.Fatalf("page %d clamped to %d, outside [1, %d]", page, got, upper)
		}
		if page >= 1 && page <= totalPages && got != page {
			t.Fatalf("in-range page %d changed to %d", page, got)
		}
	})
}
