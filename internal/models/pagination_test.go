package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNewPaginationState(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		pageSize  int
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{name: "first of three", page: 1, pageSize: 10, total: 25, wantPages: 3, wantNext: true, wantPrev: false},
		{name: "last partial page", page: 3, pageSize: 10, total: 25, wantPages: 3, wantNext: false, wantPrev: true},
		{name: "exact multiple", page: 2, pageSize: 10, total: 20, wantPages: 2, wantNext: false, wantPrev: true},
		{name: "empty directory", page: 1, pageSize: 10, total: 0, wantPages: 0, wantNext: false, wantPrev: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginationState(tt.page, tt.pageSize, tt.total)
			assert.Equal(t, tt.page, p.CurrentPage)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalCustomers)
			assert.Equal(t, tt.pageSize, p.Limit)
			assert.Equal(t, tt.wantNext, p.HasNext)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
		})
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 3, ClampPage(7, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 1, ClampPage(4, 0))
}

func TestValidateAndSetDefaults(t *testing.T) {
	page, size := -1, 0
	ValidateAndSetDefaults(&page, &size)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	size = 500
	ValidateAndSetDefaults(&page, &size)
	assert.Equal(t, MaxPageSize, size)
}

func TestPaginationProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(0, 5000).Draw(t, "total")
		size := rapid.IntRange(1, MaxPageSize).Draw(t, "size")
		pages := TotalPages(total, size)

		if int64(pages*size) < total {
			t.Fatalf("%d pages of %d cannot hold %d records", pages, size, total)
		}
		if pages > 0 && int64((pages-1)*size) >= total {
			t.Fatalf("page %d would be empty for %d records", pages, total)
		}

		page := rapid.IntRange(-5, pages+5).Draw(t, "page")
		clamped := ClampPage(page, pages)
		if clamped < 1 || clamped > max(1, pages) {
			t.Fatalf("clamped page %d outside [1, %d]", clamped, max(1, pages))
		}
	})
}
