package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

func TestCustomerList(t *testing.T) {
	ctx := context.Background()
	repo := NewDemoStore().Customers()

	tests := []struct {
		name      string
		filter    models.CustomerFilter
		wantTotal int64
		wantLen   int
	}{
		{"first page", models.CustomerFilter{Page: 1, PageSize: 10}, 25, 10},
		{"last page", models.CustomerFilter{Page: 3, PageSize: 10}, 25, 5},
		{"past the end", models.CustomerFilter{Page: 4, PageSize: 10}, 25, 0},
		{"by id", models.CustomerFilter{Search: "7", Field: models.SearchByID}, 1, 1},
		{"by last name", models.CustomerFilter{Search: "SMITH", Field: models.SearchByLastName}, 1, 1},
		{"by full name", models.CustomerFilter{Search: "mary smith", Field: models.SearchByName}, 1, 1},
		{"whitespace search is unfiltered", models.CustomerFilter{Search: "   ", Field: models.SearchByName}, 25, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Len(t, customers, tt.wantLen)
		})
	}

	_, _, err := repo.List(ctx, models.CustomerFilter{Search: "abc", Field: models.SearchByID})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestCustomerDeactivateKeepsRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewDemoStore().Customers()

	require.NoError(t, repo.Deactivate(ctx, 3))

	c, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.False(t, c.Active)

	page, total, err := repo.List(ctx, models.CustomerFilter{Search: "3", Field: models.SearchByID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(3), page[0].ID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 24)
}

func TestCustomerCreateRejectsDuplicateActiveEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Customers()

	require.NoError(t, repo.Create(ctx, &models.Customer{FirstName: "A", LastName: "B", Email: "a@b.c"}))
	err := repo.Create(ctx, &models.Customer{FirstName: "C", LastName: "D", Email: "A@B.C"})
	assert.True(t, errors.Is(err, models.ErrConflict))

	require.NoError(t, repo.Deactivate(ctx, 1))
	assert.NoError(t, repo.Create(ctx, &models.Customer{FirstName: "C", LastName: "D", Email: "a@b.c"}))
}

func TestRentalLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	film := s.AddFilm(models.FilmDetails{Film: models.Film{Title: "Inception-like Title"}})
	s.AddInventory(film, 1, 103)
	s.AddInventory(film, 1, 101)
	s.AddInventory(film, 1, 102)
	require.NoError(t, s.Customers().Create(ctx, &models.Customer{FirstName: "A", LastName: "B", Email: "a@b.c"}))

	rental, err := s.Rentals().Create(ctx, &models.RentalRequest{CustomerID: 1, InventoryID: 102, StaffID: 1})
	require.NoError(t, err)

	items, err := s.Films().ListInventory(ctx, film)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{101, 102, 103}, []int64{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, models.InventoryStatusRented, items[1].Status)

	_, err = s.Rentals().Create(ctx, &models.RentalRequest{CustomerID: 1, InventoryID: 102, StaffID: 1})
	require.Error(t, err)
	assert.Equal(t, "Inventory item is already rented", models.UserMessage(err))

	applied, err := s.Rentals().RecordTally(ctx, rental.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = s.Rentals().RecordTally(ctx, rental.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	top, err := s.Films().TopRented(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].RentalCount)

	_, err = s.Rentals().Return(ctx, rental.ID)
	require.NoError(t, err)
	_, err = s.Rentals().Return(ctx, rental.ID)
	assert.True(t, errors.Is(err, models.ErrConflict))

	details, err := s.Films().GetDetails(ctx, film)
	require.NoError(t, err)
	assert.Equal(t, 3, details.TotalCopies)
	assert.Equal(t, 0, details.CurrentlyRented)
}

func TestFilmSearch(t *testing.T) {
	ctx := context.Background()
	films := NewDemoStore().Films()

	byActor, err := films.Search(ctx, "guiness", models.FilmSearchActor)
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	byGenre, err := films.Search(ctx, "horror", models.FilmSearchGenre)
	require.NoError(t, err)
	assert.Len(t, byGenre, 2)

	_, err = films.Search(ctx, "x", "director")
	assert.True(t, errors.Is(err, models.ErrValidation))
}
