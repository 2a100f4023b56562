package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Raymond9734/film-rental-frontdesk/internal/backend/backendtest"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository/memory"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	return New(baseURL, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func TestListCustomers_Pagination(t *testing.T) {
	store := memory.NewStore()
	backendtest.AddCustomers(t, store, 25)
	srv := backendtest.New(t, store)
	client := newTestClient(t, srv.APIURL())
	ctx := context.Background()

	page, err := client.ListCustomers(ctx, url.Values{"page": {"1"}, "limit": {"10"}})
	require.NoError(t, err)
	assert.Len(t, page.Customers, 10)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasPrev)
	assert.True(t, page.Pagination.HasNext)

	page, err = client.ListCustomers(ctx, url.Values{"page": {"3"}, "limit": {"10"}})
	require.NoError(t, err)
	assert.Len(t, page.Customers, 5)
	assert.False(t, page.Pagination.HasNext)
}

func TestCustomerMutations(t *testing.T) {
	srv := backendtest.New(t, memory.NewStore())
	client := newTestClient(t, srv.APIURL())
	ctx := context.Background()

	created, err := client.CreateCustomer(ctx, models.CustomerInput{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, int64(1), created.StoreID)

	_, err = client.CreateCustomer(ctx, models.CustomerInput{FirstName: "Bob", LastName: "Lee", Email: "ann@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.Contains(t, models.UserMessage(err), "ann@example.com")

	_, err = client.CreateCustomer(ctx, models.CustomerInput{FirstName: "Bob"})
	assert.True(t, errors.Is(err, models.ErrValidation))

	updated, err := client.UpdateCustomer(ctx, created.ID, models.CustomerInput{FirstName: "Ann", LastName: "Park", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Park", updated.LastName)

	_, err = client.UpdateCustomer(ctx, 99, models.CustomerInput{FirstName: "A", LastName: "B", Email: "a@b.c"})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	msg, err := client.DeleteCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	got, err := client.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	all, err := client.AllCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRentalRoundTrip(t *testing.T) {
	store := memory.NewStore()
	backendtest.AddCustomers(t, store, 1)
	filmID := backendtest.AddFilmWithCopies(store, "Inception-like Title", 101, 102)
	srv := backendtest.New(t, store)
	client := newTestClient(t, srv.APIURL())
	ctx := context.Background()

	confirmation, err := client.CreateRental(ctx, models.RentalRequest{CustomerID: 1, InventoryID: 101, StaffID: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.Message)
	require.NotNil(t, confirmation.Rental)

	_, err = client.CreateRental(ctx, models.RentalRequest{CustomerID: 1, InventoryID: 101, StaffID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.Equal(t, "Inventory item is already rented", models.UserMessage(err))

	items, err := client.FilmInventory(ctx, filmID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.InventoryStatusRented, items[0].Status)

	_, err = client.ReturnRental(ctx, confirmation.Rental.ID)
	require.NoError(t, err)

	_, err = client.FilmInventory(ctx, filmID+1)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCatalogEndpoints(t *testing.T) {
	srv := backendtest.New(t, memory.NewDemoStore())
	client := newTestClient(t, srv.APIURL())
	ctx := context.Background()

	films, err := client.SearchFilms(ctx, "ace", models.FilmSearchTitle)
	require.NoError(t, err)
	require.NotEmpty(t, films)

	details, err := client.FilmDetails(ctx, films[0].ID)
	require.NoError(t, err)
	assert.Equal(t, films[0].Title, details.Title)

	_, err = client.SearchFilms(ctx, "", models.FilmSearchTitle)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = client.TopRentedFilms(ctx)
	require.NoError(t, err)

	actors, err := client.TopActors(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, actors)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"structured bad request", http.StatusBadRequest, `{"error":"email is required","code":"INVALID_INPUT"}`, models.ErrValidation, "email is required"},
		{"structured not found", http.StatusNotFound, `{"error":"customer with ID 9 not found"}`, models.ErrNotFound, "customer with ID 9 not found"},
		{"structured conflict", http.StatusConflict, `{"error":"Inventory item is already rented"}`, models.ErrConflict, "Inventory item is already rented"},
		{"structured other status", http.StatusUnprocessableEntity, `{"error":"cannot rent today"}`, models.ErrConflict, "cannot rent today"},
		{"unstructured server error", http.StatusBadGateway, `<html>bad gateway</html>`, models.ErrTransport, "Unable to reach the store server. Please try again."},
		{"empty error field", http.StatusInternalServerError, `{"error":""}`, models.ErrTransport, "Unable to reach the store server. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).GetCustomer(context.Background(), 9)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, tt.message, models.UserMessage(err))
		})
	}
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := newTestClient(t, base).AllCustomers(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsTransport(err))
}

func TestCircuitBreakerFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/customers/9" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"customer with ID 9 not found"}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, WithCircuitBreaker(2, time.Hour))
	ctx := context.Background()

	// Lookups the server answered do not count against it
	for i := 0; i < 3; i++ {
		_, err := client.GetCustomer(ctx, 9)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	}

	for i := 0; i < 2; i++ {
		_, err := client.AllCustomers(ctx)
		assert.True(t, models.IsTransport(err))
	}
	require.Equal(t, int32(5), hits.Load())

	_, err := client.GetCustomer(ctx, 9)
	require.Error(t, err)
	assert.True(t, models.IsTransport(err))
	assert.Equal(t, "Unable to reach the store server. Please try again.", models.UserMessage(err))
	assert.Equal(t, int32(5), hits.Load())
}

func TestMalformedSuccessBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FilmInventory(context.Background(), 1)
	assert.True(t, models.IsTransport(err))
}

func TestCallsAreTraced(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	store := memory.NewStore()
	backendtest.AddCustomers(t, store, 1)
	srv := backendtest.New(t, store)
	client := newTestClient(t, srv.APIURL(), WithTracer(provider.Tracer("test")))

	_, err := client.GetCustomer(context.Background(), 1)
	require.NoError(t, err)
	_, err = client.GetCustomer(context.Background(), 2)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "backend.GetCustomer", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.Int("http.status_code", http.StatusOK))
	assert.Contains(t, spans[0].Attributes, attribute.String("http.path", "/customers/1"))
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}
