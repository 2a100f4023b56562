package rental

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/film-rental-frontdesk/internal/backend"
	"github.com/Raymond9734/film-rental-frontdesk/internal/backend/backendtest"
	"github.com/Raymond9734/film-rental-frontdesk/internal/modal"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository/memory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type timers struct {
	mu    sync.Mutex
	funcs []func()
}

func (s *timers) schedule(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs = append(s.funcs, f)
	return func() bool { return false }
}

func (s *timers) fire() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

type fixture struct {
	srv    *backendtest.Server
	client *backend.Client
	sched  *timers
	filmID int64
}

// newFixture builds the store with copies 101 and 103 available and 102 rented
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	backendtest.AddCustomers(t, store, 3)
	filmID := backendtest.AddFilmWithCopies(store, "Inception-like Title", 101, 102, 103)
	_, err := store.Rentals().Create(context.Background(), &models.RentalRequest{CustomerID: 3, InventoryID: 102, StaffID: 1})
	require.NoError(t, err)

	srv := backendtest.New(t, store)
	return &fixture{
		srv:    srv,
		client: backend.New(srv.APIURL(), newTestLogger()),
		sched:  &timers{},
		filmID: filmID,
	}
}

func (f *fixture) coordinator(onClosed func()) *Coordinator {
	return NewCoordinator(f.client, newTestLogger(), Options{
		OnClosed: onClosed,
		Modal:    []modal.Option{modal.WithScheduler(f.sched.schedule)},
	})
}

func inventoryIDs(items []models.InventoryItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestCoordinator_RentThenReResolve(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(nil)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, f.filmID))
	s := c.Snapshot()
	require.Equal(t, Ready, s.Phase)
	assert.Len(t, s.Customers, 3)
	assert.Equal(t, []int64{101, 103}, inventoryIDs(s.Available))

	require.NoError(t, c.SelectCustomer(1))
	require.NoError(t, c.SelectInventory(101))
	confirmation, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.Message)

	s = c.Snapshot()
	assert.Equal(t, Succeeded, s.Phase)
	assert.Equal(t, modal.Succeeded, s.Dialog)
	assert.Equal(t, confirmation.Message, s.Message)
	require.NotNil(t, s.Rental)
	assert.Equal(t, int64(101), s.Rental.InventoryID)
	assert.Equal(t, []int64{103}, inventoryIDs(s.Available))
	assert.Equal(t, Selection{CustomerID: 1}, s.Selection)
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/film/1/inventory"))
}

func TestCoordinator_MissingSelectionMakesNoCalls(t *testing.T) {
	tests := []struct {
		name string
		pick func(c *Coordinator) error
	}{
		{"nothing selected", func(c *Coordinator) error { return nil }},
		{"no inventory", func(c *Coordinator) error { return c.SelectCustomer(1) }},
		{"no customer", func(c *Coordinator) error { return c.SelectInventory(103) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.coordinator(nil)
			require.NoError(t, c.Open(context.Background(), f.filmID))
			require.NoError(t, tt.pick(c))
			calls := f.srv.TotalCalls()

			_, err := c.Submit(context.Background())
			require.ErrorIs(t, err, models.ErrValidation)

			assert.Equal(t, calls, f.srv.TotalCalls())
			assert.Equal(t, Ready, c.Snapshot().Phase)
		})
	}
}

func TestCoordinator_SelectionMustComeFromLoadedSets(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(nil)

	assert.ErrorIs(t, c.SelectCustomer(1), models.ErrNotOpen)

	require.NoError(t, c.Open(context.Background(), f.filmID))
	assert.ErrorIs(t, c.SelectInventory(102), models.ErrValidation)
	assert.ErrorIs(t, c.SelectCustomer(99), models.ErrValidation)
}

func TestCoordinator_PrerequisitesLoadConcurrently(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(nil)

	var arrived sync.WaitGroup
	arrived.Add(2)
	var overlapped atomic.Bool
	f.srv.OnRequest(func(r *http.Request) {
		if r.URL.Path != "/api/customers/all" && !strings.HasSuffix(r.URL.Path, "/inventory") {
			return
		}
		arrived.Done()
		done := make(chan struct{})
		go func() { arrived.Wait(); close(done) }()
		select {
		case <-done:
			overlapped.Store(true)
		case <-time.After(2 * time.Second):
		}
	})

	require.NoError(t, c.Open(context.Background(), f.filmID))
	assert.True(t, overlapped.Load())
	assert.Equal(t, Ready, c.Snapshot().Phase)
}

func TestCoordinator_PrerequisiteFailures(t *testing.T) {
	t.Run("customers unreachable", func(t *testing.T) {
		f := newFixture(t)
		c := f.coordinator(nil)
		f.srv.FailNext(http.MethodGet, "/customers/all", http.StatusBadGateway)

		err := c.Open(context.Background(), f.filmID)
		require.Error(t, err)

		s := c.Snapshot()
		assert.Equal(t, Failed, s.Phase)
		assert.ErrorIs(t, s.CustomersErr, models.ErrTransport)
		assert.NoError(t, s.InventoryErr)
		// the inventory call still ran to completion
		assert.Equal(t, 1, f.srv.Calls(http.MethodGet, "/film/1/inventory"))
	})

	t.Run("film without inventory", func(t *testing.T) {
		f := newFixture(t)
		c := f.coordinator(nil)

		err := c.Open(context.Background(), f.filmID+100)
		require.ErrorIs(t, err, models.ErrRetrieval)

		s := c.Snapshot()
		assert.Equal(t, Failed, s.Phase)
		assert.NoError(t, s.CustomersErr)
		assert.ErrorIs(t, s.InventoryErr, models.ErrRetrieval)
		assert.Equal(t, "This film has no inventory.", models.UserMessage(s.Err))
	})
}

func TestCoordinator_ConcurrentExhaustionIsRecoverable(t *testing.T) {
	f := newFixture(t)
	first := f.coordinator(nil)
	second := f.coordinator(nil)
	ctx := context.Background()

	require.NoError(t, first.Open(ctx, f.filmID))
	require.NoError(t, second.Open(ctx, f.filmID))

	for _, c := range []*Coordinator{first, second} {
		require.NoError(t, c.SelectCustomer(1))
		require.NoError(t, c.SelectInventory(103))
	}
	_, err := first.Submit(ctx)
	require.NoError(t, err)

	_, err = second.Submit(ctx)
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, "Inventory item is already rented", models.UserMessage(err))

	s := second.Snapshot()
	assert.Equal(t, Failed, s.Phase)
	assert.Equal(t, modal.Failed, s.Dialog)
	assert.Equal(t, Selection{CustomerID: 1, InventoryID: 103}, s.Selection)

	require.NoError(t, second.SelectInventory(101))
	_, err = second.Submit(ctx)
	require.NoError(t, err)
	s = second.Snapshot()
	assert.Equal(t, Succeeded, s.Phase)
	assert.Empty(t, s.Available)
}

func TestCoordinator_AutoCloseResetsAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	var closed atomic.Int32
	c := f.coordinator(func() { closed.Add(1) })
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, f.filmID))
	require.NoError(t, c.SelectCustomer(2))
	require.NoError(t, c.SelectInventory(101))
	_, err := c.Submit(ctx)
	require.NoError(t, err)

	f.sched.fire()
	assert.Equal(t, int32(1), closed.Load())
	s := c.Snapshot()
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, modal.Closed, s.Dialog)
	assert.Empty(t, s.Customers)
	assert.Empty(t, s.Message)

	_, err = c.Submit(ctx)
	assert.ErrorIs(t, err, models.ErrNotOpen)
}

func TestCoordinator_CloseAndReopenStartsFresh(t *testing.T) {
	f := newFixture(t)
	c := f.coordinator(nil)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, f.filmID))
	require.NoError(t, c.SelectCustomer(1))
	_, err := c.Submit(ctx)
	require.Error(t, err)

	require.NoError(t, c.Close())
	assert.Equal(t, Snapshot{Phase: Idle, Dialog: modal.Closed}, c.Snapshot())

	require.NoError(t, c.Open(ctx, f.filmID))
	s := c.Snapshot()
	assert.Equal(t, Ready, s.Phase)
	assert.Equal(t, Selection{}, s.Selection)
	assert.NoError(t, s.Err)
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/film/1/inventory"))
}
