// Package backendtest runs the real API router over an in-memory store for
// client and controller tests.
package backendtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Raymond9734/film-rental-frontdesk/internal/handler"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository/memory"
	"github.com/Raymond9734/film-rental-frontdesk/internal/service"
)

// Server is an httptest server speaking the /api contract
type Server struct {
	*httptest.Server
	Store *memory.Store

	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int
	hook     func(r *http.Request)
}

// New starts a server over store. It is closed when the test ends.
func New(t testing.TB, store *memory.Store) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := handler.NewRouter(handler.Handlers{
		Customers: handler.NewCustomerHandler(service.NewCustomerService(store.Customers(), logger), logger),
		Films:     handler.NewFilmHandler(service.NewFilmService(store.Films(), logger), logger),
		Rentals:   handler.NewRentalHandler(service.NewRentalService(store.Rentals(), nil, logger), logger),
	}, nil, logger)

	s := &Server{
		Store:    store,
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.calls[key]++
		hook := s.hook
		status, fail := s.failures[key]
		if fail {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if fail {
			http.Error(w, http.StatusText(status), status)
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// APIURL is the base URL the client should be given
func (s *Server) APIURL() string {
	return s.Server.URL + "/api"
}

// Calls returns how many requests hit method and path, e.g. ("GET", "/customers")
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests served so far
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// FailNext makes the next request to method and path answer status with a
// plain-text body
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// OnRequest installs a hook run before every request is served
func (s *Server) OnRequest(hook func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// AddCustomers creates n active customers named FirstN LastN
func AddCustomers(t testing.TB, store *memory.Store, n int) {
	t.Helper()
	repo := store.Customers()
	for i := 1; i <= n; i++ {
		err := repo.Create(context.Background(), &models.Customer{
			StoreID:   1,
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
			Email:     fmt.Sprintf("customer%d@example.com", i),
		})
		if err != nil {
			t.Fatalf("seed customer %d: %v", i, err)
		}
	}
}

// AddFilmWithCopies creates a film with the given inventory IDs at store 1
func AddFilmWithCopies(store *memory.Store, title string, inventoryIDs ...int64) int64 {
	filmID := store.AddFilm(models.FilmDetails{Film: models.Film{Title: title}})
	for _, id := range inventoryIDs {
		store.AddInventory(filmID, 1, id)
	}
	return filmID
}
