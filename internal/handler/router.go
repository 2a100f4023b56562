package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

// TracerName identifies the API's spans
const TracerName = "frontdesk/api"

// Handlers groups the route handlers mounted by NewRouter
type Handlers struct {
	Customers *CustomerHandler
	Films     *FilmHandler
	Rentals   *RentalHandler
	Health    *HealthHandler
}

// NewRouter wires the middleware chain and the /api routes. A nil limiter
// disables mutation rate limiting.
func NewRouter(h Handlers, limiter *rate.Limiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(otel.Tracer(TracerName)))
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))
	r.Use(CORSMiddleware)

	if h.Health != nil {
		r.Get("/health", h.Health.Health)
	}

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(MutationRateLimitMiddleware(limiter))
		}

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.Customers.ListCustomers)
			r.Post("/", h.Customers.CreateCustomer)
			r.Get("/all", h.Customers.ListAllCustomers)
			r.Get("/{id}", h.Customers.GetCustomer)
			r.Put("/{id}", h.Customers.UpdateCustomer)
			r.Delete("/{id}", h.Customers.DeleteCustomer)
		})

		r.Get("/film/{id}", h.Films.GetFilm)
		r.Get("/film/{id}/inventory", h.Films.GetInventory)
		r.Get("/search-films", h.Films.SearchFilms)
		r.Get("/top-rented-films", h.Films.TopRentedFilms)
		r.Get("/top-actors", h.Films.TopActors)

		r.Post("/rentals", h.Rentals.CreateRental)
		r.Post("/rentals/{id}/return", h.Rentals.ReturnRental)
	})

	return r
}
