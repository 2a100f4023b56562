// Package backend is a typed HTTP client for the store's REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// DefaultTimeout bounds every request when no http.Client is supplied
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is read
const maxErrorBody = 64 << 10

// Client talks to the /api routes. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithCircuitBreaker stops calling the server for cooldown once failures
// consecutive requests could not reach it. Validation, lookup and conflict
// answers count as successes.
func WithCircuitBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "store-api",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !models.IsTransport(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		})
	}
}

// New creates a client for baseURL, e.g. http://localhost:5000/api
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tracer:     otel.Tracer("frontdesk/backend"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCustomers fetches one directory page
func (c *Client) ListCustomers(ctx context.Context, params url.Values) (*models.CustomerPage, error) {
	var page models.CustomerPage
	if err := c.do(ctx, "ListCustomers", http.MethodGet, "/customers", params, nil, &page); err != nil {
		return nil, err
	}
	if page.Customers == nil {
		page.Customers = []*models.Customer{}
	}
	return &page, nil
}

// AllCustomers fetches the unfiltered list of active customers
func (c *Client) AllCustomers(ctx context.Context) ([]*models.Customer, error) {
	var customers []*models.Customer
	if err := c.do(ctx, "AllCustomers", http.MethodGet, "/customers/all", nil, nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetCustomer fetches one customer by id
func (c *Client) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, "GetCustomer", http.MethodGet, "/customers/"+itoa(id), nil, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer creates a customer
func (c *Client) CreateCustomer(ctx context.Context, input models.CustomerInput) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, "CreateCustomer", http.MethodPost, "/customers", nil, input, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer replaces a customer's editable fields
func (c *Client) UpdateCustomer(ctx context.Context, id int64, input models.CustomerInput) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, "UpdateCustomer", http.MethodPut, "/customers/"+itoa(id), nil, input, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// DeleteCustomer soft-deletes a customer and returns the server's message
func (c *Client) DeleteCustomer(ctx context.Context, id int64) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "DeleteCustomer", http.MethodDelete, "/customers/"+itoa(id), nil, nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// FilmInventory fetches every inventory copy of a film with its status
func (c *Client) FilmInventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error) {
	var items []*models.InventoryItem
	if err := c.do(ctx, "FilmInventory", http.MethodGet, "/film/"+itoa(filmID)+"/inventory", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateRental records a rental
func (c *Client) CreateRental(ctx context.Context, req models.RentalRequest) (*models.RentalConfirmation, error) {
	var confirmation models.RentalConfirmation
	if err := c.do(ctx, "CreateRental", http.MethodPost, "/rentals", nil, req, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// ReturnRental closes an open rental and returns the server's message
func (c *Client) ReturnRental(ctx context.Context, rentalID int64) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "ReturnRental", http.MethodPost, "/rentals/"+itoa(rentalID)+"/return", nil, nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// TopRentedFilms fetches the most rented films
func (c *Client) TopRentedFilms(ctx context.Context) ([]*models.Film, error) {
	var films []*models.Film
	if err := c.do(ctx, "TopRentedFilms", http.MethodGet, "/top-rented-films", nil, nil, &films); err != nil {
		return nil, err
	}
	return films, nil
}

// TopActors fetches the actors whose films are rented the most
func (c *Client) TopActors(ctx context.Context) ([]*models.Actor, error) {
	var actors []*models.Actor
	if err := c.do(ctx, "TopActors", http.MethodGet, "/top-actors", nil, nil, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

// FilmDetails fetches a film with its cast, categories and copy counts
func (c *Client) FilmDetails(ctx context.Context, filmID int64) (*models.FilmDetails, error) {
	var details models.FilmDetails
	if err := c.do(ctx, "FilmDetails", http.MethodGet, "/film/"+itoa(filmID), nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// SearchFilms searches the catalog by title, actor or genre
func (c *Client) SearchFilms(ctx context.Context, query, searchType string) ([]*models.Film, error) {
	params := url.Values{}
	params.Set("query", query)
	if searchType != "" {
		params.Set("type", searchType)
	}
	var films []*models.Film
	if err := c.do(ctx, "SearchFilms", http.MethodGet, "/search-films", params, nil, &films); err != nil {
		return nil, err
	}
	return films, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	var err error
	if c.breaker == nil {
		err = c.roundTrip(ctx, span, method, path, query, body, out)
	} else {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, c.roundTrip(ctx, span, method, path, query, body, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = models.ErrTransportWithMsg("store server unavailable", err)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request",
		slog.String("method", method),
		slog.String("path", path),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ErrTransportWithMsg("request failed", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeFailure(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.ErrTransportWithMsg("malformed response", err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// decodeFailure converts a non-2xx response into the client error taxonomy
func decodeFailure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	structured := json.Unmarshal(raw, &eb) == nil && eb.Error != ""

	if !structured {
		return models.ErrTransportWithMsg(
			"unexpected response",
			fmt.Errorf("status %d", resp.StatusCode),
		)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return models.ErrInvalidInput(eb.Error)
	case resp.StatusCode == http.StatusNotFound:
		return models.ErrNotFoundWithMsg(eb.Error)
	default:
		return models.ErrConflictWithMsg(eb.Error)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
