package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Raymond9734/film-rental-frontdesk/internal/queue"
)

const healthTimeout = 3 * time.Second

// Check states reported by /health
const (
	CheckOK            = "ok"
	CheckDown          = "down"
	CheckNotConfigured = "not_configured"
)

// Pinger is satisfied by *sql.DB and the in-memory store
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the rental API can serve the front desk
type HealthHandler struct {
	storage string
	catalog Pinger
	events  queue.Client
	logger  *slog.Logger
}

// NewHealthHandler checks the catalog store and, when events is non-nil, the
// rental event queue. storage names the driver in use.
func NewHealthHandler(storage string, catalog Pinger, events queue.Client, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		catalog: catalog,
		events:  events,
		logger:  logger,
	}
}

// HealthResponse is the /health body. Backlog counts the rental events not
// yet tallied and is only set when the queue answered.
type HealthResponse struct {
	Status    string            `json:"status"`
	Storage   string            `json:"storage,omitempty"`
	Checks    map[string]string `json:"checks"`
	Backlog   *int64            `json:"rental_events_backlog,omitempty"`
	CheckedAt time.Time         `json:"checked_at"`
}

// Health handles GET /health. Probes run concurrently and any failed probe
// turns the answer into a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	probes := map[string]func(context.Context) error{
		"catalog": h.catalog.PingContext,
	}
	if h.events != nil {
		probes["rental_events"] = h.events.Health
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = map[string]string{"rental_events": CheckNotConfigured}
	)
	for name, probe := range probes {
		g.Go(func() error {
			state := CheckOK
			if err := probe(ctx); err != nil {
				h.logger.Error("health probe failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
				state = CheckDown
			}
			mu.Lock()
			checks[name] = state
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{
		Status:    "healthy",
		Storage:   h.storage,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
	if checks["rental_events"] == CheckOK {
		if n, err := h.events.Backlog(ctx); err == nil {
			resp.Backlog = &n
		}
	}

	status := http.StatusOK
	for _, state := range checks {
		if state == CheckDown {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
