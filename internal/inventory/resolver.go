// Package inventory resolves which copies of a film can be rented right now.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// Source lists every inventory copy of a film with its server-derived status
type Source interface {
	FilmInventory(ctx context.Context, filmID int64) ([]*models.InventoryItem, error)
}

// Resolver filters a film's inventory down to the available copies. Nothing
// is cached: every call asks the server again.
type Resolver struct {
	source Source
	logger *slog.Logger
}

// NewResolver creates a resolver over source
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// Available returns the film's available copies in server order. An empty,
// non-nil slice means every copy is rented. A failed call, or a film without
// any inventory, yields a models.ErrRetrieval error.
func (r *Resolver) Available(ctx context.Context, filmID int64) ([]models.InventoryItem, error) {
	items, err := r.source.FilmInventory(ctx, filmID)
	if err != nil {
		err = models.Classify(err)
		r.logger.Warn("inventory lookup failed",
			slog.Int64("film_id", filmID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrRetrievalWithMsg("This film has no inventory.", err)
		}
		return nil, models.ErrRetrievalWithMsg(models.UserMessage(err), err)
	}
	if len(items) == 0 {
		return nil, models.ErrRetrievalWithMsg(
			"This film has no inventory.",
			models.ErrNotFoundWithMsg(fmt.Sprintf("film %d has no inventory", filmID)),
		)
	}

	available := Filter(items)
	r.logger.Debug("inventory resolved",
		slog.Int64("film_id", filmID),
		slog.Int("copies", len(items)),
		slog.Int("available", len(available)),
	)
	return available, nil
}

// Filter keeps the copies whose status is Available, preserving order
func Filter(items []*models.InventoryItem) []models.InventoryItem {
	available := make([]models.InventoryItem, 0, len(items))
	for _, item := range items {
		if item != nil && item.IsAvailable() {
			available = append(available, *item)
		}
	}
	return available
}
