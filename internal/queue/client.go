package queue

import (
	"context"
	"log/slog"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

const (
	// MaxConcurrency caps the consumer's parallelism
	MaxConcurrency = 10
	// MaxAttempts is how many times a rental event is delivered before it is dropped
	MaxAttempts = 3
)

// Client carries rental events from the API to the tally worker
type Client interface {
	// Publish enqueues a rental event
	Publish(ctx context.Context, job *models.RentalJob) error

	// Consume runs handler for each event on at most concurrency goroutines
	// until ctx is done. A failed event is published again until it has been
	// tried MaxAttempts times.
	Consume(ctx context.Context, handler JobHandler, concurrency int) error

	// Backlog returns the number of events waiting to be consumed
	Backlog(ctx context.Context) (int64, error)

	Close() error

	Health(ctx context.Context) error
}

// JobHandler processes one rental event
type JobHandler func(ctx context.Context, job *models.RentalJob) error

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// deliver runs handler and hands a failed job back to requeue with its
// attempt counted
func deliver(ctx context.Context, logger *slog.Logger, handler JobHandler, job models.RentalJob, requeue func(context.Context, *models.RentalJob) error) {
	err := handler(ctx, &job)
	if err == nil {
		return
	}

	job.Attempts++
	attrs := []any{
		slog.Int64("rental_id", job.RentalID),
		slog.String("correlation_id", job.CorrelationID),
		slog.Int("attempts", job.Attempts),
		slog.String("error", err.Error()),
	}
	if job.Attempts >= MaxAttempts {
		logger.Error("dropping rental event", attrs...)
		return
	}

	logger.Warn("requeueing rental event", attrs...)
	if err := requeue(context.WithoutCancel(ctx), &job); err != nil {
		logger.Error("failed to requeue rental event",
			slog.Int64("rental_id", job.RentalID),
			slog.String("error", err.Error()),
		)
	}
}
