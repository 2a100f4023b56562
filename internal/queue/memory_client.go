package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

var (
	// ErrClosed is returned when publishing to a closed in-process queue
	ErrClosed = errors.New("queue closed")
	// ErrFull is returned when a failed event cannot be put back
	ErrFull = errors.New("queue full")
)

// memoryClient is a buffered channel standing in for Redis in demo mode
type memoryClient struct {
	events chan models.RentalJob
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMemoryClient creates an in-process queue holding up to capacity events.
// Publish blocks while the queue is full.
func NewMemoryClient(capacity int, logger *slog.Logger) Client {
	if capacity < 1 {
		capacity = 1
	}
	return &memoryClient{
		events: make(chan models.RentalJob, capacity),
		logger: logger,
	}
}

func (c *memoryClient) Publish(ctx context.Context, job *models.RentalJob) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	select {
	case c.events <- *job:
		c.logger.Debug("rental event queued",
			slog.Int64("rental_id", job.RentalID),
			slog.String("correlation_id", job.CorrelationID),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requeue never blocks; the consumer holding a slot may be the only reader
func (c *memoryClient) requeue(_ context.Context, job *models.RentalJob) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	select {
	case c.events <- *job:
		return nil
	default:
		return ErrFull
	}
}

// Consume returns when ctx is done, or with nil once the queue is closed and
// drained. In-flight events finish first.
func (c *memoryClient) Consume(ctx context.Context, handler JobHandler, concurrency int) error {
	concurrency = clampConcurrency(concurrency)

	var wg sync.WaitGroup
	slots := make(chan struct{}, concurrency)
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-c.events:
			if !ok {
				return nil
			}
			slots <- struct{}{}
			wg.Add(1)
			go func() {
				defer func() {
					<-slots
					wg.Done()
				}()
				deliver(ctx, c.logger, handler, job, c.requeue)
			}()
		}
	}
}

func (c *memoryClient) Backlog(ctx context.Context) (int64, error) {
	return int64(len(c.events)), nil
}

func (c *memoryClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

func (c *memoryClient) Health(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
