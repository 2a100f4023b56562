package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

const (
	popTimeout   = time.Second
	errorBackoff = time.Second
)

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL       string
	QueueName string
}

// redisClient keeps rental events in a Redis list. Producers LPUSH and the
// consumer BRPOPs, so events are tallied in commit order.
type redisClient struct {
	rdb    *redis.Client
	list   string
	logger *slog.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg RedisConfig, logger *slog.Logger) (Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis",
		slog.String("addr", opts.Addr),
		slog.String("queue", cfg.QueueName),
	)

	return &redisClient{rdb: rdb, list: cfg.QueueName, logger: logger}, nil
}

func (c *redisClient) Publish(ctx context.Context, job *models.RentalJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal rental event: %w", err)
	}
	if err := c.rdb.LPush(ctx, c.list, data).Err(); err != nil {
		return fmt.Errorf("failed to push rental event: %w", err)
	}

	c.logger.Debug("rental event queued",
		slog.Int64("rental_id", job.RentalID),
		slog.String("correlation_id", job.CorrelationID),
		slog.Int("attempts", job.Attempts),
	)
	return nil
}

// Consume returns ctx's error once ctx is done and every in-flight event has
// finished.
func (c *redisClient) Consume(ctx context.Context, handler JobHandler, concurrency int) error {
	concurrency = clampConcurrency(concurrency)

	c.logger.Info("starting rental event consumer",
		slog.String("queue", c.list),
		slog.Int("concurrency", concurrency),
	)

	var wg sync.WaitGroup
	slots := make(chan struct{}, concurrency)
	defer func() {
		wg.Wait()
		c.logger.Info("rental event consumer stopped")
	}()

	for {
		job, err := c.pop(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Error("failed to pop rental event", slog.String("error", err.Error()))
			if !sleep(ctx, errorBackoff) {
				return ctx.Err()
			}
			continue
		}
		if job == nil {
			continue
		}

		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			// Not started yet, so it goes back for the next consumer.
			if err := c.Publish(context.WithoutCancel(ctx), job); err != nil {
				c.logger.Error("failed to return rental event", slog.String("error", err.Error()))
			}
			return ctx.Err()
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-slots
				wg.Done()
			}()
			deliver(ctx, c.logger, handler, *job, c.Publish)
		}()
	}
}

// pop waits up to popTimeout for an event. It returns nil, nil when the list
// stayed empty or the payload could not be decoded.
func (c *redisClient) pop(ctx context.Context) (*models.RentalJob, error) {
	result, err := c.rdb.BRPop(ctx, popTimeout, c.list).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// BRPOP answers [list, value]
	if len(result) < 2 {
		c.logger.Error("unexpected BRPOP result", slog.Int("len", len(result)))
		return nil, nil
	}

	var job models.RentalJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		c.logger.Error("dropping undecodable rental event",
			slog.String("error", err.Error()),
			slog.String("data", result[1]),
		)
		return nil, nil
	}
	return &job, nil
}

func (c *redisClient) Backlog(ctx context.Context) (int64, error) {
	n, err := c.rdb.LLen(ctx, c.list).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}

func (c *redisClient) Close() error {
	c.logger.Info("closing Redis connection")
	return c.rdb.Close()
}

func (c *redisClient) Health(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
