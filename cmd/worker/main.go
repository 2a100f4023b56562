package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Raymond9734/film-rental-frontdesk/internal/config"
	"github.com/Raymond9734/film-rental-frontdesk/internal/db"
	"github.com/Raymond9734/film-rental-frontdesk/internal/queue"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository"
	"github.com/Raymond9734/film-rental-frontdesk/internal/worker"
)

const (
	backlogInterval = 30 * time.Second
	drainTimeout    = 30 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting rental tally worker")

	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		logger.Error("failed to load env file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.Database.DSN(), db.Pool{
		MaxOpen:     cfg.Database.MaxOpenConns,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	events, err := queue.NewRedisClient(queue.RedisConfig{
		URL:       cfg.Queue.RedisURL,
		QueueName: cfg.Queue.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer events.Close()

	processor := worker.NewRentalEventProcessor(repository.NewRentalRepository(database.DB), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.Consume(gctx, processor.Process, cfg.Worker.Concurrency)
	})
	g.Go(func() error {
		reportBacklog(gctx, events, logger)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down worker, finishing in-flight events")
		select {
		case <-done:
		case <-time.After(drainTimeout):
			logger.Warn("timed out waiting for in-flight events")
		}
	}

	logger.Info("worker stopped gracefully")
}

// reportBacklog logs the number of untallied rental events until ctx is done
func reportBacklog(ctx context.Context, events queue.Client, logger *slog.Logger) {
	ticker := time.NewTicker(backlogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := events.Backlog(ctx)
			if err != nil {
				logger.Warn("failed to read rental event backlog", slog.String("error", err.Error()))
				continue
			}
			logger.Info("rental event backlog", slog.Int64("pending", n))
		}
	}
}
