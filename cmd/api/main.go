package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Raymond9734/film-rental-frontdesk/internal/config"
	"github.com/Raymond9734/film-rental-frontdesk/internal/db"
	"github.com/Raymond9734/film-rental-frontdesk/internal/handler"
	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
	"github.com/Raymond9734/film-rental-frontdesk/internal/queue"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository"
	"github.com/Raymond9734/film-rental-frontdesk/internal/repository/memory"
	"github.com/Raymond9734/film-rental-frontdesk/internal/service"
	"github.com/Raymond9734/film-rental-frontdesk/internal/telemetry"
	"github.com/Raymond9734/film-rental-frontdesk/internal/worker"
)

// memoryQueueCapacity bounds the in-process rental event queue
const memoryQueueCapacity = 256

type storage struct {
	customers repository.CustomerRepository
	films     repository.FilmRepository
	rentals   repository.RentalRepository
	health    handler.Pinger
	queue     queue.Client
	close     func()
}

func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting film rental API server")

	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		logger.Error("failed to load env file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "frontdesk-api",
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		logger.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer flushTraces(shutdownTracing, logger)

	var store *storage
	switch cfg.API.Storage {
	case config.StorageMemory:
		store = openMemory(ctx, cfg, logger)
	default:
		store, err = openPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	defer store.close()

	// Initialize services
	customerSvc := service.NewCustomerService(store.customers, logger)
	filmSvc := service.NewFilmService(store.films, logger)
	rentalSvc := service.NewRentalService(store.rentals, store.queue, logger)

	var limiter *rate.Limiter
	if cfg.API.MutationRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.API.MutationRate), cfg.API.MutationBurst)
	}

	router := handler.NewRouter(handler.Handlers{
		Customers: handler.NewCustomerHandler(customerSvc, logger),
		Films:     handler.NewFilmHandler(filmSvc, logger),
		Rentals:   handler.NewRentalHandler(rentalSvc, logger),
		Health:    handler.NewHealthHandler(cfg.API.Storage, store.health, store.queue, logger),
	}, limiter, logger)

	// Create server
	addr := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening",
			slog.String("addr", addr),
			slog.String("storage", cfg.API.Storage),
		)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("server stopped gracefully")
	}
}

// openPostgres connects to the database and Redis and applies the schema
func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	database, err := db.Open(ctx, cfg.Database.DSN(), db.Pool{
		MaxOpen:     cfg.Database.MaxOpenConns,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database")

	if err := database.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	queueClient, err := queue.NewRedisClient(queue.RedisConfig{
		URL:       cfg.Queue.RedisURL,
		QueueName: cfg.Queue.QueueName,
	}, logger)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &storage{
		customers: repository.NewCustomerRepository(database.DB),
		films:     repository.NewFilmRepository(database.DB),
		rentals:   repository.NewRentalRepository(database.DB),
		health:    database,
		queue:     queueClient,
		close: func() {
			_ = queueClient.Close()
			_ = database.Close()
		},
	}, nil
}

// openMemory seeds a demo store and tallies rentals in process
func openMemory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *storage {
	store := memory.NewDemoStore()
	queueClient := queue.NewMemoryClient(memoryQueueCapacity, logger)
	processor := worker.NewRentalEventProcessor(store.Rentals(), logger)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		err := queueClient.Consume(ctx, func(ctx context.Context, job *models.RentalJob) error {
			return processor.Process(ctx, job)
		}, cfg.Worker.Concurrency)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer error", slog.String("error", err.Error()))
		}
	}()

	logger.Warn("using in-memory storage; data is lost on exit")

	return &storage{
		customers: store.Customers(),
		films:     store.Films(),
		rentals:   store.Rentals(),
		health:    store,
		queue:     queueClient,
		close: func() {
			_ = queueClient.Close()
			<-consumerDone
		},
	}
}

func flushTraces(shutdown telemetry.Shutdown, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("failed to flush traces", slog.String("error", err.Error()))
	}
}
