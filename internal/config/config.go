package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Queue     QueueConfig
	API       APIConfig
	Worker    WorkerConfig
	FrontDesk FrontDeskConfig
	Tracing   TracingConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// QueueConfig holds queue configuration (Redis)
type QueueConfig struct {
	RedisURL  string
	QueueName string
}

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// APIConfig holds API server configuration
type APIConfig struct {
	Port int
	// Storage is StoragePostgres or StorageMemory
	Storage string
	// MutationRate is the sustained number of write requests per second
	MutationRate  float64
	MutationBurst int
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	Concurrency int
}

// FrontDeskConfig holds the front-office client configuration
type FrontDeskConfig struct {
	APIURL       string
	StaffID      int64
	StoreID      int64
	Timeout      time.Duration
	SuccessDelay time.Duration

	// BreakerFailures consecutive transport failures open the circuit; 0 disables it
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// TracingConfig holds OpenTelemetry export configuration
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector URL; empty disables export
	Endpoint    string
	SampleRatio float64
}

// LoadDotEnv loads variables from an env file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdle, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %w", err)
	}

	storage := getEnv("STORAGE_DRIVER", StoragePostgres)
	if storage != StoragePostgres && storage != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: %q", storage)
	}

	mutationRate, err := strconv.ParseFloat(getEnv("API_MUTATION_RATE", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid API_MUTATION_RATE: %w", err)
	}

	mutationBurst, err := strconv.Atoi(getEnv("API_MUTATION_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_MUTATION_BURST: %w", err)
	}

	workerConcurrency, err := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	staffID, err := strconv.ParseInt(getEnv("FRONTDESK_STAFF_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FRONTDESK_STAFF_ID: %w", err)
	}

	storeID, err := strconv.ParseInt(getEnv("FRONTDESK_STORE_ID", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FRONTDESK_STORE_ID: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("FRONTDESK_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FRONTDESK_TIMEOUT: %w", err)
	}

	successDelay, err := time.ParseDuration(getEnv("FRONTDESK_SUCCESS_DELAY", "1500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid FRONTDESK_SUCCESS_DELAY: %w", err)
	}

	breakerFailures, err := strconv.ParseUint(getEnv("FRONTDESK_BREAKER_FAILURES", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid FRONTDESK_BREAKER_FAILURES: %w", err)
	}

	breakerCooldown, err := time.ParseDuration(getEnv("FRONTDESK_BREAKER_COOLDOWN", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FRONTDESK_BREAKER_COOLDOWN: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(getEnv("OTEL_TRACES_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_TRACES_SAMPLE_RATIO: %w", err)
	}
	if sampleRatio < 0 || sampleRatio > 1 {
		return nil, fmt.Errorf("invalid OTEL_TRACES_SAMPLE_RATIO: %v is outside [0, 1]", sampleRatio)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dvdrental"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: connLifetime,
		},
		Queue: QueueConfig{
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			QueueName: getEnv("QUEUE_NAME", "rental_events"),
		},
		API: APIConfig{
			Port:          apiPort,
			Storage:       storage,
			MutationRate:  mutationRate,
			MutationBurst: mutationBurst,
		},
		Worker: WorkerConfig{
			Concurrency: workerConcurrency,
		},
		FrontDesk: FrontDeskConfig{
			APIURL:          getEnv("FRONTDESK_API_URL", "http://localhost:5000/api"),
			StaffID:         staffID,
			StoreID:         storeID,
			Timeout:         timeout,
			SuccessDelay:    successDelay,
			BreakerFailures: uint32(breakerFailures),
			BreakerCooldown: breakerCooldown,
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRatio: sampleRatio,
		},
	}, nil
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
