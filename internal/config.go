package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Backend API
	BackendURL     string
	BackendTimeout time.Duration

	// Circuit breaker around the backend client
	BreakerFailures    int
	BreakerTimeout     time.Duration
	BreakerInterval    time.Duration
	BreakerMaxRequests int

	// List cache
	CacheDriver string // "memory" or "redis"
	RedisURL    string
	CacheTTL    time.Duration

	// Staff sessions, capped by the backend token expiry
	SessionDuration time.Duration

	// Templates are read from this directory instead of the embedded copy
	// when set, so edits show up without a rebuild.
	TemplatesDir string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Worker Configuration
	WorkerEnabled       bool
	WorkerConcurrency   int
	WorkerPollInterval  time.Duration
	WorkerJobTimeout    time.Duration
	SessionPurgeEvery   time.Duration
	WorkerShutdownAfter time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BackendURL:     getEnv("BACKEND_URL", "http://localhost:3000"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		BreakerFailures:    getEnvInt("BREAKER_FAILURES", 5),
		BreakerTimeout:     getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
		BreakerInterval:    getEnvDuration("BREAKER_INTERVAL", 60*time.Second),
		BreakerMaxRequests: getEnvInt("BREAKER_MAX_REQUESTS", 1),

		CacheDriver: getEnv("CACHE_DRIVER", "memory"),
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Second),

		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),

		TemplatesDir: getEnv("TEMPLATES_DIR", ""),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Worker defaults
		WorkerEnabled:       getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 1),
		WorkerPollInterval:  getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		WorkerJobTimeout:    getEnvDuration("WORKER_JOB_TIMEOUT", time.Minute),
		SessionPurgeEvery:   getEnvDuration("WORKER_SESSION_PURGE_INTERVAL", time.Hour),
		WorkerShutdownAfter: getEnvDuration("WORKER_SHUTDOWN_TIMEOUT", 15*time.Second),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.CacheDriver {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_DRIVER is 'redis'")
		}
	default:
		return fmt.Errorf("CACHE_DRIVER must be either 'memory' or 'redis', got: %s", c.CacheDriver)
	}

	if c.BreakerFailures < 1 {
		return fmt.Errorf("BREAKER_FAILURES must be at least 1, got: %d", c.BreakerFailures)
	}
	if c.BreakerMaxRequests < 1 {
		return fmt.Errorf("BREAKER_MAX_REQUESTS must be at least 1, got: %d", c.BreakerMaxRequests)
	}

	// Validate storage configuration
	if c.StorageProvider == "r2" {
		if c.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if c.StorageProvider != "local" {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", c.StorageProvider)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
