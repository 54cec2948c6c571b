package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	ReviewWorkerCount int
	ReviewQueueSize   int
	CommitTimeout     time.Duration
	SessionBatchLimit int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "file:studydeck.db"),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
		ReviewWorkerCount: envIntOr("REVIEW_WORKER_COUNT", 2),
		ReviewQueueSize:   envIntOr("REVIEW_QUEUE_SIZE", 64),
		CommitTimeout:     envDurOr("COMMIT_TIMEOUT", 10*time.Second),
		SessionBatchLimit: envIntOr("SESSION_BATCH_LIMIT", 0),
	}
}

// Validate checks the configuration for values that would break startup.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ReviewWorkerCount < 1 {
		return fmt.Errorf("REVIEW_WORKER_COUNT must be at least 1")
	}
	if c.ReviewQueueSize < 1 {
		return fmt.Errorf("REVIEW_QUEUE_SIZE must be at least 1")
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("COMMIT_TIMEOUT must be positive")
	}
	if c.SessionBatchLimit < 0 {
		return fmt.Errorf("SESSION_BATCH_LIMIT cannot be negative")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
