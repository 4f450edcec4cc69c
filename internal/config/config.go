/**
 * Configuration for the field extraction worker
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL string

	// PostgreSQL configuration
	DatabaseURL string

	// Qdrant vector database configuration
	QdrantURL        string
	QdrantCollection string

	// PaddleOCR service
	PaddleURL string

	// Tesseract configuration
	TesseractLangs []string

	// Queue driver: "asynq" or "redis" (plain list consumer)
	QueueDriver string

	// Worker configuration
	WorkerConcurrency int
	ProcessingTimeout int // milliseconds
	MaxFragments      int

	// Node environment
	NodeEnv string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:       getEnvOrThrow("DATABASE_URL"),
		QdrantURL:         getEnvOrDefault("QDRANT_URL", "localhost:6334"),
		QdrantCollection:  getEnvOrDefault("QDRANT_COLLECTION", "extraction_documents"),
		PaddleURL:         getEnvOrDefault("PADDLE_OCR_URL", "http://localhost:8868"),
		TesseractLangs:    getEnvAsListOrDefault("TESSERACT_LANGS", []string{"rus", "eng"}),
		QueueDriver:       getEnvOrDefault("QUEUE_DRIVER", "asynq"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300000), // 5 minutes
		MaxFragments:      getEnvAsIntOrDefault("MAX_FRAGMENTS", 10000),
		NodeEnv:           getEnvOrDefault("NODE_ENV", "development"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.QueueDriver != "asynq" && c.QueueDriver != "redis" {
		return fmt.Errorf("QUEUE_DRIVER must be \"asynq\" or \"redis\", got %q", c.QueueDriver)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxFragments < 1 || c.MaxFragments > 1000000 {
		return fmt.Errorf("MAX_FRAGMENTS must be between 1 and 1000000, got %d", c.MaxFragments)
	}

	if len(c.TesseractLangs) == 0 {
		return fmt.Errorf("TESSERACT_LANGS must name at least one language")
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or returns error
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault gets a comma-separated environment variable or
// returns default
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
