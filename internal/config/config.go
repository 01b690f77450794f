// Package config loads service configuration from the environment.
// A .env file in the working directory is loaded first when present,
// mirroring how the service is run in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide configuration. Values are read once at
// startup and immutable afterwards.
type Config struct {
	// External API
	BaseURL        string        // EXT_API_BASE_URL
	Token          string        // EXT_API_TOKEN (required)
	RequestTimeout time.Duration // REQUEST_TIMEOUT
	MaxAttempts    int           // MAX_ATTEMPTS
	InitialBackoff time.Duration // INITIAL_BACKOFF
	MaxBackoff     time.Duration // MAX_BACKOFF
	PageSize       int           // PAGE_SIZE

	// Service
	Port      string // PORT
	LogLevel  string // LOG_LEVEL
	LogPretty bool   // LOG_PRETTY
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a missing EXT_API_TOKEN is.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BaseURL:  getEnv("EXT_API_BASE_URL", "http://localhost:8099"),
		Token:    os.Getenv("EXT_API_TOKEN"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Token == "" {
		return Config{}, fmt.Errorf("missing required environment variable: EXT_API_TOKEN")
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.InitialBackoff, err = getDuration("INITIAL_BACKOFF", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.MaxBackoff, err = getDuration("MAX_BACKOFF", 4*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttempts, err = getInt("MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = getInt("PAGE_SIZE", 25); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = getBool("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}

	if cfg.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("MAX_ATTEMPTS must be >= 1 (got %d)", cfg.MaxAttempts)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
