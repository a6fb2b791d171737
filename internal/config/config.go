// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values shared by the API server and the
// schoolctl command. Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// RedisURL is where stale-view events are published. When empty the
	// events are only logged.
	RedisURL string

	// StaleChannel is the Redis pub/sub channel for stale-view events.
	StaleChannel string

	// FetchPageSize is the number of rows requested per store read.
	// Values above the store's page cap are clamped.
	FetchPageSize int

	// IngestBatchSize is the number of rows committed per ingest transaction.
	IngestBatchSize int

	// MaxBodyBytes caps request bodies. 0 disables the limit.
	MaxBodyBytes int64

	// ExtractDir is searched for the school extract when no file is given.
	ExtractDir string

	// MappingFile optionally overrides the CSV column mapping.
	MappingFile string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
// Returns an error listing any required variables that are not set and any
// numeric variables that do not parse.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RedisURL:     os.Getenv("REDIS_URL"),
		StaleChannel: getEnv("STALE_CHANNEL", "schools:stale"),
		ExtractDir:   getEnv("EXTRACT_DIR", "."),
		MappingFile:  os.Getenv("MAPPING_FILE"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	var err error
	if cfg.FetchPageSize, err = getEnvInt("FETCH_PAGE_SIZE", 1000); err != nil {
		invalid = append(invalid, "FETCH_PAGE_SIZE")
	}
	if cfg.IngestBatchSize, err = getEnvInt("INGEST_BATCH_SIZE", 500); err != nil {
		invalid = append(invalid, "INGEST_BATCH_SIZE")
	}
	if cfg.MaxBodyBytes, err = getEnvInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables must be non-negative integers: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses key as a non-negative int, returning fallback when unset.
func getEnvInt(key string, fallback int) (int, error) {
	n, err := getEnvInt64(key, int64(fallback))
	return int(n), err
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%s is negative", key)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
