package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken   string // optional; unauthenticated search has a lower rate limit
	GitHubAPIURL  string
	SearchPerPage int
	HTTPTimeout   time.Duration

	// Storage
	StorageType string // "sqlite", "postgres" or "bolt"
	SQLitePath  string
	PostgresURL string
	BoltPath    string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
	LogFile   string // optional rotated log file

	// Language used for error messages when no Accept-Language is given
	Language string

	// DiscardStaleSearch drops results of superseded searches
	DiscardStaleSearch bool
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	perPage, err := getEnvInt("SEARCH_PER_PAGE", 30)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	discardStale, err := getEnvBool("DISCARD_STALE_SEARCH", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		GitHubToken:        getEnv("GITHUB_TOKEN", ""),
		GitHubAPIURL:       getEnv("GITHUB_API_URL", "https://api.github.com/"),
		SearchPerPage:      perPage,
		HTTPTimeout:        timeout,
		StorageType:        getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:         getEnv("SQLITE_PATH", "./finder.db"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		BoltPath:           getEnv("BOLT_PATH", "./finder.bolt"),
		APIPort:            getEnv("API_PORT", "8080"),
		APIHost:            getEnv("API_HOST", "localhost"),
		APIEndpoint:        getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LogFile:            getEnv("LOG_FILE", ""),
		Language:           getEnv("LANGUAGE", "en"),
		DiscardStaleSearch: discardStale,
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: "must be a duration such as 30s"}
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ConfigError{Field: key, Message: "must be true or false"}
	}
	return b, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StorageType {
	case "sqlite":
		if c.SQLitePath == "" {
			return &ConfigError{Field: "SQLITE_PATH", Message: "SQLite path is required when STORAGE_TYPE is 'sqlite'"}
		}
	case "postgres":
		if c.PostgresURL == "" {
			return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
		}
	case "bolt":
		if c.BoltPath == "" {
			return &ConfigError{Field: "BOLT_PATH", Message: "bolt path is required when STORAGE_TYPE is 'bolt'"}
		}
	default:
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite', 'postgres' or 'bolt'"}
	}
	if c.SearchPerPage < 1 || c.SearchPerPage > 100 {
		return &ConfigError{Field: "SEARCH_PER_PAGE", Message: "must be between 1 and 100"}
	}
	if c.HTTPTimeout <= 0 {
		return &ConfigError{Field: "HTTP_TIMEOUT", Message: "must be positive"}
	}
	if !strings.HasPrefix(c.GitHubAPIURL, "http://") && !strings.HasPrefix(c.GitHubAPIURL, "https://") {
		return &ConfigError{Field: "GITHUB_API_URL", Message: "must be an http(s) URL"}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return &ConfigError{Field: "LOG_FORMAT", Message: "must be 'text' or 'json'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
