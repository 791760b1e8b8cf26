// Package app builds the components both binaries share from a Config.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kurihiro0119/github-repo-finder/internal/config"
	"github.com/kurihiro0119/github-repo-finder/internal/logging"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
	"github.com/kurihiro0119/github-repo-finder/internal/storage/bolt"
	"github.com/kurihiro0119/github-repo-finder/internal/storage/postgres"
	"github.com/kurihiro0119/github-repo-finder/internal/storage/sqlite"
)

// searchMinDelay spaces consecutive search calls
const searchMinDelay = 100 * time.Millisecond

// OpenStorage opens the backend selected by STORAGE_TYPE
func OpenStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		s, err := postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL storage: %w", err)
		}
		return s, nil
	case "bolt":
		s, err := bolt.NewBoltStorage(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt storage: %w", err)
		}
		return s, nil
	default:
		s, err := sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		return s, nil
	}
}

// NewSearcher creates the GitHub search client
func NewSearcher(cfg *config.Config, logger *slog.Logger) (search.Searcher, error) {
	return search.NewGitHubSearcher(search.Options{
		Token:       cfg.GitHubToken,
		BaseURL:     cfg.GitHubAPIURL,
		PerPage:     cfg.SearchPerPage,
		Timeout:     cfg.HTTPTimeout,
		RateLimiter: search.NewRateLimiter(searchMinDelay, logger),
		Logger:      logger,
	})
}

// NewLogger creates the process logger and installs it as the slog default
func NewLogger(cfg *config.Config) (*slog.Logger, func() error) {
	logger, closeFn := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	slog.SetDefault(logger)
	return logger, closeFn
}
