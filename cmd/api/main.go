package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kurihiro0119/github-repo-finder/internal/api"
	"github.com/kurihiro0119/github-repo-finder/internal/app"
	"github.com/kurihiro0119/github-repo-finder/internal/config"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/viewmodel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog := app.NewLogger(cfg)
	defer closeLog()

	// Initialize storage
	backend, err := app.OpenStorage(cfg)
	if err != nil {
		logger.Error("failed to open storage", "type", cfg.StorageType, "error", err)
		return err
	}
	defer backend.Close()

	store := localstore.New(backend, logger)

	searcher, err := app.NewSearcher(cfg, logger)
	if err != nil {
		logger.Error("failed to create searcher", "error", err)
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	// Session shared by the /api/v1/home routes
	home := viewmodel.NewHome(context.Background(), searcher, store, viewmodel.HomeOptions{
		DiscardStale: cfg.DiscardStaleSearch,
		Logger:       logger,
	})
	defer home.Close()

	handler := api.NewHandler(searcher, store, home, api.HandlerOptions{
		DefaultLanguage: cfg.Language,
		Logger:          logger,
	})

	// Setup routes
	router := api.SetupRoutes(handler, logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("starting API server",
		"addr", addr,
		"storage", cfg.StorageType,
		"authenticated", cfg.GitHubToken != "",
	)

	if err := router.Run(addr); err != nil {
		logger.Error("failed to start server", "error", err)
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
