package storage

import (
	"context"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
)

// Storage is the abstract interface for the persistence layer
type Storage interface {
	// Previewed repository slot (at most one row, last write wins)
	SetPreviewed(ctx context.Context, repo *domain.Repository) error
	GetPreviewed(ctx context.Context) (*domain.Repository, error)

	// Saved list operations, keyed by repository id
	SaveRepository(ctx context.Context, saved *domain.SavedRepository) error
	DeleteRepository(ctx context.Context, id int64) error
	ListSaved(ctx context.Context) ([]*domain.SavedRepository, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
