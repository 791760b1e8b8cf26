package search

import (
	"context"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
)

// Searcher defines the remote repository search client.
type Searcher interface {
	// Search emits Loading, then exactly one terminal response, then closes.
	// Failures carry a classification code, never the raw cause.
	Search(ctx context.Context, keyword string) <-chan domain.Response[[]*domain.Repository]
}

// SearcherFunc adapts a blocking function to the Searcher interface
type SearcherFunc func(ctx context.Context, keyword string) domain.Response[[]*domain.Repository]

// Search implements Searcher
func (f SearcherFunc) Search(ctx context.Context, keyword string) <-chan domain.Response[[]*domain.Repository] {
	return domain.Stream(func() domain.Response[[]*domain.Repository] {
		return f(ctx, keyword)
	})
}
