// Package viewmodel holds the screen state controllers: the search home
// screen, the saved list and the repository detail view.
package viewmodel

import (
	"context"
	"strings"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/reconcile"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
	"github.com/kurihiro0119/github-repo-finder/internal/state"
)

// IsBlank reports whether keyword is empty or whitespace only
func IsBlank(keyword string) bool {
	return strings.TrimSpace(keyword) == ""
}

func emptyResults() domain.Response[[]*domain.Repository] {
	return domain.Success([]*domain.Repository{})
}

// AnnotatedSearch searches for keyword, then marks each result with its
// saved-list membership. It blocks until a terminal response is available.
// A blank keyword succeeds with no results and no network call.
func AnnotatedSearch(ctx context.Context, searcher search.Searcher, store localstore.Store, keyword string) domain.Response[[]*domain.Repository] {
	if IsBlank(keyword) {
		return emptyResults()
	}

	outer := domain.Await(searcher.Search(ctx, keyword))
	return domain.Match(outer,
		func() domain.Response[[]*domain.Repository] {
			return domain.Failure[[]*domain.Repository](apperrors.ErrCodeGeneric)
		},
		func(results []*domain.Repository) domain.Response[[]*domain.Repository] {
			saved := domain.Await(store.GetSavedList(ctx))
			return domain.Map(saved, func(list []*domain.SavedRepository) []*domain.Repository {
				return reconcile.Reconcile(results, reconcile.SavedIDs(list))
			})
		},
		domain.Failure[[]*domain.Repository],
	)
}

// pipe forwards the values of ch into cell and returns the terminal one.
// Loading is not republished when the cell already shows Loading. A stream
// that ends without a terminal value publishes Error(GENERIC).
func pipe[T any](ch <-chan domain.Response[T], cell *state.Cell[domain.Response[T]]) domain.Response[T] {
	if ch == nil {
		r := domain.Failure[T](apperrors.ErrCodeGeneric)
		cell.Set(r)
		return r
	}

	last := domain.Loading[T]()
	for r := range ch {
		last = r
		if r.IsTerminal() {
			cell.Set(r)
			break
		}
		cell.CompareAndSet(func(cur domain.Response[T]) bool {
			return !cur.IsLoading()
		}, r)
	}
	if !last.IsTerminal() {
		last = domain.Failure[T](apperrors.ErrCodeGeneric)
		cell.Set(last)
	}
	// let the producer finish if it still has values
	go func() {
		for range ch {
		}
	}()
	return last
}
