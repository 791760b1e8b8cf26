package viewmodel

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/reconcile"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
	"github.com/kurihiro0119/github-repo-finder/internal/state"
)

// HomeOptions configures a Home controller
type HomeOptions struct {
	// DiscardStale drops results of a search superseded by a newer Search
	// or ClearKeyword. When false the last search to finish wins.
	DiscardStale bool
	Logger       *slog.Logger
}

// Home is the search screen controller. Public operations return
// immediately; I/O runs on goroutines bound to the controller context.
type Home struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  *tasks

	searcher     search.Searcher
	store        localstore.Store
	logger       *slog.Logger
	discardStale bool

	generation atomic.Uint64

	keyword          *state.Cell[string]
	searchState      *state.Cell[domain.Response[[]*domain.Repository]]
	previewSaveState *state.Cell[domain.Response[bool]]
	saveToggleState  *state.Cell[domain.Response[bool]]
}

// NewHome creates a Home controller whose work is cancelled with ctx
func NewHome(ctx context.Context, searcher search.Searcher, store localstore.Store, opts HomeOptions) *Home {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	logger = logger.With("component", "home")

	return &Home{
		ctx:              ctx,
		cancel:           cancel,
		tasks:            newTasks(logger),
		searcher:         searcher,
		store:            store,
		logger:           logger,
		discardStale:     opts.DiscardStale,
		keyword:          state.NewCell(""),
		searchState:      state.NewCell(emptyResults()),
		previewSaveState: state.NewCell(domain.Loading[bool]()),
		saveToggleState:  state.NewCell(domain.Loading[bool]()),
	}
}

// Keyword returns the current search keyword
func (h *Home) Keyword() string { return h.keyword.Get() }

// SearchState returns the current search outcome
func (h *Home) SearchState() domain.Response[[]*domain.Repository] { return h.searchState.Get() }

// PreviewSaveState returns the outcome of the last SelectRepository
func (h *Home) PreviewSaveState() domain.Response[bool] { return h.previewSaveState.Get() }

// SaveToggleState returns the outcome of the last saved list change
func (h *Home) SaveToggleState() domain.Response[bool] { return h.saveToggleState.Get() }

func (h *Home) SubscribeKeyword(buffer int) (<-chan string, func()) {
	return h.keyword.Subscribe(buffer)
}

func (h *Home) SubscribeSearchState(buffer int) (<-chan domain.Response[[]*domain.Repository], func()) {
	return h.searchState.Subscribe(buffer)
}

func (h *Home) SubscribePreviewSaveState(buffer int) (<-chan domain.Response[bool], func()) {
	return h.previewSaveState.Subscribe(buffer)
}

func (h *Home) SubscribeSaveToggleState(buffer int) (<-chan domain.Response[bool], func()) {
	return h.saveToggleState.Subscribe(buffer)
}

// UpdateKeyword sets the keyword without searching
func (h *Home) UpdateKeyword(keyword string) {
	h.keyword.Set(keyword)
}

// ClearKeyword resets the keyword and the search results
func (h *Home) ClearKeyword() {
	h.generation.Add(1)
	h.keyword.Set("")
	h.searchState.Set(emptyResults())
}

// Search runs the annotated search for the current keyword. A blank
// keyword publishes an empty success synchronously.
func (h *Home) Search() {
	keyword := h.keyword.Get()
	gen := h.generation.Add(1)

	if IsBlank(keyword) {
		h.searchState.Set(emptyResults())
		return
	}

	h.searchState.Set(domain.Loading[[]*domain.Repository]())

	traceID := uuid.New().String()
	logger := h.logger.With("trace_id", traceID, "keyword", keyword)
	logger.Debug("search started")

	h.goSafe(func() {
		result := AnnotatedSearch(h.ctx, h.searcher, h.store, keyword)
		if code, ok := result.Code(); ok {
			logger.Warn("search failed", "code", code)
		}
		if !h.publishSearch(gen, result) {
			logger.Debug("discarded superseded search result")
		}
	}, func() {
		logger.Error("search panicked")
		h.publishSearch(gen, domain.Failure[[]*domain.Repository](apperrors.ErrCodeGeneric))
	})
}

func (h *Home) publishSearch(gen uint64, result domain.Response[[]*domain.Repository]) bool {
	return h.searchState.CompareAndSet(func(domain.Response[[]*domain.Repository]) bool {
		return !h.discardStale || h.generation.Load() == gen
	}, result)
}

// SelectRepository stores repo as the previewed repository
func (h *Home) SelectRepository(repo *domain.Repository) {
	if repo == nil {
		h.previewSaveState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
		return
	}
	h.previewSaveState.Set(domain.Loading[bool]())

	h.goSafe(func() {
		pipe(h.store.SetPreviewed(h.ctx, repo.Clone()), h.previewSaveState)
	}, func() {
		h.previewSaveState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
	})
}

// AddToSaved adds repo to the saved list
func (h *Home) AddToSaved(repo *domain.Repository) {
	h.changeSaved(repo, true)
}

// RemoveFromSaved removes repo from the saved list
func (h *Home) RemoveFromSaved(repo *domain.Repository) {
	h.changeSaved(repo, false)
}

// ToggleSaved flips the saved flag of repo
func (h *Home) ToggleSaved(repo *domain.Repository) {
	if repo == nil {
		h.saveToggleState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
		return
	}
	h.changeSaved(repo, !repo.IsSaved)
}

func (h *Home) changeSaved(repo *domain.Repository, save bool) {
	if repo == nil {
		h.saveToggleState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
		return
	}
	h.saveToggleState.Set(domain.Loading[bool]())
	saved := repo.ToSaved()

	h.goSafe(func() {
		var ch <-chan domain.Response[bool]
		if save {
			ch = h.store.AddToSaved(h.ctx, saved)
		} else {
			ch = h.store.RemoveFromSaved(h.ctx, saved)
		}
		if r := pipe(ch, h.saveToggleState); r.IsSuccess() {
			h.patchSaved(repo.ID, save)
		}
	}, func() {
		h.saveToggleState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
	})
}

func (h *Home) patchSaved(id int64, saved bool) {
	h.searchState.Update(func(cur domain.Response[[]*domain.Repository]) domain.Response[[]*domain.Repository] {
		results, ok := cur.Data()
		if !ok {
			return cur
		}
		return domain.Success(reconcile.SetSaved(results, id, saved))
	})
}

// RefreshSavedFlags re-annotates the current results against the saved
// list without searching again. On a saved list error the results are kept.
func (h *Home) RefreshSavedFlags() {
	if !h.searchState.Get().IsSuccess() {
		return
	}

	h.goSafe(func() {
		saved := domain.Await(h.store.GetSavedList(h.ctx))
		list, ok := saved.Data()
		if !ok {
			code, _ := saved.Code()
			h.logger.Warn("saved list unavailable, keeping results", "code", code)
			return
		}
		ids := reconcile.SavedIDs(list)
		h.searchState.Update(func(cur domain.Response[[]*domain.Repository]) domain.Response[[]*domain.Repository] {
			results, ok := cur.Data()
			if !ok {
				return cur
			}
			return domain.Success(reconcile.Reconcile(results, ids))
		})
	}, func() {
		h.logger.Error("refresh panicked")
	})
}

func (h *Home) goSafe(fn func(), onPanic func()) {
	h.tasks.goSafe(fn, onPanic)
}

// Wait blocks until in-flight operations finish. It is safe to call while
// other goroutines keep starting operations.
func (h *Home) Wait() {
	h.tasks.wait()
}

// Close cancels in-flight operations and waits for them
func (h *Home) Close() {
	h.cancel()
	h.tasks.wait()
}
