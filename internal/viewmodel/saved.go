package viewmodel

import (
	"context"
	"log/slog"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/state"
)

// SavedList is the saved list screen controller
type SavedList struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  *tasks

	store  localstore.Store
	logger *slog.Logger

	savedListState   *state.Cell[domain.Response[[]*domain.SavedRepository]]
	previewSaveState *state.Cell[domain.Response[bool]]
	removeState      *state.Cell[domain.Response[bool]]
}

// NewSavedList creates a SavedList controller
func NewSavedList(ctx context.Context, store localstore.Store, logger *slog.Logger) *SavedList {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	logger = logger.With("component", "saved_list")

	return &SavedList{
		ctx:              ctx,
		cancel:           cancel,
		tasks:            newTasks(logger),
		store:            store,
		logger:           logger,
		savedListState:   state.NewCell(domain.Success([]*domain.SavedRepository{})),
		previewSaveState: state.NewCell(domain.Loading[bool]()),
		removeState:      state.NewCell(domain.Loading[bool]()),
	}
}

func (s *SavedList) SavedListState() domain.Response[[]*domain.SavedRepository] {
	return s.savedListState.Get()
}

func (s *SavedList) PreviewSaveState() domain.Response[bool] { return s.previewSaveState.Get() }

func (s *SavedList) RemoveState() domain.Response[bool] { return s.removeState.Get() }

func (s *SavedList) SubscribeSavedListState(buffer int) (<-chan domain.Response[[]*domain.SavedRepository], func()) {
	return s.savedListState.Subscribe(buffer)
}

// Load reads the saved list
func (s *SavedList) Load() {
	s.savedListState.Set(domain.Loading[[]*domain.SavedRepository]())
	s.run(func() {
		pipe(s.store.GetSavedList(s.ctx), s.savedListState)
	}, func() {
		s.savedListState.Set(domain.Failure[[]*domain.SavedRepository](apperrors.ErrCodeGeneric))
	})
}

// Select stores saved as the previewed repository
func (s *SavedList) Select(saved *domain.SavedRepository) {
	if saved == nil {
		s.previewSaveState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
		return
	}
	s.previewSaveState.Set(domain.Loading[bool]())
	s.run(func() {
		pipe(s.store.SetPreviewed(s.ctx, saved.ToRepository()), s.previewSaveState)
	}, func() {
		s.previewSaveState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
	})
}

// Remove deletes saved from the list and reloads it on success
func (s *SavedList) Remove(saved *domain.SavedRepository) {
	if saved == nil {
		s.removeState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
		return
	}
	s.removeState.Set(domain.Loading[bool]())
	s.run(func() {
		if r := pipe(s.store.RemoveFromSaved(s.ctx, saved), s.removeState); !r.IsSuccess() {
			return
		}
		s.savedListState.Set(domain.Loading[[]*domain.SavedRepository]())
		pipe(s.store.GetSavedList(s.ctx), s.savedListState)
	}, func() {
		s.removeState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
	})
}

func (s *SavedList) run(fn func(), onPanic func()) {
	s.tasks.goSafe(fn, onPanic)
}

// Wait blocks until in-flight operations finish
func (s *SavedList) Wait() { s.tasks.wait() }

// Close cancels in-flight operations and waits for them
func (s *SavedList) Close() {
	s.cancel()
	s.tasks.wait()
}
