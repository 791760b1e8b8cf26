package main

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/reconcile"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
	"github.com/kurihiro0119/github-repo-finder/internal/viewmodel"
	"github.com/kurihiro0119/github-repo-finder/pkg/client"
)

// backend is what the commands run against: local storage plus GitHub, or a
// running API server
type backend interface {
	Search(ctx context.Context, keyword string) ([]*domain.Repository, error)
	SavedList(ctx context.Context) ([]*domain.SavedRepository, error)
	Save(ctx context.Context, repo *domain.Repository) error
	Unsave(ctx context.Context, id int64) error
	// Previewed returns the previewed repository annotated with its saved
	// flag, nil when none is set
	Previewed(ctx context.Context) (*domain.Repository, error)
	SetPreviewed(ctx context.Context, repo *domain.Repository) error
	// TogglePreviewed flips the saved flag of the previewed repository
	TogglePreviewed(ctx context.Context) (*domain.Repository, error)
	Close() error
}

type localBackend struct {
	storage  storage.Storage
	searcher search.Searcher
	store    localstore.Store
	lang     language.Tag
	logger   *slog.Logger
}

func newLocalBackend(st storage.Storage, searcher search.Searcher, lang language.Tag, logger *slog.Logger) *localBackend {
	return &localBackend{
		storage:  st,
		searcher: searcher,
		store:    localstore.New(st, logger),
		lang:     lang,
		logger:   logger,
	}
}

func (b *localBackend) Search(ctx context.Context, keyword string) ([]*domain.Repository, error) {
	return unwrap(viewmodel.AnnotatedSearch(ctx, b.searcher, b.store, keyword), b.lang)
}

func (b *localBackend) SavedList(ctx context.Context) ([]*domain.SavedRepository, error) {
	list := viewmodel.NewSavedList(ctx, b.store, b.logger)
	defer list.Close()

	list.Load()
	list.Wait()
	return unwrap(list.SavedListState(), b.lang)
}

func (b *localBackend) Save(ctx context.Context, repo *domain.Repository) error {
	_, err := unwrap(domain.Await(b.store.AddToSaved(ctx, repo.ToSaved())), b.lang)
	return err
}

func (b *localBackend) Unsave(ctx context.Context, id int64) error {
	list := viewmodel.NewSavedList(ctx, b.store, b.logger)
	defer list.Close()

	list.Remove(&domain.SavedRepository{Repository: domain.Repository{ID: id}})
	list.Wait()
	_, err := unwrap(list.RemoveState(), b.lang)
	return err
}

func (b *localBackend) Previewed(ctx context.Context) (*domain.Repository, error) {
	detail := viewmodel.NewDetail(ctx, b.store, b.logger)
	defer detail.Close()

	detail.Load()
	detail.Wait()
	return unwrap(detail.PreviewState(), b.lang)
}

func (b *localBackend) SetPreviewed(ctx context.Context, repo *domain.Repository) error {
	_, err := unwrap(domain.Await(b.store.SetPreviewed(ctx, repo)), b.lang)
	return err
}

func (b *localBackend) TogglePreviewed(ctx context.Context) (*domain.Repository, error) {
	detail := viewmodel.NewDetail(ctx, b.store, b.logger)
	defer detail.Close()

	detail.Load()
	detail.Wait()
	repo, err := unwrap(detail.PreviewState(), b.lang)
	if err != nil || repo == nil {
		return nil, err
	}

	detail.ToggleSaved()
	detail.Wait()
	if _, err := unwrap(detail.SaveToggleState(), b.lang); err != nil {
		return nil, err
	}
	return unwrap(detail.PreviewState(), b.lang)
}

func (b *localBackend) Close() error {
	return b.storage.Close()
}

// unwrap converts a terminal response into a value or a localized error
func unwrap[T any](r domain.Response[T], lang language.Tag) (T, error) {
	if data, ok := r.Data(); ok {
		return data, nil
	}
	var zero T
	if code, ok := r.Code(); ok {
		return zero, apperrors.New(code, apperrors.Message(code, lang), nil)
	}
	return zero, apperrors.NewGenericError(apperrors.Message(apperrors.ErrCodeGeneric, lang), nil)
}

type remoteBackend struct {
	client *client.Client
}

func newRemoteBackend(endpoint string) *remoteBackend {
	return &remoteBackend{client: client.NewClient(endpoint)}
}

func (b *remoteBackend) Search(ctx context.Context, keyword string) ([]*domain.Repository, error) {
	return b.client.Search(ctx, keyword)
}

func (b *remoteBackend) SavedList(ctx context.Context) ([]*domain.SavedRepository, error) {
	return b.client.SavedList(ctx)
}

func (b *remoteBackend) Save(ctx context.Context, repo *domain.Repository) error {
	_, err := b.client.AddSaved(ctx, repo)
	return err
}

func (b *remoteBackend) Unsave(ctx context.Context, id int64) error {
	return b.client.RemoveSaved(ctx, id)
}

func (b *remoteBackend) Previewed(ctx context.Context) (*domain.Repository, error) {
	repo, err := b.client.Previewed(ctx)
	if err != nil || repo == nil {
		return nil, err
	}
	saved, err := b.client.SavedList(ctx)
	if err != nil {
		return repo, nil
	}
	return reconcile.Annotate(repo, reconcile.SavedIDs(saved)), nil
}

func (b *remoteBackend) SetPreviewed(ctx context.Context, repo *domain.Repository) error {
	return b.client.SetPreviewed(ctx, repo)
}

func (b *remoteBackend) TogglePreviewed(ctx context.Context) (*domain.Repository, error) {
	repo, err := b.Previewed(ctx)
	if err != nil || repo == nil {
		return nil, err
	}

	if repo.IsSaved {
		err = b.client.RemoveSaved(ctx, repo.ID)
	} else {
		_, err = b.client.AddSaved(ctx, repo)
	}
	if err != nil {
		return nil, err
	}

	c := repo.Clone()
	c.IsSaved = !repo.IsSaved
	return c, nil
}

func (b *remoteBackend) Close() error { return nil }
