// Package localstore exposes the persistent previewed slot and saved list
// through the Response stream contract used by the view controllers.
package localstore

import (
	"context"
	"log/slog"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
)

// Store is the local repository store. Every operation yields Loading, then
// exactly one terminal response, then closes its channel.
type Store interface {
	SetPreviewed(ctx context.Context, repo *domain.Repository) <-chan domain.Response[bool]
	GetPreviewed(ctx context.Context) <-chan domain.Response[*domain.Repository]
	AddToSaved(ctx context.Context, saved *domain.SavedRepository) <-chan domain.Response[bool]
	RemoveFromSaved(ctx context.Context, saved *domain.SavedRepository) <-chan domain.Response[bool]
	GetSavedList(ctx context.Context) <-chan domain.Response[[]*domain.SavedRepository]
}

type store struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New wraps a storage backend
func New(s storage.Storage, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &store{
		storage: s,
		logger:  logger.With("component", "localstore"),
	}
}

func (s *store) failed(op string, err error) apperrors.ErrCode {
	s.logger.Error("storage operation failed", "op", op, "error", err)
	return apperrors.ErrCodeGeneric
}

func (s *store) SetPreviewed(ctx context.Context, repo *domain.Repository) <-chan domain.Response[bool] {
	return domain.Stream(func() domain.Response[bool] {
		if repo == nil {
			return domain.Failure[bool](apperrors.ErrCodeGeneric)
		}
		if err := s.storage.SetPreviewed(ctx, repo); err != nil {
			return domain.Failure[bool](s.failed("set_previewed", err))
		}
		return domain.Success(true)
	})
}

func (s *store) GetPreviewed(ctx context.Context) <-chan domain.Response[*domain.Repository] {
	return domain.Stream(func() domain.Response[*domain.Repository] {
		repo, err := s.storage.GetPreviewed(ctx)
		if err != nil {
			return domain.Failure[*domain.Repository](s.failed("get_previewed", err))
		}
		return domain.Success(repo)
	})
}

func (s *store) AddToSaved(ctx context.Context, saved *domain.SavedRepository) <-chan domain.Response[bool] {
	return domain.Stream(func() domain.Response[bool] {
		if saved == nil {
			return domain.Failure[bool](apperrors.ErrCodeGeneric)
		}
		if err := s.storage.SaveRepository(ctx, saved); err != nil {
			return domain.Failure[bool](s.failed("add_saved", err))
		}
		return domain.Success(true)
	})
}

func (s *store) RemoveFromSaved(ctx context.Context, saved *domain.SavedRepository) <-chan domain.Response[bool] {
	return domain.Stream(func() domain.Response[bool] {
		if saved == nil {
			return domain.Failure[bool](apperrors.ErrCodeGeneric)
		}
		if err := s.storage.DeleteRepository(ctx, saved.ID); err != nil {
			return domain.Failure[bool](s.failed("remove_saved", err))
		}
		return domain.Success(true)
	})
}

func (s *store) GetSavedList(ctx context.Context) <-chan domain.Response[[]*domain.SavedRepository] {
	return domain.Stream(func() domain.Response[[]*domain.SavedRepository] {
		list, err := s.storage.ListSaved(ctx)
		if err != nil {
			return domain.Failure[[]*domain.SavedRepository](s.failed("list_saved", err))
		}
		if list == nil {
			list = []*domain.SavedRepository{}
		}
		return domain.Success(list)
	})
}
