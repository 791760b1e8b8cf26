package viewmodel

import (
	"context"
	"log/slog"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/localstore"
	"github.com/kurihiro0119/github-repo-finder/internal/reconcile"
	"github.com/kurihiro0119/github-repo-finder/internal/state"
)

// Detail is the repository detail controller. It shows the previewed
// repository annotated with its saved flag.
type Detail struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  *tasks

	store  localstore.Store
	logger *slog.Logger

	previewState    *state.Cell[domain.Response[*domain.Repository]]
	saveToggleState *state.Cell[domain.Response[bool]]
}

// NewDetail creates a Detail controller
func NewDetail(ctx context.Context, store localstore.Store, logger *slog.Logger) *Detail {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	logger = logger.With("component", "detail")

	return &Detail{
		ctx:             ctx,
		cancel:          cancel,
		tasks:           newTasks(logger),
		store:           store,
		logger:          logger,
		previewState:    state.NewCell(domain.Loading[*domain.Repository]()),
		saveToggleState: state.NewCell(domain.Loading[bool]()),
	}
}

func (d *Detail) PreviewState() domain.Response[*domain.Repository] { return d.previewState.Get() }

func (d *Detail) SaveToggleState() domain.Response[bool] { return d.saveToggleState.Get() }

func (d *Detail) SubscribePreviewState(buffer int) (<-chan domain.Response[*domain.Repository], func()) {
	return d.previewState.Subscribe(buffer)
}

// Load reads the previewed repository. Success(nil) means nothing has been
// selected yet.
func (d *Detail) Load() {
	d.previewState.Set(domain.Loading[*domain.Repository]())
	d.run(func() {
		d.previewState.Set(d.load())
	}, func() {
		d.previewState.Set(domain.Failure[*domain.Repository](apperrors.ErrCodeGeneric))
	})
}

func (d *Detail) load() domain.Response[*domain.Repository] {
	preview := domain.Await(d.store.GetPreviewed(d.ctx))
	repo, ok := preview.Data()
	if !ok || repo == nil {
		return preview
	}

	saved := domain.Await(d.store.GetSavedList(d.ctx))
	list, ok := saved.Data()
	if !ok {
		code, _ := saved.Code()
		d.logger.Warn("saved list unavailable, showing preview unannotated", "code", code)
		return preview
	}
	return domain.Success(reconcile.Annotate(repo, reconcile.SavedIDs(list)))
}

// ToggleSaved adds or removes the loaded repository from the saved list
func (d *Detail) ToggleSaved() {
	repo, ok := d.previewState.Get().Data()
	if !ok || repo == nil {
		d.saveToggleState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
		return
	}
	d.saveToggleState.Set(domain.Loading[bool]())
	save := !repo.IsSaved

	d.run(func() {
		var ch <-chan domain.Response[bool]
		if save {
			ch = d.store.AddToSaved(d.ctx, repo.ToSaved())
		} else {
			ch = d.store.RemoveFromSaved(d.ctx, repo.ToSaved())
		}
		if r := pipe(ch, d.saveToggleState); !r.IsSuccess() {
			return
		}
		d.previewState.Update(func(cur domain.Response[*domain.Repository]) domain.Response[*domain.Repository] {
			current, ok := cur.Data()
			if !ok || current == nil || current.ID != repo.ID {
				return cur
			}
			c := current.Clone()
			c.IsSaved = save
			return domain.Success(c)
		})
	}, func() {
		d.saveToggleState.Set(domain.Failure[bool](apperrors.ErrCodeGeneric))
	})
}

func (d *Detail) run(fn func(), onPanic func()) {
	d.tasks.goSafe(fn, onPanic)
}

// Wait blocks until in-flight operations finish
func (d *Detail) Wait() { d.tasks.wait() }

// Close cancels in-flight operations and waits for them
func (d *Detail) Close() {
	d.cancel()
	d.tasks.wait()
}
