package viewmodel

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/search"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func repo(id int64) *domain.Repository {
	return &domain.Repository{ID: id, Name: strPtr("repo")}
}

// fakeStore is an in-memory localstore.Store with switchable failures
type fakeStore struct {
	mu        sync.Mutex
	previewed *domain.Repository
	saved     map[int64]*domain.SavedRepository

	failPreview bool
	failSave    bool
	failList    bool
}

func newFakeStore(savedIDs ...int64) *fakeStore {
	s := &fakeStore{saved: map[int64]*domain.SavedRepository{}}
	for _, id := range savedIDs {
		s.saved[id] = repo(id).ToSaved()
	}
	return s
}

func (s *fakeStore) setFailList(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = v
}

func (s *fakeStore) savedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.saved))
	for id := range s.saved {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *fakeStore) preview() *domain.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewed
}

func (s *fakeStore) SetPreviewed(ctx context.Context, r *domain.Repository) <-chan domain.Response[bool] {
	return domain.Stream(func() domain.Response[bool] {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failPreview {
			return domain.Failure[bool](apperrors.ErrCodeGeneric)
		}
		s.previewed = r
		return domain.Success(true)
	})
}

func (s *fakeStore) GetPreviewed(ctx context.Context) <-chan domain.Response[*domain.Repository] {
	return domain.Stream(func() domain.Response[*domain.Repository] {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failPreview {
			return domain.Failure[*domain.Repository](apperrors.ErrCodeGeneric)
		}
		return domain.Success(s.previewed)
	})
}

func (s *fakeStore) AddToSaved(ctx context.Context, saved *domain.SavedRepository) <-chan domain.Response[bool] {
	return domain.Stream(func() domain.Response[bool] {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failSave {
			return domain.Failure[bool](apperrors.ErrCodeGeneric)
		}
		s.saved[saved.ID] = saved
		return domain.Success(true)
	})
}

func (s *fakeStore) RemoveFromSaved(ctx context.Context, saved *domain.SavedRepository) <-chan domain.Response[bool] {
	return domain.Stream(func() domain.Response[bool] {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failSave {
			return domain.Failure[bool](apperrors.ErrCodeGeneric)
		}
		delete(s.saved, saved.ID)
		return domain.Success(true)
	})
}

func (s *fakeStore) GetSavedList(ctx context.Context) <-chan domain.Response[[]*domain.SavedRepository] {
	return domain.Stream(func() domain.Response[[]*domain.SavedRepository] {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.failList {
			return domain.Failure[[]*domain.SavedRepository](apperrors.ErrCodeGeneric)
		}
		list := []*domain.SavedRepository{}
		for _, e := range s.saved {
			list = append(list, e)
		}
		return domain.Success(list)
	})
}

// countingSearcher returns fixed ids and counts its calls
type countingSearcher struct {
	calls  atomic.Int32
	result func(keyword string) domain.Response[[]*domain.Repository]
}

func newCountingSearcher(ids ...int64) *countingSearcher {
	return &countingSearcher{result: func(string) domain.Response[[]*domain.Repository] {
		out := make([]*domain.Repository, 0, len(ids))
		for _, id := range ids {
			out = append(out, repo(id))
		}
		return domain.Success(out)
	}}
}

func (c *countingSearcher) Search(ctx context.Context, keyword string) <-chan domain.Response[[]*domain.Repository] {
	c.calls.Add(1)
	return search.SearcherFunc(func(ctx context.Context, keyword string) domain.Response[[]*domain.Repository] {
		return c.result(keyword)
	}).Search(ctx, keyword)
}

// panicSearcher panics before returning a stream
type panicSearcher struct{}

func (panicSearcher) Search(context.Context, string) <-chan domain.Response[[]*domain.Repository] {
	panic("searcher exploded")
}

// truncatedSearcher closes its stream after Loading
type truncatedSearcher struct{}

func (truncatedSearcher) Search(context.Context, string) <-chan domain.Response[[]*domain.Repository] {
	ch := make(chan domain.Response[[]*domain.Repository], 1)
	ch <- domain.Loading[[]*domain.Repository]()
	close(ch)
	return ch
}

// drain returns the values buffered in ch without blocking
func drain[T any](ch <-chan T) []T {
	var out []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func ids(t *testing.T, r domain.Response[[]*domain.Repository]) map[int64]bool {
	t.Helper()
	data, ok := r.Data()
	require.True(t, ok, "expected success, got %s", r)
	out := map[int64]bool{}
	for _, item := range data {
		out[item.ID] = item.IsSaved
	}
	return out
}

const eventually = 2 * time.Second
