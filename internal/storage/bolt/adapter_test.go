package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
)

func strPtr(s string) *string { return &s }

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	s, err := NewBoltStorage(filepath.Join(t.TempDir(), "finder.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPreviewed(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	got, err := s.GetPreviewed(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SetPreviewed(ctx, &domain.Repository{ID: 1, Name: strPtr("one")}))
	require.NoError(t, s.SetPreviewed(ctx, &domain.Repository{ID: 2, Name: strPtr("two"), IsSaved: true}))

	got, err = s.GetPreviewed(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, "two", *got.Name)
	assert.False(t, got.IsSaved)
}

func TestSavedListOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*domain.SavedRepository{
		{Repository: domain.Repository{ID: 300}, SavedAt: base},
		{Repository: domain.Repository{ID: 2}, SavedAt: base.Add(time.Hour)},
		{Repository: domain.Repository{ID: 100}, SavedAt: base},
	}
	for _, e := range entries {
		require.NoError(t, s.SaveRepository(ctx, e))
	}

	list, err := s.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(100), list[0].ID)
	assert.Equal(t, int64(300), list[1].ID)
	assert.Equal(t, int64(2), list[2].ID)
	for _, e := range list {
		assert.True(t, e.IsSaved)
	}
}

func TestSaveOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveRepository(ctx, (&domain.Repository{ID: 7, Name: strPtr("old")}).ToSaved()))
	require.NoError(t, s.SaveRepository(ctx, (&domain.Repository{ID: 7, Name: strPtr("new")}).ToSaved()))

	list, err := s.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", *list[0].Name)

	require.NoError(t, s.DeleteRepository(ctx, 7))
	require.NoError(t, s.DeleteRepository(ctx, 7))

	list, err = s.ListSaved(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finder.bolt")

	s, err := NewBoltStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRepository(ctx, (&domain.Repository{ID: 5}).ToSaved()))
	require.NoError(t, s.Close())

	s, err = NewBoltStorage(path)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(5), list[0].ID)
}
