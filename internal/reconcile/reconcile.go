// Package reconcile computes the derived saved flag of search results.
package reconcile

import (
	"github.com/kurihiro0119/github-repo-finder/internal/domain"
)

// IDSet is a set of repository ids
type IDSet map[int64]struct{}

// Contains reports whether id is in the set
func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// SavedIDs builds the id set of a saved list snapshot
func SavedIDs(saved []*domain.SavedRepository) IDSet {
	ids := make(IDSet, len(saved))
	for _, s := range saved {
		if s == nil {
			continue
		}
		ids[s.ID] = struct{}{}
	}
	return ids
}

// Reconcile returns copies of results, in the same order, with IsSaved set
// to membership of each id in savedIDs. Inputs are not modified and
// duplicate ids are annotated independently. A nil entry stays nil in the
// same position.
func Reconcile(results []*domain.Repository, savedIDs IDSet) []*domain.Repository {
	out := make([]*domain.Repository, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		out[i] = Annotate(r, savedIDs)
	}
	return out
}

// Annotate returns a copy of repo with IsSaved set from savedIDs
func Annotate(repo *domain.Repository, savedIDs IDSet) *domain.Repository {
	c := repo.Clone()
	c.IsSaved = savedIDs.Contains(repo.ID)
	return c
}

// SetSaved returns copies of results with the flag of every item matching id
// replaced by saved. Used to patch a displayed list after a save toggle.
// Nil entries keep their position.
func SetSaved(results []*domain.Repository, id int64, saved bool) []*domain.Repository {
	out := make([]*domain.Repository, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		c := r.Clone()
		if c.ID == id {
			c.IsSaved = saved
		}
		out[i] = c
	}
	return out
}
