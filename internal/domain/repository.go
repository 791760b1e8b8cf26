package domain

import "time"

// Repository represents a GitHub repository as shown in search results.
// ID is the sole identity; the remaining fields may drift between fetches.
type Repository struct {
	ID              int64   `json:"id"`
	Name            *string `json:"name"`
	Language        *string `json:"language"`
	HTMLURL         *string `json:"html_url"`
	ForksCount      *int64  `json:"forks_count"`
	OpenIssuesCount *int64  `json:"open_issues_count"`
	StargazersCount *int64  `json:"stargazers_count"`
	WatchersCount   *int64  `json:"watchers_count"`
	OwnerLogin      *string `json:"owner_login"`
	OwnerAvatarURL  *string `json:"owner_avatar_url"`

	// IsSaved is derived from saved-list membership, never fetched
	IsSaved bool `json:"is_saved"`
}

// Clone returns a shallow copy. Pointer fields are shared; they are never
// mutated in place.
func (r *Repository) Clone() *Repository {
	c := *r
	return &c
}

// ToSaved converts a repository into a saved list entry
func (r *Repository) ToSaved() *SavedRepository {
	c := *r
	c.IsSaved = true
	return &SavedRepository{
		Repository: c,
		SavedAt:    time.Now().UTC(),
	}
}

// SavedRepository is an entry in the user's saved list. Presence in the list
// is the saved flag, so IsSaved is always true while the row exists.
type SavedRepository struct {
	Repository
	SavedAt time.Time `json:"saved_at"`
}

// ToRepository converts a saved entry back into a plain repository record
func (s *SavedRepository) ToRepository() *Repository {
	c := s.Repository
	c.IsSaved = true
	return &c
}
