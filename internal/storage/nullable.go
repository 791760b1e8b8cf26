package storage

import (
	"database/sql"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
)

// RepositoryColumns lists the record columns shared by both tables, in the
// order RepositoryArgs and ScanTarget use.
const RepositoryColumns = `id, name, language, html_url, forks_count, open_issues_count,
	stargazers_count, watchers_count, owner_login, owner_avatar_url`

// RepositoryArgs returns the column values of repo for an insert
func RepositoryArgs(repo *domain.Repository) []any {
	return []any{
		repo.ID,
		nullString(repo.Name),
		nullString(repo.Language),
		nullString(repo.HTMLURL),
		nullInt64(repo.ForksCount),
		nullInt64(repo.OpenIssuesCount),
		nullInt64(repo.StargazersCount),
		nullInt64(repo.WatchersCount),
		nullString(repo.OwnerLogin),
		nullString(repo.OwnerAvatarURL),
	}
}

// ScanTarget collects nullable columns while scanning a row
type ScanTarget struct {
	ID              int64
	Name            sql.NullString
	Language        sql.NullString
	HTMLURL         sql.NullString
	ForksCount      sql.NullInt64
	OpenIssuesCount sql.NullInt64
	StargazersCount sql.NullInt64
	WatchersCount   sql.NullInt64
	OwnerLogin      sql.NullString
	OwnerAvatarURL  sql.NullString
}

// Dest returns scan destinations matching RepositoryColumns
func (t *ScanTarget) Dest() []any {
	return []any{
		&t.ID,
		&t.Name,
		&t.Language,
		&t.HTMLURL,
		&t.ForksCount,
		&t.OpenIssuesCount,
		&t.StargazersCount,
		&t.WatchersCount,
		&t.OwnerLogin,
		&t.OwnerAvatarURL,
	}
}

// Repository converts the scanned row into a domain record
func (t *ScanTarget) Repository() domain.Repository {
	return domain.Repository{
		ID:              t.ID,
		Name:            stringPtr(t.Name),
		Language:        stringPtr(t.Language),
		HTMLURL:         stringPtr(t.HTMLURL),
		ForksCount:      int64Ptr(t.ForksCount),
		OpenIssuesCount: int64Ptr(t.OpenIssuesCount),
		StargazersCount: int64Ptr(t.StargazersCount),
		WatchersCount:   int64Ptr(t.WatchersCount),
		OwnerLogin:      stringPtr(t.OwnerLogin),
		OwnerAvatarURL:  stringPtr(t.OwnerAvatarURL),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
