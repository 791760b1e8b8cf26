package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS previewed_repository (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		id INTEGER NOT NULL,
		name TEXT,
		language TEXT,
		html_url TEXT,
		forks_count INTEGER,
		open_issues_count INTEGER,
		stargazers_count INTEGER,
		watchers_count INTEGER,
		owner_login TEXT,
		owner_avatar_url TEXT,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS saved_repositories (
		id INTEGER PRIMARY KEY,
		name TEXT,
		language TEXT,
		html_url TEXT,
		forks_count INTEGER,
		open_issues_count INTEGER,
		stargazers_count INTEGER,
		watchers_count INTEGER,
		owner_login TEXT,
		owner_avatar_url TEXT,
		is_saved INTEGER NOT NULL DEFAULT 1,
		saved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_saved_repositories_saved_at ON saved_repositories(saved_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// Check if the legacy single-row table from the first schema exists
	var legacy string
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='github_repo_table'
	`).Scan(&legacy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.migrateLegacyPreview(ctx); err != nil {
		return fmt.Errorf("failed to migrate legacy preview table: %w", err)
	}
	return nil
}

// migrateLegacyPreview moves the row of github_repo_table into the
// previewed_repository slot and drops the old table
func (s *sqliteStorage) migrateLegacyPreview(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO previewed_repository (slot, `+storage.RepositoryColumns+`)
		SELECT 1, id, name, language, htmlUrl, forksCount, openIssuesCount,
			stargazersCount, watchersCount, ownerLogin, ownerAvatarUrl
		FROM github_repo_table
		LIMIT 1
	`)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE github_repo_table`); err != nil {
		return err
	}

	return tx.Commit()
}

// SetPreviewed replaces the previewed repository slot
func (s *sqliteStorage) SetPreviewed(ctx context.Context, repo *domain.Repository) error {
	query := `
		INSERT OR REPLACE INTO previewed_repository (slot, ` + storage.RepositoryColumns + `, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := append(storage.RepositoryArgs(repo), time.Now().UTC())
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// GetPreviewed returns the previewed repository, or nil if none was set
func (s *sqliteStorage) GetPreviewed(ctx context.Context) (*domain.Repository, error) {
	query := `SELECT ` + storage.RepositoryColumns + ` FROM previewed_repository WHERE slot = 1`

	var target storage.ScanTarget
	err := s.db.QueryRowContext(ctx, query).Scan(target.Dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	repo := target.Repository()
	return &repo, nil
}

// SaveRepository inserts or overwrites a saved list entry
func (s *sqliteStorage) SaveRepository(ctx context.Context, saved *domain.SavedRepository) error {
	query := `
		INSERT OR REPLACE INTO saved_repositories (` + storage.RepositoryColumns + `, is_saved, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`
	savedAt := saved.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	args := append(storage.RepositoryArgs(&saved.Repository), savedAt)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteRepository removes a saved list entry; absent ids are not an error
func (s *sqliteStorage) DeleteRepository(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_repositories WHERE id = ?`, id)
	return err
}

// ListSaved retrieves all saved repositories
func (s *sqliteStorage) ListSaved(ctx context.Context) ([]*domain.SavedRepository, error) {
	query := `
		SELECT ` + storage.RepositoryColumns + `, saved_at
		FROM saved_repositories
		ORDER BY saved_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := []*domain.SavedRepository{}
	for rows.Next() {
		var target storage.ScanTarget
		var savedAt time.Time

		if err := rows.Scan(append(target.Dest(), &savedAt)...); err != nil {
			return nil, err
		}

		repo := target.Repository()
		repo.IsSaved = true
		saved = append(saved, &domain.SavedRepository{
			Repository: repo,
			SavedAt:    savedAt,
		})
	}

	return saved, rows.Err()
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
