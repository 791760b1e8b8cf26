package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS previewed_repository (
		slot SMALLINT PRIMARY KEY CHECK (slot = 1),
		id BIGINT NOT NULL,
		name TEXT,
		language TEXT,
		html_url TEXT,
		forks_count BIGINT,
		open_issues_count BIGINT,
		stargazers_count BIGINT,
		watchers_count BIGINT,
		owner_login TEXT,
		owner_avatar_url TEXT,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS saved_repositories (
		id BIGINT PRIMARY KEY,
		name TEXT,
		language TEXT,
		html_url TEXT,
		forks_count BIGINT,
		open_issues_count BIGINT,
		stargazers_count BIGINT,
		watchers_count BIGINT,
		owner_login TEXT,
		owner_avatar_url TEXT,
		is_saved BOOLEAN NOT NULL DEFAULT TRUE,
		saved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_saved_repositories_saved_at ON saved_repositories(saved_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SetPreviewed replaces the previewed repository slot
func (s *postgresStorage) SetPreviewed(ctx context.Context, repo *domain.Repository) error {
	query := `
		INSERT INTO previewed_repository (slot, ` + storage.RepositoryColumns + `, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slot) DO UPDATE SET
			id = EXCLUDED.id,
			name = EXCLUDED.name,
			language = EXCLUDED.language,
			html_url = EXCLUDED.html_url,
			forks_count = EXCLUDED.forks_count,
			open_issues_count = EXCLUDED.open_issues_count,
			stargazers_count = EXCLUDED.stargazers_count,
			watchers_count = EXCLUDED.watchers_count,
			owner_login = EXCLUDED.owner_login,
			owner_avatar_url = EXCLUDED.owner_avatar_url,
			updated_at = EXCLUDED.updated_at
	`
	args := append(storage.RepositoryArgs(repo), time.Now().UTC())
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// GetPreviewed returns the previewed repository, or nil if none was set
func (s *postgresStorage) GetPreviewed(ctx context.Context) (*domain.Repository, error) {
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
func (s *postgresStorage) SaveRepository(ctx context.Context, saved *domain.SavedRepository) error {
	query := `
		INSERT INTO saved_repositories (` + storage.RepositoryColumns + `, is_saved, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			language = EXCLUDED.language,
			html_url = EXCLUDED.html_url,
			forks_count = EXCLUDED.forks_count,
			open_issues_count = EXCLUDED.open_issues_count,
			stargazers_count = EXCLUDED.stargazers_count,
			watchers_count = EXCLUDED.watchers_count,
			owner_login = EXCLUDED.owner_login,
			owner_avatar_url = EXCLUDED.owner_avatar_url,
			is_saved = TRUE,
			saved_at = EXCLUDED.saved_at
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
func (s *postgresStorage) DeleteRepository(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_repositories WHERE id = $1`, id)
	return err
}

// ListSaved retrieves all saved repositories
func (s *postgresStorage) ListSaved(ctx context.Context) ([]*domain.SavedRepository, error) {
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
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
