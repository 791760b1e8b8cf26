package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	"github.com/kurihiro0119/github-repo-finder/internal/storage"
)

const (
	bucketPreviewed = "previewed" // key: previewKey -> Repository JSON
	bucketSaved     = "saved"     // key: big-endian id -> SavedRepository JSON
)

var previewKey = []byte("current")

// boltStorage implements the Storage interface on an embedded bbolt file
type boltStorage struct {
	db *bbolt.DB
}

// NewBoltStorage opens (or creates) the bbolt file at path
func NewBoltStorage(path string) (storage.Storage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	s := &boltStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates the buckets
func (s *boltStorage) Migrate(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketPreviewed)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSaved)); err != nil {
			return err
		}
		return nil
	})
}

func idKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// SetPreviewed replaces the previewed repository slot
func (s *boltStorage) SetPreviewed(ctx context.Context, repo *domain.Repository) error {
	c := *repo
	c.IsSaved = false
	data, err := json.Marshal(&c)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketPreviewed)).Put(previewKey, data)
	})
}

// GetPreviewed returns the previewed repository, or nil if none was set
func (s *boltStorage) GetPreviewed(ctx context.Context) (*domain.Repository, error) {
	var repo *domain.Repository

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketPreviewed)).Get(previewKey)
		if data == nil {
			return nil
		}
		repo = &domain.Repository{}
		return json.Unmarshal(data, repo)
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

// SaveRepository inserts or overwrites a saved list entry
func (s *boltStorage) SaveRepository(ctx context.Context, saved *domain.SavedRepository) error {
	c := *saved
	c.IsSaved = true
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now().UTC()
	}

	data, err := json.Marshal(&c)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSaved)).Put(idKey(c.ID), data)
	})
}

// DeleteRepository removes a saved list entry; absent ids are not an error
func (s *boltStorage) DeleteRepository(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSaved)).Delete(idKey(id))
	})
}

// ListSaved retrieves all saved repositories ordered by saved_at, then id
func (s *boltStorage) ListSaved(ctx context.Context) ([]*domain.SavedRepository, error) {
	saved := []*domain.SavedRepository{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSaved)).ForEach(func(_, v []byte) error {
			var entry domain.SavedRepository
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entry.IsSaved = true
			saved = append(saved, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(saved, func(i, j int) bool {
		if !saved[i].SavedAt.Equal(saved[j].SavedAt) {
			return saved[i].SavedAt.Before(saved[j].SavedAt)
		}
		return saved[i].ID < saved[j].ID
	})

	return saved, nil
}

// Close closes the bbolt file
func (s *boltStorage) Close() error {
	return s.db.Close()
}
