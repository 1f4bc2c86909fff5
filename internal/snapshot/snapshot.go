// Package snapshot persists the complete in-memory state as a single
// JSON blob in an embedded bbolt database. The blob is written after
// every mutation and read once at process start; the in-memory stores
// remain authoritative.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/setlisthq/setlist/internal/model"
)

var (
	bucketState = []byte("state")
	keySnapshot = []byte("snapshot")
)

// Store is a bbolt-backed snapshot gateway.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the snapshot database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create state bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored snapshot. A missing blob means cold start: an
// empty snapshot, not an error.
func (s *Store) Load() (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketState).Get(keySnapshot)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, snap); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save replaces the stored snapshot atomically.
func (s *Store) Save(snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put(keySnapshot, data)
	})
}
