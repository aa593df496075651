// Package bolt is the embedded persistent tier shared by the cache and
// session adapters. Values round-trip through json under bucket/key.
package bolt

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"
)

// fileMode is the permission set for the database file.
const fileMode = 0o600

// Store wraps a bbolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database file at path.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := bbolt.Open(path, fileMode, &bbolt.Options{
		Timeout: cfg.timeout,
		NoSync:  cfg.noSync,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close flushes and closes the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores value under bucket/key, creating the bucket on first use.
func (s *Store) Put(_ context.Context, bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", bucket, key, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		if err := b.Put([]byte(key), data); err != nil {
			return fmt.Errorf("put %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}

// Get loads bucket/key into out. ErrNotFound covers an absent bucket and
// an absent key alike.
func (s *Store) Get(_ context.Context, bucket, key string, out any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}

// Delete removes bucket/key. Absent entries are not an error.
func (s *Store) Delete(_ context.Context, bucket, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(key)); err != nil {
			return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}
