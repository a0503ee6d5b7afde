// Package bolt provides a bbolt-backed persistent key-value substrate.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/core"
	"go.etcd.io/bbolt"
)

const DefaultBucket = "accounts"

var _ core.KeyValueStore = (*Store)(nil)

type Options struct {
	Bucket  string
	Timeout time.Duration
}

// Store keeps every scoped key in a single bucket. Keys are stored verbatim so
// prefix listing is a cursor seek.
type Store struct {
	db     *bbolt.DB
	bucket []byte
	owned  bool
}

// Open opens (or creates) the database at path and ensures the bucket exists.
func Open(path string, opts Options) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("bolt: database path is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	store, err := New(db, opts.Bucket)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// New wraps an open database. The caller keeps ownership of db.
func New(db *bbolt.DB, bucket string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("bolt: database is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		bucket = DefaultBucket
	}
	name := []byte(bucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	}); err != nil {
		return nil, fmt.Errorf("bolt: create bucket %s: %w", bucket, err)
	}
	return &Store{db: db, bucket: name}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		// bbolt memory is only valid inside the transaction.
		value = append([]byte{}, raw...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("bolt: get %q: %w", key, err)
	}
	return value, found, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("bolt: key is required")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), append([]byte{}, value...))
	})
	if err != nil {
		return fmt.Errorf("bolt: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt: remove %q: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	seek := []byte(prefix)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, _ := c.Seek(seek); k != nil && bytes.HasPrefix(k, seek); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: list keys: %w", err)
	}
	return keys, nil
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}
