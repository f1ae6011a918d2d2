// Package store implements the ledger repository on an embedded bbolt
// database. Each entity lives in its own bucket as JSON keyed by its ID.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = models.ErrNotFound

// Bucket names.
const (
	BucketUsers        = "users"
	BucketLedgers      = "ledgers"
	BucketTransactions = "transactions"
	BucketMessages     = "messages"
)

// Store represents the bbolt database wrapper.
type Store struct {
	db *bolt.DB
}

// New creates a new Store instance and initializes buckets.
func New(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Initialize buckets.
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := []string{BucketUsers, BucketLedgers, BucketTransactions, BucketMessages}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a value in the specified bucket with the given key.
func (s *Store) Put(ctx context.Context, bucketName, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, bucketName, key, value)
	})
}

// Replace overwrites an existing value. It returns ErrNotFound when key is absent.
func (s *Store) Replace(ctx context.Context, bucketName, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketName)
		if err != nil {
			return err
		}
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return putJSON(tx, bucketName, key, value)
	})
}

// Get retrieves a value from the specified bucket with the given key.
func (s *Store) Get(ctx context.Context, bucketName, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketName)
		if err != nil {
			return err
		}

		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, value)
	})
}

// Delete removes a value from the specified bucket. It returns ErrNotFound
// when key is absent.
func (s *Store) Delete(ctx context.Context, bucketName, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketName)
		if err != nil {
			return err
		}
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(key))
	})
}

// List retrieves all values from the specified bucket accepted by filter.
func (s *Store) List(ctx context.Context, bucketName string, filter func(data []byte) bool) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results [][]byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketName)
		if err != nil {
			return err
		}

		return b.ForEach(func(k, v []byte) error {
			if filter == nil || filter(v) {
				// Copy the value since it's only valid during the transaction.
				copied := make([]byte, len(v))
				copy(copied, v)
				results = append(results, copied)
			}
			return nil
		})
	})

	return results, err
}

// Count returns the number of records in a bucket.
func (s *Store) Count(ctx context.Context, bucketName string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, bucketName)
		if err != nil {
			return err
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", name)
	}
	return b, nil
}

func putJSON(tx *bolt.Tx, bucketName, key string, value interface{}) error {
	b, err := bucket(tx, bucketName)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return b.Put([]byte(key), data)
}

// listAs decodes every record of a bucket accepted by keep.
func listAs[T any](ctx context.Context, s *Store, bucketName string, keep func(*T) bool) ([]*T, error) {
	results, err := s.List(ctx, bucketName, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(results))
	for _, data := range results {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s record: %w", bucketName, err)
		}
		if keep == nil || keep(&v) {
			out = append(out, &v)
		}
	}
	return out, nil
}
