// Package bolt implements store.Backend on a bbolt file with one bucket.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pario-ai/chatmeter/pkg/store"
)

var bucketName = []byte("chatmeter")

// Backend stores records in a single bbolt bucket.
type Backend struct {
	db *bolt.DB
}

var _ store.Backend = (*Backend)(nil)

// New opens or creates the database at path.
func New(path string) (*Backend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Backend{db: db}, nil
}

// Get returns a copy of the value at key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return store.ErrNotFound
		}
		value = bytes.Clone(v)
		return nil
	})
	return value, err
}

// List returns copies of all records whose key starts with prefix.
func (b *Backend) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	p := []byte(prefix)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			out[string(k)] = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	return out, nil
}

// Apply writes the batch in one update transaction.
func (b *Backend) Apply(ctx context.Context, batch *store.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if batch.Clear {
			if err := tx.DeleteBucket(bucketName); err != nil {
				return fmt.Errorf("clear store: %w", err)
			}
			if _, err := tx.CreateBucket(bucketName); err != nil {
				return fmt.Errorf("clear store: %w", err)
			}
		}
		bkt := tx.Bucket(bucketName)
		for _, op := range batch.Ops {
			if op.Value == nil {
				if err := bkt.Delete([]byte(op.Key)); err != nil {
					return fmt.Errorf("delete %s: %w", op.Key, err)
				}
				continue
			}
			if err := bkt.Put([]byte(op.Key), op.Value); err != nil {
				return fmt.Errorf("put %s: %w", op.Key, err)
			}
		}
		return nil
	})
}

// Close closes the database file.
func (b *Backend) Close() error {
	return b.db.Close()
}
