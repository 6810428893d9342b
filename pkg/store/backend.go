// Package store persists chatmeter state in a generic key-value backend.
//
// The layout is three kinds of record: one settings record, one timers
// record holding both usage windows, and one record per chat. Values are
// JSON. Every write goes through an atomic Batch so a round's chat and
// timers are stored together or not at all.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Backend is a key-value store with atomic batches.
type Backend interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key with the given prefix and its value.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	// Apply runs all operations of b in one transaction.
	Apply(ctx context.Context, b *Batch) error
	// Close releases resources.
	Close() error
}

// Op is a single write in a Batch. A nil Value deletes the key.
type Op struct {
	Key   string
	Value []byte
}

// Batch groups writes applied atomically. When Clear is set, all existing
// keys are removed before Ops run.
type Batch struct {
	Clear bool
	Ops   []Op
}

// Put adds a write of value at key.
func (b *Batch) Put(key string, value []byte) {
	if value == nil {
		value = []byte{}
	}
	b.Ops = append(b.Ops, Op{Key: key, Value: value})
}

// Delete adds a removal of key.
func (b *Batch) Delete(key string) {
	b.Ops = append(b.Ops, Op{Key: key})
}
