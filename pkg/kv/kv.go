// Package kv provides the small key-value store behind the speech-cache
// index. Keys are flat strings; values are opaque bytes.
//
// The package includes a BadgerDB-backed implementation for on-device use and
// an in-memory implementation for testing.
package kv

import (
	"context"
	"errors"
	"iter"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the interface for a key-value store.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key string) error

	// List iterates over all entries whose key starts with prefix, in
	// lexicographic key order. An empty prefix lists everything.
	List(ctx context.Context, prefix string) iter.Seq2[Entry, error]

	// Close releases any resources held by the store.
	Close() error
}
