// Package store abstracts the replicated document store the card room runs
// on. Documents are versioned JSON values; writers use compare-and-swap on
// the version to get atomic read-modify-write without a cross-process lock.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when the document does not exist
var ErrNotFound = errors.New("document not found")

// ErrVersionConflict is returned when a Put loses a compare-and-swap race.
// It is always retryable: reload the document and try again.
var ErrVersionConflict = errors.New("document version conflict")

// Document is a versioned JSON value
type Document struct {
	Key     string          `json:"key"`
	Value   json.RawMessage `json:"value"`
	Version int64           `json:"version"`
}

// Event is a change notification for a subscribed prefix
type Event struct {
	Key     string          `json:"key"`
	Value   json.RawMessage `json:"value"`
	Version int64           `json:"version"`
}

// Store is a replicated document store
type Store interface {
	// Get returns the document at key, or ErrNotFound
	Get(ctx context.Context, key string) (*Document, error)

	// Put writes value at key. Version 0 creates the document and fails with
	// ErrVersionConflict if it already exists; any other version is a
	// compare-and-swap that fails with ErrVersionConflict on a stale read.
	// The new version is returned.
	Put(ctx context.Context, key string, value json.RawMessage, version int64) (int64, error)

	// List returns all documents whose key starts with prefix, ordered by key
	List(ctx context.Context, prefix string) ([]*Document, error)

	// Subscribe streams change events for keys under prefix until the context
	// is canceled. Slow consumers may miss events; treat the stream as a
	// wake-up signal, not a journal.
	Subscribe(ctx context.Context, prefix string) (<-chan Event, error)
}
