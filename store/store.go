//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

// Package store exposes the shared document database as a capability
// interface: per-collection CRUD, field-level atomic increments, array
// set-union/remove, multi-document atomic batches, and query subscriptions
// that deliver an initial snapshot followed by whole-result updates.
//
// Clients never talk to each other directly; every cross-participant effect
// flows through a write here and comes back through a subscription.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Document is a whole-document state as delivered by reads and
// subscriptions. Data values are JSON-compatible: string, bool, int64,
// float64, []any, map[string]any. Timestamps are stored as int64 UnixNano.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
	UpdateTime time.Time
}

// Path returns the full document path, e.g. "rooms/r1/messages/m1".
func (d Document) Path() string {
	return d.Collection + "/" + d.ID
}

// Where is a single query filter. Supported operators: ==, >=, <=, >, <.
type Where struct {
	Field string
	Op    string
	Value any
}

// Query addresses a collection (or subcollection) with optional filters,
// ordering, and a result limit.
type Query struct {
	Collection string
	Wheres     []Where
	OrderBy    string
	Desc       bool
	Limit      int
}

// Doc restricts a query to a single document, for point subscriptions.
func Doc(path string) Query {
	collection, id := splitPath(path)
	return Query{Collection: collection, Wheres: []Where{{Field: "__id__", Op: "==", Value: id}}}
}

// Store is the contract the economy core is written against.
type Store interface {
	// Get returns the current document state, or errors.ErrNotFound.
	Get(path string) (Document, error)
	// Set writes a whole document. With merge, top-level fields are merged
	// into the existing state (last writer wins per field); without it the
	// document is replaced.
	Set(path string, data map[string]any, merge bool) error
	// Update merges fields into an existing document and fails when the
	// document does not exist.
	Update(path string, data map[string]any) error
	// Delete removes a document. Deleting a missing document is a no-op.
	Delete(path string) error
	// Add creates a document with a generated ID and returns that ID.
	Add(collection string, data map[string]any) (string, error)
	// QueryDocs evaluates a query against current state.
	QueryDocs(q Query) ([]Document, error)
	// Batch starts an all-or-nothing multi-document commit.
	Batch() *Batch
	// Watch delivers the query's current result set, then re-delivers the
	// whole result set after every commit touching the collection. The
	// subscription conflates: a slow consumer only ever misses intermediate
	// states, never the latest one.
	Watch(ctx context.Context, q Query) (*Subscription, error)
}

func splitPath(path string) (collection, id string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func validatePath(path string) error {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return fmt.Errorf("invalid document path %q", path)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("invalid document path %q", path)
		}
	}
	return nil
}
