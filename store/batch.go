package store

import "github.com/google/uuid"

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type writeOp struct {
	kind  opKind
	path  string
	data  map[string]any
	merge bool
}

type committer interface {
	commit(ops []writeOp) error
}

// Batch accumulates writes for an all-or-nothing commit. Every gift commit
// and every multi-account economy side effect goes through one of these:
// partial money movement is never persisted.
type Batch struct {
	committer committer
	ops       []writeOp
}

// Set queues a whole-document write, merged or replacing.
func (b *Batch) Set(path string, data map[string]any, merge bool) *Batch {
	b.ops = append(b.ops, writeOp{kind: opSet, path: path, data: data, merge: merge})
	return b
}

// Update queues a field merge that fails the whole batch when the document
// does not exist.
func (b *Batch) Update(path string, data map[string]any) *Batch {
	b.ops = append(b.ops, writeOp{kind: opUpdate, path: path, data: data})
	return b
}

// Add queues a document creation with a generated ID and returns the ID
// immediately so callers can reference it before the commit lands.
func (b *Batch) Add(collection string, data map[string]any) string {
	id := uuid.NewString()
	b.ops = append(b.ops, writeOp{kind: opSet, path: collection + "/" + id, data: data})
	return id
}

// Delete queues a document removal.
func (b *Batch) Delete(path string) *Batch {
	b.ops = append(b.ops, writeOp{kind: opDelete, path: path})
	return b
}

// Len reports how many operations are queued.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Commit applies every queued operation atomically.
func (b *Batch) Commit() error {
	if len(b.ops) == 0 {
		return nil
	}
	return b.committer.commit(b.ops)
}
