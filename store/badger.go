package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "bobo-live/errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const keyPrefix = "doc:"

// Badger implements Store on top of a local BadgerDB. A single mutex
// serializes commits so a multi-document batch is one Badger transaction and
// increments never hit write conflicts; readers go through snapshot views
// and are never blocked.
type Badger struct {
	mu       sync.Mutex
	db       *badger.DB
	log      *slog.Logger
	watchers *watchRegistry
	now      func() time.Time
}

// NewBadger wraps an open BadgerDB handle. The handle stays owned by the
// caller; main opens and closes the database.
func NewBadger(db *badger.DB, log *slog.Logger) *Badger {
	return &Badger{
		db:       db,
		log:      log,
		watchers: newWatchRegistry(log),
		now:      time.Now,
	}
}

func docKey(collection, id string) []byte {
	return []byte(keyPrefix + collection + "/" + id)
}

func collectionPrefix(collection string) []byte {
	return []byte(keyPrefix + collection + "/")
}

func (s *Badger) Get(path string) (Document, error) {
	if err := validatePath(path); err != nil {
		return Document{}, err
	}
	collection, id := splitPath(path)

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return Document{}, apperrors.ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}

	data, err := decodeData(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{Collection: collection, ID: id, Data: data}, nil
}

func (s *Badger) Set(path string, data map[string]any, merge bool) error {
	return s.commit([]writeOp{{kind: opSet, path: path, data: data, merge: merge}})
}

func (s *Badger) Update(path string, data map[string]any) error {
	return s.commit([]writeOp{{kind: opUpdate, path: path, data: data}})
}

func (s *Badger) Delete(path string) error {
	return s.commit([]writeOp{{kind: opDelete, path: path}})
}

func (s *Badger) Add(collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	err := s.commit([]writeOp{{kind: opSet, path: collection + "/" + id, data: data}})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Badger) Batch() *Batch {
	return &Batch{committer: s}
}

// commit applies every operation inside one Badger transaction. Partial
// failure aborts the transaction, so either all documents move or none do.
// Watchers are notified only after a successful commit.
func (s *Badger) commit(ops []writeOp) error {
	for _, op := range ops {
		if err := validatePath(op.path); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			if err := s.applyOp(txn, op, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	touched := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		collection, _ := splitPath(op.path)
		touched[collection] = struct{}{}
	}
	s.watchers.notify(touched, s.evaluate)
	return nil
}

func (s *Badger) applyOp(txn *badger.Txn, op writeOp, now time.Time) error {
	collection, id := splitPath(op.path)
	key := docKey(collection, id)

	if op.kind == opDelete {
		err := txn.Delete(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	}

	existing, err := readExisting(txn, key)
	if err != nil {
		return err
	}
	if op.kind == opUpdate && existing == nil {
		return fmt.Errorf("update %s: %w", op.path, apperrors.ErrNotFound)
	}

	var next map[string]any
	switch {
	case op.kind == opUpdate, op.merge:
		next = applyFields(existing, op.data, now)
	default:
		next = resolveFields(op.data, now)
	}

	raw, err := encodeData(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", op.path, err)
	}
	return txn.Set(key, raw)
}

func readExisting(txn *badger.Txn, key []byte) (map[string]any, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var data map[string]any
	err = item.Value(func(val []byte) error {
		data, err = decodeData(val)
		return err
	})
	return data, err
}

// QueryDocs scans the collection prefix and applies filters, ordering, and
// the limit in memory. Collections in this domain stay small (seats, bags,
// recent messages), so a prefix scan is the whole story.
func (s *Badger) QueryDocs(q Query) ([]Document, error) {
	var docs []Document
	prefix := collectionPrefix(q.Collection)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			if strings.Contains(id, "/") {
				// Skip nested subcollection documents
				continue
			}
			var data map[string]any
			err := item.Value(func(val []byte) error {
				var err error
				data, err = decodeData(val)
				return err
			})
			if err != nil {
				return err
			}
			doc := Document{Collection: q.Collection, ID: id, Data: data}
			if matches(doc, q.Wheres) {
				docs = append(docs, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			cmp := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func matches(doc Document, wheres []Where) bool {
	for _, w := range wheres {
		var field any
		if w.Field == "__id__" {
			field = doc.ID
		} else {
			field = doc.Data[w.Field]
		}
		cmp := compareValues(field, w.Value)
		switch w.Op {
		case "==":
			if cmp != 0 {
				return false
			}
		case ">=":
			if cmp < 0 {
				return false
			}
		case "<=":
			if cmp > 0 {
				return false
			}
		case ">":
			if cmp <= 0 {
				return false
			}
		case "<":
			if cmp >= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// evaluate is the query function handed to the watch registry.
func (s *Badger) evaluate(q Query) []Document {
	docs, err := s.QueryDocs(q)
	if err != nil {
		s.log.Error("Watch re-evaluation failed", "collection", q.Collection, "err", err)
		return nil
	}
	return docs
}

func (s *Badger) Watch(ctx context.Context, q Query) (*Subscription, error) {
	initial, err := s.QueryDocs(q)
	if err != nil {
		return nil, err
	}
	return s.watchers.subscribe(ctx, q, initial), nil
}
