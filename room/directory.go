package room

import (
	"context"
	"log/slog"
	"sync"

	"bobo-live/domain"
	"bobo-live/store"
)

// Directory mirrors the users collection for name and avatar lookups, the
// way every client keeps a local copy fed by the subscription stream.
type Directory struct {
	store store.Store
	log   *slog.Logger

	mu    sync.RWMutex
	users map[string]domain.User
}

func NewDirectory(s store.Store, log *slog.Logger) *Directory {
	return &Directory{
		store: s,
		log:   log,
		users: make(map[string]domain.User),
	}
}

// Run keeps the mirror current until the context ends.
func (d *Directory) Run(ctx context.Context) error {
	sub, err := d.store.Watch(ctx, store.Query{Collection: "users"})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case docs, ok := <-sub.Updates():
			if !ok {
				d.log.Debug("Directory subscription closed")
				return nil
			}
			d.apply(docs)
		}
	}
}

func (d *Directory) apply(docs []store.Document) {
	next := make(map[string]domain.User, len(docs))
	for _, doc := range docs {
		next[doc.ID] = domain.UserFromDoc(doc.ID, doc.Data)
	}
	d.mu.Lock()
	d.users = next
	d.mu.Unlock()
}

// Lookup returns the mirrored user, if known.
func (d *Directory) Lookup(userID string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	return u, ok
}

// Count reports how many users the mirror currently holds.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
