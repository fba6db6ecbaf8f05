package search

import (
	"context"
	"log/slog"
	"sync"

	"bobo-live/domain"
	"bobo-live/store"
)

// Ingester feeds the index from the store itself, so messages written by
// other participants end up searchable too, not just the ones sent through
// this process. Indexing is idempotent per message ID, so overlap with the
// chat send path is harmless.
type Ingester struct {
	store store.Store
	index *MessageIndex
	log   *slog.Logger

	mu      sync.Mutex
	tracked map[string]struct{}
	seen    map[string]struct{}
}

func NewIngester(s store.Store, index *MessageIndex, log *slog.Logger) *Ingester {
	return &Ingester{
		store:   s,
		index:   index,
		log:     log,
		tracked: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
	}
}

// Run watches the rooms collection and spawns a message watcher per room.
// Rooms disappear when their host leaves; the per-room watcher simply keeps
// draining an empty result set until the context ends.
func (g *Ingester) Run(ctx context.Context) error {
	sub, err := g.store.Watch(ctx, store.Query{Collection: "rooms"})
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rooms, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			for _, r := range rooms {
				g.track(ctx, r.ID)
			}
		}
	}
}

func (g *Ingester) track(ctx context.Context, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tracked[roomID]; ok {
		return
	}
	g.tracked[roomID] = struct{}{}

	go func() {
		if err := g.watchRoom(ctx, roomID); err != nil && ctx.Err() == nil {
			g.log.Error("Message ingestion stopped", "roomId", roomID, "err", err)
		}
	}()
}

func (g *Ingester) watchRoom(ctx context.Context, roomID string) error {
	sub, err := g.store.Watch(ctx, store.Query{Collection: "rooms/" + roomID + "/messages"})
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msgs, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			g.ingest(roomID, msgs)
		}
	}
}

func (g *Ingester) ingest(roomID string, docs []store.Document) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, doc := range docs {
		if _, ok := g.seen[doc.ID]; ok {
			continue
		}
		g.seen[doc.ID] = struct{}{}

		msg := domain.MessageFromDoc(doc.ID, doc.Data)
		if err := g.index.IndexMessage(roomID, msg); err != nil {
			g.log.Error("Failed to index message", "roomId", roomID, "messageId", doc.ID, "err", err)
		}
	}
}
