package room

import (
	"context"
	"log/slog"

	"bobo-live/domain"
	"bobo-live/store"
)

// AnnouncementFeed surfaces the single most recent global announcement.
// Every client watches the same one-item query; a document ID memo keeps an
// announcement from being shown twice when unrelated commits re-deliver the
// same result set.
type AnnouncementFeed struct {
	store  store.Store
	log    *slog.Logger
	out    chan domain.GlobalAnnouncement
	lastID string
}

func NewAnnouncementFeed(s store.Store, log *slog.Logger) *AnnouncementFeed {
	return &AnnouncementFeed{
		store: s,
		log:   log,
		out:   make(chan domain.GlobalAnnouncement, 8),
	}
}

// Announcements is the stream of newly observed announcements.
func (f *AnnouncementFeed) Announcements() <-chan domain.GlobalAnnouncement {
	return f.out
}

// Run watches the announcement collection until the context ends.
func (f *AnnouncementFeed) Run(ctx context.Context) error {
	sub, err := f.store.Watch(ctx, store.Query{
		Collection: "global_announcements",
		OrderBy:    "timestamp",
		Desc:       true,
		Limit:      1,
	})
	if err != nil {
		return err
	}
	defer close(f.out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case docs, ok := <-sub.Updates():
			if !ok {
				f.log.Debug("Announcement subscription closed")
				return nil
			}
			f.deliver(docs)
		}
	}
}

func (f *AnnouncementFeed) deliver(docs []store.Document) {
	if len(docs) == 0 || docs[0].ID == f.lastID {
		return
	}
	f.lastID = docs[0].ID

	select {
	case f.out <- domain.AnnouncementFromDoc(docs[0].ID, docs[0].Data):
	default:
		f.log.Warn("Announcement dropped, consumer too slow", "id", docs[0].ID)
	}
}

// EventFeed delivers a room's gift events to the animation layer exactly
// once each. Old events age out of the query window by limit; the seen set
// keeps re-delivered result sets from replaying animations.
type EventFeed struct {
	store  store.Store
	log    *slog.Logger
	roomID string
	out    chan domain.GiftEvent
	seen   map[string]struct{}
}

func NewEventFeed(s store.Store, log *slog.Logger, roomID string) *EventFeed {
	return &EventFeed{
		store:  s,
		log:    log,
		roomID: roomID,
		out:    make(chan domain.GiftEvent, 16),
		seen:   make(map[string]struct{}),
	}
}

// Events is the stream of newly committed gift events.
func (f *EventFeed) Events() <-chan domain.GiftEvent {
	return f.out
}

// Run watches the room's gift events until the context ends.
func (f *EventFeed) Run(ctx context.Context) error {
	sub, err := f.store.Watch(ctx, store.Query{
		Collection: "rooms/" + f.roomID + "/gift_events",
		OrderBy:    "timestamp",
		Desc:       true,
		Limit:      20,
	})
	if err != nil {
		return err
	}
	defer close(f.out)

	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case docs, ok := <-sub.Updates():
			if !ok {
				f.log.Debug("Gift event subscription closed")
				return nil
			}
			f.deliver(docs, first)
			first = false
		}
	}
}

// deliver marks everything in the initial snapshot as seen without playing
// it: joining a room must not replay the animation backlog.
func (f *EventFeed) deliver(docs []store.Document, initial bool) {
	for _, doc := range docs {
		if _, ok := f.seen[doc.ID]; ok {
			continue
		}
		f.seen[doc.ID] = struct{}{}
		if initial {
			continue
		}
		select {
		case f.out <- domain.EventFromDoc(doc.ID, doc.Data):
		default:
			f.log.Warn("Gift event dropped, consumer too slow", "id", doc.ID)
		}
	}
}
