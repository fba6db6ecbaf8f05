// Package room holds the per-room-visit state: lifecycle, the local
// speakers mirror, chat, and the feeds derived from store subscriptions.
package room

import (
	"log/slog"

	"bobo-live/domain"
	"bobo-live/store"
)

// Manager opens, joins, and closes rooms. A room document is keyed by its
// host's user ID, so a host can have at most one live room.
type Manager struct {
	store store.Store
	log   *slog.Logger
}

func NewManager(s store.Store, log *slog.Logger) *Manager {
	return &Manager{store: s, log: log}
}

// CreateRoom opens the host's room with the host on seat 0 and saves the
// configuration back to the host's account as the template for next time.
func (m *Manager) CreateRoom(host domain.User, cfg domain.RoomTemplate) (domain.Room, error) {
	r := domain.Room{
		ID:           host.ID,
		Title:        cfg.Title,
		Category:     cfg.Category,
		HostID:       host.ID,
		HostCustomID: host.CustomID,
		Listeners:    1,
		Thumbnail:    cfg.Thumbnail,
		Background:   cfg.Background,
		MicCount:     domain.DefaultMicCount,
		IsLocked:     cfg.IsLocked,
		Password:     cfg.Password,
		Speakers: []domain.Speaker{{
			ID:        host.ID,
			Name:      host.Name,
			Avatar:    host.Avatar,
			Frame:     host.Frame,
			SeatIndex: 0,
		}},
	}

	batch := m.store.Batch()
	batch.Set("rooms/"+r.ID, domain.RoomToDoc(r), false)
	batch.Set("users/"+host.ID, map[string]any{
		"roomTemplate": domain.RoomTemplateToDoc(cfg),
	}, true)
	if err := batch.Commit(); err != nil {
		return domain.Room{}, err
	}
	return r, nil
}

// GetRoom reads the current room document.
func (m *Manager) GetRoom(roomID string) (domain.Room, error) {
	doc, err := m.store.Get("rooms/" + roomID)
	if err != nil {
		return domain.Room{}, err
	}
	return domain.RoomFromDoc(doc.ID, doc.Data), nil
}

// JoinRoom bumps the listener count. The count is advisory, not an
// authoritative membership list.
func (m *Manager) JoinRoom(roomID string) error {
	return m.store.Update("rooms/"+roomID, map[string]any{
		"listeners": store.Increment(1),
	})
}

// LeaveRoom tears the room down when the host leaves; for anyone else it
// frees their seat, if they held one, and decrements the listener count.
func (m *Manager) LeaveRoom(r domain.Room, userID string) error {
	if userID == r.HostID {
		return m.store.Delete("rooms/" + r.ID)
	}

	data := map[string]any{"listeners": store.Increment(-1)}
	if _, seated := domain.SpeakerByID(r.Speakers, userID); seated {
		remaining := make([]domain.Speaker, 0, len(r.Speakers))
		for _, s := range r.Speakers {
			if s.ID != userID {
				remaining = append(remaining, s)
			}
		}
		data["speakers"] = domain.SpeakersToDoc(domain.SanitizeSpeakers(remaining))
	}
	return m.store.Update("rooms/"+r.ID, data)
}

// ListRooms returns every open room, busiest first.
func (m *Manager) ListRooms() ([]domain.Room, error) {
	docs, err := m.store.QueryDocs(store.Query{
		Collection: "rooms",
		OrderBy:    "listeners",
		Desc:       true,
	})
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0, len(docs))
	for _, doc := range docs {
		rooms = append(rooms, domain.RoomFromDoc(doc.ID, doc.Data))
	}
	return rooms, nil
}

// Leaderboard returns a room's top contributors by accumulated gift spend.
func (m *Manager) Leaderboard(roomID string, limit int) ([]domain.Contribution, error) {
	docs, err := m.store.QueryDocs(store.Query{
		Collection: "rooms/" + roomID + "/contributors",
		OrderBy:    "amount",
		Desc:       true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Contribution, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.ContributionFromDoc(doc.ID, doc.Data))
	}
	return out, nil
}
