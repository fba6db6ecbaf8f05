package room

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/store"

	"github.com/samber/lo"
)

// Session is one participant's live view of a room's seating state. The
// speakers slice mirrors the room document; ApplySnapshot refreshes it from
// subscription deliveries, and every local mutation sanitizes and writes the
// entire array back. The array is the whole seating state, so concurrent
// writers overwrite each other at the array level (last writer wins).
type Session struct {
	store    store.Store
	log      *slog.Logger
	settings domain.GameSettings
	roomID   string

	mu       sync.Mutex
	speakers []domain.Speaker
	micCount int
	// emojiGen invalidates pending emoji-clear timers per seat holder: a
	// timer only clears the emoji it was armed for.
	emojiGen map[string]int
}

func NewSession(s store.Store, log *slog.Logger, settings domain.GameSettings, r domain.Room) *Session {
	return &Session{
		store:    s,
		log:      log,
		settings: settings,
		roomID:   r.ID,
		// Sessions built from one snapshot must not share a backing array.
		speakers: slices.Clone(r.Speakers),
		micCount: r.SeatCapacity(),
		emojiGen: make(map[string]int),
	}
}

// ApplySnapshot refreshes the local mirror from a room document delivered by
// the subscription.
func (s *Session) ApplySnapshot(r domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakers = slices.Clone(r.Speakers)
	s.micCount = r.SeatCapacity()
}

// Speakers returns a copy of the current local mirror.
func (s *Session) Speakers() []domain.Speaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Speaker, len(s.speakers))
	copy(out, s.speakers)
	return out
}

// MicCount returns the current seat capacity.
func (s *Session) MicCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micCount
}

// TakeSeat puts a user on a free seat and persists the new seating state.
func (s *Session) TakeSeat(user domain.User, seatIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seatIndex < 0 || seatIndex >= s.micCount {
		return apperrors.ErrSeatOutOfRange
	}
	if _, taken := domain.SpeakerAt(s.speakers, seatIndex); taken {
		return nil
	}
	if _, seated := domain.SpeakerByID(s.speakers, user.ID); seated {
		return nil
	}
	s.speakers = append(s.speakers, domain.Speaker{
		ID:        user.ID,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Frame:     user.Frame,
		SeatIndex: seatIndex,
	})
	return s.persistLocked(nil)
}

// LeaveSeat removes the user's speaker entry, if present.
func (s *Session) LeaveSeat(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.speakers)
	s.speakers = lo.Reject(s.speakers, func(sp domain.Speaker, _ int) bool {
		return sp.ID == userID
	})
	if len(s.speakers) == before {
		return nil
	}
	return s.persistLocked(nil)
}

// SetMuted toggles a speaker's mute flag.
func (s *Session) SetMuted(userID string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, func(sp *domain.Speaker) { sp.IsMuted = muted })
}

// Kick removes a speaker and blacklists them on the room document so they
// cannot rejoin.
func (s *Session) Kick(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speakers = lo.Reject(s.speakers, func(sp domain.Speaker, _ int) bool {
		return sp.ID == userID
	})
	return s.persistLocked(map[string]any{
		"kickedUsers": store.ArrayUnion(userID),
	})
}

// SetEmoji flashes an emoji on the user's seat and schedules the clear. The
// clear re-reads the current room document instead of restoring the
// pre-emoji snapshot, so seat changes made while the emoji was showing are
// not clobbered.
func (s *Session) SetEmoji(userID, emoji string) error {
	s.mu.Lock()

	if _, seated := domain.SpeakerByID(s.speakers, userID); !seated {
		s.mu.Unlock()
		return apperrors.ErrNotOnSeat
	}
	s.emojiGen[userID]++
	gen := s.emojiGen[userID]
	err := s.mutateLocked(userID, func(sp *domain.Speaker) { sp.ActiveEmoji = emoji })
	s.mu.Unlock()
	if err != nil {
		return err
	}

	time.AfterFunc(s.settings.EmojiDuration, func() { s.clearEmoji(userID, gen) })
	return nil
}

func (s *Session) clearEmoji(userID string, gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emojiGen[userID] != gen {
		// A newer emoji replaced this one; its own timer will clear it.
		return
	}

	doc, err := s.store.Get("rooms/" + s.roomID)
	if err != nil {
		s.log.Error("Emoji clear read failed", "room", s.roomID, "err", err)
		return
	}
	current := domain.SpeakersFromDoc(doc.Data["speakers"])
	for i := range current {
		if current[i].ID == userID {
			current[i].ActiveEmoji = ""
		}
	}
	s.speakers = current
	if err := s.persistLocked(nil); err != nil {
		s.log.Error("Emoji clear write failed", "room", s.roomID, "err", err)
	}
}

// CycleMicLayout switches to the next seat capacity and drops speakers whose
// seat no longer exists.
func (s *Session) CycleMicLayout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.micCount = domain.NextMicLayout(s.micCount)
	s.speakers = lo.Filter(s.speakers, func(sp domain.Speaker, _ int) bool {
		return sp.SeatIndex < s.micCount
	})
	return s.persistLocked(map[string]any{
		"micCount": int64(s.micCount),
	})
}

// OpenAllMics unmutes every seat.
func (s *Session) OpenAllMics() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.speakers {
		s.speakers[i].IsMuted = false
	}
	return s.persistLocked(nil)
}

// ResetCharm zeroes every seat's charm counter.
func (s *Session) ResetCharm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.speakers {
		s.speakers[i].Charm = 0
	}
	return s.persistLocked(nil)
}

// ResetSpeakerCharm zeroes one seat's charm counter.
func (s *Session) ResetSpeakerCharm(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateLocked(userID, func(sp *domain.Speaker) { sp.Charm = 0 })
}

// AddCharm applies an optimistic local charm bump to a seated recipient. The
// persisted counterpart lands with the gift commit, not here.
func (s *Session) AddCharm(userID string, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.speakers {
		if s.speakers[i].ID == userID {
			s.speakers[i].Charm += amount
		}
	}
}

func (s *Session) mutateLocked(userID string, mutate func(*domain.Speaker)) error {
	for i := range s.speakers {
		if s.speakers[i].ID == userID {
			mutate(&s.speakers[i])
		}
	}
	return s.persistLocked(nil)
}

// persistLocked writes the sanitized full speakers array, plus any extra
// fields, onto the room document.
func (s *Session) persistLocked(extra map[string]any) error {
	s.speakers = domain.SanitizeSpeakers(s.speakers)
	data := map[string]any{
		"speakers": domain.SpeakersToDoc(s.speakers),
	}
	for k, v := range extra {
		data[k] = v
	}
	return s.store.Update("rooms/"+s.roomID, data)
}
