package domain

import "github.com/samber/lo"

// MicLayouts are the allowed seat capacities. The room tools cycle through
// them in order.
var MicLayouts = []int{8, 10, 15, 20}

const DefaultMicCount = 8

// Speaker is the embedded snapshot of a participant occupying one of a
// room's seats. The room's Speakers array is the entire seating state; every
// write replaces the whole array.
type Speaker struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	SeatIndex   int    `json:"seatIndex"`
	IsMuted     bool   `json:"isMuted"`
	Charm       int64  `json:"charm"`
	ActiveEmoji string `json:"activeEmoji"`
	Frame       string `json:"frame"`
}

// Room is the live room document, keyed by its host's user ID so a host can
// have at most one open room.
type Room struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	HostID       string    `json:"hostId"`
	HostCustomID string    `json:"hostCustomId"`
	Listeners    int64     `json:"listeners"`
	Thumbnail    string    `json:"thumbnail"`
	Background   string    `json:"background"`
	Speakers     []Speaker `json:"speakers"`
	MicCount     int       `json:"micCount"`
	IsLocked     bool      `json:"isLocked"`
	Password     string    `json:"password"`
	Moderators   []string  `json:"moderators"`
	KickedUsers  []string  `json:"kickedUsers"`
}

// SeatCapacity returns the effective mic count, falling back to the default
// layout when the field is missing or invalid.
func (r Room) SeatCapacity() int {
	if lo.Contains(MicLayouts, r.MicCount) {
		return r.MicCount
	}
	return DefaultMicCount
}

// NextMicLayout cycles to the next allowed capacity.
func NextMicLayout(current int) int {
	idx := lo.IndexOf(MicLayouts, current)
	return MicLayouts[(idx+1)%len(MicLayouts)]
}

// SanitizeSpeakers normalizes every speaker field before a persisted write.
// Unnamed speakers get a placeholder so a malformed snapshot can never wipe a
// seat's identity.
func SanitizeSpeakers(speakers []Speaker) []Speaker {
	return lo.Map(speakers, func(s Speaker, _ int) Speaker {
		if s.Name == "" {
			s.Name = "مستخدم"
		}
		if s.SeatIndex < 0 {
			s.SeatIndex = 0
		}
		if s.Charm < 0 {
			s.Charm = 0
		}
		return s
	})
}

// SpeakerAt returns the speaker occupying the given seat, if any.
func SpeakerAt(speakers []Speaker, seatIndex int) (Speaker, bool) {
	return lo.Find(speakers, func(s Speaker) bool { return s.SeatIndex == seatIndex })
}

// SpeakerByID returns the speaker entry for a user, if they are seated.
func SpeakerByID(speakers []Speaker, userID string) (Speaker, bool) {
	return lo.Find(speakers, func(s Speaker) bool { return s.ID == userID })
}
