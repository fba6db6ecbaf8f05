package room

import (
	"log/slog"
	"testing"
	"time"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/store"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Badger {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.NewBadger(db, slog.Default())
}

func seedRoom(t *testing.T, s *store.Badger) domain.Room {
	t.Helper()
	r := domain.Room{
		ID:     "host",
		Title:  "Main Stage",
		HostID: "host",
		Speakers: []domain.Speaker{
			{ID: "host", Name: "Sami", SeatIndex: 0},
			{ID: "guest", Name: "Lina", SeatIndex: 1},
		},
		MicCount:  domain.DefaultMicCount,
		Listeners: 2,
	}
	require.NoError(t, s.Set("rooms/host", domain.RoomToDoc(r), false))
	return r
}

func storedSpeakers(t *testing.T, s *store.Badger) []domain.Speaker {
	t.Helper()
	doc, err := s.Get("rooms/host")
	require.NoError(t, err)
	return domain.SpeakersFromDoc(doc.Data["speakers"])
}

func Test_TakeSeat_And_LeaveSeat(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	r := seedRoom(t, s)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), r)

	req.NoError(session.TakeSeat(domain.User{ID: "u3", Name: "Omar"}, 2))
	speakers := storedSpeakers(t, s)
	req.Len(speakers, 3)
	seat, ok := domain.SpeakerAt(speakers, 2)
	req.True(ok)
	req.Equal("Omar", seat.Name)

	// Occupied seat and double seating are both no-ops.
	req.NoError(session.TakeSeat(domain.User{ID: "u4"}, 2))
	req.NoError(session.TakeSeat(domain.User{ID: "u3"}, 3))
	req.Len(storedSpeakers(t, s), 3)

	req.NoError(session.LeaveSeat("u3"))
	req.Len(storedSpeakers(t, s), 2)
}

func Test_TakeSeat_RejectsOutOfRangeSeat(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), seedRoom(t, s))

	req.ErrorIs(session.TakeSeat(domain.User{ID: "u3"}, domain.DefaultMicCount), apperrors.ErrSeatOutOfRange)
	req.ErrorIs(session.TakeSeat(domain.User{ID: "u3"}, -1), apperrors.ErrSeatOutOfRange)
	req.Len(storedSpeakers(t, s), 2)
}

func Test_SetMuted_PersistsFullArray(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), seedRoom(t, s))

	req.NoError(session.SetMuted("guest", true))

	speakers := storedSpeakers(t, s)
	guest, ok := domain.SpeakerByID(speakers, "guest")
	req.True(ok)
	req.True(guest.IsMuted)
	host, _ := domain.SpeakerByID(speakers, "host")
	req.False(host.IsMuted)
}

// Two sessions holding the same starting snapshot write concurrently; the
// second full-array replace silently discards the first one's change. This
// lossy last-writer-wins behavior is the contract, so it is pinned here.
func Test_ConcurrentSessions_LastWriterWins(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	r := seedRoom(t, s)

	a := NewSession(s, slog.Default(), domain.DefaultGameSettings(), r)
	b := NewSession(s, slog.Default(), domain.DefaultGameSettings(), r)

	req.NoError(a.SetMuted("host", true))

	// A's mutation must not bleed into B's mirror through a shared
	// backing array; B still holds the snapshot it was built from.
	bHost, _ := domain.SpeakerByID(b.Speakers(), "host")
	req.False(bHost.IsMuted)

	req.NoError(b.SetMuted("guest", true))

	speakers := storedSpeakers(t, s)
	host, _ := domain.SpeakerByID(speakers, "host")
	guest, _ := domain.SpeakerByID(speakers, "guest")
	req.False(host.IsMuted, "first writer's change is lost")
	req.True(guest.IsMuted)
}

func Test_Kick_RemovesSpeakerAndBlacklists(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), seedRoom(t, s))

	req.NoError(session.Kick("guest"))

	doc, err := s.Get("rooms/host")
	req.NoError(err)
	r := domain.RoomFromDoc(doc.ID, doc.Data)
	_, seated := domain.SpeakerByID(r.Speakers, "guest")
	req.False(seated)
	req.Contains(r.KickedUsers, "guest")
}

func Test_SetEmoji_RequiresSeat(t *testing.T) {
	s := newTestStore(t)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), seedRoom(t, s))
	err := session.SetEmoji("nobody", "🔥")
	require.ErrorIs(t, err, apperrors.ErrNotOnSeat)
}

// The emoji clear must re-read the server state rather than restore the
// pre-emoji snapshot, so a seat change landing during the display window
// survives the clear.
func Test_EmojiClear_PreservesConcurrentSeatChange(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	settings := domain.DefaultGameSettings()
	settings.EmojiDuration = 80 * time.Millisecond
	session := NewSession(s, slog.Default(), settings, seedRoom(t, s))

	req.NoError(session.SetEmoji("host", "🔥"))

	// Another participant mutes the guest while the emoji is showing.
	current := storedSpeakers(t, s)
	for i := range current {
		if current[i].ID == "guest" {
			current[i].IsMuted = true
		}
	}
	req.NoError(s.Update("rooms/host", map[string]any{
		"speakers": domain.SpeakersToDoc(current),
	}))

	req.Eventually(func() bool {
		speakers := storedSpeakers(t, s)
		host, _ := domain.SpeakerByID(speakers, "host")
		guest, _ := domain.SpeakerByID(speakers, "guest")
		return host.ActiveEmoji == "" && guest.IsMuted
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_NewerEmoji_OutlivesStaleClearTimer(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	settings := domain.DefaultGameSettings()
	settings.EmojiDuration = 60 * time.Millisecond
	session := NewSession(s, slog.Default(), settings, seedRoom(t, s))

	req.NoError(session.SetEmoji("host", "🔥"))
	time.Sleep(30 * time.Millisecond)
	req.NoError(session.SetEmoji("host", "🎉"))
	time.Sleep(35 * time.Millisecond)

	// The first timer has fired by now but must not clear the second emoji.
	host, _ := domain.SpeakerByID(storedSpeakers(t, s), "host")
	req.Equal("🎉", host.ActiveEmoji)

	req.Eventually(func() bool {
		host, _ := domain.SpeakerByID(storedSpeakers(t, s), "host")
		return host.ActiveEmoji == ""
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_CycleMicLayout_TruncatesOutOfRangeSeats(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	r := seedRoom(t, s)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), r)

	// Walk the cycle up to 20 seats and put someone on seat 18.
	req.NoError(session.CycleMicLayout()) // 10
	req.NoError(session.CycleMicLayout()) // 15
	req.NoError(session.CycleMicLayout()) // 20
	req.Equal(20, session.MicCount())
	req.NoError(session.TakeSeat(domain.User{ID: "high", Name: "Omar"}, 18))

	// Wrapping back to 8 drops the out-of-range seat.
	req.NoError(session.CycleMicLayout())
	req.Equal(8, session.MicCount())
	_, seated := domain.SpeakerByID(session.Speakers(), "high")
	req.False(seated)

	doc, err := s.Get("rooms/host")
	req.NoError(err)
	req.Equal(int64(8), doc.Data["micCount"])
}

func Test_CharmOperations(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), seedRoom(t, s))

	session.AddCharm("host", 500)
	session.AddCharm("guest", 200)
	host, _ := domain.SpeakerByID(session.Speakers(), "host")
	req.Equal(int64(500), host.Charm)

	// Optimistic charm is local only until a gift commit persists it.
	stored, _ := domain.SpeakerByID(storedSpeakers(t, s), "host")
	req.Zero(stored.Charm)

	req.NoError(session.ResetSpeakerCharm("host"))
	host, _ = domain.SpeakerByID(session.Speakers(), "host")
	req.Zero(host.Charm)
	guest, _ := domain.SpeakerByID(session.Speakers(), "guest")
	req.Equal(int64(200), guest.Charm)

	req.NoError(session.ResetCharm())
	guest, _ = domain.SpeakerByID(storedSpeakers(t, s), "guest")
	req.Zero(guest.Charm)
}

func Test_OpenAllMics(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	session := NewSession(s, slog.Default(), domain.DefaultGameSettings(), seedRoom(t, s))

	req.NoError(session.SetMuted("host", true))
	req.NoError(session.SetMuted("guest", true))
	req.NoError(session.OpenAllMics())

	for _, sp := range storedSpeakers(t, s) {
		req.False(sp.IsMuted)
	}
}
