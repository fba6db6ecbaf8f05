package room

import (
	"log/slog"
	"testing"

	"bobo-live/domain"
	apperrors "bobo-live/errors"

	"github.com/stretchr/testify/require"
)

func Test_CreateRoom_SeatsHostAndSavesTemplate(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	req.NoError(s.Set("users/host", map[string]any{"name": "Sami", "coins": int64(0)}, false))

	m := NewManager(s, slog.Default())
	host := domain.User{ID: "host", CustomID: "10001", Name: "Sami", Avatar: "a.png"}
	cfg := domain.RoomTemplate{Title: "Main Stage", Category: "music", IsLocked: true, Password: "1234"}

	r, err := m.CreateRoom(host, cfg)
	req.NoError(err)
	req.Equal("host", r.ID, "room is keyed by its host")
	req.Equal(int64(1), r.Listeners)
	req.Equal(domain.DefaultMicCount, r.MicCount)

	stored, err := m.GetRoom("host")
	req.NoError(err)
	req.Equal("Main Stage", stored.Title)
	req.True(stored.IsLocked)
	req.Len(stored.Speakers, 1)
	req.Equal(0, stored.Speakers[0].SeatIndex)
	req.Equal("Sami", stored.Speakers[0].Name)

	userDoc, err := s.Get("users/host")
	req.NoError(err)
	user := domain.UserFromDoc(userDoc.ID, userDoc.Data)
	req.NotNil(user.RoomTemplate)
	req.Equal("Main Stage", user.RoomTemplate.Title)
	req.Equal("Sami", user.Name, "template write merges, does not replace")
}

func Test_JoinAndLeave_AdjustListeners(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	req.NoError(s.Set("users/host", map[string]any{"name": "Sami"}, false))

	m := NewManager(s, slog.Default())
	r, err := m.CreateRoom(domain.User{ID: "host", Name: "Sami"}, domain.RoomTemplate{Title: "Main Stage"})
	req.NoError(err)

	req.NoError(m.JoinRoom("host"))
	req.NoError(m.JoinRoom("host"))
	stored, err := m.GetRoom("host")
	req.NoError(err)
	req.Equal(int64(3), stored.Listeners)

	req.NoError(m.LeaveRoom(stored, "listener-1"))
	stored, err = m.GetRoom("host")
	req.NoError(err)
	req.Equal(int64(2), stored.Listeners)

	req.NoError(m.LeaveRoom(stored, r.HostID))
	_, err = m.GetRoom("host")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_LeaveRoom_FreesSpeakerSeat(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	r := seedRoom(t, s)

	m := NewManager(s, slog.Default())
	req.NoError(m.LeaveRoom(r, "guest"))

	stored, err := m.GetRoom("host")
	req.NoError(err)
	req.Equal(int64(1), stored.Listeners)
	_, seated := domain.SpeakerByID(stored.Speakers, "guest")
	req.False(seated)
}

func Test_ListRooms_BusiestFirst(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	m := NewManager(s, slog.Default())

	for id, listeners := range map[string]int64{"a": 5, "b": 20, "c": 1} {
		r := domain.Room{ID: id, Title: id, HostID: id, Listeners: listeners}
		req.NoError(s.Set("rooms/"+id, domain.RoomToDoc(r), false))
	}

	rooms, err := m.ListRooms()
	req.NoError(err)
	req.Len(rooms, 3)
	req.Equal("b", rooms[0].ID)
	req.Equal("c", rooms[2].ID)
}

func Test_Leaderboard_OrdersByContribution(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	m := NewManager(s, slog.Default())

	for id, amount := range map[string]int64{"u1": 500, "u2": 9_000, "u3": 100} {
		req.NoError(s.Set("rooms/host/contributors/"+id, map[string]any{
			"userId": id, "name": id, "amount": amount,
		}, false))
	}

	top, err := m.Leaderboard("host", 2)
	req.NoError(err)
	req.Len(top, 2)
	req.Equal("u2", top[0].UserID)
	req.Equal(int64(9_000), top[0].Amount)
	req.Equal("u1", top[1].UserID)
}
