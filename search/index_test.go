package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"bobo-live/domain"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *MessageIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewMessageIndex(writer, slog.Default())
}

func textMessage(id, user, content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        id,
		UserID:    "u-" + user,
		UserName:  user,
		Content:   content,
		Type:      domain.MessageTypeText,
		Timestamp: time.Now().UTC(),
	}
}

func Test_Search_FindsMessagesInRoom(t *testing.T) {
	req := require.New(t)
	idx := newTestIndex(t)

	req.NoError(idx.IndexMessage("r1", textMessage("m1", "Nour", "welcome everyone to the party")))
	req.NoError(idx.IndexMessage("r1", textMessage("m2", "Sami", "who wants to join the game")))
	req.NoError(idx.IndexMessage("r2", textMessage("m3", "Lina", "party in my room instead")))

	hits, err := idx.Search(context.Background(), "r1", "party", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("m1", hits[0].MessageID)
	req.Equal("Nour", hits[0].UserName)
	req.Equal("welcome everyone to the party", hits[0].Content)
}

func Test_Search_ScopedToRoom(t *testing.T) {
	req := require.New(t)
	idx := newTestIndex(t)

	req.NoError(idx.IndexMessage("r1", textMessage("m1", "Nour", "good evening")))

	hits, err := idx.Search(context.Background(), "r2", "evening", 10)
	req.NoError(err)
	req.Empty(hits)
}

func Test_IndexMessage_SkipsGeneratedMessages(t *testing.T) {
	req := require.New(t)
	idx := newTestIndex(t)

	giftLine := textMessage("m1", "Nour", "sent a Golden Lion")
	giftLine.Type = domain.MessageTypeGift
	req.NoError(idx.IndexMessage("r1", giftLine))

	hits, err := idx.Search(context.Background(), "r1", "Golden", 10)
	req.NoError(err)
	req.Empty(hits)
}
