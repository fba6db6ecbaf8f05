// Package search maintains a full-text index over room chat messages so that
// moderators can look up what was said without scrolling the live feed.
package search

import (
	"context"
	"log/slog"

	"bobo-live/domain"

	"github.com/blugelabs/bluge"
)

// Hit is one search result, reconstructed from the stored index fields.
type Hit struct {
	MessageID string
	RoomID    string
	UserName  string
	Content   string
}

// MessageIndex wraps a bluge writer. Indexing happens on the chat send path,
// after moderation, so censored text is what gets indexed.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// IndexMessage upserts one chat message. Only text messages are worth
// indexing; gift and system lines are generated, not spoken.
func (i *MessageIndex) IndexMessage(roomID string, msg domain.ChatMessage) error {
	if msg.Type != domain.MessageTypeText {
		return nil
	}

	doc := bluge.NewDocument(msg.ID).
		AddField(bluge.NewKeywordField("roomId", roomID).StoreValue()).
		AddField(bluge.NewKeywordField("userName", msg.UserName).StoreValue()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewDateTimeField("at", msg.Timestamp))

	return i.writer.Update(doc.ID(), doc)
}

// Search returns the best-matching messages of one room, most relevant
// first.
func (i *MessageIndex) Search(ctx context.Context, roomID, text string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(roomID).SetField("roomId")).
		AddMust(bluge.NewMatchQuery(text).SetField("content"))

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	match, err := it.Next()
	for err == nil && match != nil {
		var hit Hit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "roomId":
				hit.RoomID = string(value)
			case "userName":
				hit.UserName = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = it.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
