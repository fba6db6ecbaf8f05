package room

import (
	"log/slog"
	"strings"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/moderation"
	"bobo-live/search"
	"bobo-live/store"

	"github.com/abadojack/whatlanggo"
)

// Chat sends and reads a room's message feed. Outgoing text passes through
// the moderation filter before anything else sees it; the search index is
// fed the censored form.
type Chat struct {
	store  store.Store
	log    *slog.Logger
	filter *moderation.Filter
	index  *search.MessageIndex
	limit  int
}

func NewChat(s store.Store, log *slog.Logger, filter *moderation.Filter, index *search.MessageIndex, limit int) *Chat {
	return &Chat{store: s, log: log, filter: filter, index: index, limit: limit}
}

// SendMessage censors, tags the language, stamps the sender's levels, and
// persists one text message.
func (c *Chat) SendMessage(roomID string, sender domain.User, content string) (domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatMessage{}, apperrors.ErrEmptyMessage
	}

	censored, foundWords := c.filter.Censor(content)
	if len(foundWords) > 0 {
		c.log.Warn("Censored message", "room", roomID, "user", sender.ID, "words", len(foundWords))
	}

	msg := domain.ChatMessage{
		UserID:        sender.ID,
		UserName:      sender.Name,
		WealthLevel:   sender.WealthLevel(),
		RechargeLevel: sender.RechargeLevel(),
		Content:       censored,
		Type:          domain.MessageTypeText,
		Lang:          whatlanggo.Detect(content).Lang.Iso6391(),
	}
	return c.post(roomID, msg)
}

// SystemMessage posts a generated line attributed to the acting user, e.g.
// a lucky bag claim notice.
func (c *Chat) SystemMessage(roomID string, user domain.User, content string) (domain.ChatMessage, error) {
	return c.post(roomID, domain.ChatMessage{
		UserID:   user.ID,
		UserName: user.Name,
		Content:  content,
		Type:     domain.MessageTypeSystem,
	})
}

func (c *Chat) post(roomID string, msg domain.ChatMessage) (domain.ChatMessage, error) {
	data := domain.MessageToDoc(msg)
	data["timestamp"] = store.ServerTimestamp

	id, err := c.store.Add("rooms/"+roomID+"/messages", data)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	msg.ID = id

	if c.index != nil {
		if err := c.index.IndexMessage(roomID, msg); err != nil {
			c.log.Error("Message indexing failed", "room", roomID, "message", id, "err", err)
		}
	}
	return msg, nil
}

// Messages returns the newest messages first, capped at the feed limit.
func (c *Chat) Messages(roomID string) ([]domain.ChatMessage, error) {
	docs, err := c.store.QueryDocs(store.Query{
		Collection: "rooms/" + roomID + "/messages",
		OrderBy:    "timestamp",
		Desc:       true,
		Limit:      c.limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.MessageFromDoc(doc.ID, doc.Data))
	}
	return out, nil
}
