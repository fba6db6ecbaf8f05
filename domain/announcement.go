package domain

import "time"

// Global announcement kinds. Gift announcements fire for expensive
// non-lucky gifts, lucky_win for large payouts, lucky_bag on bag creation.
const (
	AnnouncementGift     = "gift"
	AnnouncementLuckyWin = "lucky_win"
	AnnouncementLuckyBag = "lucky_bag"
)

// GlobalAnnouncement is a write-once broadcast consumed by every client's
// most-recent-item subscription. Purely advisory: no acknowledgement, no
// retry.
type GlobalAnnouncement struct {
	ID            string    `json:"id"`
	SenderName    string    `json:"senderName"`
	RecipientName string    `json:"recipientName"`
	GiftName      string    `json:"giftName"`
	GiftIcon      string    `json:"giftIcon"`
	RoomTitle     string    `json:"roomTitle"`
	RoomID        string    `json:"roomId"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}
