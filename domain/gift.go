package domain

import "time"

// Gift categories as configured by administrators.
const (
	GiftCategoryPopular   = "popular"
	GiftCategoryExclusive = "exclusive"
	GiftCategoryLucky     = "lucky"
	GiftCategoryCelebrity = "celebrity"
	GiftCategoryTrend     = "trend"
)

// Gift is a catalog entry. Lucky gifts carry a probabilistic payout back to
// the sender.
type Gift struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Icon          string `json:"icon"`
	Cost          int64  `json:"cost"`
	AnimationType string `json:"animationType"`
	IsLucky       bool   `json:"isLucky"`
	Category      string `json:"category"`
}

// GiftEvent is the ephemeral room-scoped record consumed by every
// subscriber's animation layer. One event is appended per commit, so a
// coalesced combo burst produces a single event whose Quantity is the
// accumulated count.
type GiftEvent struct {
	ID            string    `json:"id"`
	GiftID        string    `json:"giftId"`
	GiftIcon      string    `json:"giftIcon"`
	GiftAnimation string    `json:"giftAnimation"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	SenderAvatar  string    `json:"senderAvatar"`
	RecipientIDs  []string  `json:"recipientIds"`
	Quantity      int64     `json:"quantity"`
	Timestamp     time.Time `json:"timestamp"`
}

// Chat message kinds.
const (
	MessageTypeText   = "text"
	MessageTypeGift   = "gift"
	MessageTypeSystem = "system"
)

// ChatMessage is a room chat entry. Levels are stamped at send time.
type ChatMessage struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	WealthLevel   int       `json:"userWealthLevel"`
	RechargeLevel int       `json:"userRechargeLevel"`
	Content       string    `json:"content"`
	Type          string    `json:"type"`
	IsLuckyWin    bool      `json:"isLuckyWin"`
	Lang          string    `json:"lang"`
	Timestamp     time.Time `json:"timestamp"`
}

// Contribution is the per-room running total of gift spend attributed to the
// paying user. It only ever grows, via atomic increments.
type Contribution struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Amount int64  `json:"amount"`
}
