package domain

import (
	"time"

	"github.com/samber/lo"
)

// BagTTL is the fixed lifetime of a lucky bag after creation.
const BagTTL = 120 * time.Second

// LuckyBag is a room-wide shared pot split among a capped number of
// claimers. Expiry is evaluated by each client against wall-clock time;
// expired bags stop being offered but their documents persist.
type LuckyBag struct {
	ID              string    `json:"id"`
	SenderID        string    `json:"senderId"`
	SenderName      string    `json:"senderName"`
	SenderAvatar    string    `json:"senderAvatar"`
	RoomID          string    `json:"roomId"`
	RoomTitle       string    `json:"roomTitle"`
	TotalAmount     int64     `json:"totalAmount"`
	RemainingAmount int64     `json:"remainingAmount"`
	RecipientsLimit int64     `json:"recipientsLimit"`
	ClaimedBy       []string  `json:"claimedBy"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// Share is the fixed per-claim payout: floor(total / recipients limit).
// It is never recomputed from the remaining amount, so the floor residual is
// implicitly lost.
func (b LuckyBag) Share() int64 {
	if b.RecipientsLimit <= 0 {
		return 0
	}
	return b.TotalAmount / b.RecipientsLimit
}

// Expired reports whether the bag's TTL has lapsed at the given instant.
func (b LuckyBag) Expired(now time.Time) bool {
	return !b.ExpiresAt.After(now)
}

// ClaimedByUser reports whether the user already claimed this bag.
func (b LuckyBag) ClaimedByUser(userID string) bool {
	return lo.Contains(b.ClaimedBy, userID)
}
