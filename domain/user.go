// Package domain contains the core concepts of the voice-room economy:
// users, rooms, seats, gifts, lucky bags, and announcements.
// No storage, network, or UI logic should be added here.
package domain

// RelationshipCP marks a couple relationship, RelationshipFriend a friend one.
// Relationship gifts write the partner pointer symmetrically to both users.
const (
	RelationshipCP     = "cp"
	RelationshipFriend = "friend"
)

// CPPartner is the mutual relationship pointer embedded in a User document.
type CPPartner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Type   string `json:"type"`
}

// RoomTemplate is the saved room configuration reused when a host reopens
// their room.
type RoomTemplate struct {
	Title      string `json:"title"`
	Category   string `json:"category"`
	Thumbnail  string `json:"thumbnail"`
	Background string `json:"background"`
	IsLocked   bool   `json:"isLocked"`
	Password   string `json:"password"`
}

// User is the account document. Coins is the spendable currency, Diamonds the
// gift-received currency, Wealth the cumulative spend counter and Charm the
// cumulative received-gift value. All monetary fields are non-negative
// integers; callers pre-check balances before every spend.
type User struct {
	ID             string        `json:"id"`
	CustomID       string        `json:"customId"`
	Name           string        `json:"name"`
	Avatar         string        `json:"avatar"`
	Frame          string        `json:"frame"`
	Coins          int64         `json:"coins"`
	Diamonds       int64         `json:"diamonds"`
	Wealth         int64         `json:"wealth"`
	Charm          int64         `json:"charm"`
	RechargePoints int64         `json:"rechargePoints"`
	AgencyBalance  int64         `json:"agencyBalance"`
	IsAgency       bool          `json:"isAgency"`
	CPPartner      *CPPartner    `json:"cpPartner"`
	RoomTemplate   *RoomTemplate `json:"roomTemplate"`
}

// WealthLevel derives the sender level shown next to chat messages.
func (u User) WealthLevel() int {
	return CalcLevel(u.Wealth)
}

// RechargeLevel derives the recharge level shown next to chat messages.
func (u User) RechargeLevel() int {
	return CalcLevel(u.RechargePoints)
}
