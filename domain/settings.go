package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// LuckyMultiplier is one weighted payout entry for lucky gifts. Chance is a
// relative weight, not a percentage; selection walks the list in the order
// configured by the administrator.
type LuckyMultiplier struct {
	Label  string  `json:"label"`
	Value  int64   `json:"value" validate:"gte=0"`
	Chance float64 `json:"chance" validate:"gte=0"`
}

// GameSettings enumerates every recognized option with an explicit default.
// A partial settings document merges field by field onto the defaults;
// nothing is inferred from presence or absence at deeper nesting.
type GameSettings struct {
	SlotsWinRate          float64           `json:"slotsWinRate" validate:"gte=0,lte=100"`
	WheelWinRate          float64           `json:"wheelWinRate" validate:"gte=0,lte=100"`
	LionWinRate           float64           `json:"lionWinRate" validate:"gte=0,lte=100"`
	LuckyGiftWinRate      float64           `json:"luckyGiftWinRate" validate:"gte=0,lte=100"`
	LuckyGiftRefundPct    float64           `json:"luckyGiftRefundPercent" validate:"gte=0,lte=100"`
	LuckyXEnabled         bool              `json:"luckyXEnabled"`
	LuckyMultipliers      []LuckyMultiplier `json:"luckyMultipliers" validate:"dive"`
	WheelJackpotX         int64             `json:"wheelJackpotX"`
	WheelNormalX          int64             `json:"wheelNormalX"`
	SlotsSevenX           int64             `json:"slotsSevenX"`
	SlotsFruitX           int64             `json:"slotsFruitX"`
	AvailableEmojis       []string          `json:"availableEmojis"`
	EmojiDuration         time.Duration     `json:"emojiDuration"`
	WheelChips            []int64           `json:"wheelChips"`
	SlotsChips            []int64           `json:"slotsChips"`
	LionChips             []int64           `json:"lionChips"`
	CPGiftID              string            `json:"cpGiftId"`
	FriendGiftID          string            `json:"friendGiftId"`
	GiftAnnounceThreshold int64             `json:"giftAnnounceThreshold" validate:"gt=0"`
	WinAnnounceThreshold  int64             `json:"winAnnounceThreshold" validate:"gt=0"`
	BannedWords           []string          `json:"bannedWords"`
}

// DefaultGameSettings are the built-in values used when the settings
// document is missing or partial. A missing document means "feature absent",
// never an error.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		SlotsWinRate:       30,
		WheelWinRate:       30,
		LionWinRate:        30,
		LuckyGiftWinRate:   30,
		LuckyGiftRefundPct: 50,
		LuckyXEnabled:      true,
		LuckyMultipliers: []LuckyMultiplier{
			{Label: "x2", Value: 2, Chance: 70},
			{Label: "x5", Value: 5, Chance: 20},
			{Label: "x10", Value: 10, Chance: 9},
			{Label: "x100", Value: 100, Chance: 1},
		},
		WheelJackpotX:         8,
		WheelNormalX:          2,
		SlotsSevenX:           10,
		SlotsFruitX:           3,
		AvailableEmojis:       []string{"😂", "❤️", "🔥", "👏", "😍", "🎉"},
		EmojiDuration:         4 * time.Second,
		WheelChips:            []int64{10_000, 1_000_000, 5_000_000, 20_000_000},
		SlotsChips:            []int64{10_000, 1_000_000, 5_000_000, 20_000_000},
		LionChips:             []int64{100, 1_000, 10_000, 100_000},
		GiftAnnounceThreshold: 5_000,
		WinAnnounceThreshold:  100_000,
	}
}

// Validate checks the settings against their declared constraints.
func (s GameSettings) Validate() error {
	return validator.New().Struct(s)
}

// MergeSettings applies a partial override document onto base. Only
// recognized fields are consulted; each override is explicit.
func MergeSettings(base GameSettings, doc map[string]any) GameSettings {
	if doc == nil {
		return base
	}
	if v, ok := docFloat(doc, "slotsWinRate"); ok {
		base.SlotsWinRate = v
	}
	if v, ok := docFloat(doc, "wheelWinRate"); ok {
		base.WheelWinRate = v
	}
	if v, ok := docFloat(doc, "lionWinRate"); ok {
		base.LionWinRate = v
	}
	if v, ok := docFloat(doc, "luckyGiftWinRate"); ok {
		base.LuckyGiftWinRate = v
	}
	if v, ok := docFloat(doc, "luckyGiftRefundPercent"); ok {
		base.LuckyGiftRefundPct = v
	}
	if v, ok := doc["luckyXEnabled"].(bool); ok {
		base.LuckyXEnabled = v
	}
	if raw, ok := doc["luckyMultipliers"].([]any); ok {
		base.LuckyMultipliers = multipliersFromDoc(raw)
	}
	if v, ok := docInt(doc, "wheelJackpotX"); ok {
		base.WheelJackpotX = v
	}
	if v, ok := docInt(doc, "wheelNormalX"); ok {
		base.WheelNormalX = v
	}
	if v, ok := docInt(doc, "slotsSevenX"); ok {
		base.SlotsSevenX = v
	}
	if v, ok := docInt(doc, "slotsFruitX"); ok {
		base.SlotsFruitX = v
	}
	if v, ok := docStrings(doc, "availableEmojis"); ok {
		base.AvailableEmojis = v
	}
	if v, ok := docInt(doc, "emojiDuration"); ok && v > 0 {
		base.EmojiDuration = time.Duration(v) * time.Second
	}
	if v, ok := docInts(doc, "wheelChips"); ok {
		base.WheelChips = v
	}
	if v, ok := docInts(doc, "slotsChips"); ok {
		base.SlotsChips = v
	}
	if v, ok := docInts(doc, "lionChips"); ok {
		base.LionChips = v
	}
	if v, ok := doc["cpGiftId"].(string); ok {
		base.CPGiftID = v
	}
	if v, ok := doc["friendGiftId"].(string); ok {
		base.FriendGiftID = v
	}
	if v, ok := docInt(doc, "giftAnnounceThreshold"); ok && v > 0 {
		base.GiftAnnounceThreshold = v
	}
	if v, ok := docInt(doc, "winAnnounceThreshold"); ok && v > 0 {
		base.WinAnnounceThreshold = v
	}
	if v, ok := docStrings(doc, "bannedWords"); ok {
		base.BannedWords = v
	}
	return base
}

func multipliersFromDoc(raw []any) []LuckyMultiplier {
	out := make([]LuckyMultiplier, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m := LuckyMultiplier{}
		if v, ok := entry["label"].(string); ok {
			m.Label = v
		}
		if v, ok := docInt(entry, "value"); ok {
			m.Value = v
		}
		if v, ok := docFloat(entry, "chance"); ok {
			m.Chance = v
		}
		out = append(out, m)
	}
	return out
}

func docFloat(doc map[string]any, key string) (float64, bool) {
	switch v := doc[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func docInt(doc map[string]any, key string) (int64, bool) {
	switch v := doc[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func docStrings(doc map[string]any, key string) ([]string, bool) {
	raw, ok := doc[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func docInts(doc map[string]any, key string) ([]int64, bool) {
	raw, ok := doc[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]int64, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case int64:
			out = append(out, v)
		case int:
			out = append(out, int64(v))
		case float64:
			out = append(out, int64(v))
		}
	}
	return out, true
}
