package gift

import (
	"strings"

	"bobo-live/domain"
)

// announcement decides whether a commit crosses a broadcast threshold. A
// large lucky win announces as lucky_win with the win amount; an expensive
// non-lucky send announces as gift with the spent amount. Lucky gifts below
// the win threshold never announce, whatever they cost.
func (d *Dispatcher) announcement(in commitInput) (domain.GlobalAnnouncement, bool) {
	luckyWin := in.totalWin >= d.settings.WinAnnounceThreshold
	bigGift := !in.gift.IsLucky && in.totalCost >= d.settings.GiftAnnounceThreshold
	if !luckyWin && !bigGift {
		return domain.GlobalAnnouncement{}, false
	}

	names := make([]string, 0, len(in.recipients))
	for _, rid := range in.recipients {
		name, _ := d.recipientIdentity(rid)
		names = append(names, name)
	}

	ann := domain.GlobalAnnouncement{
		SenderName:    in.sender.Name,
		RecipientName: strings.Join(names, ", "),
		GiftName:      in.gift.Name,
		GiftIcon:      in.gift.Icon,
		RoomTitle:     d.roomName,
		RoomID:        d.roomID,
		Type:          domain.AnnouncementGift,
		Amount:        in.totalCost,
	}
	if luckyWin {
		ann.Type = domain.AnnouncementLuckyWin
		ann.Amount = in.totalWin
	}
	return ann, true
}
