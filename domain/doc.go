package domain

import (
	"time"

	"github.com/samber/lo"
)

// Converters between domain values and the schemaless document maps the
// store persists. Field names are spelled here and nowhere else. Times
// travel as UnixNano integers.

func SpeakersToDoc(speakers []Speaker) []any {
	out := make([]any, 0, len(speakers))
	for _, s := range speakers {
		out = append(out, map[string]any{
			"id":          s.ID,
			"name":        s.Name,
			"avatar":      s.Avatar,
			"seatIndex":   int64(s.SeatIndex),
			"isMuted":     s.IsMuted,
			"charm":       s.Charm,
			"activeEmoji": s.ActiveEmoji,
			"frame":       s.Frame,
		})
	}
	return out
}

func SpeakersFromDoc(raw any) []Speaker {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Speaker, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s := Speaker{
			ID:          docString(entry, "id"),
			Name:        docString(entry, "name"),
			Avatar:      docString(entry, "avatar"),
			IsMuted:     docBool(entry, "isMuted"),
			ActiveEmoji: docString(entry, "activeEmoji"),
			Frame:       docString(entry, "frame"),
		}
		if v, ok := docInt(entry, "seatIndex"); ok {
			s.SeatIndex = int(v)
		}
		if v, ok := docInt(entry, "charm"); ok {
			s.Charm = v
		}
		out = append(out, s)
	}
	return out
}

func RoomToDoc(r Room) map[string]any {
	return map[string]any{
		"title":        r.Title,
		"category":     r.Category,
		"hostId":       r.HostID,
		"hostCustomId": r.HostCustomID,
		"listeners":    r.Listeners,
		"thumbnail":    r.Thumbnail,
		"background":   r.Background,
		"speakers":     SpeakersToDoc(r.Speakers),
		"micCount":     int64(r.MicCount),
		"isLocked":     r.IsLocked,
		"password":     r.Password,
		"moderators":   stringsToDoc(r.Moderators),
		"kickedUsers":  stringsToDoc(r.KickedUsers),
	}
}

func RoomFromDoc(id string, data map[string]any) Room {
	r := Room{
		ID:           id,
		Title:        docString(data, "title"),
		Category:     docString(data, "category"),
		HostID:       docString(data, "hostId"),
		HostCustomID: docString(data, "hostCustomId"),
		Thumbnail:    docString(data, "thumbnail"),
		Background:   docString(data, "background"),
		Speakers:     SpeakersFromDoc(data["speakers"]),
		IsLocked:     docBool(data, "isLocked"),
		Password:     docString(data, "password"),
	}
	if v, ok := docInt(data, "listeners"); ok {
		r.Listeners = v
	}
	if v, ok := docInt(data, "micCount"); ok {
		r.MicCount = int(v)
	}
	if v, ok := docStrings(data, "moderators"); ok {
		r.Moderators = v
	}
	if v, ok := docStrings(data, "kickedUsers"); ok {
		r.KickedUsers = v
	}
	return r
}

func UserFromDoc(id string, data map[string]any) User {
	u := User{
		ID:       id,
		CustomID: docString(data, "customId"),
		Name:     docString(data, "name"),
		Avatar:   docString(data, "avatar"),
		Frame:    docString(data, "frame"),
		IsAgency: docBool(data, "isAgency"),
	}
	if v, ok := docInt(data, "coins"); ok {
		u.Coins = v
	}
	if v, ok := docInt(data, "diamonds"); ok {
		u.Diamonds = v
	}
	if v, ok := docInt(data, "wealth"); ok {
		u.Wealth = v
	}
	if v, ok := docInt(data, "charm"); ok {
		u.Charm = v
	}
	if v, ok := docInt(data, "rechargePoints"); ok {
		u.RechargePoints = v
	}
	if v, ok := docInt(data, "agencyBalance"); ok {
		u.AgencyBalance = v
	}
	if partner, ok := data["cpPartner"].(map[string]any); ok {
		u.CPPartner = &CPPartner{
			ID:     docString(partner, "id"),
			Name:   docString(partner, "name"),
			Avatar: docString(partner, "avatar"),
			Type:   docString(partner, "type"),
		}
	}
	if tpl, ok := data["roomTemplate"].(map[string]any); ok {
		u.RoomTemplate = &RoomTemplate{
			Title:      docString(tpl, "title"),
			Category:   docString(tpl, "category"),
			Thumbnail:  docString(tpl, "thumbnail"),
			Background: docString(tpl, "background"),
			IsLocked:   docBool(tpl, "isLocked"),
			Password:   docString(tpl, "password"),
		}
	}
	return u
}

func CPPartnerToDoc(p CPPartner) map[string]any {
	return map[string]any{
		"id":     p.ID,
		"name":   p.Name,
		"avatar": p.Avatar,
		"type":   p.Type,
	}
}

func RoomTemplateToDoc(t RoomTemplate) map[string]any {
	return map[string]any{
		"title":      t.Title,
		"category":   t.Category,
		"thumbnail":  t.Thumbnail,
		"background": t.Background,
		"isLocked":   t.IsLocked,
		"password":   t.Password,
	}
}

func BagToDoc(b LuckyBag) map[string]any {
	return map[string]any{
		"senderId":        b.SenderID,
		"senderName":      b.SenderName,
		"senderAvatar":    b.SenderAvatar,
		"roomId":          b.RoomID,
		"roomTitle":       b.RoomTitle,
		"totalAmount":     b.TotalAmount,
		"remainingAmount": b.RemainingAmount,
		"recipientsLimit": b.RecipientsLimit,
		"claimedBy":       stringsToDoc(b.ClaimedBy),
		"createdAt":       b.CreatedAt.UnixNano(),
		"expiresAt":       b.ExpiresAt.UnixNano(),
	}
}

func BagFromDoc(id string, data map[string]any) LuckyBag {
	b := LuckyBag{
		ID:           id,
		SenderID:     docString(data, "senderId"),
		SenderName:   docString(data, "senderName"),
		SenderAvatar: docString(data, "senderAvatar"),
		RoomID:       docString(data, "roomId"),
		RoomTitle:    docString(data, "roomTitle"),
		CreatedAt:    docTime(data, "createdAt"),
		ExpiresAt:    docTime(data, "expiresAt"),
	}
	if v, ok := docInt(data, "totalAmount"); ok {
		b.TotalAmount = v
	}
	if v, ok := docInt(data, "remainingAmount"); ok {
		b.RemainingAmount = v
	}
	if v, ok := docInt(data, "recipientsLimit"); ok {
		b.RecipientsLimit = v
	}
	if v, ok := docStrings(data, "claimedBy"); ok {
		b.ClaimedBy = v
	}
	return b
}

// MessageToDoc leaves the timestamp to the caller: live sends stamp it with
// the store's server-time sentinel.
func MessageToDoc(m ChatMessage) map[string]any {
	return map[string]any{
		"userId":            m.UserID,
		"userName":          m.UserName,
		"userWealthLevel":   int64(m.WealthLevel),
		"userRechargeLevel": int64(m.RechargeLevel),
		"content":           m.Content,
		"type":              m.Type,
		"isLuckyWin":        m.IsLuckyWin,
		"lang":              m.Lang,
	}
}

func MessageFromDoc(id string, data map[string]any) ChatMessage {
	m := ChatMessage{
		ID:         id,
		UserID:     docString(data, "userId"),
		UserName:   docString(data, "userName"),
		Content:    docString(data, "content"),
		Type:       docString(data, "type"),
		IsLuckyWin: docBool(data, "isLuckyWin"),
		Lang:       docString(data, "lang"),
		Timestamp:  docTime(data, "timestamp"),
	}
	if v, ok := docInt(data, "userWealthLevel"); ok {
		m.WealthLevel = int(v)
	}
	if v, ok := docInt(data, "userRechargeLevel"); ok {
		m.RechargeLevel = int(v)
	}
	return m
}

func EventToDoc(e GiftEvent) map[string]any {
	return map[string]any{
		"giftId":        e.GiftID,
		"giftIcon":      e.GiftIcon,
		"giftAnimation": e.GiftAnimation,
		"senderId":      e.SenderID,
		"senderName":    e.SenderName,
		"senderAvatar":  e.SenderAvatar,
		"recipientIds":  stringsToDoc(e.RecipientIDs),
		"quantity":      e.Quantity,
	}
}

func EventFromDoc(id string, data map[string]any) GiftEvent {
	e := GiftEvent{
		ID:            id,
		GiftID:        docString(data, "giftId"),
		GiftIcon:      docString(data, "giftIcon"),
		GiftAnimation: docString(data, "giftAnimation"),
		SenderID:      docString(data, "senderId"),
		SenderName:    docString(data, "senderName"),
		SenderAvatar:  docString(data, "senderAvatar"),
		Timestamp:     docTime(data, "timestamp"),
	}
	if v, ok := docStrings(data, "recipientIds"); ok {
		e.RecipientIDs = v
	}
	if v, ok := docInt(data, "quantity"); ok {
		e.Quantity = v
	}
	return e
}

func AnnouncementToDoc(a GlobalAnnouncement) map[string]any {
	return map[string]any{
		"senderName":    a.SenderName,
		"recipientName": a.RecipientName,
		"giftName":      a.GiftName,
		"giftIcon":      a.GiftIcon,
		"roomTitle":     a.RoomTitle,
		"roomId":        a.RoomID,
		"type":          a.Type,
		"amount":        a.Amount,
	}
}

func AnnouncementFromDoc(id string, data map[string]any) GlobalAnnouncement {
	a := GlobalAnnouncement{
		ID:            id,
		SenderName:    docString(data, "senderName"),
		RecipientName: docString(data, "recipientName"),
		GiftName:      docString(data, "giftName"),
		GiftIcon:      docString(data, "giftIcon"),
		RoomTitle:     docString(data, "roomTitle"),
		RoomID:        docString(data, "roomId"),
		Type:          docString(data, "type"),
		Timestamp:     docTime(data, "timestamp"),
	}
	if v, ok := docInt(data, "amount"); ok {
		a.Amount = v
	}
	return a
}

func GiftFromDoc(id string, data map[string]any) Gift {
	g := Gift{
		ID:            id,
		Name:          docString(data, "name"),
		Icon:          docString(data, "icon"),
		AnimationType: docString(data, "animationType"),
		IsLucky:       docBool(data, "isLucky"),
		Category:      docString(data, "category"),
	}
	if v, ok := docInt(data, "cost"); ok {
		g.Cost = v
	}
	return g
}

func ContributionFromDoc(id string, data map[string]any) Contribution {
	c := Contribution{
		UserID: id,
		Name:   docString(data, "name"),
		Avatar: docString(data, "avatar"),
	}
	if v, ok := docInt(data, "amount"); ok {
		c.Amount = v
	}
	return c
}

func stringsToDoc(values []string) []any {
	return lo.ToAnySlice(values)
}

func docString(doc map[string]any, key string) string {
	v, _ := doc[key].(string)
	return v
}

func docBool(doc map[string]any, key string) bool {
	v, _ := doc[key].(bool)
	return v
}

func docTime(doc map[string]any, key string) time.Time {
	v, ok := docInt(doc, key)
	if !ok || v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v).UTC()
}
