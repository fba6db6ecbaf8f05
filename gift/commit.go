package gift

import (
	"fmt"

	"bobo-live/domain"
	"bobo-live/store"
)

// commitInput is everything one atomic commit needs, snapshotted at flush
// time so the batch is built from the state the taps actually saw.
type commitInput struct {
	gift       domain.Gift
	quantity   int64
	recipients []string
	totalCost  int64
	totalWin   int64
	sender     domain.User
}

func (d *Dispatcher) commitInput(g domain.Gift, quantity int64, recipients []string, totalCost, win int64, sender domain.User) commitInput {
	return commitInput{
		gift:       g,
		quantity:   quantity,
		recipients: recipients,
		totalCost:  totalCost,
		totalWin:   win,
		sender:     sender,
	}
}

func (d *Dispatcher) commitLogged(in commitInput) {
	if err := d.commit(in); err != nil {
		d.log.Error("Gift commit failed", "gift", in.gift.ID, "sender", in.sender.ID, "err", err)
	}
}

// commit issues the one atomic batch behind a send or a coalesced burst.
// Balances are not re-validated here; the optimistic path already checked
// them. A failed batch is logged and the local state stays diverged until
// the next snapshot.
func (d *Dispatcher) commit(in commitInput) error {
	share := in.totalCost / int64(len(in.recipients))
	batch := d.store.Batch()

	batch.Update("users/"+in.sender.ID, map[string]any{
		"coins":  store.Increment(in.totalWin - in.totalCost),
		"wealth": store.Increment(in.totalCost),
	})

	for _, rid := range in.recipients {
		batch.Update("users/"+rid, map[string]any{
			"charm":    store.Increment(share),
			"diamonds": store.Increment(share),
		})
		batch.Set("rooms/"+d.roomID+"/contributors/"+in.sender.ID, map[string]any{
			"userId": in.sender.ID,
			"name":   in.sender.Name,
			"avatar": in.sender.Avatar,
			"amount": store.Increment(share),
		}, true)
	}

	eventData := domain.EventToDoc(domain.GiftEvent{
		GiftID:        in.gift.ID,
		GiftIcon:      in.gift.Icon,
		GiftAnimation: in.gift.AnimationType,
		SenderID:      in.sender.ID,
		SenderName:    in.sender.Name,
		SenderAvatar:  in.sender.Avatar,
		RecipientIDs:  in.recipients,
		Quantity:      in.quantity,
	})
	eventData["timestamp"] = store.ServerTimestamp
	batch.Add("rooms/"+d.roomID+"/gift_events", eventData)

	content := fmt.Sprintf("أرسل %s x%d 🎁", in.gift.Name, in.quantity)
	if in.totalWin > 0 {
		content = fmt.Sprintf("أرسل %s x%d وفاز بـ %d 🪙!", in.gift.Name, in.quantity, in.totalWin)
	}
	msgData := domain.MessageToDoc(domain.ChatMessage{
		UserID:        in.sender.ID,
		UserName:      in.sender.Name,
		WealthLevel:   domain.CalcLevel(in.sender.Wealth),
		RechargeLevel: domain.CalcLevel(in.sender.RechargePoints),
		Content:       content,
		Type:          domain.MessageTypeGift,
		IsLuckyWin:    in.totalWin > 0,
	})
	msgData["timestamp"] = store.ServerTimestamp
	batch.Add("rooms/"+d.roomID+"/messages", msgData)

	if ann, ok := d.announcement(in); ok {
		annData := domain.AnnouncementToDoc(ann)
		annData["timestamp"] = store.ServerTimestamp
		batch.Add("global_announcements", annData)
	}

	batch.Update("rooms/"+d.roomID, map[string]any{
		"speakers": domain.SpeakersToDoc(domain.SanitizeSpeakers(d.session.Speakers())),
	})

	return batch.Commit()
}
