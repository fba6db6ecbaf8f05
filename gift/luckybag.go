package gift

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/room"
	"bobo-live/store"
)

// BagService creates and claims lucky bags: room-wide timed pots split
// among a capped number of claimers. The claim guards run against the
// caller's cached bag snapshot, so two clients passing the guard in the
// same instant can both claim; the field updates themselves are atomic but
// the aggregate invariant is cooperative only.
type BagService struct {
	store store.Store
	log   *slog.Logger
	chat  *room.Chat

	roomID   string
	roomName string
	now      func() time.Time

	mu   sync.Mutex
	user *domain.User
}

func NewBagService(s store.Store, log *slog.Logger, chat *room.Chat, r domain.Room, user *domain.User) *BagService {
	return &BagService{
		store:    s,
		log:      log,
		chat:     chat,
		roomID:   r.ID,
		roomName: r.Title,
		now:      time.Now,
		user:     user,
	}
}

// Create debits the sender optimistically, writes the bag document, and
// broadcasts one lucky_bag announcement. The debit touches coins only.
func (b *BagService) Create(totalAmount, recipientsLimit int64) (domain.LuckyBag, error) {
	if totalAmount <= 0 || recipientsLimit <= 0 {
		return domain.LuckyBag{}, fmt.Errorf("invalid bag parameters: total %d, limit %d", totalAmount, recipientsLimit)
	}

	b.mu.Lock()
	if b.user.Coins < totalAmount {
		b.mu.Unlock()
		return domain.LuckyBag{}, apperrors.ErrInsufficientCoins
	}
	b.user.Coins -= totalAmount
	sender := *b.user
	b.mu.Unlock()

	go func() {
		err := b.store.Update("users/"+sender.ID, map[string]any{
			"coins": store.Increment(-totalAmount),
		})
		if err != nil {
			b.log.Error("Bag debit failed", "user", sender.ID, "err", err)
		}
	}()

	now := b.now().UTC()
	bag := domain.LuckyBag{
		SenderID:        sender.ID,
		SenderName:      sender.Name,
		SenderAvatar:    sender.Avatar,
		RoomID:          b.roomID,
		RoomTitle:       b.roomName,
		TotalAmount:     totalAmount,
		RemainingAmount: totalAmount,
		RecipientsLimit: recipientsLimit,
		ClaimedBy:       []string{},
		CreatedAt:       now,
		ExpiresAt:       now.Add(domain.BagTTL),
	}
	id, err := b.store.Add("lucky_bags", domain.BagToDoc(bag))
	if err != nil {
		return domain.LuckyBag{}, err
	}
	bag.ID = id

	annData := domain.AnnouncementToDoc(domain.GlobalAnnouncement{
		SenderName:    sender.Name,
		RecipientName: "الجميع",
		GiftName:      "حقيبة حظ",
		GiftIcon:      "💰",
		RoomTitle:     b.roomName,
		RoomID:        b.roomID,
		Type:          domain.AnnouncementLuckyBag,
		Amount:        totalAmount,
	})
	annData["timestamp"] = store.ServerTimestamp
	if _, err := b.store.Add("global_announcements", annData); err != nil {
		b.log.Error("Bag announcement failed", "bag", bag.ID, "err", err)
	}
	return bag, nil
}

// Claim takes the caller's share from a bag. The guards check the passed-in
// snapshot: already-claimed and empty bags reject, but a bag left with a
// positive residual smaller than the share still accepts the claim and
// overdraws below zero.
func (b *BagService) Claim(bag domain.LuckyBag) (int64, error) {
	b.mu.Lock()
	claimer := *b.user
	b.mu.Unlock()

	if bag.ClaimedByUser(claimer.ID) {
		return 0, apperrors.ErrBagAlreadyClaimed
	}
	if bag.RemainingAmount <= 0 {
		return 0, apperrors.ErrBagEmpty
	}

	share := bag.Share()
	err := b.store.Update("lucky_bags/"+bag.ID, map[string]any{
		"remainingAmount": store.Increment(-share),
		"claimedBy":       store.ArrayUnion(claimer.ID),
	})
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	b.user.Coins += share
	b.mu.Unlock()

	go func() {
		err := b.store.Update("users/"+claimer.ID, map[string]any{
			"coins": store.Increment(share),
		})
		if err != nil {
			b.log.Error("Bag credit failed", "user", claimer.ID, "err", err)
		}
	}()

	content := fmt.Sprintf("حصل على %d 🪙 من صندوق الحظ! ✨", share)
	if _, err := b.chat.SystemMessage(b.roomID, claimer, content); err != nil {
		b.log.Error("Bag claim message failed", "bag", bag.ID, "err", err)
	}
	return share, nil
}

// ActiveBags lists the room's bags that are still claimable at the given
// instant. Expired bags are filtered here, never deleted; expiry is a
// client-side judgement.
func (b *BagService) ActiveBags() ([]domain.LuckyBag, error) {
	docs, err := b.store.QueryDocs(store.Query{
		Collection: "lucky_bags",
		Wheres:     []store.Where{{Field: "roomId", Op: "==", Value: b.roomID}},
	})
	if err != nil {
		return nil, err
	}

	now := b.now()
	out := make([]domain.LuckyBag, 0, len(docs))
	for _, doc := range docs {
		bag := domain.BagFromDoc(doc.ID, doc.Data)
		if bag.Expired(now) {
			continue
		}
		out = append(out, bag)
	}
	return out, nil
}
