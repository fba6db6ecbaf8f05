package gift

import (
	"log/slog"
	"sync"
	"time"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/room"
	"bobo-live/store"
)

const (
	// DefaultComboDebounce is the quiet period after the last combo hit
	// before the accumulator is flushed as one commit.
	DefaultComboDebounce = 1200 * time.Millisecond
	// DefaultComboExpiry is how long the combo affordance stays tappable
	// after the last hit.
	DefaultComboExpiry = 5 * time.Second
)

// Animator receives the immediate, unconditional animation trigger for
// every send, before anything is persisted.
type Animator interface {
	PlayGift(event domain.GiftEvent)
}

// NopAnimator is used where no animation layer is attached.
type NopAnimator struct{}

func (NopAnimator) PlayGift(domain.GiftEvent) {}

// DispatcherConfig carries the per-session wiring of a Dispatcher.
type DispatcherConfig struct {
	Settings      domain.GameSettings
	Room          domain.Room
	ComboDebounce time.Duration
	ComboExpiry   time.Duration
}

// Dispatcher turns send-gift intents into optimistic local effects and
// coalesced atomic commits. One dispatcher exists per sender per room
// visit; at most one combo can be pending at a time.
type Dispatcher struct {
	store    store.Store
	log      *slog.Logger
	session  *room.Session
	animator Animator
	roller   Roller

	settings domain.GameSettings
	roomID   string
	roomName string
	debounce time.Duration
	expiry   time.Duration

	mu          sync.Mutex
	sender      *domain.User
	pending     *comboState
	comboGen    int
	comboActive bool
	flushTimer  *time.Timer
	expiryTimer *time.Timer
}

func NewDispatcher(s store.Store, log *slog.Logger, session *room.Session, animator Animator, roller Roller, sender *domain.User, cfg DispatcherConfig) *Dispatcher {
	if cfg.ComboDebounce <= 0 {
		cfg.ComboDebounce = DefaultComboDebounce
	}
	if cfg.ComboExpiry <= 0 {
		cfg.ComboExpiry = DefaultComboExpiry
	}
	return &Dispatcher{
		store:    s,
		log:      log,
		session:  session,
		animator: animator,
		roller:   roller,
		settings: cfg.Settings,
		roomID:   cfg.Room.ID,
		roomName: cfg.Room.Title,
		debounce: cfg.ComboDebounce,
		expiry:   cfg.ComboExpiry,
		sender:   sender,
	}
}

// SendGift runs the full dispatch sequence: cost check, lucky roll,
// optimistic sender and seat updates, relationship side effect, animation
// trigger, then either an immediate commit or accumulation into the pending
// combo.
func (d *Dispatcher) SendGift(g domain.Gift, quantity int64, recipientIDs []string, comboHit bool) error {
	if len(recipientIDs) == 0 {
		return apperrors.ErrNoRecipients
	}
	if quantity <= 0 {
		return nil
	}

	totalCost := g.Cost * quantity * int64(len(recipientIDs))
	perRecipient := g.Cost * quantity

	d.mu.Lock()
	if d.sender.Coins < totalCost {
		d.mu.Unlock()
		return apperrors.ErrInsufficientCoins
	}

	var win int64
	if g.IsLucky && d.roller.Win(d.settings.LuckyGiftWinRate) {
		if picked, ok := d.roller.Pick(d.settings.LuckyMultipliers); ok {
			win = g.Cost * quantity * picked.Value
		}
	}

	// Local effect first, before any store interaction.
	d.sender.Coins += win - totalCost
	d.sender.Wealth += totalCost
	sender := *d.sender
	d.mu.Unlock()

	for _, rid := range recipientIDs {
		d.session.AddCharm(rid, perRecipient)
	}

	d.maybeEstablishRelationship(g, recipientIDs, sender)

	d.animator.PlayGift(domain.GiftEvent{
		GiftID:        g.ID,
		GiftIcon:      g.Icon,
		GiftAnimation: g.AnimationType,
		SenderID:      sender.ID,
		SenderName:    sender.Name,
		SenderAvatar:  sender.Avatar,
		RecipientIDs:  recipientIDs,
		Quantity:      quantity,
		Timestamp:     time.Now().UTC(),
	})

	if !comboHit {
		in := d.commitInput(g, quantity, recipientIDs, totalCost, win, sender)
		go d.commitLogged(in)
		return nil
	}

	d.accumulate(g, quantity, recipientIDs, totalCost, win)
	return nil
}

// ComboActive reports whether the combo affordance is still tappable.
func (d *Dispatcher) ComboActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.comboActive
}

// Sender returns a snapshot of the sender's local optimistic state.
func (d *Dispatcher) Sender() domain.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.sender
}

// maybeEstablishRelationship writes the symmetric partner pointer when a
// relationship gift targets exactly one recipient. Independent of the coin
// transaction and never rolled back.
func (d *Dispatcher) maybeEstablishRelationship(g domain.Gift, recipientIDs []string, sender domain.User) {
	if len(recipientIDs) != 1 {
		return
	}
	var relType string
	switch g.ID {
	case d.settings.CPGiftID:
		relType = domain.RelationshipCP
	case d.settings.FriendGiftID:
		relType = domain.RelationshipFriend
	default:
		return
	}

	partnerID := recipientIDs[0]
	partnerName, partnerAvatar := d.recipientIdentity(partnerID)

	d.mu.Lock()
	d.sender.CPPartner = &domain.CPPartner{
		ID:     partnerID,
		Name:   partnerName,
		Avatar: partnerAvatar,
		Type:   relType,
	}
	d.mu.Unlock()

	go func() {
		batch := d.store.Batch()
		batch.Update("users/"+sender.ID, map[string]any{
			"cpPartner": domain.CPPartnerToDoc(domain.CPPartner{
				ID: partnerID, Name: partnerName, Avatar: partnerAvatar, Type: relType,
			}),
		})
		batch.Update("users/"+partnerID, map[string]any{
			"cpPartner": domain.CPPartnerToDoc(domain.CPPartner{
				ID: sender.ID, Name: sender.Name, Avatar: sender.Avatar, Type: relType,
			}),
		})
		if err := batch.Commit(); err != nil {
			d.log.Error("Relationship write failed", "sender", sender.ID, "partner", partnerID, "err", err)
		}
	}()
}

// recipientIdentity resolves a recipient's display identity from the seat
// snapshot, falling back to a placeholder for off-seat recipients.
func (d *Dispatcher) recipientIdentity(userID string) (name, avatar string) {
	if sp, ok := domain.SpeakerByID(d.session.Speakers(), userID); ok {
		return sp.Name, sp.Avatar
	}
	return "مستلم", ""
}
