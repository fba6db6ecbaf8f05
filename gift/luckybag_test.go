package gift

import (
	"log/slog"
	"testing"
	"time"

	"bobo-live/domain"
	apperrors "bobo-live/errors"
	"bobo-live/moderation"
	"bobo-live/room"
	"bobo-live/store"

	"github.com/stretchr/testify/require"
)

func newBagService(t *testing.T, s *store.Badger, user *domain.User) *BagService {
	t.Helper()
	filter, err := moderation.NewFilter(nil)
	require.NoError(t, err)
	chat := room.NewChat(s, slog.Default(), filter, nil, 50)
	r := domain.Room{ID: "host", Title: "Main Stage", HostID: "host"}
	return NewBagService(s, slog.Default(), chat, r, user)
}

func seedBagUser(t *testing.T, s *store.Badger, id string, coins int64) *domain.User {
	t.Helper()
	require.NoError(t, s.Set("users/"+id, map[string]any{"name": id, "coins": coins}, false))
	return &domain.User{ID: id, Name: id, Coins: coins}
}

func fetchBag(t *testing.T, s *store.Badger, id string) domain.LuckyBag {
	t.Helper()
	doc, err := s.Get("lucky_bags/" + id)
	require.NoError(t, err)
	return domain.BagFromDoc(doc.ID, doc.Data)
}

func Test_Bag_Create_DebitsSenderAndAnnounces(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	sender := seedBagUser(t, s, "sender", 5_000)
	svc := newBagService(t, s, sender)

	bag, err := svc.Create(1_000, 3)
	req.NoError(err)
	req.Equal(int64(4_000), sender.Coins, "coins debited locally, wealth untouched")
	req.Zero(sender.Wealth)
	req.Equal(int64(1_000), bag.RemainingAmount)
	req.Equal(bag.CreatedAt.Add(domain.BagTTL), bag.ExpiresAt)

	stored := fetchBag(t, s, bag.ID)
	req.Equal(int64(1_000), stored.TotalAmount)
	req.Equal(int64(3), stored.RecipientsLimit)
	req.Empty(stored.ClaimedBy)

	docs, err := s.QueryDocs(store.Query{Collection: "global_announcements"})
	req.NoError(err)
	req.Len(docs, 1)
	ann := domain.AnnouncementFromDoc(docs[0].ID, docs[0].Data)
	req.Equal(domain.AnnouncementLuckyBag, ann.Type)
	req.Equal(int64(1_000), ann.Amount)

	req.Eventually(func() bool {
		doc, err := s.Get("users/sender")
		return err == nil && doc.Data["coins"] == int64(4_000)
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_Bag_Create_RejectsInsufficientCoins(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	sender := seedBagUser(t, s, "sender", 500)
	svc := newBagService(t, s, sender)

	_, err := svc.Create(1_000, 3)
	req.ErrorIs(err, apperrors.ErrInsufficientCoins)
	req.Equal(int64(500), sender.Coins)
}

// Pins the naive guard: after three claims of a 1000/3 bag the residual is
// 1, and since 1 is not <= 0 a fourth claimer still succeeds, taking the
// remaining amount to -332. The guard only closes the bag at exactly zero.
func Test_Bag_Share_And_FourthClaimOverdraws(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	sender := seedBagUser(t, s, "sender", 5_000)
	svc := newBagService(t, s, sender)

	bag, err := svc.Create(1_000, 3)
	req.NoError(err)
	req.Equal(int64(333), bag.Share())

	for i, id := range []string{"c1", "c2", "c3"} {
		claimer := seedBagUser(t, s, id, 0)
		share, err := newBagService(t, s, claimer).Claim(fetchBag(t, s, bag.ID))
		req.NoError(err)
		req.Equal(int64(333), share)
		req.Equal(int64(333), claimer.Coins)
		req.Equal(int64(1_000-(int64(i)+1)*333), fetchBag(t, s, bag.ID).RemainingAmount)
	}
	req.Equal(int64(1), fetchBag(t, s, bag.ID).RemainingAmount)

	fourth := seedBagUser(t, s, "c4", 0)
	share, err := newBagService(t, s, fourth).Claim(fetchBag(t, s, bag.ID))
	req.NoError(err)
	req.Equal(int64(333), share)
	req.Equal(int64(-332), fetchBag(t, s, bag.ID).RemainingAmount)
	req.Len(fetchBag(t, s, bag.ID).ClaimedBy, 4)
}

func Test_Bag_Claim_Rejections(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	sender := seedBagUser(t, s, "sender", 5_000)
	bag, err := newBagService(t, s, sender).Create(900, 3)
	req.NoError(err)

	claimer := seedBagUser(t, s, "c1", 0)
	svc := newBagService(t, s, claimer)
	_, err = svc.Claim(fetchBag(t, s, bag.ID))
	req.NoError(err)

	_, err = svc.Claim(fetchBag(t, s, bag.ID))
	req.ErrorIs(err, apperrors.ErrBagAlreadyClaimed)

	empty := fetchBag(t, s, bag.ID)
	empty.RemainingAmount = 0
	other := seedBagUser(t, s, "c2", 0)
	_, err = newBagService(t, s, other).Claim(empty)
	req.ErrorIs(err, apperrors.ErrBagEmpty)
}

func Test_Bag_Claim_PostsSystemMessage(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	sender := seedBagUser(t, s, "sender", 5_000)
	bag, err := newBagService(t, s, sender).Create(900, 3)
	req.NoError(err)

	claimer := seedBagUser(t, s, "c1", 0)
	_, err = newBagService(t, s, claimer).Claim(fetchBag(t, s, bag.ID))
	req.NoError(err)

	docs, err := s.QueryDocs(store.Query{Collection: "rooms/host/messages"})
	req.NoError(err)
	req.Len(docs, 1)
	msg := domain.MessageFromDoc(docs[0].ID, docs[0].Data)
	req.Equal(domain.MessageTypeSystem, msg.Type)
	req.Equal("c1", msg.UserID)
	req.Contains(msg.Content, "300", "share of a 900/3 bag")
}

func Test_ActiveBags_FiltersExpired(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	sender := seedBagUser(t, s, "sender", 10_000)
	svc := newBagService(t, s, sender)

	bag, err := svc.Create(1_000, 3)
	req.NoError(err)

	active, err := svc.ActiveBags()
	req.NoError(err)
	req.Len(active, 1)
	req.Equal(bag.ID, active[0].ID)

	// Jump past the TTL: the bag stops being offered but its document stays.
	svc.now = func() time.Time { return time.Now().Add(domain.BagTTL + time.Second) }
	active, err = svc.ActiveBags()
	req.NoError(err)
	req.Empty(active)
	_, err = s.Get("lucky_bags/" + bag.ID)
	req.NoError(err)
}
