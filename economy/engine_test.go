package economy

import (
	"log/slog"
	"testing"
	"time"

	apperrors "bobo-live/errors"
	"bobo-live/store"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Badger {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.NewBadger(db, slog.Default())
}

func seedUser(t *testing.T, s *store.Badger, id string, data map[string]any) {
	t.Helper()
	require.NoError(t, s.Set("users/"+id, data, false))
}

func Test_SpendCoins_AppliesLocallyBeforePersisting(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "u1", map[string]any{"coins": int64(1000), "wealth": int64(0)})
	engine := NewEngine(s, slog.Default())

	var result SpendResult
	req.NoError(engine.SpendCoins("u1", 1000, 0, 300, func(r SpendResult) { result = r }))
	req.Equal(int64(700), result.Coins)
	req.Equal(int64(300), result.Wealth)

	req.Eventually(func() bool {
		doc, err := s.Get("users/u1")
		return err == nil && doc.Data["coins"] == int64(700) && doc.Data["wealth"] == int64(300)
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_SpendCoins_RejectsWithoutSideEffect(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "u1", map[string]any{"coins": int64(100)})
	engine := NewEngine(s, slog.Default())

	applied := false
	req.ErrorIs(engine.SpendCoins("u1", 100, 0, 101, func(SpendResult) { applied = true }), apperrors.ErrInsufficientCoins)
	req.Error(engine.SpendCoins("u1", 100, 0, 0, func(SpendResult) { applied = true }))
	req.Error(engine.SpendCoins("u1", 100, 0, -5, func(SpendResult) { applied = true }))
	req.False(applied)

	doc, err := s.Get("users/u1")
	req.NoError(err)
	req.Equal(int64(100), doc.Data["coins"])
}

func Test_SpendSequence_NeverGoesNegative(t *testing.T) {
	// Property: as long as each call's precondition holds against the
	// previously computed local balance, the balance stays >= 0.
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "u1", map[string]any{"coins": int64(500)})
	engine := NewEngine(s, slog.Default())

	coins, wealth := int64(500), int64(0)
	for _, amount := range []int64{200, 200, 200, 90, 10, 1} {
		err := engine.SpendCoins("u1", coins, wealth, amount, func(r SpendResult) {
			coins, wealth = r.Coins, r.Wealth
		})
		if err == nil {
			req.GreaterOrEqual(coins, int64(0))
		}
	}
	req.Equal(int64(0), coins)
	req.Equal(int64(500), wealth)
}

func Test_ReceiveGift_HasNoRejectionPath(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "host", map[string]any{"diamonds": int64(5), "charm": int64(5)})
	engine := NewEngine(s, slog.Default())

	var result ReceiveResult
	engine.ReceiveGift("host", 5, 5, 100, func(r ReceiveResult) { result = r })
	req.Equal(int64(105), result.Diamonds)
	req.Equal(int64(105), result.Charm)

	req.Eventually(func() bool {
		doc, err := s.Get("users/host")
		return err == nil && doc.Data["diamonds"] == int64(105) && doc.Data["charm"] == int64(105)
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_ExchangeDiamonds_FloorsGainedCoins(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "u1", map[string]any{"coins": int64(10), "diamonds": int64(101)})
	engine := NewEngine(s, slog.Default())

	var result ExchangeResult
	req.NoError(engine.ExchangeDiamonds("u1", 10, 101, 101, func(r ExchangeResult) { result = r }))
	req.Equal(int64(60), result.Coins, "10 + floor(101 * 0.5)")
	req.Equal(int64(0), result.Diamonds)

	req.Eventually(func() bool {
		doc, err := s.Get("users/u1")
		return err == nil && doc.Data["coins"] == int64(60) && doc.Data["diamonds"] == int64(0)
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_ExchangeDiamonds_Boundaries(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "u1", map[string]any{"coins": int64(7), "diamonds": int64(40)})
	engine := NewEngine(s, slog.Default())

	// A=0 is a no-op that still succeeds
	var result ExchangeResult
	req.NoError(engine.ExchangeDiamonds("u1", 7, 40, 0, func(r ExchangeResult) { result = r }))
	req.Equal(ExchangeResult{Coins: 7, Diamonds: 40}, result)

	// A > D rejects without applying
	applied := false
	req.ErrorIs(engine.ExchangeDiamonds("u1", 7, 40, 41, func(ExchangeResult) { applied = true }), apperrors.ErrInsufficientDiamonds)
	req.False(applied)
}

func Test_AgencyTransfer_UpdatesBothAccountsTogether(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	seedUser(t, s, "agent", map[string]any{"agencyBalance": int64(10_000)})
	seedUser(t, s, "player", map[string]any{"coins": int64(50), "rechargePoints": int64(0)})
	engine := NewEngine(s, slog.Default())

	var result TransferResult
	req.NoError(engine.AgencyTransfer("agent", 10_000, "player", 50, 0, 4_000, func(r TransferResult) { result = r }))
	req.Equal(int64(6_000), result.AgentBalance)
	req.Equal(int64(4_050), result.TargetCoins)
	req.Equal(int64(4_000), result.TargetPoints)

	req.Eventually(func() bool {
		agent, err := s.Get("users/agent")
		if err != nil {
			return false
		}
		player, err := s.Get("users/player")
		if err != nil {
			return false
		}
		return agent.Data["agencyBalance"] == int64(6_000) &&
			player.Data["coins"] == int64(4_050) &&
			player.Data["rechargePoints"] == int64(4_000)
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_AgencyTransfer_RejectsInsufficientBalance(t *testing.T) {
	req := require.New(t)
	engine := NewEngine(newTestStore(t), slog.Default())

	applied := false
	req.ErrorIs(engine.AgencyTransfer("agent", 100, "player", 0, 0, 101, func(TransferResult) { applied = true }), apperrors.ErrInsufficientAgencyBalance)
	req.False(applied)
}

func Test_WriteFailure_DoesNotRollBackLocalState(t *testing.T) {
	// The target document does not exist, so the background Update fails.
	// Local state must keep the optimistic values: reconciliation only
	// happens through the next subscription snapshot.
	req := require.New(t)
	s := newTestStore(t)
	engine := NewEngine(s, slog.Default())

	var result SpendResult
	req.NoError(engine.SpendCoins("ghost", 1000, 0, 100, func(r SpendResult) { result = r }))
	req.Equal(int64(900), result.Coins)

	time.Sleep(50 * time.Millisecond)
	_, err := s.Get("users/ghost")
	req.Error(err)
	req.Equal(int64(900), result.Coins)
}
