// Package economy implements the four money-moving primitives: spend,
// receive, exchange, and agency transfer. Each one validates against the
// balances the caller passes in, applies the new balances through a local
// callback synchronously, and then persists in the background without
// surfacing success or failure back to the caller. A failed write leaves the
// local state diverged until the next subscription snapshot overwrites it;
// that latency-hiding tradeoff is the contract, not an accident.
package economy

import (
	"fmt"
	"log/slog"

	apperrors "bobo-live/errors"
	"bobo-live/store"
)

// ExchangeRate is the fixed diamonds-to-coins policy: floor(amount / 2).
const ExchangeRate = 0.5

// SpendResult carries the sender's new balances after a spend.
type SpendResult struct {
	Coins  int64
	Wealth int64
}

// ReceiveResult carries the recipient's new balances after receiving gift
// value.
type ReceiveResult struct {
	Diamonds int64
	Charm    int64
}

// ExchangeResult carries the new balances after converting diamonds to
// coins.
type ExchangeResult struct {
	Coins    int64
	Diamonds int64
}

// TransferResult carries both sides of an agency recharge.
type TransferResult struct {
	AgentBalance int64
	TargetCoins  int64
	TargetPoints int64
}

// Engine issues the background persistence writes. It is stateless: every
// operation receives current balances from the caller rather than reading
// shared state.
type Engine struct {
	store store.Store
	log   *slog.Logger
}

func NewEngine(s store.Store, log *slog.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// SpendCoins debits coins and credits wealth. It rejects synchronously with
// no side effect when the amount is non-positive or exceeds the available
// coins; otherwise apply runs before any network interaction.
func (e *Engine) SpendCoins(userID string, coins, wealth, amount int64, apply func(SpendResult)) error {
	if amount <= 0 {
		return fmt.Errorf("invalid spend amount %d", amount)
	}
	if coins < amount {
		return apperrors.ErrInsufficientCoins
	}

	apply(SpendResult{Coins: coins - amount, Wealth: wealth + amount})

	go func() {
		err := e.store.Update("users/"+userID, map[string]any{
			"coins":  store.Increment(-amount),
			"wealth": store.Increment(amount),
		})
		if err != nil {
			e.log.Error("Background economy write failed", "op", "spend", "user", userID, "err", err)
		}
	}()
	return nil
}

// ReceiveGift credits diamonds and charm. Receiving is never insufficient,
// so there is no rejection path.
func (e *Engine) ReceiveGift(recipientID string, diamonds, charm, amount int64, apply func(ReceiveResult)) {
	apply(ReceiveResult{Diamonds: diamonds + amount, Charm: charm + amount})

	go func() {
		err := e.store.Update("users/"+recipientID, map[string]any{
			"charm":    store.Increment(amount),
			"diamonds": store.Increment(amount),
		})
		if err != nil {
			e.log.Error("Background economy write failed", "op", "receive", "user", recipientID, "err", err)
		}
	}()
}

// ExchangeDiamonds converts diamonds into coins at the fixed rate, flooring
// the gained coins. Rejects when the amount exceeds available diamonds.
func (e *Engine) ExchangeDiamonds(userID string, coins, diamonds, amount int64, apply func(ExchangeResult)) error {
	if amount < 0 {
		return fmt.Errorf("invalid exchange amount %d", amount)
	}
	if diamonds < amount {
		return apperrors.ErrInsufficientDiamonds
	}

	gained := int64(float64(amount) * ExchangeRate)
	apply(ExchangeResult{Coins: coins + gained, Diamonds: diamonds - amount})

	go func() {
		err := e.store.Update("users/"+userID, map[string]any{
			"diamonds": store.Increment(-amount),
			"coins":    store.Increment(gained),
		})
		if err != nil {
			e.log.Error("Background economy write failed", "op", "exchange", "user", userID, "err", err)
		}
	}()
	return nil
}

// AgencyTransfer moves coins from an agency balance onto a target account,
// crediting recharge points alongside. Both local views update together, and
// the persistence is a single batch across the two user documents.
func (e *Engine) AgencyTransfer(agentID string, agentBalance int64, targetID string, targetCoins, targetPoints, amount int64, apply func(TransferResult)) error {
	if amount <= 0 {
		return fmt.Errorf("invalid transfer amount %d", amount)
	}
	if agentBalance < amount {
		return apperrors.ErrInsufficientAgencyBalance
	}

	apply(TransferResult{
		AgentBalance: agentBalance - amount,
		TargetCoins:  targetCoins + amount,
		TargetPoints: targetPoints + amount,
	})

	go func() {
		batch := e.store.Batch()
		batch.Update("users/"+agentID, map[string]any{
			"agencyBalance": store.Increment(-amount),
		})
		batch.Update("users/"+targetID, map[string]any{
			"coins":          store.Increment(amount),
			"rechargePoints": store.Increment(amount),
		})
		if err := batch.Commit(); err != nil {
			e.log.Error("Background economy write failed", "op", "agency", "agent", agentID, "target", targetID, "err", err)
		}
	}()
	return nil
}
