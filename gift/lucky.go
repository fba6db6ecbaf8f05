// Package gift turns send-gift intents into coalesced, atomic
// multi-document commits: combo batching, lucky payouts, lucky bags, and
// global announcements.
package gift

import (
	"math/rand"

	"bobo-live/domain"
)

// Roller draws the random outcomes of lucky gifts. The source of uniform
// [0,1) numbers is injectable so tests can pin outcomes.
type Roller struct {
	rand func() float64
}

func NewRoller() Roller {
	return Roller{rand: rand.Float64}
}

func NewRollerWith(src func() float64) Roller {
	return Roller{rand: src}
}

// Win draws one Bernoulli trial against a percent win rate.
func (r Roller) Win(ratePercent float64) bool {
	return r.rand()*100 < ratePercent
}

// Pick selects a payout multiplier by weighted walk: draw in
// [0, totalWeight), subtract each entry's weight in configured order until
// the remainder is smaller than the current entry. An empty list reports no
// selection; a won roll with no multipliers pays zero rather than erroring.
// Zero-weight entries are unreachable but legal.
func (r Roller) Pick(multipliers []domain.LuckyMultiplier) (domain.LuckyMultiplier, bool) {
	if len(multipliers) == 0 {
		return domain.LuckyMultiplier{}, false
	}

	var total float64
	for _, m := range multipliers {
		total += m.Chance
	}
	if total <= 0 {
		return multipliers[0], true
	}

	remainder := r.rand() * total
	for _, m := range multipliers {
		if remainder < m.Chance {
			return m, true
		}
		remainder -= m.Chance
	}
	return multipliers[0], true
}
