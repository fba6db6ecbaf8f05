package gift

import (
	"time"

	"bobo-live/domain"
)

// comboState is the pending-sync accumulator for one rapid-fire burst. It
// lives only in memory; nothing is persisted until the debounce flush.
type comboState struct {
	gift       domain.Gift
	recipients []string
	count      int64
	totalCost  int64
	totalWin   int64
}

func (c *comboState) matches(g domain.Gift, recipients []string) bool {
	if c.gift.ID != g.ID || len(c.recipients) != len(recipients) {
		return false
	}
	for i, r := range c.recipients {
		if r != recipients[i] {
			return false
		}
	}
	return true
}

// accumulate folds one combo hit into the pending state and re-arms the
// debounce. A hit on a different gift or recipient set flushes the old
// burst first; only one combo is ever pending.
func (d *Dispatcher) accumulate(g domain.Gift, quantity int64, recipients []string, totalCost, win int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil && !d.pending.matches(g, recipients) {
		d.flushLocked()
	}
	if d.pending == nil {
		d.pending = &comboState{gift: g, recipients: recipients}
		d.comboGen++
	}
	d.pending.count += quantity
	d.pending.totalCost += totalCost
	d.pending.totalWin += win
	d.comboActive = true

	gen := d.comboGen
	if d.flushTimer != nil {
		d.flushTimer.Stop()
	}
	d.flushTimer = time.AfterFunc(d.debounce, func() { d.flushIfCurrent(gen) })

	if d.expiryTimer != nil {
		d.expiryTimer.Stop()
	}
	d.expiryTimer = time.AfterFunc(d.expiry, func() { d.expireIfCurrent(gen) })
}

// flushIfCurrent is the debounce callback. The generation check keeps a
// stale timer, stopped too late, from flushing a newer burst's state.
func (d *Dispatcher) flushIfCurrent(gen int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil || d.comboGen != gen {
		return
	}
	d.flushLocked()
}

// flushLocked clears the accumulator before the commit is dispatched, so a
// tap arriving mid-commit starts a fresh burst instead of being counted
// twice.
func (d *Dispatcher) flushLocked() {
	c := d.pending
	d.pending = nil
	if d.flushTimer != nil {
		d.flushTimer.Stop()
		d.flushTimer = nil
	}

	in := d.commitInput(c.gift, c.count, c.recipients, c.totalCost, c.totalWin, *d.sender)
	go d.commitLogged(in)
}

// expireIfCurrent ends the combo affordance. Any unflushed accumulator is
// still flushed by its own debounce timer.
func (d *Dispatcher) expireIfCurrent(gen int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.comboGen != gen {
		return
	}
	d.comboActive = false
}
