// Package wdlock provides the wait-for-my-turn gate that commit-token and
// cohort algorithms use to serialize the writeback phase: a committer
// draws an order number and then spins until the last-complete counter
// reaches order-1 before it is allowed to publish.
//
// Adapted from the teacher's WDLock, a wound-die reader/writer lock that
// let only the oldest waiting transaction id proceed past a packed
// reader-count-and-timestamp word, wounding (failing) any younger
// contender. CToken/Pipeline/Wealth/Cohorts don't need wound-die's
// reader/writer distinction -- every committer wants the *same* resource,
// in strict order -- so the packed word collapses to a single
// last-complete counter, but the "spin until it is my turn, bail out if
// the world changed under me" shape is identical.
package wdlock

import "sync/atomic"

// Gate lets only the committer whose order is next publish.
type Gate struct {
	lastComplete *uint64
}

// On wraps an existing last-complete counter.
func On(lastComplete *uint64) Gate { return Gate{lastComplete: lastComplete} }

// WaitTurn spins until *lastComplete == order-1, polling cancelled on every
// iteration so a thread stuck here during an algorithm hot-swap can give up
// instead of waiting forever for a last-complete value nobody will ever
// publish again. It returns false if cancelled fired first.
func (g Gate) WaitTurn(order uint64, cancelled func() bool) bool {
	for atomic.LoadUint64(g.lastComplete) != order-1 {
		if cancelled() {
			return false
		}
	}
	return true
}

// Advance publishes this committer's order as the new last-complete value,
// unblocking whichever thread is waiting for order+1.
func (g Gate) Advance(order uint64) {
	atomic.StoreUint64(g.lastComplete, order)
}

// Peek returns the current last-complete value without waiting.
func (g Gate) Peek() uint64 { return atomic.LoadUint64(g.lastComplete) }
