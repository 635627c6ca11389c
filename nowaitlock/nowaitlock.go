// Package nowaitlock provides the no-retry ownership-CAS primitive used by
// FastlaneSwitch's master lock; the eager-acquire orec algorithms follow
// the same one-CAS discipline directly on their orecs. A single failed
// attempt is a terminal contention signal for the caller: there is no
// spin, no back-off, just abort.
//
// Adapted from the teacher's NoWaitLock, which was a readerCount-based CAS
// lock with the same no-retry discipline: Lock() tried exactly one CAS and
// returned false on contention rather than looping. The reader-count
// encoding that type used doesn't fit an orec's version/owner word, so the
// storage here is rewritten down to "the single word being raced on", but
// the no-retry contract it embodied is exactly what orec-eager acquisition
// needs: a CAS race on an orec is always a fatal contention signal for one
// side, and there is no back-off at the CAS.
package nowaitlock

import "sync/atomic"

// Word wraps a shared machine word (fastlane's master lock word) that
// grants ownership through a single, non-retrying compare-and-swap.
type Word struct {
	addr *uint64
}

// On wraps an existing word without taking ownership of its storage; the
// caller owns the word's lifetime.
func On(addr *uint64) Word { return Word{addr: addr} }

// TryAcquire attempts exactly one CAS from old to new. It never retries:
// the idiom at every call site is `if !w.TryAcquire(old, new) { abort() }`.
func (w Word) TryAcquire(old, new uint64) bool {
	return atomic.CompareAndSwapUint64(w.addr, old, new)
}

// Release unconditionally stores a new value, handing the word back after a
// commit (a fresh version) or a rollback (the saved prior value).
func (w Word) Release(new uint64) {
	atomic.StoreUint64(w.addr, new)
}

// Load reads the current value without attempting to acquire it.
func (w Word) Load() uint64 { return atomic.LoadUint64(w.addr) }
