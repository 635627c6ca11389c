package rtm

import "sync/atomic"

// GlobalClock is the monotone tick counter described in spec §2 ("Atomics/
// fences... tick counter") and used as the global timestamp in §3/§4.2-4.7.
// It backs both the orec-family "global timestamp" and the commit-token
// families' "order counter", each gets its own instance.
type GlobalClock struct {
	v uint64
}

// Now returns the current value without advancing it.
func (c *GlobalClock) Now() uint64 { return atomic.LoadUint64(&c.v) }

// Advance performs a fetch-and-add, returning the PRIOR value (the value the
// caller should treat as "my issued ticket" for counters, or combine with +1
// for a "new timestamp" use, matching RSTM's tick() semantics where callers
// add one themselves when they want a fresh end_time).
func (c *GlobalClock) Advance() uint64 { return atomic.AddUint64(&c.v, 1) - 1 }

// Bump atomically raises the clock to at least v; it never lowers it.
// Rollback restores each released orec's exact prior value and does not
// call Bump.
func (c *GlobalClock) Bump(v uint64) {
	for {
		cur := atomic.LoadUint64(&c.v)
		if cur >= v {
			return
		}
		if atomic.CompareAndSwapUint64(&c.v, cur, v) {
			return
		}
	}
}

// CAS64/FAA64/Load64/Store64 are named wrappers over sync/atomic kept
// distinct from direct atomic calls at algorithm call sites, mirroring the
// original's bcas32/bcas64 helper names in algs/ByteEager.cpp and friends;
// the naming makes the compare-and-swap-is-the-only-fence discipline from
// spec §5 visible in the algorithm code that calls them.
func CAS64(addr *uint64, old, new uint64) bool { return atomic.CompareAndSwapUint64(addr, old, new) }
func FAA64(addr *uint64, delta uint64) uint64  { return atomic.AddUint64(addr, delta) }
func Load64(addr *uint64) uint64               { return atomic.LoadUint64(addr) }
func Store64(addr *uint64, v uint64)           { atomic.StoreUint64(addr, v) }

// WBR is a write-before-read fence: every write issued above this call is
// visible to any thread that subsequently performs an atomic load, before
// that thread observes any atomic store issued below this call. Go's atomic
// package already gives every atomic op acquire/release semantics, so WBR
// and CFENCE (the commit fence used after writeback, before the "I am done"
// publication per spec §5) are documentation markers rather than additional
// instructions; they exist so the algorithm files can show, at the exact
// point the original C++ needed __sync_synchronize(), where the ordering
// requirement lives.
func WBR()    {}
func CFENCE() {}
