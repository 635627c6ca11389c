package rtm

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// MaxBitlockReaders bounds the number of threads a single bitlock can
// track, one bit per thread packed into a single machine word alongside
// the writer's locked flag; no writer id is stored in the word.
const MaxBitlockReaders = 63

// noBitlockOwner marks the owner field when no writer holds the lock.
const noBitlockOwner = uint64(0)

// bitlockOwnerBit is the writer's locked flag, the top bit above the
// reader bitset, so a single CAS can test-and-set both fields; reader
// bits start at bit 0.
const (
	bitlockOwnerBit  = uint64(1) << 63
	bitlockReaderLow = 0
)

// Bitlock packs a reader bitset (low 63 bits, one per thread id) and a
// locked flag (high bit) into one word. Set/test-and-set on the reader
// bitset is a single atomic OR/AND; the writer's locked flag is a single
// CAS on the same word, which is the "packed machine word" design spec §3
// calls for as distinct from bytelock's per-byte array.
type Bitlock struct {
	w uint64
	_ cpu.CacheLinePad
}

// SetReader atomically sets bit threadID in the reader bitset.
func (b *Bitlock) SetReader(threadID uint32) {
	bit := uint64(1) << threadID
	for {
		old := atomic.LoadUint64(&b.w)
		new := old | bit
		if old == new || atomic.CompareAndSwapUint64(&b.w, old, new) {
			return
		}
	}
}

// ClearReader atomically clears bit threadID in the reader bitset.
func (b *Bitlock) ClearReader(threadID uint32) {
	bit := uint64(1) << threadID
	for {
		old := atomic.LoadUint64(&b.w)
		new := old &^ bit
		if old == new || atomic.CompareAndSwapUint64(&b.w, old, new) {
			return
		}
	}
}

// TestAndSetReader atomically sets bit threadID and reports whether it was
// already set, giving callers a single-instruction check-then-announce.
func (b *Bitlock) TestAndSetReader(threadID uint32) (wasSet bool) {
	bit := uint64(1) << threadID
	for {
		old := atomic.LoadUint64(&b.w)
		if old&bit != 0 {
			return true
		}
		if atomic.CompareAndSwapUint64(&b.w, old, old|bit) {
			return false
		}
	}
}

// AnyReaderExcept reports whether any bit other than exclude is set.
func (b *Bitlock) AnyReaderExcept(exclude uint32) bool {
	mask := (^uint64(0) &^ bitlockOwnerBit) &^ (uint64(1) << exclude)
	return atomic.LoadUint64(&b.w)&mask != 0
}

// TryLockWriter sets the high bit, failing if it is already set.
func (b *Bitlock) TryLockWriter() bool {
	for {
		old := atomic.LoadUint64(&b.w)
		if old&bitlockOwnerBit != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(&b.w, old, old|bitlockOwnerBit) {
			return true
		}
	}
}

// UnlockWriter clears the high bit.
func (b *Bitlock) UnlockWriter() {
	for {
		old := atomic.LoadUint64(&b.w)
		if atomic.CompareAndSwapUint64(&b.w, old, old&^bitlockOwnerBit) {
			return
		}
	}
}

// WriterLocked reports whether the high bit is set.
func (b *Bitlock) WriterLocked() bool {
	return atomic.LoadUint64(&b.w)&bitlockOwnerBit != 0
}

// NBitlockStripes is the size of the bitlock table.
const NBitlockStripes = 1 << 16

// BitlockTable is the process-wide table of bitlocks.
type BitlockTable struct {
	stripes [NBitlockStripes]Bitlock
}

var bitlockTable = &BitlockTable{}

// Bitlocks returns the process-wide bitlock table.
func Bitlocks() *BitlockTable { return bitlockTable }

// Get returns the bitlock covering a transactional address.
func (t *BitlockTable) Get(a Addr) *Bitlock {
	return &t.stripes[addrIndex(a, NBitlockStripes)]
}
