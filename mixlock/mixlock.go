// Package mixlock provides NOrec's single global sequence lock: one word
// whose low bit is a write-active flag and whose remaining bits are a
// timestamp. An even word is a consistent snapshot a reader can use as its
// start_time; an odd word means a writer is mid-commit and any reader that
// samples it must retry.
//
// Adapted from the teacher's MixLock, which packed a 7-bit lock/reader-
// count field into the low bits of a combined lock-and-timestamp word.
// NOrec's sequence lock is the same packed-word idea with the field
// narrowed to a single bit, since NOrec has exactly one writer at a time
// and no concept of a shared reader count.
package mixlock

import "sync/atomic"

// SeqLock is NOrec's global lock/version word.
type SeqLock struct {
	w uint64
}

// Sample spins until the word is even (no writer active) and returns that
// value as the transaction's start_time.
func (l *SeqLock) Sample() uint64 {
	for {
		v := atomic.LoadUint64(&l.w)
		if v&1 == 0 {
			return v
		}
	}
}

// Load returns the raw word without waiting for it to be even.
func (l *SeqLock) Load() uint64 { return atomic.LoadUint64(&l.w) }

// TryLock CAS's the word from an even value to value+1, marking a writer
// active. It fails if the word has moved since the caller last sampled it.
func (l *SeqLock) TryLock(sampled uint64) bool {
	return atomic.CompareAndSwapUint64(&l.w, sampled, sampled+1)
}

// Release publishes sampled+2: the write-active bit clears and the
// timestamp advances past anything a concurrent reader could have seen
// mid-commit.
func (l *SeqLock) Release(sampled uint64) {
	atomic.StoreUint64(&l.w, sampled+2)
}
