package rtm

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/gshashidhar125/rstm/spinlockopt"
)

// MaxBytelockReaders bounds the number of threads a single bytelock can
// track as concurrent readers, matching TLRW's fixed-size reader-byte
// array. A thread that cannot get a slot is refused registration outright
// (see RegisterThread) rather than silently degrading bytelock-family
// algorithms to a state where some threads are invisible to readers.
const MaxBytelockReaders = 60

// noBytelockOwner marks the owner field when no writer holds the lock.
const noBytelockOwner = ^uint32(0)

// Bytelock is TLRW's per-stripe metadata: a writer-id field plus one byte
// per registered thread recording whether that thread currently holds a
// read timestamp. Unlike an orec, a bytelock never encodes a version in
// the same word a writer CASes; readers and the writer coexist through the
// byte array, and conflicts are detected by scanning it.
type Bytelock struct {
	owner   uint32 // noBytelockOwner, or the id of the thread holding the write lock
	readers [MaxBytelockReaders]uint32
	_       cpu.CacheLinePad
}

func newBytelock() *Bytelock {
	return &Bytelock{owner: noBytelockOwner}
}

// SetReader marks threadID as an active reader of this stripe.
func (b *Bytelock) SetReader(threadID uint32) {
	atomic.StoreUint32(&b.readers[threadID], 1)
}

// ClearReader removes threadID from this stripe's reader set.
func (b *Bytelock) ClearReader(threadID uint32) {
	atomic.StoreUint32(&b.readers[threadID], 0)
}

// IsReader reports whether threadID currently holds a read timestamp here.
func (b *Bytelock) IsReader(threadID uint32) bool {
	return atomic.LoadUint32(&b.readers[threadID]) == 1
}

// AnyOtherReader reports whether some thread other than exclude currently
// holds a read timestamp, used by TryAcquireWrite's drain check.
func (b *Bytelock) AnyOtherReader(exclude uint32) bool {
	for i := range b.readers {
		if uint32(i) == exclude {
			continue
		}
		if atomic.LoadUint32(&b.readers[i]) == 1 {
			return true
		}
	}
	return false
}

// Owner returns the id of the thread currently holding the write lock, or
// false if nobody does.
func (b *Bytelock) Owner() (uint32, bool) {
	v := atomic.LoadUint32(&b.owner)
	return v, v != noBytelockOwner
}

// TryAcquireWrite spins, bounded by spinlockopt.AcquireTimeout, for the
// write lock to be free, CASes it to threadID, then spins bounded by
// spinlockopt.DrainTimeout for every other reader byte to clear. It
// returns false on either timeout, at which point the caller must abort
// (spec §4.4: ACQUIRE_TIMEOUT and DRAIN_TIMEOUT are both abort triggers,
// not retry triggers).
func (b *Bytelock) TryAcquireWrite(threadID uint32) bool {
	acquired := spinlockopt.Spin(spinlockopt.AcquireTimeout, func() bool {
		return atomic.CompareAndSwapUint32(&b.owner, noBytelockOwner, threadID)
	})
	if !acquired {
		return false
	}
	if spinlockopt.Spin(spinlockopt.DrainTimeout, func() bool {
		return !b.AnyOtherReader(threadID)
	}) {
		return true
	}
	atomic.StoreUint32(&b.owner, noBytelockOwner)
	return false
}

// ReleaseWrite clears the write lock. threadID must be the current owner.
func (b *Bytelock) ReleaseWrite(threadID uint32) {
	atomic.CompareAndSwapUint32(&b.owner, threadID, noBytelockOwner)
}

// NBytelockStripes is the size of the bytelock table, sized identically to
// the orec table so both can share addrIndex.
const NBytelockStripes = 1 << 16

// ByteLockTable is the process-wide table of bytelocks.
type ByteLockTable struct {
	stripes [NBytelockStripes]*Bytelock
}

var bytelockTable = newByteLockTable()

func newByteLockTable() *ByteLockTable {
	t := &ByteLockTable{}
	for i := range t.stripes {
		t.stripes[i] = newBytelock()
	}
	return t
}

// Bytelocks returns the process-wide bytelock table.
func Bytelocks() *ByteLockTable { return bytelockTable }

// Get returns the bytelock covering a transactional address.
func (t *ByteLockTable) Get(a Addr) *Bytelock {
	return t.stripes[addrIndex(a, NBytelockStripes)]
}
