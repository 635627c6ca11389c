package rtm

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// NStripes is the size of the orec table, a power of two per spec §4.2.
// Grounded on original_source/.../Orecs.hpp, which sizes its table as a
// compile-time power-of-two and hashes with exactly this shift-and-mask.
const NStripes = 1 << 20

// orecLockedBit is the high bit described in spec §3: "Orec values encode
// either a version (low bits, high bit 0) or an owner identity (high bit 1,
// low bits = thread id)."
const orecLockedBit = uint64(1) << 63

// Orec is a single ownership record: one machine word shared by every
// transactional address that hashes to it.
type Orec struct {
	v uint64
	// padded to a full cache line so that neighbouring stripes in the table
	// do not false-share; the teacher pads structs by hand with [128]byte
	// fields (see cc_record.go, cc_worker.go) -- here that concern is
	// carried by golang.org/x/sys/cpu.CacheLinePad, the idiomatic
	// replacement used by production Go code that cares about false
	// sharing (e.g. sync.Map-style sharded locks).
	_ cpu.CacheLinePad
}

// Load returns the raw orec word.
func (o *Orec) Load() uint64 { return atomic.LoadUint64(&o.v) }

// CAS attempts to move the orec from old to new.
func (o *Orec) CAS(old, new uint64) bool { return atomic.CompareAndSwapUint64(&o.v, old, new) }

// Store unconditionally sets the orec word (used to release a lock by
// writing a version, or to restore a prior value on rollback).
func (o *Orec) Store(v uint64) { atomic.StoreUint64(&o.v, v) }

// IsLocked reports whether an orec word encodes an owner rather than a
// version.
func IsLocked(word uint64) bool { return word&orecLockedBit != 0 }

// OwnerOf extracts the owning thread id from a locked orec word.
func OwnerOf(word uint64) uint32 { return uint32(word &^ orecLockedBit) }

// VersionOf extracts the version from an unlocked orec word (undefined if
// the word is locked).
func VersionOf(word uint64) uint64 { return word }

// OwnerWord builds the locked encoding for a given thread id; every
// Descriptor precomputes this once as its "my_lock" word (spec §4.2: "Each
// thread has a distinguished my_lock word equal to its owner encoding.").
func OwnerWord(threadID uint32) uint64 { return orecLockedBit | uint64(threadID) }

// OrecTable is the process-wide table of orecs, allocated once (spec §3
// "Lifecycle... global tables are allocated once").
type OrecTable struct {
	stripes [NStripes]Orec
}

var orecTable = &OrecTable{}

// Orecs returns the process-wide orec table.
func Orecs() *OrecTable { return orecTable }

// Get returns the orec covering a transactional address, via the
// (address>>3) mod N_STRIPES hash required by spec §4.2.
func (t *OrecTable) Get(a Addr) *Orec {
	return &t.stripes[addrIndex(a, NStripes)]
}
