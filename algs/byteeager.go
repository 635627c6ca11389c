package algs

import (
	rtm "github.com/gshashidhar125/rstm"

	"github.com/gshashidhar125/rstm/spinlockopt"
)

func init() {
	rtm.RegisterAlgorithm(&rtm.AlgFuncs{
		Name: "ByteEager",

		Begin: byteEagerBegin,

		ReadOnlyRead:   byteEagerRead,
		ReadOnlyWrite:  byteEagerWrite,
		ReadOnlyCommit: byteEagerReadOnlyCommit,

		ReadWriteRead:   byteEagerRead,
		ReadWriteWrite:  byteEagerWrite,
		ReadWriteCommit: byteEagerReadWriteCommit,

		PrivatizationSafe: false,
	})
}

// byteEagerBegin has no global timestamp to sample; TLRW-style locking
// detects conflicts entirely through the reader-byte/writer-id state in
// each touched stripe.
func byteEagerBegin(d *rtm.Descriptor) {}

func byteEagerRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	bl := rtm.Bytelocks().Get(a)
	for {
		if bl.IsReader(d.ID) {
			return rtm.LoadWord(a) & mask
		}
		bl.SetReader(d.ID)
		if owner, locked := bl.Owner(); !locked || owner == d.ID {
			d.ByteLocksHeld = append(d.ByteLocksHeld, bl)
			return rtm.LoadWord(a) & mask
		}
		bl.ClearReader(d.ID)
		if !spinlockopt.Spin(spinlockopt.ReadTimeout, func() bool {
			_, locked := bl.Owner()
			return !locked
		}) {
			d.Abort(rtm.AbortTimeout)
		}
	}
}

func byteEagerWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	bl := rtm.Bytelocks().Get(a)
	if owner, locked := bl.Owner(); !(locked && owner == d.ID) {
		if !bl.TryAcquireWrite(d.ID) {
			d.Abort(rtm.AbortTimeout)
		}
		d.ByteLocksHeld = append(d.ByteLocksHeld, bl)
	}
	bl.ClearReader(d.ID)
	prior := rtm.LoadWord(a)
	d.Undo.Append(a, prior, mask)
	rtm.StoreMasked(a, val, mask)
}

// byteEagerReadOnlyCommit clears every reader byte a read-only
// transaction set; ReleaseWrite is never needed because a read-only
// transaction's ByteLocksHeld entries were all acquired through Read,
// never TryAcquireWrite.
func byteEagerReadOnlyCommit(d *rtm.Descriptor) {
	for _, bl := range d.ByteLocksHeld {
		bl.ClearReader(d.ID)
	}
}

// byteEagerReadWriteCommit releases every bytelock this transaction
// touched. ReleaseWrite no-ops on a bytelock this thread only read, since
// it CASes against its own id as the expected owner.
func byteEagerReadWriteCommit(d *rtm.Descriptor) {
	for _, bl := range d.ByteLocksHeld {
		bl.ReleaseWrite(d.ID)
		bl.ClearReader(d.ID)
	}
}
