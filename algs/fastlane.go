package algs

import (
	"sync"

	rtm "github.com/gshashidhar125/rstm"

	"github.com/gshashidhar125/rstm/nowaitlock"
)

// fastlaneMasterLock is the single CAS word that exactly one thread at a
// time holds while running as master. fastlaneCounter packs a
// priority-request flag (MSB) above a plain counter whose low bit marks
// "a master is actively running turbo, helpers cannot commit". helperMu
// serializes helper commits against each other (spec §4.7's "acquire a
// helper lock").
var (
	fastlaneMasterLock uint64
	fastlaneCounter    uint64
	fastlaneHelperMu   sync.Mutex
)

const fastlaneMSB = uint64(1) << 63

func init() {
	rtm.RegisterAlgorithm(&rtm.AlgFuncs{
		Name: "FastlaneSwitch",

		Begin: fastlaneBegin,

		ReadOnlyRead:   fastlaneHelperRead,
		ReadOnlyWrite:  fastlaneHelperWrite,
		ReadOnlyCommit: fastlaneHelperReadOnlyCommit,

		ReadWriteRead:   fastlaneHelperRead,
		ReadWriteWrite:  fastlaneHelperWrite,
		ReadWriteCommit: fastlaneHelperCommit,

		TurboRead:   fastlaneMasterRead,
		TurboWrite:  fastlaneMasterWrite,
		TurboCommit: fastlaneMasterCommit,

		OnSwitchTo: func() {
			rtm.Store64(&fastlaneMasterLock, 0)
			rtm.Store64(&fastlaneCounter, 0)
		},
	})
}

// fastlaneBegin tries to become master via a single non-retrying CAS
// (nowaitlock's no-back-off discipline is exactly right here: losing the
// race is not a conflict, it is just "you are a helper this time"). The
// winner requests priority, waits for no helper to be mid-commit, claims
// the active-master marker, and upgrades straight to turbo.
func fastlaneBegin(d *rtm.Descriptor) {
	lock := nowaitlock.On(&fastlaneMasterLock)
	if lock.TryAcquire(0, 1) {
		for {
			old := rtm.Load64(&fastlaneCounter)
			if rtm.CAS64(&fastlaneCounter, old, old|fastlaneMSB) {
				break
			}
		}
		for rtm.Load64(&fastlaneCounter)&1 != 0 {
		}
		rtm.FAA64(&fastlaneCounter, 1)

		d.Mode = rtm.ModeTurbo
		d.Read = d.Algo.TurboRead
		d.Write = d.Algo.TurboWrite
		d.Commit = d.Algo.TurboCommit
		return
	}

	c := rtm.Load64(&fastlaneCounter)
	d.StartTime = c &^ fastlaneMSB &^ 1
}

func fastlaneMasterRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	return rtm.LoadWord(a) & mask
}

func fastlaneMasterWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	orec := rtm.Orecs().Get(a)
	d.Locks = append(d.Locks, rtm.LockEntry{Orec: orec, PrevVal: orec.Load()})
	prior := rtm.LoadWord(a)
	d.Undo.Append(a, prior, mask)
	rtm.StoreMasked(a, val, mask)
}

// fastlaneMasterCommit publishes every stamped orec, returns the counter
// to even with the priority bit cleared, and releases the master lock
// for the next thread to race for.
func fastlaneMasterCommit(d *rtm.Descriptor) {
	stamp := rtm.FAA64(&fastlaneCounter, 1) &^ fastlaneMSB
	for _, l := range d.Locks {
		l.Orec.Store(stamp)
	}
	for {
		old := rtm.Load64(&fastlaneCounter)
		if rtm.CAS64(&fastlaneCounter, old, old&^fastlaneMSB) {
			break
		}
	}
	nowaitlock.On(&fastlaneMasterLock).Release(0)
}

// fastlaneHelperRead is an ordinary lazy-acquire orec read validated
// against the start_time sampled (with the master's bits cleared) at
// begin.
func fastlaneHelperRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	if val, m, ok := d.Writes.Find(a); ok {
		mem := rtm.LoadWord(a)
		return rtm.MergeMasked(mem, val, m) & mask
	}
	orec := rtm.Orecs().Get(a)
	w := orec.Load()
	if rtm.IsLocked(w) {
		d.Abort(rtm.AbortConflict)
	}
	if rtm.VersionOf(w) > d.StartTime {
		d.Abort(rtm.AbortConflict)
	}
	d.OrecReads.Append(orec)
	return rtm.LoadWord(a) & mask
}

func fastlaneHelperWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	d.Writes.Insert(a, val, mask)
}

func fastlaneHelperReadOnlyCommit(d *rtm.Descriptor) {}

// fastlaneHelperCommit: acquire the helper lock, push the counter to an
// odd in-progress value, validate, writeback with every orec stamped to
// that odd in-progress value, then release the counter back to even and
// drop the helper lock. A master active or requesting priority when the
// helper tries to claim the counter fails the helper outright, matching
// spec §4.7's "non-master threads cannot commit during this".
func fastlaneHelperCommit(d *rtm.Descriptor) {
	if d.Writes.Len() == 0 {
		return
	}

	fastlaneHelperMu.Lock()
	defer fastlaneHelperMu.Unlock()

	var settled uint64
	for {
		c := rtm.Load64(&fastlaneCounter)
		if c&1 != 0 || c&fastlaneMSB != 0 {
			d.Abort(rtm.AbortConflict)
		}
		if rtm.CAS64(&fastlaneCounter, c, c+1) {
			settled = c + 1
			break
		}
	}

	if !d.OrecReads.Validate(d.StartTime, d.MyLock) {
		rtm.CAS64(&fastlaneCounter, settled, settled+1)
		d.Abort(rtm.AbortConflict)
	}

	d.Writes.Each(func(a rtm.Addr, val, mask uint64) {
		rtm.Orecs().Get(a).Store(settled)
	})
	d.Writes.Writeback()
	rtm.Store64(&fastlaneCounter, settled+1)
}
