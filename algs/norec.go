package algs

import (
	rtm "github.com/gshashidhar125/rstm"

	"github.com/gshashidhar125/rstm/mixlock"
)

// norecSeq is NOrec's single global sequence lock. Unlike the orec
// tables, which are shared by every orec-family algorithm at once,
// exactly one algorithm owns this word at a time: NOrec's OnSwitchTo
// zeroes it before any thread can observe a stale generation's
// timestamp.
var norecSeq mixlock.SeqLock

func init() {
	rtm.RegisterAlgorithm(&rtm.AlgFuncs{
		Name: "NOrec",

		Begin: norecBegin,

		ReadOnlyRead:   norecRead,
		ReadOnlyWrite:  norecWrite,
		ReadOnlyCommit: norecReadOnlyCommit,

		ReadWriteRead:   norecRead,
		ReadWriteWrite:  norecWrite,
		ReadWriteCommit: norecCommit,

		OnSwitchTo:        func() { norecSeq = mixlock.SeqLock{} },
		PrivatizationSafe: true,
	})
}

func norecBegin(d *rtm.Descriptor) {
	d.StartTime = norecSeq.Sample()
}

func norecRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	if val, m, ok := d.Writes.Find(a); ok {
		mem := rtm.LoadWord(a)
		return rtm.MergeMasked(mem, val, m) & mask
	}

	for {
		val := rtm.LoadWord(a)
		cur := norecSeq.Load()
		if cur == d.StartTime {
			d.ValueReads.Append(a, val, mask)
			return val & mask
		}
		if !norecRevalidate(d) {
			d.Abort(rtm.AbortConflict)
		}
	}
}

// norecRevalidate waits for the sequence lock to settle on an even word,
// re-checks every logged (address, value) pair against live memory, and
// on success advances start_time to the word it revalidated against.
func norecRevalidate(d *rtm.Descriptor) bool {
	for {
		cur := norecSeq.Load()
		if cur&1 == 1 {
			continue
		}
		if !d.ValueReads.Validate() {
			return false
		}
		d.StartTime = cur
		return true
	}
}

func norecWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	d.Writes.Insert(a, val, mask)
}

func norecReadOnlyCommit(d *rtm.Descriptor) {}

func norecCommit(d *rtm.Descriptor) {
	if d.Writes.Len() == 0 {
		return
	}
	if !norecSeq.TryLock(d.StartTime) {
		d.Abort(rtm.AbortConflict)
	}
	d.Writes.Writeback()
	norecSeq.Release(d.StartTime)
}
