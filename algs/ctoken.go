package algs

import (
	rtm "github.com/gshashidhar125/rstm"

	"github.com/gshashidhar125/rstm/wdlock"
)

// ctokenOpts distinguishes the four named variants registered below:
// every one shares the same begin/read/commit shape, differing only in
// whether a uniquely-oldest writer may go turbo.
type ctokenOpts struct {
	name         string
	turboCapable bool
}

func init() {
	for _, opt := range []ctokenOpts{
		{name: "CToken", turboCapable: false},
		{name: "CTokenTurbo", turboCapable: true},
		{name: "Pipeline", turboCapable: true},
		{name: "Wealth", turboCapable: false},
	} {
		rtm.RegisterAlgorithm(newCTokenAlg(opt))
	}
}

func newCTokenAlg(opt ctokenOpts) *rtm.AlgFuncs {
	a := &rtm.AlgFuncs{
		Name: opt.name,

		Begin: ctokenBegin,

		ReadOnlyRead:   ctokenRead,
		ReadOnlyWrite:  ctokenWrite(opt.turboCapable),
		ReadOnlyCommit: ctokenReadOnlyCommit,

		ReadWriteRead:   ctokenRead,
		ReadWriteWrite:  ctokenWrite(opt.turboCapable),
		ReadWriteCommit: ctokenCommit,

		OnSwitchTo: func() {
			rtm.ResetForSwitch()
		},
	}
	if opt.turboCapable {
		a.TurboRead = ctokenTurboRead
		a.TurboWrite = ctokenTurboWrite
		a.TurboCommit = ctokenTurboCommit
	}
	return a
}

// ctokenBegin snapshots last_complete as ts_cache; d.Order stays NoOrder
// (reset generically by resetLogs) until the first write makes this
// transaction a writer.
func ctokenBegin(d *rtm.Descriptor) {
	d.StartTime = rtm.Global().LastComplete()
}

// ctokenRead is an ordinary orec-validated read, but the threshold is
// ts_cache (d.StartTime here) rather than a freshly sampled timestamp:
// CToken readers never extend past what they cached at begin.
func ctokenRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
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

// ctokenWrite buffers the write, and on the first write draws an order
// token that makes this transaction a writer. A turbo-capable variant
// that discovers it is already uniquely oldest (ts_cache == order-1)
// upgrades to the in-place turbo triple immediately, matching spec
// §4.5's "a thread that detects it is uniquely oldest on a first write".
func ctokenWrite(turboCapable bool) rtm.WriteFunc {
	return func(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
		if d.Order == rtm.NoOrder {
			d.Order = int64(rtm.Global().Order().Advance()) + 1
			if turboCapable && d.StartTime == uint64(d.Order-1) {
				d.Mode = rtm.ModeTurbo
				d.Read = d.Algo.TurboRead
				d.Write = d.Algo.TurboWrite
				d.Commit = d.Algo.TurboCommit
				d.Write(d, a, val, mask)
				return
			}
		}
		d.Writes.Insert(a, val, mask)
	}
}

func ctokenReadOnlyCommit(d *rtm.Descriptor) {}

// ctokenCommit waits for its serial turn, validates unless nobody could
// have committed since this transaction's ts_cache snapshot, stamps and
// publishes its writes, then advances last_complete so the next writer's
// turn arrives. A validation failure after taking the turn still
// advances last_complete first, so a conflicting committer never
// starves the rest of the line.
func ctokenCommit(d *rtm.Descriptor) {
	if d.Writes.Len() == 0 {
		d.Order = rtm.NoOrder
		return
	}
	order := uint64(d.Order)
	gate := wdlock.On(rtm.Global().LastCompletePtr())
	if !gate.WaitTurn(order, func() bool { return d.Swapped() }) {
		d.Order = rtm.NoOrder
		d.Abort(rtm.AbortSwap)
	}

	// ts_cache == order-1 means last_complete hadn't moved past this
	// transaction's snapshot as of its own begin, i.e. nobody committed
	// in between: nothing could have invalidated the read set, so
	// validation is redundant.
	if d.StartTime != order-1 && !d.OrecReads.Validate(d.StartTime, d.MyLock) {
		gate.Advance(order)
		d.Order = rtm.NoOrder
		d.Abort(rtm.AbortConflict)
	}

	d.Writes.Each(func(a rtm.Addr, val, mask uint64) {
		rtm.Orecs().Get(a).Store(order)
	})
	d.Writes.Writeback()
	gate.Advance(order)
	d.Order = rtm.NoOrder
}

// ctokenTurboRead is safe to perform with no logging: a thread in turbo
// mode has already proven no other transaction can be concurrently
// active ahead of it in commit order.
func ctokenTurboRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	return rtm.LoadWord(a) & mask
}

func ctokenTurboWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	orec := rtm.Orecs().Get(a)
	d.Locks = append(d.Locks, rtm.LockEntry{Orec: orec, PrevVal: orec.Load()})
	prior := rtm.LoadWord(a)
	d.Undo.Append(a, prior, mask)
	rtm.StoreMasked(a, val, mask)
}

func ctokenTurboCommit(d *rtm.Descriptor) {
	order := uint64(d.Order)
	for _, l := range d.Locks {
		l.Orec.Store(order)
	}
	gate := wdlock.On(rtm.Global().LastCompletePtr())
	gate.Advance(order)
	d.Order = rtm.NoOrder
}
