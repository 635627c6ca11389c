package algs

import (
	rtm "github.com/gshashidhar125/rstm"

	"github.com/gshashidhar125/rstm/rtmconfig"
	"github.com/gshashidhar125/rstm/wdlock"
)

// cohortWriteFilter accumulates every committer's write filter for the
// life of the current cohort, read only from inside the serialized
// "my turn" section of cohortsCommit, so no separate lock is needed: the
// last-complete gate already gives exactly one thread access at a time.
var cohortWriteFilter rtm.Bloom

// cohortReadLog selects which read-log representation a cohort variant
// validates against, per spec §4.6 ("Variants differ in read-log
// representation (orec list vs value list vs bloom filter)").
type cohortReadLog int

const (
	cohortOrecList cohortReadLog = iota
	cohortValueList
	cohortBloomFilter
)

type cohortOpts struct {
	name         string
	readLog      cohortReadLog
	turboCapable bool
	lnqx         bool
}

func init() {
	for _, opt := range []cohortOpts{
		{name: "Cohorts", readLog: cohortOrecList, turboCapable: true},
		{name: "CohortsLazy", readLog: cohortOrecList, turboCapable: false},
		{name: "CohortsEN", readLog: cohortBloomFilter, turboCapable: false},
		{name: "CohortsEF", readLog: cohortBloomFilter, turboCapable: false},
		{name: "CohortsLI", readLog: cohortValueList, turboCapable: false},
		{name: "CohortsLNQX", readLog: cohortOrecList, turboCapable: false, lnqx: true},
	} {
		rtm.RegisterAlgorithm(newCohortsAlg(opt))
	}
}

func newCohortsAlg(opt cohortOpts) *rtm.AlgFuncs {
	read := cohortsReadFor(opt.readLog)
	write := cohortsWrite(opt.turboCapable, opt.lnqx)
	commit := cohortsCommit(opt.readLog)

	a := &rtm.AlgFuncs{
		Name: opt.name,

		Begin: cohortsBegin,

		ReadOnlyRead:   read,
		ReadOnlyWrite:  write,
		ReadOnlyCommit: cohortsReadOnlyCommit,

		ReadWriteRead:   read,
		ReadWriteWrite:  write,
		ReadWriteCommit: commit,

		OnSwitchTo: func() {
			rtm.ResetForSwitch()
			cohortWriteFilter.Reset()
		},
	}
	if opt.turboCapable {
		a.TurboRead = cohortsTurboRead
		a.TurboWrite = cohortsTurboWrite
		a.TurboCommit = cohortsTurboCommit
	}
	return a
}

// cohortsBegin spins while the gatekeeper is raised, publishes STARTED,
// then rechecks the gatekeeper and writer-in-place flag: a race where
// either went up between the spin and the publish backs this thread out
// to COMMITTED and retries the whole begin (spec §4.6's "recheck... back
// out on race").
func cohortsBegin(d *rtm.Descriptor) {
	for {
		for rtm.Global().GatekeeperRaised() {
		}
		d.SetStatus(rtm.StatusStarted)
		if rtm.Global().GatekeeperRaised() || rtm.Global().WriterInPlace() {
			d.SetStatus(rtm.StatusCommitted)
			continue
		}
		break
	}
	d.StartTime = rtm.Global().LastComplete()
}

func cohortsReadFor(kind cohortReadLog) rtm.ReadFunc {
	switch kind {
	case cohortValueList:
		return cohortsValueRead
	case cohortBloomFilter:
		return cohortsBloomRead
	default:
		return cohortsOrecRead
	}
}

func cohortsOrecRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
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

func cohortsValueRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	if val, m, ok := d.Writes.Find(a); ok {
		mem := rtm.LoadWord(a)
		return rtm.MergeMasked(mem, val, m) & mask
	}
	val := rtm.LoadWord(a)
	d.ValueReads.Append(a, val, mask)
	return val & mask
}

func cohortsBloomRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	if val, m, ok := d.Writes.Find(a); ok {
		mem := rtm.LoadWord(a)
		return rtm.MergeMasked(mem, val, m) & mask
	}
	d.ReadFilter.Insert(a)
	return rtm.LoadWord(a) & mask
}

// cohortsWrite buffers the write, and, for turbo-capable variants, on the
// first write checks whether this thread is the sole STARTED transaction
// and if so elects to go turbo. The raise-then-recheck of the
// writer-in-place flag is the "full fence and a post-check before any
// in-place write" the design notes call for: a second thread concluding
// uniqueness concurrently is caught by the post-check and falls back to
// the ordinary buffered path.
func cohortsWrite(turboCapable, lnqx bool) rtm.WriteFunc {
	return func(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
		if turboCapable && d.Order == rtm.NoOrder && d.Writes.Len() == 0 {
			rtm.Global().SetWriterInPlace(true)
			if rtm.CountStarted(d.ID) == 0 {
				d.Mode = rtm.ModeTurbo
				d.Read = d.Algo.TurboRead
				d.Write = d.Algo.TurboWrite
				d.Commit = d.Algo.TurboCommit
				d.Write(d, a, val, mask)
				return
			}
			rtm.Global().SetWriterInPlace(false)
		}
		d.Writes.Insert(a, val, mask)
		if lnqx {
			cohortsMaybeEarlySeal(d)
		}
	}
}

// cohortsMaybeEarlySeal implements CohortsLNQX's environment-driven
// early-seal thresholds (spec §4.6, supplemental feature pulled from
// original_source/): once this transaction's buffered write count or
// consecutive-abort count crosses its configured threshold, it raises
// the gatekeeper itself so no further transaction joins this cohort,
// bounding how toxic a single writer can make the batch.
func cohortsMaybeEarlySeal(d *rtm.Descriptor) {
	cfg, err := rtmconfig.Load()
	if err != nil {
		return
	}
	if cfg.LNQXWriteEarlySeal >= 0 && d.Writes.Len() >= cfg.LNQXWriteEarlySeal {
		rtm.Global().RaiseGatekeeper()
	}
	if cfg.LNQXAbortEarlySeal >= 0 && d.ConsecAborts >= cfg.LNQXAbortEarlySeal {
		rtm.Global().RaiseGatekeeper()
	}
}

func cohortsReadOnlyCommit(d *rtm.Descriptor) {}

// cohortsCommit implements the normal (non-turbo) writer commit path
// from spec §4.6: raise the gatekeeper, draw an order, wait for every
// other STARTED thread to leave, wait for this thread's serial turn,
// validate, stamp and write back, then clear the gatekeeper if this
// thread is the last one still CPENDING.
func cohortsCommit(kind cohortReadLog) rtm.CommitFunc {
	return func(d *rtm.Descriptor) {
		if d.Writes.Len() == 0 {
			d.SetStatus(rtm.StatusCommitted)
			return
		}

		rtm.Global().RaiseGatekeeper()
		order := rtm.Global().Order().Advance() + 1
		d.SetStatus(rtm.StatusCPending)

		for rtm.CountStarted(d.ID) > 0 {
			if d.Swapped() {
				cohortsAbortDuringCommit(d, order)
			}
		}

		gate := wdlock.On(rtm.Global().LastCompletePtr())
		if !gate.WaitTurn(order, func() bool { return d.Swapped() }) {
			cohortsAbortDuringCommit(d, order)
		}

		if !cohortsValidate(d, kind) {
			cohortsAbortDuringCommit(d, order)
		}

		d.Writes.Each(func(a rtm.Addr, val, mask uint64) {
			rtm.Orecs().Get(a).Store(order)
			if kind == cohortBloomFilter {
				d.WriteFilter.Insert(a)
			}
		})
		d.Writes.Writeback()
		if kind == cohortBloomFilter {
			cohortWriteFilter.Union(&d.WriteFilter)
		}
		gate.Advance(order)
		d.SetStatus(rtm.StatusDone)
		cohortsMaybeClearGatekeeper(d)
		d.SetStatus(rtm.StatusCommitted)
		d.Order = rtm.NoOrder
	}
}

func cohortsValidate(d *rtm.Descriptor, kind cohortReadLog) bool {
	switch kind {
	case cohortValueList:
		return d.ValueReads.Validate()
	case cohortBloomFilter:
		return !d.ReadFilter.Intersects(&cohortWriteFilter)
	default:
		return d.OrecReads.Validate(d.StartTime, d.MyLock)
	}
}

// cohortsAbortDuringCommit is the path spec §4.6's design notes call out
// explicitly: "a thread that aborts inside commit after obtaining an
// order must still publish its DONE state and, if last, clear the
// gatekeeper before retrying."
func cohortsAbortDuringCommit(d *rtm.Descriptor, order uint64) {
	gate := wdlock.On(rtm.Global().LastCompletePtr())
	gate.Advance(order)
	d.SetStatus(rtm.StatusDone)
	cohortsMaybeClearGatekeeper(d)
	d.SetStatus(rtm.StatusCommitted)
	d.Order = rtm.NoOrder
	d.Abort(rtm.AbortConflict)
}

func cohortsMaybeClearGatekeeper(d *rtm.Descriptor) {
	for _, other := range rtm.AllDescriptors() {
		if other.ID == d.ID {
			continue
		}
		if other.StatusOf() == rtm.StatusCPending {
			return
		}
	}
	rtm.Global().ClearGatekeeper()
	cohortWriteFilter.Reset()
}

func cohortsTurboRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	return rtm.LoadWord(a) & mask
}

func cohortsTurboWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	orec := rtm.Orecs().Get(a)
	d.Locks = append(d.Locks, rtm.LockEntry{Orec: orec, PrevVal: orec.Load()})
	prior := rtm.LoadWord(a)
	d.Undo.Append(a, prior, mask)
	rtm.StoreMasked(a, val, mask)
}

// cohortsTurboCommit: "set CPENDING, get an order, wait for its turn,
// publish itself as last-completed, clear the writer-in-place flag,
// publish COMMITTED."
func cohortsTurboCommit(d *rtm.Descriptor) {
	d.SetStatus(rtm.StatusCPending)
	order := rtm.Global().Order().Advance() + 1
	gate := wdlock.On(rtm.Global().LastCompletePtr())
	gate.WaitTurn(order, func() bool { return d.Swapped() })
	for _, l := range d.Locks {
		l.Orec.Store(order)
	}
	gate.Advance(order)
	rtm.Global().SetWriterInPlace(false)
	d.SetStatus(rtm.StatusCommitted)
	d.Order = rtm.NoOrder
}
