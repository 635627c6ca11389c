package algs

import (
	rtm "github.com/gshashidhar125/rstm"
)

// OrecLazy, OrecEagerRedo and LLT are, at the granularity this library
// models, the same lazy-acquire redo-log algorithm: writes buffer in the
// write set untouched, and every orec covering the write set is CASed to
// my_lock only at commit. OrecELA is the same algorithm plus a
// privatization-safe last-complete publish after releasing locks.
func init() {
	rtm.RegisterAlgorithm(newOrecLazyAlg("OrecLazy", false))
	rtm.RegisterAlgorithm(newOrecLazyAlg("OrecEagerRedo", false))
	rtm.RegisterAlgorithm(newOrecLazyAlg("LLT", false))
	rtm.RegisterAlgorithm(newOrecLazyAlg("OrecELA", true))
}

func newOrecLazyAlg(name string, privatizationSafe bool) *rtm.AlgFuncs {
	commit := orecLazyCommit(privatizationSafe)
	a := &rtm.AlgFuncs{
		Name: name,

		Begin: orecLazyBegin,

		ReadOnlyRead:   orecLazyRead,
		ReadOnlyWrite:  orecLazyWrite,
		ReadOnlyCommit: orecLazyReadOnlyCommit,

		ReadWriteRead:   orecLazyRead,
		ReadWriteWrite:  orecLazyWrite,
		ReadWriteCommit: commit,

		PrivatizationSafe: privatizationSafe,
	}
	if privatizationSafe {
		// OrecELAOnSwitchTo: last_complete must agree with the global
		// timestamp the moment this algorithm becomes current, or the
		// first committer's wait-for-predecessor loop in orecLazyCommit
		// would spin on a last_complete value some other, unrelated
		// algorithm left behind.
		a.OnSwitchTo = func() {
			rtm.Global().SetLastComplete(rtm.Global().Timestamp().Now())
		}
	}
	return a
}

func orecLazyBegin(d *rtm.Descriptor) {
	d.StartTime = rtm.Global().Timestamp().Now()
}

// orecLazyRead checks the transaction's own write set first (a redo-log
// read of an address already written returns the buffered value merged
// with whatever bytes the write didn't cover), then falls back to an
// ordinary orec-validated memory read. Privatization-safe variants
// (OrecELA) additionally poll the global timestamp on every uncontended
// read and re-validate through orecLazyPrivtest whenever it has moved,
// catching a doomed transaction before it acts on a privatized address
// instead of waiting for some later barrier to notice.
func orecLazyRead(d *rtm.Descriptor, a rtm.Addr, mask uint64) uint64 {
	if val, m, ok := d.Writes.Find(a); ok {
		mem := rtm.LoadWord(a)
		return rtm.MergeMasked(mem, val, m) & mask
	}

	orec := rtm.Orecs().Get(a)
	for {
		pre := orec.Load()
		val := rtm.LoadWord(a)
		post := orec.Load()
		if pre != post {
			continue
		}
		if rtm.IsLocked(pre) {
			d.Abort(rtm.AbortConflict)
		}
		if rtm.VersionOf(pre) <= d.StartTime {
			d.OrecReads.Append(orec)
			if d.Algo != nil && d.Algo.PrivatizationSafe {
				if ts := rtm.Global().Timestamp().Now(); ts != d.StartTime {
					if !orecLazyPrivtest(d, ts) {
						d.Abort(rtm.AbortConflict)
					}
				}
			}
			return val & mask
		}
		newTS := rtm.Global().Timestamp().Now()
		if !d.OrecReads.Validate(newTS, d.MyLock) {
			d.Abort(rtm.AbortConflict)
		}
		d.StartTime = newTS
	}
}

// orecLazyPrivtest re-validates the read set against the current
// start_time and rescales start_time to the lower of the fresh timestamp
// and last_complete -- never past last_complete, or a later read could
// observe an orec some committer locked but hasn't released yet and have
// no way to tell it apart from a genuine conflict. Grounded on OrecELA's
// OrecELAPrivtest: called whenever the global timestamp has moved since
// this transaction's own start_time, it is how a reader catches that it
// is doomed without needing a locked-or-too-new orec to tell it first.
func orecLazyPrivtest(d *rtm.Descriptor, ts uint64) bool {
	if !d.OrecReads.Validate(d.StartTime, d.MyLock) {
		return false
	}
	cs := rtm.Global().LastComplete()
	if ts < cs {
		d.StartTime = ts
	} else {
		d.StartTime = cs
	}
	return true
}

func orecLazyWrite(d *rtm.Descriptor, a rtm.Addr, val, mask uint64) {
	d.Writes.Insert(a, val, mask)
}

func orecLazyReadOnlyCommit(d *rtm.Descriptor) {}

// orecLazyCommit returns the write-set-acquiring commit function,
// parameterized on whether this algorithm advertises privatization
// safety (OrecELA's last-complete publish).
func orecLazyCommit(privatizationSafe bool) rtm.CommitFunc {
	return func(d *rtm.Descriptor) {
		if d.Writes.Len() == 0 {
			return
		}

		ok := true
		d.Writes.Each(func(a rtm.Addr, val, mask uint64) {
			if !ok {
				return
			}
			orec := rtm.Orecs().Get(a)
			for {
				w := orec.Load()
				if rtm.IsLocked(w) {
					if rtm.OwnerOf(w) == d.ID {
						return
					}
					ok = false
					return
				}
				if rtm.VersionOf(w) > d.StartTime {
					newTS := rtm.Global().Timestamp().Now()
					if !d.OrecReads.Validate(newTS, d.MyLock) {
						ok = false
						return
					}
					d.StartTime = newTS
					continue
				}
				if orec.CAS(w, d.MyLock) {
					d.Locks = append(d.Locks, rtm.LockEntry{Orec: orec, PrevVal: w})
					return
				}
			}
		})
		if !ok {
			d.Abort(rtm.AbortConflict)
		}

		end := rtm.Global().Timestamp().Advance() + 1
		if !d.OrecReads.Validate(d.StartTime, d.MyLock) {
			d.Abort(rtm.AbortConflict)
		}

		d.Writes.Writeback()
		for _, l := range d.Locks {
			l.Orec.Store(end)
		}
		if privatizationSafe {
			// Departures from commit must happen in the same order
			// committers incremented the timestamp, or a privatized
			// address could be freed while an earlier, slower committer
			// is still publishing its writes against it (the "deferred
			// update" half of the privatization problem). Spin for
			// predecessors rather than checking d.Swapped(): by this
			// point writes are already in memory and orecs already
			// carry end, so this transaction has effectively committed
			// and can no longer abort out of the wait.
			for rtm.Global().LastComplete() != end-1 {
			}
			rtm.Global().SetLastComplete(end)
		}
	}
}
