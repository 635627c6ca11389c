package rtm

import "sync/atomic"

// ThreadStats holds the per-thread counters spec §6's shutdown report
// needs ("a per-thread table of (id, commits-ro, commits-rw, aborts)"),
// plus the consecutive-commit/consecutive-read-only streak counters and
// a toxic-transaction histogram pulled in from original_source/ (RSTM
// tracks exactly these streaks to decide when a transaction is "toxic"
// enough to warrant an algorithm swap, even though the swap policy
// itself is out of scope here).
type ThreadStats struct {
	commitsRO uint64
	commitsRW uint64
	aborts    uint64

	// abortsByReason indexes by AbortReason; fixed-size, no map, so
	// RecordAbort never allocates on the hot path.
	abortsByReason [4]uint64

	// toxic buckets consecutive-abort streak lengths at commit time: the
	// streak length just before a transaction finally committed is
	// clamped into [0, len(toxic)-1] and counted, giving a histogram of
	// how painful commits tend to be without needing per-transaction
	// logging.
	toxic [toxicBuckets]uint64
}

const toxicBuckets = 16

// RecordCommit increments the read-only or read-write counter and folds
// this transaction's consecutive-abort streak (recorded before the
// streak was reset) into the toxic histogram.
func (s *ThreadStats) RecordCommit(readOnly bool, precedingAborts int) {
	if readOnly {
		atomic.AddUint64(&s.commitsRO, 1)
	} else {
		atomic.AddUint64(&s.commitsRW, 1)
	}
	bucket := precedingAborts
	if bucket >= toxicBuckets {
		bucket = toxicBuckets - 1
	}
	atomic.AddUint64(&s.toxic[bucket], 1)
}

// RecordAbort increments the total abort counter and the counter for this
// specific reason.
func (s *ThreadStats) RecordAbort(reason AbortReason) {
	atomic.AddUint64(&s.aborts, 1)
	if int(reason) < len(s.abortsByReason) {
		atomic.AddUint64(&s.abortsByReason[reason], 1)
	}
}

// Snapshot is a point-in-time copy of a thread's counters, safe to print
// or export to prometheus without racing the live counters.
type Snapshot struct {
	ThreadID  uint32
	CommitsRO uint64
	CommitsRW uint64
	Aborts    uint64
}

// SnapshotStats returns every registered thread's current counters for
// the CLI shutdown report, in no particular order.
func SnapshotStats() []Snapshot {
	descs := AllDescriptors()
	out := make([]Snapshot, 0, len(descs))
	for _, d := range descs {
		out = append(out, Snapshot{
			ThreadID:  d.ID,
			CommitsRO: atomic.LoadUint64(&d.Stats.commitsRO),
			CommitsRW: atomic.LoadUint64(&d.Stats.commitsRW),
			Aborts:    atomic.LoadUint64(&d.Stats.aborts),
		})
	}
	return out
}
