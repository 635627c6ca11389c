// Package bench drives the library the way an instrumented application
// thread would: register a transaction closure, repeatedly run it through
// rtm.Atomically, and collect per-thread stats. It is the demonstration
// harness backing cmd/stmbench and the §8 end-to-end scenario tests, not
// the out-of-scope benchmark/workload engine (TPCC, smallbank) the
// teacher shipped.
//
// Grounded on the teacher's Worker (cc_worker.go): a per-thread struct
// holding NStats counters and a table of registered TransactionFunc
// closures, with doTxn bumping counters around a dispatch call. The
// workload-specific pieces (partition locks, key generation, RWSets) are
// dropped; what survives is "one goroutine owns one descriptor, runs
// registered closures against it, counts outcomes."
package bench

import (
	"time"

	rtm "github.com/gshashidhar125/rstm"
)

// TxnFunc is one transaction body, run under rtm.Atomically. It reads and
// writes through d and returns once its work is done; rtm handles retry
// on abort internally, so TxnFunc never sees a partial execution.
type TxnFunc func(d *rtm.Descriptor)

// Worker owns one descriptor and drives it through a sequence of
// transactions, the way the teacher's Worker owned one ETransaction and
// drove it through a sequence of Queries.
type Worker struct {
	ID   uint32
	desc *rtm.Descriptor
}

// NewWorker registers a fresh descriptor for the calling goroutine's
// logical thread id.
func NewWorker() (*Worker, error) {
	d, err := rtm.RegisterThread()
	if err != nil {
		return nil, err
	}
	return &Worker{ID: d.ID, desc: d}, nil
}

// Descriptor exposes the underlying descriptor, for tests that need
// direct access to Stats or Mode.
func (w *Worker) Descriptor() *rtm.Descriptor { return w.desc }

// RunN executes fn exactly n times, each as its own transaction.
func (w *Worker) RunN(fn TxnFunc, n int) {
	for i := 0; i < n; i++ {
		rtm.Atomically(w.desc, func(d *rtm.Descriptor) {
			rtm.BeginTx(d)
			fn(d)
			rtm.CommitTx(d)
		})
	}
}

// RunFor executes fn repeatedly until the deadline passes, returning the
// number of completed transactions. Used by the swap scenario, where
// worker lifetime is bounded by wall-clock rather than by a fixed count.
func (w *Worker) RunFor(fn TxnFunc, deadline time.Time) int {
	n := 0
	for time.Now().Before(deadline) {
		rtm.Atomically(w.desc, func(d *rtm.Descriptor) {
			rtm.BeginTx(d)
			fn(d)
			rtm.CommitTx(d)
		})
		n++
	}
	return n
}

// Close unregisters the worker's descriptor from the process-wide
// registry, freeing its bytelock reader slot.
func (w *Worker) Close() {
	rtm.UnregisterThread(w.desc)
}
