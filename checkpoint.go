package rtm

import (
	"strconv"

	"github.com/gshashidhar125/rstm/rtmmetrics"
)

// checkpoint is the "captured control-flow state plus restore primitive"
// spec §4.1 calls for. RSTM's original used setjmp/longjmp to snapshot
// registers and the stack pointer at begin, then jump straight back on
// abort without ever returning up the call stack that led to the failed
// barrier. Go has no setjmp; panic/recover is the idiomatic analogue for
// "transfer control to an outer handler, skipping every intervening
// stack frame's normal return" -- which is exactly the discipline this
// checkpoint needs. Every abort site in every algorithm ends by calling
// Descriptor's Abort, which panics with a sentinel value that only
// Atomically's recover is looking for.
type checkpoint struct {
	// present records whether this descriptor has ever captured a
	// checkpoint; Atomically sets it and nothing reads it. Retries
	// re-enter through Atomically's loop, not through a flag on begin.
	present bool
}

// abortSignal is the sentinel panic value rollback produces. Recovering
// any other panic value is a bug in this package, not a transaction
// abort, and must propagate.
type abortSignal struct {
	reason AbortReason
}

// AbortReason classifies why a transaction rolled back, surfaced through
// ThreadStats and the toxic-transaction histogram.
type AbortReason int

const (
	AbortConflict AbortReason = iota
	AbortTimeout
	AbortSwap
	AbortSeal
)

func (r AbortReason) String() string {
	switch r {
	case AbortConflict:
		return "conflict"
	case AbortTimeout:
		return "timeout"
	case AbortSwap:
		return "swap"
	case AbortSeal:
		return "seal"
	default:
		return "unknown"
	}
}

// Abort is the noreturn primitive spec §4.1 describes: "transfers control
// to rollback... restore primitive never returns to its caller." Any
// algorithm barrier calls this the instant it detects conflict, timeout,
// a pending swap, or a cohort seal; it never returns, so call sites never
// need an `if aborted { return }` check after calling it.
func (d *Descriptor) Abort(reason AbortReason) {
	panic(abortSignal{reason: reason})
}

// Atomically is the retry driver every application call site uses; fn
// itself calls BeginTx and CommitTx. Atomically captures the checkpoint by
// virtue of being the function whose defer
// recovers an abort, runs fn once, and on abort resets the descriptor's
// logs and retries fn from the top -- the Go equivalent of "resumes the
// original begin site with a flag set so that begin knows to take the
// retry path".
func Atomically(d *Descriptor, fn func(d *Descriptor)) {
	d.checkpoint.present = true
	for {
		aborted := runOnce(d, fn)
		if !aborted {
			d.ConsecAborts = 0
			return
		}
	}
}

// runOnce executes fn under recover, returning true if fn aborted instead
// of returning normally.
func runOnce(d *Descriptor, fn func(d *Descriptor)) (aborted bool) {
	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(abortSignal)
			if !ok {
				panic(r)
			}
			d.rollback(sig.reason)
			aborted = true
		}
	}()
	fn(d)
	return false
}

// rollback is invoked only through the recovered abortSignal: it replays
// the undo log (eager algorithms), releases every held lock, bumps the
// abort counters, resets logs, and backs off before the retry loop in
// Atomically calls fn again.
func (d *Descriptor) rollback(reason AbortReason) {
	d.Undo.ReplayReverse()

	for _, l := range d.Locks {
		l.Orec.Store(l.PrevVal)
	}
	for _, bl := range d.ByteLocksHeld {
		bl.ClearReader(d.ID)
		bl.ReleaseWrite(d.ID)
	}
	for _, bl := range d.BitLocksHeld {
		bl.ClearReader(d.ID)
		bl.UnlockWriter()
	}

	d.discardFrees()
	// An abort unwinds every intervening frame back out to Atomically's
	// retry loop, flat nesting included: the retried fn's outermost
	// BeginTx must re-run as an outer begin, not be mistaken for a
	// nested one left over from the failed attempt.
	d.nesting = 0
	d.ConsecAborts++
	d.ConsecCommits = 0
	d.ConsecRO = 0
	d.Stats.RecordAbort(reason)
	rtmmetrics.Aborts.WithLabelValues(strconv.FormatUint(uint64(d.ID), 10), reason.String()).Inc()

	d.resetLogs()
	d.ResetToReadOnly()

	d.Backoff()
}

// swapped reports whether the global generation has moved since this
// descriptor last refreshed its pointers, the check every serial-order
// wait loop (CToken, Pipeline, Cohorts) must make per spec §4.9.
func (d *Descriptor) swapped() bool {
	return Global().Generation() != d.swapGeneration
}

// Swapped is the exported form of swapped, used by algs' commit-time
// wait loops to detect a pending algorithm swap and self-abort instead
// of waiting on a last-complete value nobody will ever publish again.
func (d *Descriptor) Swapped() bool { return d.swapped() }
