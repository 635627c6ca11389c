package rtm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gshashidhar125/rstm/rtmmetrics"
)

// Swap installs a new algorithm process-wide while transactions may be in
// flight, following the five-step protocol from spec §4.9:
//  1. block new outer begins,
//  2. wait for every thread's in-tx flag to clear,
//  3. rewrite every descriptor's per-thread pointers to the new
//     algorithm's variants,
//  4. publish the new algorithm as current,
//  5. unblock waiters.
//
// Step 2's drain is run through golang.org/x/sync/errgroup the way the
// teacher's Coordinator used channel-based fan-out to wait on every
// worker's ACK before proceeding (cc_coordinator.go's changeACK
// protocol): each registered thread gets its own goroutine polling its
// descriptor, and Swap returns only once every one of them reports clear
// or the context deadline passes.
func Swap(name string, drainTimeout time.Duration) error {
	next, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("rtm: unknown algorithm %q", name)
	}

	currentMu.Lock()
	beginBlocked = true
	currentMu.Unlock()
	defer func() {
		currentMu.Lock()
		beginBlocked = false
		currentMu.Unlock()
	}()

	// Bump the generation before draining, not after: a thread already
	// parked in a commit-time wait loop (CToken, Pipeline, Cohorts) only
	// ever notices a swap in progress through Descriptor.Swapped(),
	// which compares the live generation against the value it cached at
	// its own Begin. Bumping here, while such a thread may still be
	// waiting, is what gives it a chance to see the change and
	// self-abort out of the wait. Bumping only after quiescence already
	// succeeded would mean the one case this exists for -- a thread
	// stuck mid-wait -- never gets to observe it.
	newGen := Global().BumpGeneration()

	if err := waitForQuiescence(drainTimeout); err != nil {
		return err
	}

	for _, d := range AllDescriptors() {
		d.Mode = ModeReadOnly
		d.Algo = next
		d.Read = next.ReadOnlyRead
		d.Write = next.ReadOnlyWrite
		d.Commit = next.ReadOnlyCommit
		d.swapGeneration = newGen
	}

	if next.OnSwitchTo != nil {
		next.OnSwitchTo()
	}

	currentMu.Lock()
	current = next
	currentMu.Unlock()
	rtmmetrics.SetActiveAlgorithm(Names(), next.Name)

	return nil
}

// waitForQuiescence blocks until every registered descriptor's InTx flag
// is clear, or until timeout elapses. A thread parked in a commit-time
// wait loop (CToken, Pipeline, Cohorts) is expected to notice the bumped
// generation via Descriptor.swapped and self-abort, which is what lets
// this drain complete instead of waiting on a thread that will never
// finish on its own.
func waitForQuiescence(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, d := range AllDescriptors() {
		d := d
		g.Go(func() error {
			for d.InTx() {
				select {
				case <-ctx.Done():
					return fmt.Errorf("rtm: thread %d did not quiesce before swap deadline", d.ID)
				default:
				}
			}
			return nil
		})
	}
	return g.Wait()
}
