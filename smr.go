package rtm

import "sync/atomic"

// retiredNode is one queued free: a pointer the owning transaction will
// not touch again, plus the epoch at which it was retired. It is kept
// alive (via the interface{} holding whatever the caller allocated) until
// the reclaimer proves no thread can still be observing it.
type retiredNode struct {
	epoch uint64
	obj   interface{}
	free  func(interface{})
}

// smrThreadState is the per-thread piece of the safe-memory-reclamation
// scheme described in spec §4.8: "Every allocation inside a transaction
// is routed through a per-thread allocator that queues frees... A free
// issued by a committed transaction enters a thread-local retire queue
// whose head is an epoch timestamp."
type smrThreadState struct {
	observedEpoch uint64
	retireQueue   []retiredNode
	// pendingFrees accumulates frees made during the in-flight
	// transaction; a free issued by an aborted transaction is discarded
	// by simply dropping this slice instead of moving it to the retire
	// queue.
	pendingFrees []retiredNode
}

// Retire queues obj for reclamation once this transaction commits. free
// is called exactly once, when the quiescence protocol proves no other
// thread's observed epoch can still see obj.
func (d *Descriptor) Retire(obj interface{}, free func(interface{})) {
	d.smr.pendingFrees = append(d.smr.pendingFrees, retiredNode{obj: obj, free: free})
}

// commitFrees moves this transaction's pending frees into the permanent
// retire queue, stamped with the current epoch. Called by every
// algorithm's commit path after a successful commit.
func (d *Descriptor) commitFrees() {
	if len(d.smr.pendingFrees) == 0 {
		return
	}
	epoch := Global().Epoch()
	for _, n := range d.smr.pendingFrees {
		n.epoch = epoch
		d.smr.retireQueue = append(d.smr.retireQueue, n)
	}
	d.smr.pendingFrees = d.smr.pendingFrees[:0]
}

// discardFrees drops this transaction's pending frees without retiring
// them, the abort-time counterpart of commitFrees (spec §4.8: "A free
// issued by an aborted transaction is discarded").
func (d *Descriptor) discardFrees() {
	d.smr.pendingFrees = d.smr.pendingFrees[:0]
}

// EnterEpoch records the epoch this thread is about to start observing,
// called at the top of begin so other threads' Quiesce calls can see how
// far this thread has progressed.
func (d *Descriptor) EnterEpoch() {
	d.smr.observedEpoch = Global().Epoch()
}

// Quiesce advances the global epoch and reclaims every node in every
// registered thread's retire queue whose epoch predates every other
// thread's currently observed epoch -- the "quiescence protocol reclaims
// queued memory when every other thread's observed start time exceeds
// the retire epoch" from spec §4.8.
func Quiesce() {
	newEpoch := Global().AdvanceEpoch()

	minObserved := newEpoch
	for _, d := range AllDescriptors() {
		if o := atomic.LoadUint64(&d.smr.observedEpoch); o < minObserved {
			minObserved = o
		}
	}

	for _, d := range AllDescriptors() {
		kept := d.smr.retireQueue[:0]
		for _, n := range d.smr.retireQueue {
			if n.epoch < minObserved {
				n.free(n.obj)
				continue
			}
			kept = append(kept, n)
		}
		d.smr.retireQueue = kept
	}
}
