package rtm

import (
	"fmt"
	"sync"
)

// threadRegistry is the process-wide slot table spec §9 calls for under
// "Thread-local access to the descriptor": "descriptors live in a
// process-wide registry indexed by slot id so that other threads (cohort
// scans, adaptivity) can read status without pointer games."
type threadRegistry struct {
	mu   sync.RWMutex
	byID map[uint32]*Descriptor
}

var registryState = &threadRegistry{byID: map[uint32]*Descriptor{}}

// RegisterThread allocates a new descriptor for the calling application
// thread. It refuses a slot once MaxBytelockReaders threads are already
// registered: the bytelock reader-byte array is sized at exactly that
// bound, and handing out a thread id beyond it would let that thread's
// reader announcements alias another thread's byte, corrupting bytelock's
// core invariant instead of merely degrading performance.
func RegisterThread() (*Descriptor, error) {
	registryState.mu.Lock()
	defer registryState.mu.Unlock()

	if len(registryState.byID) >= MaxBytelockReaders {
		return nil, fmt.Errorf("rtm: cannot register thread, already at the %d-thread bytelock limit", MaxBytelockReaders)
	}

	// Find the lowest free id rather than always incrementing nextID:
	// ids index directly into each Bytelock's fixed-size reader array, so
	// a monotonically growing id would eventually run past
	// MaxBytelockReaders even while the live thread count stays capped.
	var id uint32
	for ; id < MaxBytelockReaders; id++ {
		if _, taken := registryState.byID[id]; !taken {
			break
		}
	}
	d := NewDescriptor(id)
	registryState.byID[id] = d
	return d, nil
}

// UnregisterThread removes a descriptor from the registry at thread exit,
// freeing its slot (and bytelock reader byte) for reuse.
func UnregisterThread(d *Descriptor) {
	registryState.mu.Lock()
	defer registryState.mu.Unlock()
	delete(registryState.byID, d.ID)
}

// AllDescriptors returns a snapshot of every live descriptor, used by
// the cohort commit path's scan for CPENDING peers and by the adaptivity
// controller's "wait until every thread's in-tx flag is clear" step.
func AllDescriptors() []*Descriptor {
	registryState.mu.RLock()
	defer registryState.mu.RUnlock()
	out := make([]*Descriptor, 0, len(registryState.byID))
	for _, d := range registryState.byID {
		out = append(out, d)
	}
	return out
}

// CountStarted reports how many registered descriptors other than
// exclude currently have status STARTED, the scan a cohort's first write
// uses to decide whether this thread is uniquely eligible to go turbo and
// cohort commit uses to wait for STARTED peers to finish.
func CountStarted(exclude uint32) int {
	registryState.mu.RLock()
	defer registryState.mu.RUnlock()
	n := 0
	for id, d := range registryState.byID {
		if id == exclude {
			continue
		}
		if d.StatusOf() == StatusStarted {
			n++
		}
	}
	return n
}
