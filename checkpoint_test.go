package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicallyCommitsOnNormalReturn(t *testing.T) {
	d := NewDescriptor(1)
	d.Algo = testAlgFuncs()
	ran := 0
	Atomically(d, func(d *Descriptor) {
		ran++
	})
	require.Equal(t, 1, ran)
	require.Equal(t, 0, d.ConsecAborts)
}

func TestAtomicallyRetriesAfterAbort(t *testing.T) {
	d := NewDescriptor(1)
	d.Algo = testAlgFuncs()
	attempts := 0
	Atomically(d, func(d *Descriptor) {
		attempts++
		if attempts < 3 {
			d.Abort(AbortConflict)
		}
	})
	require.Equal(t, 3, attempts)
	require.Equal(t, 0, d.ConsecAborts)
}

func TestAbortReleasesHeldLocksOnRollback(t *testing.T) {
	d := NewDescriptor(1)
	d.Algo = testAlgFuncs()

	var o Orec
	o.Store(d.MyLock)

	first := true
	Atomically(d, func(d *Descriptor) {
		if first {
			d.Locks = append(d.Locks, LockEntry{Orec: &o, PrevVal: 42})
			first = false
			d.Abort(AbortConflict)
		}
	})
	require.Equal(t, uint64(42), o.Load())
}

func TestRunOnceRepanicsOnNonAbortSignal(t *testing.T) {
	d := NewDescriptor(1)
	d.Algo = testAlgFuncs()
	require.Panics(t, func() {
		runOnce(d, func(d *Descriptor) {
			panic("not an abort signal")
		})
	})
}

func TestSwappedDetectsGenerationChange(t *testing.T) {
	d := NewDescriptor(1)
	d.swapGeneration = Global().Generation()
	require.False(t, d.Swapped())
	Global().BumpGeneration()
	require.True(t, d.Swapped())
}
