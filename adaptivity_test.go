package rtm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSwapUnknownAlgorithmErrors(t *testing.T) {
	err := Swap("no-such-algorithm", 10*time.Millisecond)
	require.Error(t, err)
}

func TestSwapRewritesDescriptorPointersAndGeneration(t *testing.T) {
	registryState.mu.Lock()
	registryState.byID = map[uint32]*Descriptor{}
	registryState.mu.Unlock()

	from := registerTestAlgorithm(t, "adaptivity-test-from")
	to := registerTestAlgorithm(t, "adaptivity-test-to")
	require.True(t, InstallInitial(from.Name))

	d, err := RegisterThread()
	require.NoError(t, err)
	defer UnregisterThread(d)
	d.Algo = from
	genBefore := Global().Generation()

	require.NoError(t, Swap(to.Name, time.Second))
	require.Equal(t, to.Name, Current().Name)
	require.Equal(t, to, d.Algo)
	require.Equal(t, ModeReadOnly, d.Mode)
	require.Greater(t, Global().Generation(), genBefore)
	require.Equal(t, Global().Generation(), d.swapGeneration)
}

func TestSwapTimesOutWhenThreadNeverQuiesces(t *testing.T) {
	registryState.mu.Lock()
	registryState.byID = map[uint32]*Descriptor{}
	registryState.mu.Unlock()

	from := registerTestAlgorithm(t, "adaptivity-test-stuck-from")
	to := registerTestAlgorithm(t, "adaptivity-test-stuck-to")
	require.True(t, InstallInitial(from.Name))

	d, err := RegisterThread()
	require.NoError(t, err)
	defer UnregisterThread(d)
	d.Algo = from
	d.nesting = 1
	defer func() { d.nesting = 0 }()

	genBefore := Global().Generation()
	err = Swap(to.Name, 20*time.Millisecond)
	require.Error(t, err)
	// a failed drain must not leave outer begins blocked or the
	// algorithm switched, even though the generation bump itself is not
	// rolled back: it happens before the drain starts so that a thread
	// genuinely parked in a commit wait loop gets a chance to notice and
	// self-abort, and there is no taking it back once other threads may
	// have already observed it.
	require.Equal(t, from.Name, Current().Name)
	require.Greater(t, Global().Generation(), genBefore)
	require.False(t, beginBlocked)
}

// TestSwapGenerationBumpUnsticksThreadParkedInCommitWait guards against
// the generation bump landing after quiescence already succeeded. The
// goroutine below stands in for a CToken/Pipeline/Cohorts commit-time
// wait loop: the only way it ever clears d.nesting is by noticing
// Swapped() go true and self-aborting, exactly like gate.WaitTurn's
// cancelled callback. If the bump happened after waitForQuiescence
// instead of before it, this is a genuine deadlock: the drain waits on
// this thread forever, and the thread waits on a bump that the drain's
// own success gates.
func TestSwapGenerationBumpUnsticksThreadParkedInCommitWait(t *testing.T) {
	registryState.mu.Lock()
	registryState.byID = map[uint32]*Descriptor{}
	registryState.mu.Unlock()

	from := registerTestAlgorithm(t, "adaptivity-test-wait-from")
	to := registerTestAlgorithm(t, "adaptivity-test-wait-to")
	require.True(t, InstallInitial(from.Name))

	d, err := RegisterThread()
	require.NoError(t, err)
	defer UnregisterThread(d)
	d.Algo = from
	d.nesting = 1

	go func() {
		for !d.Swapped() {
		}
		d.nesting = 0
	}()

	require.NoError(t, Swap(to.Name, 200*time.Millisecond))
}

func TestSwapDrainsInFlightThreadsBeforeReturning(t *testing.T) {
	registryState.mu.Lock()
	registryState.byID = map[uint32]*Descriptor{}
	registryState.mu.Unlock()

	from := registerTestAlgorithm(t, "adaptivity-test-drain-from")
	to := registerTestAlgorithm(t, "adaptivity-test-drain-to")
	require.True(t, InstallInitial(from.Name))

	d, err := RegisterThread()
	require.NoError(t, err)
	defer UnregisterThread(d)
	d.Algo = from
	d.nesting = 1

	done := make(chan struct{})
	go func() {
		err := Swap(to.Name, 200*time.Millisecond)
		require.NoError(t, err)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	d.nesting = 0

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("swap did not complete after thread quiesced")
	}
}
