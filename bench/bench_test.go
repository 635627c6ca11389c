package bench

import (
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	rtm "github.com/gshashidhar125/rstm"

	_ "github.com/gshashidhar125/rstm/algs"

	"github.com/stretchr/testify/require"
)

// TestEightWorkersAccumulateConcurrently exercises the §8-style scenario
// this harness exists for: many goroutines incrementing a shared counter
// through the library's retry loop, with the final total matching exactly
// one increment per committed transaction regardless of how many aborts it
// took to get there. Fan-out and error collection go through errgroup,
// the same package adaptivity.go's own quiescence wait uses.
func TestEightWorkersAccumulateConcurrently(t *testing.T) {
	require.True(t, rtm.InstallInitial("OrecEager"))

	var counter uint64
	a := rtm.AddrOf(&counter)

	const workers = 8
	const perWorker = 50

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		w, err := NewWorker()
		require.NoError(t, err)
		g.Go(func() error {
			defer w.Close()
			w.RunN(func(d *rtm.Descriptor) {
				cur := rtm.ReadBarrier(d, a, ^uint64(0))
				rtm.WriteBarrier(d, a, cur+1, ^uint64(0))
			}, perWorker)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, uint64(workers*perWorker), counter)
}

func TestCoordinatorSwapMidRun(t *testing.T) {
	require.True(t, rtm.InstallInitial("OrecEager"))
	c, err := NewCoordinator(2)
	require.NoError(t, err)
	defer c.Close()

	var counter uint64
	a := rtm.AddrOf(&counter)

	var g errgroup.Group
	for _, w := range c.Workers {
		w := w
		g.Go(func() error {
			w.RunN(func(d *rtm.Descriptor) {
				cur := rtm.ReadBarrier(d, a, ^uint64(0))
				rtm.WriteBarrier(d, a, cur+1, ^uint64(0))
			}, 20)
			return nil
		})
	}

	require.NoError(t, c.Swap("NOrec", 5*time.Second))
	require.NoError(t, g.Wait())

	require.Equal(t, uint64(40), counter)
}
