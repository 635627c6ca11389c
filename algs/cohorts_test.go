package algs

import (
	"os"
	"testing"

	rtm "github.com/gshashidhar125/rstm"

	"github.com/stretchr/testify/require"
)

func syncLastCompleteToOrder(t *testing.T) {
	t.Helper()
	rtm.Global().SetLastComplete(rtm.Global().Order().Now())
	rtm.Global().ClearGatekeeper()
}

func TestCohortsLazyWriteCommitsAndClearsGatekeeper(t *testing.T) {
	require.True(t, rtm.InstallInitial("CohortsLazy"))
	syncLastCompleteToOrder(t)

	var word uint64
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(601)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.WriteBarrier(d, a, 31, ^uint64(0))
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(31), word)
	require.False(t, rtm.Global().GatekeeperRaised())
}

func TestCohortsTurboUniqueWriterGoesInPlace(t *testing.T) {
	require.True(t, rtm.InstallInitial("Cohorts"))
	syncLastCompleteToOrder(t)

	var word uint64
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(602)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.WriteBarrier(d, a, 47, ^uint64(0))
		require.Equal(t, rtm.ModeTurbo, d.Mode)
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(47), word)
	require.False(t, rtm.Global().WriterInPlace())
}

func TestCohortsLIValueListRoundTrips(t *testing.T) {
	require.True(t, rtm.InstallInitial("CohortsLI"))
	syncLastCompleteToOrder(t)

	var word uint64
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(603)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.WriteBarrier(d, a, 63, ^uint64(0))
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(63), word)
}

func TestCohortsENBloomFilterRoundTrips(t *testing.T) {
	require.True(t, rtm.InstallInitial("CohortsEN"))
	syncLastCompleteToOrder(t)

	var word uint64
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(605)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.WriteBarrier(d, a, 71, ^uint64(0))
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(71), word)
}

func TestCohortsEFBloomFilterRoundTrips(t *testing.T) {
	require.True(t, rtm.InstallInitial("CohortsEF"))
	syncLastCompleteToOrder(t)

	var word uint64
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(606)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.WriteBarrier(d, a, 83, ^uint64(0))
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(83), word)
}

func TestCohortsLNQXEarlySealRaisesGatekeeperBeforeCommit(t *testing.T) {
	require.True(t, rtm.InstallInitial("CohortsLNQX"))
	syncLastCompleteToOrder(t)

	require.NoError(t, os.Setenv("STM_LNQX_WRITE_EARLYSEAL", "2"))
	defer os.Unsetenv("STM_LNQX_WRITE_EARLYSEAL")

	var words [4]uint64
	d := rtm.NewDescriptor(604)

	raisedBeforeCommit := false
	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		for i := range words {
			rtm.WriteBarrier(d, rtm.AddrOf(&words[i]), uint64(i), ^uint64(0))
		}
		// the second buffered write reaches the threshold of 2, so the
		// gatekeeper should already be raised before this transaction
		// even reaches its own commit-time raise.
		raisedBeforeCommit = rtm.Global().GatekeeperRaised()
		rtm.CommitTx(d)
	})
	require.True(t, raisedBeforeCommit)
	for i, w := range words {
		require.Equal(t, uint64(i), w)
	}
}
