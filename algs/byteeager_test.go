package algs

import (
	"testing"

	rtm "github.com/gshashidhar125/rstm"

	"github.com/stretchr/testify/require"
)

func TestByteEagerWriteThenReadRoundTrips(t *testing.T) {
	require.True(t, rtm.InstallInitial("ByteEager"))

	var word uint64
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(41)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.WriteBarrier(d, a, 11, ^uint64(0))
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(11), word)

	var got uint64
	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		got = rtm.ReadBarrier(d, a, ^uint64(0))
		rtm.CommitTx(d)
	})
	require.Equal(t, uint64(11), got)
}

func TestByteEagerReadOnlyCommitClearsReaderByte(t *testing.T) {
	require.True(t, rtm.InstallInitial("ByteEager"))

	var word uint64 = 5
	a := rtm.AddrOf(&word)
	d := rtm.NewDescriptor(42)

	rtm.Atomically(d, func(d *rtm.Descriptor) {
		rtm.BeginTx(d)
		rtm.ReadBarrier(d, a, ^uint64(0))
		rtm.CommitTx(d)
	})

	bl := rtm.Bytelocks().Get(a)
	require.False(t, bl.IsReader(d.ID))
}
