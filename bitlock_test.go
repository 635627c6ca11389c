package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitlockReaderBitset(t *testing.T) {
	var b Bitlock
	require.False(t, b.TestAndSetReader(2))
	require.True(t, b.TestAndSetReader(2))
	b.ClearReader(2)
	require.False(t, b.TestAndSetReader(2))
}

func TestBitlockAnyReaderExcept(t *testing.T) {
	var b Bitlock
	b.SetReader(1)
	require.True(t, b.AnyReaderExcept(2))
	require.False(t, b.AnyReaderExcept(1))
}

func TestBitlockWriterLock(t *testing.T) {
	var b Bitlock
	require.False(t, b.WriterLocked())
	require.True(t, b.TryLockWriter())
	require.True(t, b.WriterLocked())
	require.False(t, b.TryLockWriter())
	b.UnlockWriter()
	require.False(t, b.WriterLocked())
}

func TestBitlockTableGetIsStable(t *testing.T) {
	table := Bitlocks()
	var w uint64
	a := AddrOf(&w)
	require.Same(t, table.Get(a), table.Get(a))
}
