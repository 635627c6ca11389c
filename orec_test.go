package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnerWordRoundTrip(t *testing.T) {
	w := OwnerWord(7)
	require.True(t, IsLocked(w))
	require.Equal(t, uint32(7), OwnerOf(w))
}

func TestVersionOfUnlockedWord(t *testing.T) {
	require.Equal(t, uint64(42), VersionOf(42))
}

func TestOrecCASAndStore(t *testing.T) {
	var o Orec
	require.True(t, o.CAS(0, OwnerWord(3)))
	require.False(t, o.CAS(0, OwnerWord(4)))
	require.Equal(t, OwnerWord(3), o.Load())

	o.Store(99)
	require.Equal(t, uint64(99), o.Load())
	require.False(t, IsLocked(o.Load()))
}

func TestOrecTableGetIsStable(t *testing.T) {
	var table OrecTable
	var word uint64
	a := AddrOf(&word)

	o1 := table.Get(a)
	o2 := table.Get(a)
	require.Same(t, o1, o2)
}
