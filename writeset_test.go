package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteSetFindAndInsertMerge(t *testing.T) {
	ws := newWriteSet()
	var w uint64
	a := AddrOf(&w)

	_, _, ok := ws.Find(a)
	require.False(t, ok)

	ws.Insert(a, 0xFF, 0x0F)
	val, mask, ok := ws.Find(a)
	require.True(t, ok)
	require.Equal(t, uint64(0xFF), val)
	require.Equal(t, uint64(0x0F), mask)

	ws.Insert(a, 0xF0, 0xF0)
	val, mask, ok = ws.Find(a)
	require.True(t, ok)
	require.Equal(t, uint64(0xFF), mask)
	require.Equal(t, uint64(0xFF), val)
	require.Equal(t, 1, ws.Len())
}

func TestWriteSetWritebackAndEach(t *testing.T) {
	ws := newWriteSet()
	var a, b uint64
	ws.Insert(AddrOf(&a), 11, ^uint64(0))
	ws.Insert(AddrOf(&b), 22, ^uint64(0))

	ws.Writeback()
	require.Equal(t, uint64(11), a)
	require.Equal(t, uint64(22), b)

	seen := map[uint64]bool{}
	ws.Each(func(addr Addr, val, mask uint64) {
		seen[val] = true
	})
	require.True(t, seen[11])
	require.True(t, seen[22])
}

func TestWriteSetGrowsIndexPastInitialCapacity(t *testing.T) {
	ws := newWriteSet()
	words := make([]uint64, writeSetInitialCapacity*2)
	for i := range words {
		ws.Insert(AddrOf(&words[i]), uint64(i), ^uint64(0))
	}
	require.Equal(t, len(words), ws.Len())
	for i := range words {
		val, _, ok := ws.Find(AddrOf(&words[i]))
		require.True(t, ok)
		require.Equal(t, uint64(i), val)
	}
}

func TestWriteSetReset(t *testing.T) {
	ws := newWriteSet()
	var w uint64
	ws.Insert(AddrOf(&w), 1, ^uint64(0))
	ws.Reset()
	require.Equal(t, 0, ws.Len())
	_, _, ok := ws.Find(AddrOf(&w))
	require.False(t, ok)
}
