package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUndoLogReplayReverseRestoresFirstPriorValue(t *testing.T) {
	var u UndoLog
	var w uint64 = 1

	u.Append(AddrOf(&w), 1, ^uint64(0))
	w = 2
	u.Append(AddrOf(&w), 2, ^uint64(0))
	w = 3

	u.ReplayReverse()
	require.Equal(t, uint64(1), w)
}

func TestUndoLogLenAndReset(t *testing.T) {
	var u UndoLog
	var w uint64
	u.Append(AddrOf(&w), 0, ^uint64(0))
	require.Equal(t, 1, u.Len())
	u.Reset()
	require.Equal(t, 0, u.Len())
}
