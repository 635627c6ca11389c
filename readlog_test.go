package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrecReadLogValidate(t *testing.T) {
	var o Orec
	o.Store(5)

	var log OrecReadLog
	log.Append(&o)
	require.True(t, log.Validate(5, OwnerWord(1)))
	require.False(t, log.Validate(4, OwnerWord(1)))

	o.Store(OwnerWord(1))
	require.True(t, log.Validate(5, OwnerWord(1)))
	require.False(t, log.Validate(5, OwnerWord(2)))
}

func TestValueListValidateAndFind(t *testing.T) {
	var w uint64 = 0xAA
	a := AddrOf(&w)

	var vl ValueList
	vl.Append(a, 0xAA, ^uint64(0))
	require.True(t, vl.Validate())

	val, mask, ok := vl.Find(a)
	require.True(t, ok)
	require.Equal(t, uint64(0xAA), val)
	require.Equal(t, ^uint64(0), mask)

	w = 0xBB
	require.False(t, vl.Validate())
}

func TestValueListResetClears(t *testing.T) {
	var vl ValueList
	var w uint64
	vl.Append(AddrOf(&w), 1, 1)
	require.Equal(t, 1, vl.Len())
	vl.Reset()
	require.Equal(t, 0, vl.Len())
}
