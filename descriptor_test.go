package rtm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testAlgFuncs() *AlgFuncs {
	return &AlgFuncs{
		Name:           "test-alg",
		Begin:          func(d *Descriptor) {},
		ReadOnlyRead:   func(d *Descriptor, a Addr, mask uint64) uint64 { return 0 },
		ReadOnlyWrite:  func(d *Descriptor, a Addr, val, mask uint64) {},
		ReadOnlyCommit: func(d *Descriptor) {},
		ReadWriteRead:  func(d *Descriptor, a Addr, mask uint64) uint64 { return 1 },
		ReadWriteWrite: func(d *Descriptor, a Addr, val, mask uint64) {},
		ReadWriteCommit: func(d *Descriptor) {},
	}
}

func TestNewDescriptorInitialState(t *testing.T) {
	d := NewDescriptor(3)
	require.Equal(t, uint32(3), d.ID)
	require.Equal(t, NoOrder, d.Order)
	require.Equal(t, OwnerWord(3), d.MyLock)
	require.False(t, d.InTx())
}

func TestOnFirstWriteUpgradesFromReadOnly(t *testing.T) {
	d := NewDescriptor(1)
	d.Algo = testAlgFuncs()
	d.ResetToReadOnly()
	require.Equal(t, ModeReadOnly, d.Mode)

	d.OnFirstWrite()
	require.Equal(t, ModeReadWrite, d.Mode)

	// a second call is a no-op: mode stays read-write.
	d.OnFirstWrite()
	require.Equal(t, ModeReadWrite, d.Mode)
}

func TestResetToReadOnlyReinstallsPointers(t *testing.T) {
	d := NewDescriptor(1)
	d.Algo = testAlgFuncs()
	d.OnFirstWrite()
	require.Equal(t, ModeReadWrite, d.Mode)

	d.ResetToReadOnly()
	require.Equal(t, ModeReadOnly, d.Mode)
	require.Equal(t, uint64(0), d.Read(d, Addr(nil), ^uint64(0)))
}

func TestOnCommitStreakCounters(t *testing.T) {
	d := NewDescriptor(1)
	d.ConsecAborts = 4
	d.OnReadWriteCommit()
	require.Equal(t, 1, d.ConsecCommits)
	require.Equal(t, 0, d.ConsecRO)

	d.OnReadOnlyCommit()
	require.Equal(t, 1, d.ConsecRO)
	require.Equal(t, 0, d.ConsecCommits)
}

func TestResetLogsClearsEverything(t *testing.T) {
	d := NewDescriptor(1)
	var w uint64
	d.Writes.Insert(AddrOf(&w), 1, ^uint64(0))
	d.Order = 5
	d.resetLogs()
	require.Equal(t, 0, d.Writes.Len())
	require.Equal(t, NoOrder, d.Order)
}

func TestBackoffRunsAtZeroAndCappedConsecAborts(t *testing.T) {
	d := NewDescriptor(1)
	d.ConsecAborts = 0
	d.Backoff()
	d.ConsecAborts = 20
	d.Backoff()
}
