package rtm

// Status is a descriptor's externally-visible state, read by other threads
// during cohort scans and adaptivity swaps without synchronizing on
// anything but the status word itself (spec §5: "their status word is the
// sole field read by other threads... and its writes use release
// semantics").
type Status int32

const (
	StatusCommitted Status = iota
	StatusStarted
	StatusCPending
	StatusDone
	StatusNotDone
)

func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "COMMITTED"
	case StatusStarted:
		return "STARTED"
	case StatusCPending:
		return "CPENDING"
	case StatusDone:
		return "DONE"
	case StatusNotDone:
		return "NOT_DONE"
	default:
		return "UNKNOWN"
	}
}

// Mode selects which per-thread function-pointer triple a descriptor is
// currently using: read-only (no write barrier engaged yet), read-write
// (the ordinary path), or turbo (an in-place fast path some algorithms
// enter when they can prove exclusivity). Spec §4.1: "three function
// pointers (commit, read, write)... initialised... to read-only... may be
// upgraded at first write to read-write... and again to turbo."
type Mode int32

const (
	ModeReadOnly Mode = iota
	ModeReadWrite
	ModeTurbo
)

// ReadFunc, WriteFunc and CommitFunc are the per-thread barrier pointers
// every algorithm installs into a descriptor at begin and may re-install
// mid-transaction on a mode upgrade.
type (
	ReadFunc   func(d *Descriptor, a Addr, mask uint64) uint64
	WriteFunc  func(d *Descriptor, a Addr, val, mask uint64)
	CommitFunc func(d *Descriptor)
)

// Descriptor is the per-thread transaction state described in spec §3: the
// single structure an algorithm reads and mutates across begin, every
// read/write, and commit or rollback. One is created per application
// thread on first use and lives for the thread's lifetime; its logs are
// reset at the start of every transaction.
type Descriptor struct {
	ID uint32

	nesting int
	status  Status

	// StartTime is the snapshot used by validation; different algorithm
	// families populate it from different clocks (global timestamp,
	// last-complete, sequence lock) but every algorithm reads it the same
	// way through this field.
	StartTime uint64
	// Order is this transaction's commit-token / cohort order, or
	// NoOrder when it has not yet become a writer.
	Order int64

	OrecReads  OrecReadLog
	ValueReads ValueList
	Writes     WriteSet
	Undo       UndoLog

	// Locks is the list of orecs this descriptor currently owns (eager
	// acquisition) or acquired during commit (lazy acquisition), each
	// paired with the version to restore them to on rollback.
	Locks []LockEntry
	// ByteLocksHeld / BitLocksHeld mirror Locks for the bytelock/bitlock
	// families, which release by clearing bytes/bits rather than storing
	// a version.
	ByteLocksHeld []*Bytelock
	BitLocksHeld  []*Bitlock

	ReadFilter  Bloom
	WriteFilter Bloom

	// MyLock is this thread's owner encoding, precomputed once (spec
	// §4.2: "Each thread has a distinguished my_lock word equal to its
	// owner encoding.").
	MyLock uint64

	checkpoint checkpoint
	retryFlag  bool

	Mode    Mode
	Read    ReadFunc
	Write   WriteFunc
	Commit  CommitFunc
	Algo    *AlgFuncs

	// swapGeneration is the global generation this descriptor last saw
	// its pointers refreshed at; a wait loop compares it against the
	// live generation to detect a pending algorithm swap.
	swapGeneration uint64

	seed        uint64
	ConsecAborts  int
	ConsecCommits int
	ConsecRO      int

	Stats ThreadStats

	smr smrThreadState
}

// NoOrder is the sentinel Order value for a descriptor that has not yet
// become a writer (spec §3: "commit order (-1 when none)").
const NoOrder int64 = -1

// LockEntry pairs an orec this descriptor owns with the version it must
// be restored to if the transaction rolls back.
type LockEntry struct {
	Orec    *Orec
	PrevVal uint64
}

// NewDescriptor creates a fresh per-thread descriptor. id must be unique
// among live threads: it both indexes this thread's reader byte in every
// Bytelock and reader bit in every Bitlock, and is baked into MyLock.
func NewDescriptor(id uint32) *Descriptor {
	d := &Descriptor{
		ID:     id,
		Order:  NoOrder,
		MyLock: OwnerWord(id),
		seed:   uint64(id)*2685821657736338717 + 1,
	}
	d.Writes = *newWriteSet()
	return d
}

// InTx reports whether this descriptor is between begin and commit/abort,
// the flag adaptivity's blocking-begin protocol polls to know when every
// thread has drained out of a transaction.
func (d *Descriptor) InTx() bool { return d.nesting > 0 }

// Nesting returns the current flat-nesting depth.
func (d *Descriptor) Nesting() int { return d.nesting }

// SetStatus publishes a new status for cross-thread scans to observe.
func (d *Descriptor) SetStatus(s Status) { d.status = s }

// StatusOf returns the descriptor's current status.
func (d *Descriptor) StatusOf() Status { return d.status }

// OnFirstWrite upgrades a read-only descriptor to the read-write pointer
// triple. Factored out, per the original's shared upgrade helper
// (duplicated verbatim across ByteEager.cpp, CohortsLNQX.cpp, and
// friends), so WriteBarrier performs the upgrade once for every algorithm
// in algs/ instead of each repeating the three-pointer swap inline.
func (d *Descriptor) OnFirstWrite() {
	if d.Mode != ModeReadOnly {
		return
	}
	d.Mode = ModeReadWrite
	d.Read = d.Algo.ReadWriteRead
	d.Write = d.Algo.ReadWriteWrite
	d.Commit = d.Algo.ReadWriteCommit
}

// ResetToReadOnly reinstalls the read-only pointer triple, used by
// rollback before a retry and by algorithms whose commit discovers it
// performed no writes after all.
func (d *Descriptor) ResetToReadOnly() {
	d.Mode = ModeReadOnly
	if d.Algo != nil {
		d.Read = d.Algo.ReadOnlyRead
		d.Write = d.Algo.ReadOnlyWrite
		d.Commit = d.Algo.ReadOnlyCommit
	}
}

// OnReadOnlyCommit and OnReadWriteCommit record the consecutive-commit /
// consecutive-read-only streaks spec §4.1 says feed toxic-transaction
// histograms, mirroring the original's small per-mode post-commit
// bookkeeping functions.
func (d *Descriptor) OnReadOnlyCommit() {
	d.ConsecRO++
	d.ConsecCommits = 0
}

func (d *Descriptor) OnReadWriteCommit() {
	d.ConsecCommits++
	d.ConsecRO = 0
}

// resetLogs clears every per-transaction log, called at begin and after
// commit/abort settle (spec §3: "a transaction's logs are cleared at
// begin and at commit/abort").
func (d *Descriptor) resetLogs() {
	d.OrecReads.Reset()
	d.ValueReads.Reset()
	d.Writes.Reset()
	d.Undo.Reset()
	d.Locks = d.Locks[:0]
	d.ByteLocksHeld = d.ByteLocksHeld[:0]
	d.BitLocksHeld = d.BitLocksHeld[:0]
	d.ReadFilter.Reset()
	d.WriteFilter.Reset()
	d.Order = NoOrder
}

// Backoff spins a pseudo-random, exponentially growing number of
// iterations seeded from this descriptor's own PRNG, per spec §4.1:
// "Aborts retry the same transaction from its checkpoint with backoff
// driven by a per-thread PRNG." Adapted from the teacher's cc_util.go
// RandN, a per-goroutine xorshift generator; the STM variant scales its
// range by ConsecAborts instead of taking a caller-supplied bound, since
// backoff should grow with how contended this thread has been.
func (d *Descriptor) Backoff() {
	shift := d.ConsecAborts
	if shift > 16 {
		shift = 16
	}
	bound := uint64(1) << uint(shift)
	spins := d.nextRand() % bound
	for i := uint64(0); i < spins; i++ {
		// busy-spin; no syscall, no channel, matching the bounded CPU
		// spin every other wait loop in this package uses.
	}
}

// nextRand is a plain xorshift64 step (13, 7, 17), adapted from the teacher's RandN, which
// used the same xorshift core seeded per-goroutine to avoid contending a
// shared math/rand source across transactional threads.
func (d *Descriptor) nextRand() uint64 {
	x := d.seed
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.seed = x
	return x
}
