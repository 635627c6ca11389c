package rtm

import (
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/gshashidhar125/rstm/rtmlog"
	"github.com/gshashidhar125/rstm/rtmmetrics"
)

// AlgFuncs is the per-algorithm function-pointer block spec §6 calls the
// "System operations... every algorithm exposes through the dispatch
// table": name, begin, the three mode-specific (read-only / read-write /
// turbo) read/write/commit triples, rollback's irrevocable escape hatch,
// the on-switch-to hook, and the privatization-safe capability flag.
//
// Turbo fields are nil for algorithms that never enter an in-place phase.
// BeginTx installs the read-only triple and WriteBarrier upgrades to the
// read-write triple; only an algorithm's own barriers switch a descriptor
// to the Turbo* triple.
type AlgFuncs struct {
	Name string

	Begin func(d *Descriptor)

	ReadOnlyRead  ReadFunc
	ReadOnlyWrite WriteFunc
	ReadOnlyCommit CommitFunc

	ReadWriteRead   ReadFunc
	ReadWriteWrite  WriteFunc
	ReadWriteCommit CommitFunc

	TurboRead   ReadFunc
	TurboWrite  WriteFunc
	TurboCommit CommitFunc

	// SupportsIrrevoc reports whether this algorithm can service an
	// irrevocable escalation request; an escalation on an algorithm that
	// cannot is the one case spec §7 marks fatal ("unsupported...
	// irrevocable escalation requested on an algorithm that cannot
	// provide it -> fatal").
	SupportsIrrevoc bool
	Irrevoc         func(d *Descriptor) bool

	// OnSwitchTo runs once, by the adaptivity controller, after every
	// thread's pointers have been rewritten to this algorithm but before
	// new transactions are unblocked (spec §4.9 step 3-4). It is where an
	// algorithm resets whatever global state its invariants depend on.
	OnSwitchTo func()

	PrivatizationSafe bool
}

var (
	registryMu sync.Mutex
	registry   = map[string]*AlgFuncs{}
)

// RegisterAlgorithm adds an algorithm to the process-wide dispatch table.
// Every algs file calls this from an init() function, the same
// self-registration idiom database/sql drivers use.
func RegisterAlgorithm(a *AlgFuncs) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[a.Name]; exists {
		panic("rtm: algorithm " + a.Name + " registered twice")
	}
	registry[a.Name] = a
}

// Lookup returns a registered algorithm by name.
func Lookup(name string) (*AlgFuncs, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	a, ok := registry[name]
	return a, ok
}

// Names returns every registered algorithm name, for the CLI's `list`
// subcommand.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// current is the globally installed algorithm. beginBlocked gates new
// outer transactions during an adaptivity swap (spec §4.9 step 1-2): a
// blocking begin stalls at the door until every thread's in-tx flag is
// clear, then publishes the new algorithm.
var (
	currentMu     sync.RWMutex
	current       *AlgFuncs
	beginBlocked  bool
)

// InstallInitial sets the process-wide algorithm before any thread has
// begun a transaction; used at startup, not during live adaptivity.
func InstallInitial(name string) bool {
	a, ok := Lookup(name)
	if !ok {
		return false
	}
	currentMu.Lock()
	current = a
	currentMu.Unlock()
	rtmmetrics.SetActiveAlgorithm(Names(), a.Name)
	return true
}

// Current returns the currently installed algorithm.
func Current() *AlgFuncs {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// BeginTx is the entry point every application thread calls to start a
// transaction. It spins while a swap is in progress (spec §4.9's blocking
// begin), then hands the descriptor to the installed algorithm's Begin
// hook with the read-only pointer triple installed, matching spec §4.1:
// "initialised at begin to the algorithm's read-only variants".
func BeginTx(d *Descriptor) {
	d.nesting++
	if d.nesting > 1 {
		return
	}

	for {
		d.nesting = 1
		currentMu.RLock()
		blocked := beginBlocked
		alg := current
		currentMu.RUnlock()
		if !blocked {
			d.Algo = alg
			break
		}
		// A begin held at the door is not in a transaction yet; dropping
		// the in-tx flag while it waits lets the swap's drain complete.
		d.nesting = 0
	}

	d.resetLogs()
	d.Mode = ModeReadOnly
	d.Read = d.Algo.ReadOnlyRead
	d.Write = d.Algo.ReadOnlyWrite
	d.Commit = d.Algo.ReadOnlyCommit
	d.swapGeneration = Global().Generation()
	d.EnterEpoch()
	d.SetStatus(StatusStarted)
	d.Algo.Begin(d)
}

// ReadBarrier dispatches to the descriptor's current per-thread read
// pointer.
func ReadBarrier(d *Descriptor, a Addr, mask uint64) uint64 {
	return d.Read(d, a, mask)
}

// WriteBarrier upgrades a read-only descriptor to read-write on its first
// write (spec §4.1's mode upgrade), then dispatches.
func WriteBarrier(d *Descriptor, a Addr, val, mask uint64) {
	d.OnFirstWrite()
	d.Write(d, a, val, mask)
}

// CommitTx is the outer-commit entry point; inner (nested) commits just
// decrement the flat-nesting counter (spec §4.1).
func CommitTx(d *Descriptor) {
	d.nesting--
	if d.nesting > 0 {
		return
	}
	d.Commit(d)
	d.commitFrees()
	d.Stats.RecordCommit(d.Mode == ModeReadOnly, d.ConsecAborts)
	threadLabel := strconv.FormatUint(uint64(d.ID), 10)
	if d.Mode == ModeReadOnly {
		d.OnReadOnlyCommit()
		rtmmetrics.CommitsRO.WithLabelValues(threadLabel).Inc()
	} else {
		d.OnReadWriteCommit()
		rtmmetrics.CommitsRW.WithLabelValues(threadLabel).Inc()
	}
	d.ConsecAborts = 0
	d.resetLogs()
	d.SetStatus(StatusCommitted)
}

// RequestIrrevoc attempts to escalate d's in-flight transaction to
// irrevocable execution. An algorithm that cannot support this is a
// fatal condition per spec §7 ("unsupported... -> fatal (terminate
// process)"), mirroring the original's alg_t::irrevoc returning false
// for the algorithms that never implemented it.
func RequestIrrevoc(d *Descriptor) bool {
	if d.Algo == nil || !d.Algo.SupportsIrrevoc || d.Algo.Irrevoc == nil {
		rtmlog.Fatal("irrevocability requested on an algorithm that does not support it",
			zap.String("alg", algoName(d.Algo)), zap.Uint32("thread", d.ID))
		return false
	}
	return d.Algo.Irrevoc(d)
}

func algoName(a *AlgFuncs) string {
	if a == nil {
		return "<none>"
	}
	return a.Name
}
