package rtm

import (
	"sync/atomic"

	"github.com/gshashidhar125/rstm/wdspinlock"
)

// globalState holds the process-wide metadata listed in spec §3 ("Global
// shared state"): the timestamp counter, the last-complete counter, the
// in-flight epoch, the cohort gatekeeper, and the generation counter used
// for quiescence when swapping algorithms. There is exactly one instance,
// created at package init, mirroring the teacher's single package-level
// Coordinator owning all cross-worker state.
type globalState struct {
	timestamp    GlobalClock // orec-family global timestamp
	order        GlobalClock // commit-token / cohort order counter
	lastComplete uint64               // order of the most recently finished committer
	gatekeeper    wdspinlock.Gatekeeper // raised while a cohort is committing
	writerInPlace uint32               // 1 while a cohort turbo writer is active
	generation   uint64      // bumped on every algorithm swap, for quiescence
	epoch        uint64      // SMR epoch, advanced by the reclaimer
}

var global = &globalState{}

// Global exposes the process-wide state to the algs subpackage.
func Global() *globalState { return global }

func (g *globalState) Timestamp() *GlobalClock { return &g.timestamp }
func (g *globalState) Order() *GlobalClock     { return &g.order }

func (g *globalState) LastComplete() uint64 { return atomic.LoadUint64(&g.lastComplete) }
func (g *globalState) SetLastComplete(v uint64) {
	atomic.StoreUint64(&g.lastComplete, v)
}

// LastCompletePtr exposes the raw counter so commit-order wait loops can
// wrap it in a wdlock.Gate instead of polling LastComplete/SetLastComplete
// in a hand-rolled loop.
func (g *globalState) LastCompletePtr() *uint64 { return &g.lastComplete }

// RaiseGatekeeper returns true if this call raised the gate (it was clear).
func (g *globalState) RaiseGatekeeper() bool       { return g.gatekeeper.Raise() }
func (g *globalState) ClearGatekeeper()            { g.gatekeeper.Clear() }
func (g *globalState) GatekeeperRaised() bool      { return g.gatekeeper.Raised() }

func (g *globalState) SetWriterInPlace(v bool) {
	if v {
		atomic.StoreUint32(&g.writerInPlace, 1)
	} else {
		atomic.StoreUint32(&g.writerInPlace, 0)
	}
}
func (g *globalState) WriterInPlace() bool {
	return atomic.LoadUint32(&g.writerInPlace) == 1
}

func (g *globalState) Generation() uint64 { return atomic.LoadUint64(&g.generation) }
func (g *globalState) BumpGeneration() uint64 {
	return atomic.AddUint64(&g.generation, 1)
}

func (g *globalState) Epoch() uint64        { return atomic.LoadUint64(&g.epoch) }
func (g *globalState) AdvanceEpoch() uint64 { return atomic.AddUint64(&g.epoch, 1) }

// resetForSwitch is called by an algorithm's OnSwitchTo hook (spec §4.9:
// "the new algorithm's on-switch hook is responsible for any required
// global reset"). It does not touch the generation counter, which belongs
// to the adaptivity controller, not to individual algorithms.
//
// lastComplete is synced to the order counter's current value rather than
// hard-reset to 0: order is a single process-wide GlobalClock shared by
// every order-based family (CToken/Pipeline/Wealth and the Cohorts
// family), so it keeps advancing even while some other, non-order-based
// algorithm is installed. Zeroing lastComplete on switch-back would leave
// it pointing at a commit slot far below the next writer's drawn order,
// and wdlock.Gate.WaitTurn spins on lastComplete == order-1 forever since
// nothing will ever publish the skipped intermediate values.
func (g *globalState) resetForSwitch() {
	atomic.StoreUint64(&g.lastComplete, g.order.Now())
	g.gatekeeper.Clear()
	atomic.StoreUint32(&g.writerInPlace, 0)
}

// ResetForSwitch is the exported form used by algs' OnSwitchTo hooks.
func ResetForSwitch() { global.resetForSwitch() }
