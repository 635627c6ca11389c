// Package rtmmetrics exposes prometheus counters and gauges for anyone
// embedding this library in a long-running server, running alongside --
// not instead of -- the spec §6 shutdown stats table, which stays the
// authoritative per-run dump.
package rtmmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CommitsRO counts read-only commits, labeled by thread id.
	CommitsRO = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtm_commits_ro_total",
		Help: "Total committed read-only transactions.",
	}, []string{"thread"})

	// CommitsRW counts read-write commits, labeled by thread id.
	CommitsRW = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtm_commits_rw_total",
		Help: "Total committed read-write transactions.",
	}, []string{"thread"})

	// Aborts counts aborts, labeled by thread id and abort reason
	// (conflict/seal/timeout/swap).
	Aborts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtm_aborts_total",
		Help: "Total aborted transactions.",
	}, []string{"thread", "reason"})

	// ActiveAlgorithm is set to 1 for the currently installed algorithm
	// and 0 for every other registered algorithm name.
	ActiveAlgorithm = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rtm_active_algorithm",
		Help: "1 for the currently installed algorithm, 0 otherwise.",
	}, []string{"algorithm"})
)

// MustRegister registers every rtmmetrics collector with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(CommitsRO, CommitsRW, Aborts, ActiveAlgorithm)
}

// SetActiveAlgorithm flips the gauge so exactly one algorithm name reads 1.
func SetActiveAlgorithm(names []string, active string) {
	for _, name := range names {
		if name == active {
			ActiveAlgorithm.WithLabelValues(name).Set(1)
		} else {
			ActiveAlgorithm.WithLabelValues(name).Set(0)
		}
	}
}
