// Package rtm implements a library of software transactional memory
// algorithms: ownership-record families (eager and lazy acquire), a
// value-validation (NOrec) algorithm, bytelock-based (TLRW) locking,
// commit-token/ordered algorithms, batched-commit cohort algorithms, and a
// master/helper fastlane algorithm. A process installs one algorithm at a
// time through the dispatch table in dispatch.go; application code runs a
// transaction as a closure passed to Atomically, which retries it on abort;
// inside it, BeginTx/ReadBarrier/WriteBarrier/CommitTx dispatch through the
// currently installed algorithm's per-thread function pointers.
//
// The individual algorithms live in the algs subpackage, grounded on the
// RSTM C++ implementations they are named after. This package holds the
// primitives every algorithm shares: ownership records, bytelocks, bitlocks,
// bloom filters, the read/write/undo logs, the per-thread descriptor, the
// dispatch table, and the adaptivity (hot algorithm swap) mechanism.
package rtm
