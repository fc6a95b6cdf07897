// Package reliability reduces a finalized run ledger into a
// ReliabilitySnapshot: failure rate, retry effectiveness, MTBF,
// recovery-time statistics, intervention breakdown and per-provider
// reliability.
//
// Reduce is pure and runs only after every cascade has completed; there is
// no streaming or partial reduction. Degenerate denominators resolve to 0,
// except MTBF which is undefined (nil) below two failures.
package reliability
