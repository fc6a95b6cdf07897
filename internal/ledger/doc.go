// Package ledger holds the append-only record of attempts and incidents
// for one evaluation run. It is the single source the metrics engine
// reduces over; it never computes anything itself.
package ledger
