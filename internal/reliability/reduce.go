package reliability

import (
	"sort"
	"time"

	"github.com/regsentry/regsentry/internal/incident"
)

// View is the read-only slice of a run's ledger that the reduction needs.
// *ledger.Ledger satisfies it.
type View interface {
	Attempts() []incident.Attempt
	Incidents() []incident.Incident
}

// Reduce computes the reliability snapshot over a finalized run. It is a
// pure function of the view: no entity is created or mutated, and every
// zero-denominator ratio resolves to 0 (MTBF resolves to nil instead —
// "undefined" with fewer than two failures).
//
// now is stamped into the snapshot; callers (and tests) control the clock.
func Reduce(v View, now time.Time) Snapshot {
	attempts := v.Attempts()
	incidents := v.Incidents()

	snap := Snapshot{
		GeneratedAt: now,
		Providers:   make(map[string]ProviderMetrics),
	}

	var failed, successfulRetries, totalRetries, originalFailures int
	var failureTimes []time.Time
	for _, a := range attempts {
		if !a.Success {
			failed++
			failureTimes = append(failureTimes, a.Timestamp)
		}
		if a.IsRetry() {
			totalRetries++
			if a.Success {
				successfulRetries++
			}
		} else if !a.Success {
			originalFailures++
		}
	}

	total := len(attempts)
	snap.Overall = OverallMetrics{
		TotalAttempts:      total,
		SuccessfulAttempts: total - failed,
		FailedAttempts:     failed,
		FailureRate:        ratio(failed, total),
		SuccessRate:        1 - ratio(failed, total),
		MTBFHours:          mtbfHours(failureTimes),
	}
	if total == 0 {
		// 0/0 policy: both rates are 0, not 1 - 0.
		snap.Overall.SuccessRate = 0
	}

	snap.Retry = RetryMetrics{
		TotalRetries:         totalRetries,
		SuccessfulRetries:    successfulRetries,
		RetrySuccessRate:     ratio(successfulRetries, originalFailures),
		AvgRetriesPerFailure: ratio(totalRetries, originalFailures),
	}

	snap.Recovery, snap.Intervention = reduceIncidents(incidents, total)
	snap.Failures = reduceFailureTypes(incidents)
	snap.Providers = reduceProviders(attempts)
	return snap
}

// mtbfHours returns the mean gap between consecutive failures in hours,
// or nil (undefined) with fewer than two failures.
func mtbfHours(failureTimes []time.Time) *float64 {
	if len(failureTimes) < 2 {
		return nil
	}
	sort.Slice(failureTimes, func(i, j int) bool { return failureTimes[i].Before(failureTimes[j]) })

	var totalGap time.Duration
	for i := 1; i < len(failureTimes); i++ {
		totalGap += failureTimes[i].Sub(failureTimes[i-1])
	}
	hours := totalGap.Hours() / float64(len(failureTimes)-1)
	return &hours
}

func reduceIncidents(incidents []incident.Incident, totalAttempts int) (RecoveryMetrics, InterventionMetrics) {
	rec := RecoveryMetrics{TotalIncidents: len(incidents)}
	itv := InterventionMetrics{ByKind: make(map[string]int)}

	var recoverySum, recoveryMax float64
	for _, in := range incidents {
		if minutes, ok := in.RecoveryTime(); ok {
			rec.ResolvedIncidents++
			recoverySum += minutes
			if minutes > recoveryMax {
				recoveryMax = minutes
			}
		}
		if in.ManualIntervention {
			itv.ManualInterventions++
			if in.Intervention != incident.KindNone {
				itv.ByKind[in.Intervention.String()]++
			}
		}
	}
	if rec.ResolvedIncidents > 0 {
		rec.AvgMinutes = recoverySum / float64(rec.ResolvedIncidents)
		rec.MaxMinutes = recoveryMax
	}
	itv.InterventionRate = ratio(itv.ManualInterventions, totalAttempts)
	return rec, itv
}

func reduceFailureTypes(incidents []incident.Incident) FailureAnalysis {
	counts := make(map[incident.Category]int)
	for _, in := range incidents {
		counts[in.Category]++
	}

	fa := FailureAnalysis{ByCategory: make(map[string]int, len(counts))}
	// Walk categories in declaration order so equal counts break ties
	// deterministically.
	best := -1
	for _, c := range incident.Categories() {
		n := counts[c]
		if n == 0 {
			continue
		}
		fa.ByCategory[c.String()] = n
		if n > best {
			best = n
			fa.MostCommon = c.String()
		}
	}
	return fa
}

func reduceProviders(attempts []incident.Attempt) map[string]ProviderMetrics {
	out := make(map[string]ProviderMetrics)
	for _, a := range attempts {
		m := out[a.Provider]
		m.TotalAttempts++
		if !a.Success {
			m.Failures++
		}
		out[a.Provider] = m
	}
	for provider, m := range out {
		m.FailureRate = ratio(m.Failures, m.TotalAttempts)
		m.SuccessRate = 1 - m.FailureRate
		out[provider] = m
	}
	return out
}

// ratio divides n by d, resolving the 0-denominator degenerate case to 0.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
