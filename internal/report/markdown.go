package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/regsentry/regsentry/internal/reliability"
)

// Provider health bands for the report status markers.
const (
	providerGoodRate = 0.9
	providerBadRate  = 0.8
)

// maxFailureRows caps the failure-analysis section at the most frequent
// categories.
const maxFailureRows = 5

// Markdown renders the human-readable reliability report. All ordering is
// deterministic: counts descending, names ascending on ties.
func Markdown(snap reliability.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reliability Evaluation Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", snap.GeneratedAt.Format(time.RFC3339))

	o := snap.Overall
	fmt.Fprintf(&b, "## Overall Reliability\n")
	fmt.Fprintf(&b, "- **Success Rate:** %.1f%% (%d/%d attempts)\n",
		o.SuccessRate*100, o.SuccessfulAttempts, o.TotalAttempts)
	fmt.Fprintf(&b, "- **Failure Rate:** %.1f%%\n", o.FailureRate*100)
	if o.MTBFHours != nil {
		fmt.Fprintf(&b, "- **MTBF:** %.1f hours\n", *o.MTBFHours)
	} else {
		fmt.Fprintf(&b, "- **MTBF:** undefined (fewer than two failures)\n")
	}

	fmt.Fprintf(&b, "\n## Recovery Performance\n")
	fmt.Fprintf(&b, "- **Retry Success Rate:** %.1f%%\n", snap.Retry.RetrySuccessRate*100)
	fmt.Fprintf(&b, "- **Average Recovery Time:** %.1f minutes\n", snap.Recovery.AvgMinutes)
	fmt.Fprintf(&b, "- **Max Recovery Time:** %.1f minutes\n", snap.Recovery.MaxMinutes)

	itv := snap.Intervention
	fmt.Fprintf(&b, "\n## Manual Interventions\n")
	fmt.Fprintf(&b, "- **Intervention Rate:** %.1f%% (%d per %d attempts)\n",
		itv.InterventionRate*100, itv.ManualInterventions, o.TotalAttempts)
	if len(itv.ByKind) > 0 {
		fmt.Fprintf(&b, "\n### Intervention Types\n")
		for _, kv := range sortedByCount(itv.ByKind, len(itv.ByKind)) {
			fmt.Fprintf(&b, "- %s: %d\n", title(kv.name), kv.count)
		}
	}

	fmt.Fprintf(&b, "\n## Provider Reliability\n")
	for _, name := range sortedKeys(snap.Providers) {
		m := snap.Providers[name]
		fmt.Fprintf(&b, "- %s **%s:** %.1f%% success rate (%d failures in %d attempts)\n",
			providerStatus(m.SuccessRate), title(name), m.SuccessRate*100, m.Failures, m.TotalAttempts)
	}

	if len(snap.Failures.ByCategory) > 0 {
		fmt.Fprintf(&b, "\n## Failure Analysis\n")
		for _, kv := range sortedByCount(snap.Failures.ByCategory, maxFailureRows) {
			fmt.Fprintf(&b, "- %s: %d occurrences\n", title(kv.name), kv.count)
		}
	}

	return b.String()
}

// providerStatus maps a success rate to its health marker.
func providerStatus(successRate float64) string {
	switch {
	case successRate > providerGoodRate:
		return "✅"
	case successRate < providerBadRate:
		return "❌"
	default:
		return "⚠️"
	}
}

// title turns a wire name like "customer_support" into "Customer Support".
func title(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type countedName struct {
	name  string
	count int
}

// sortedByCount orders map entries by count descending, name ascending on
// ties, truncated to limit.
func sortedByCount(m map[string]int, limit int) []countedName {
	out := make([]countedName, 0, len(m))
	for name, count := range m {
		out = append(out, countedName{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortedKeys(m map[string]reliability.ProviderMetrics) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
