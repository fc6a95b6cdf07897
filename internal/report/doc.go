// Package report renders a ReliabilitySnapshot for humans and machines:
// a Markdown report and a timestamped JSON results file. It is a read-only
// consumer of the snapshot — no metric is computed here.
package report
