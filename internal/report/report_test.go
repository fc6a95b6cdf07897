package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/regsentry/regsentry/internal/reliability"
)

func sampleSnapshot() reliability.Snapshot {
	mtbf := 6.5
	return reliability.Snapshot{
		GeneratedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		Overall: reliability.OverallMetrics{
			TotalAttempts:      110,
			SuccessfulAttempts: 95,
			FailedAttempts:     15,
			FailureRate:        15.0 / 110.0,
			SuccessRate:        95.0 / 110.0,
			MTBFHours:          &mtbf,
		},
		Retry: reliability.RetryMetrics{
			TotalRetries:      12,
			SuccessfulRetries: 8,
			RetrySuccessRate:  0.8,
		},
		Recovery: reliability.RecoveryMetrics{
			AvgMinutes: 7.5, MaxMinutes: 15, ResolvedIncidents: 8, TotalIncidents: 10,
		},
		Intervention: reliability.InterventionMetrics{
			ManualInterventions: 3,
			InterventionRate:    3.0 / 110.0,
			ByKind:              map[string]int{"customer_support": 2, "manual_login": 1},
		},
		Failures: reliability.FailureAnalysis{
			ByCategory: map[string]int{"network_timeout": 6, "program_full": 4},
			MostCommon: "network_timeout",
		},
		Providers: map[string]reliability.ProviderMetrics{
			"skiclubpro": {TotalAttempts: 60, Failures: 3, FailureRate: 0.05, SuccessRate: 0.95},
			"campminder": {TotalAttempts: 50, Failures: 12, FailureRate: 0.24, SuccessRate: 0.76},
		},
	}
}

func TestMarkdown_Sections(t *testing.T) {
	md := Markdown(sampleSnapshot())

	for _, want := range []string{
		"# Reliability Evaluation Report",
		"Generated: 2026-07-01T12:00:00Z",
		"**Success Rate:** 86.4% (95/110 attempts)",
		"**MTBF:** 6.5 hours",
		"**Retry Success Rate:** 80.0%",
		"**Average Recovery Time:** 7.5 minutes",
		"**Intervention Rate:** 2.7% (3 per 110 attempts)",
		"- Customer Support: 2",
		"- Manual Login: 1",
		"✅ **Skiclubpro:** 95.0% success rate (3 failures in 60 attempts)",
		"❌ **Campminder:** 76.0% success rate (12 failures in 50 attempts)",
		"- Network Timeout: 6 occurrences",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q\n---\n%s", want, md)
		}
	}
}

func TestMarkdown_UndefinedMTBF(t *testing.T) {
	snap := sampleSnapshot()
	snap.Overall.MTBFHours = nil

	md := Markdown(snap)
	if !strings.Contains(md, "**MTBF:** undefined") {
		t.Errorf("undefined MTBF not rendered distinctly:\n%s", md)
	}
	if strings.Contains(md, "**MTBF:** 0.0") {
		t.Error("undefined MTBF must not render as zero")
	}
}

func TestProviderStatus_Bands(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0.95, "✅"},
		{0.85, "⚠️"},
		{0.9, "⚠️"}, // boundary: good requires strictly above 0.9
		{0.8, "⚠️"}, // boundary: bad requires strictly below 0.8
		{0.75, "❌"},
	}
	for _, tc := range tests {
		if got := providerStatus(tc.rate); got != tc.want {
			t.Errorf("providerStatus(%.2f) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := sampleSnapshot()

	path, err := WriteJSON(dir, snap)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if want := "reliability_results_20260701_120000.json"; !strings.HasSuffix(path, want) {
		t.Errorf("path = %q, want suffix %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got reliability.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Overall.TotalAttempts != 110 || got.Failures.MostCommon != "network_timeout" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Overall.MTBFHours == nil || *got.Overall.MTBFHours != 6.5 {
		t.Errorf("MTBFHours round trip: %v", got.Overall.MTBFHours)
	}
}

func TestWriteJSON_UndefinedMTBFIsNull(t *testing.T) {
	snap := sampleSnapshot()
	snap.Overall.MTBFHours = nil

	path, err := WriteJSON(t.TempDir(), snap)
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), `"mtbf_hours": null`) {
		t.Error("undefined MTBF must serialize as null, not 0")
	}
}
