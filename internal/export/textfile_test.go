package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/regsentry/regsentry/internal/reliability"
)

func sampleSnapshot() reliability.Snapshot {
	mtbf := 4.25
	return reliability.Snapshot{
		GeneratedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		Overall: reliability.OverallMetrics{
			TotalAttempts: 120, FailedAttempts: 18, SuccessfulAttempts: 102,
			FailureRate: 0.15, SuccessRate: 0.85, MTBFHours: &mtbf,
		},
		Retry:    reliability.RetryMetrics{RetrySuccessRate: 0.75},
		Recovery: reliability.RecoveryMetrics{AvgMinutes: 8, MaxMinutes: 15, TotalIncidents: 15, ResolvedIncidents: 11},
		Intervention: reliability.InterventionMetrics{
			InterventionRate: 0.05,
			ByKind:           map[string]int{"customer_support": 4},
		},
		Failures: reliability.FailureAnalysis{
			ByCategory: map[string]int{"network_timeout": 9, "program_full": 6},
			MostCommon: "network_timeout",
		},
		Providers: map[string]reliability.ProviderMetrics{
			"skiclubpro": {TotalAttempts: 60, Failures: 6, FailureRate: 0.1, SuccessRate: 0.9},
			"daysmart":   {TotalAttempts: 60, Failures: 12, FailureRate: 0.2, SuccessRate: 0.8},
		},
	}
}

func TestEncode_ParsesBackCleanly(t *testing.T) {
	var b strings.Builder
	if err := Encode(&b, sampleSnapshot()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// The exposition must round-trip through the reference parser.
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse exposition: %v\n---\n%s", err, b.String())
	}

	tests := []struct {
		family string
		value  float64
	}{
		{"regsentry_attempts", 120},
		{"regsentry_failure_rate", 0.15},
		{"regsentry_success_rate", 0.85},
		{"regsentry_mtbf_hours", 4.25},
		{"regsentry_incidents_resolved", 11},
	}
	for _, tc := range tests {
		mf, ok := mfs[tc.family]
		if !ok {
			t.Errorf("family %s missing", tc.family)
			continue
		}
		if got := mf.GetMetric()[0].GetGauge().GetValue(); got != tc.value {
			t.Errorf("%s = %v, want %v", tc.family, got, tc.value)
		}
	}

	failures, ok := mfs["regsentry_failures"]
	if !ok {
		t.Fatal("regsentry_failures missing")
	}
	if len(failures.GetMetric()) != 2 {
		t.Errorf("failures series: got %d, want 2", len(failures.GetMetric()))
	}
	// Label-sorted: network_timeout before program_full.
	first := failures.GetMetric()[0]
	if first.GetLabel()[0].GetValue() != "network_timeout" || first.GetGauge().GetValue() != 9 {
		t.Errorf("first failures series = %v", first)
	}
}

func TestEncode_UndefinedMTBFOmitsSeries(t *testing.T) {
	snap := sampleSnapshot()
	snap.Overall.MTBFHours = nil

	var b strings.Builder
	if err := Encode(&b, snap); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(b.String(), "mtbf_hours") {
		t.Error("undefined MTBF must be omitted, not exported as 0")
	}
}

func TestEncode_EmptySnapshot(t *testing.T) {
	// A run with no attempts still encodes — empty labeled families are
	// skipped rather than tripping the encoder.
	var b strings.Builder
	if err := Encode(&b, reliability.Snapshot{}); err != nil {
		t.Fatalf("Encode empty snapshot: %v", err)
	}
	if !strings.Contains(b.String(), "regsentry_attempts 0") {
		t.Errorf("exposition:\n%s", b.String())
	}
}

func TestEncode_Deterministic(t *testing.T) {
	var a, b strings.Builder
	if err := Encode(&a, sampleSnapshot()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := Encode(&b, sampleSnapshot()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a.String() != b.String() {
		t.Error("identical snapshots must encode identically")
	}
}

func TestWriteFile_AtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "regsentry.prom")

	if err := WriteFile(path, sampleSnapshot()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "regsentry_failure_rate 0.15") {
		t.Errorf("textfile content:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("sidecar tmp file left behind")
	}
}
