// Package export encodes a ReliabilitySnapshot as Prometheus text
// exposition, suitable for the node_exporter textfile collector. The
// snapshot is a finished batch result, so every metric is a gauge.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/regsentry/regsentry/internal/reliability"
)

// namespace prefixes every exported metric name.
const namespace = "regsentry"

// Encode writes the snapshot to w in Prometheus text exposition format.
// Metric families are emitted in a fixed order and labeled series are
// sorted, so identical snapshots encode byte-identically.
func Encode(w io.Writer, snap reliability.Snapshot) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families(snap) {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("export: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile atomically replaces path with the encoded snapshot, the write
// discipline the textfile collector expects (write sidecar, then rename).
func WriteFile(path string, snap reliability.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", tmp, err)
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export: rename into place: %w", err)
	}
	return nil
}

func families(snap reliability.Snapshot) []*dto.MetricFamily {
	out := []*dto.MetricFamily{
		gauge("attempts", "Total signup attempts in the evaluated batch, retries included.",
			float64(snap.Overall.TotalAttempts)),
		gauge("failure_rate", "Failed attempts over total attempts.",
			snap.Overall.FailureRate),
		gauge("success_rate", "Successful attempts over total attempts.",
			snap.Overall.SuccessRate),
		gauge("retry_success_rate", "Successful retries over original failures.",
			snap.Retry.RetrySuccessRate),
		gauge("intervention_rate", "Incidents needing manual intervention over total attempts.",
			snap.Intervention.InterventionRate),
		gauge("recovery_time_minutes_avg", "Mean minutes from incident to resolution.",
			snap.Recovery.AvgMinutes),
		gauge("recovery_time_minutes_max", "Longest minutes from incident to resolution.",
			snap.Recovery.MaxMinutes),
		gauge("incidents", "Total incidents opened in the batch.",
			float64(snap.Recovery.TotalIncidents)),
		gauge("incidents_resolved", "Incidents resolved by the retry cascade.",
			float64(snap.Recovery.ResolvedIncidents)),
	}

	// MTBF is undefined below two failures; the series is omitted rather
	// than exported as a misleading zero.
	if snap.Overall.MTBFHours != nil {
		out = append(out, gauge("mtbf_hours", "Mean hours between consecutive failures.",
			*snap.Overall.MTBFHours))
	}

	// The text encoder rejects empty families, so labeled families are
	// only emitted when they carry at least one series.
	if len(snap.Failures.ByCategory) > 0 {
		out = append(out, labeledGauge("failures", "Incidents per failure category.", "category",
			snap.Failures.ByCategory))
	}
	if len(snap.Intervention.ByKind) > 0 {
		out = append(out, labeledGauge("interventions", "Escalated incidents per intervention kind.", "kind",
			snap.Intervention.ByKind))
	}

	if len(snap.Providers) > 0 {
		providerAttempts := make(map[string]float64, len(snap.Providers))
		providerFailureRate := make(map[string]float64, len(snap.Providers))
		for name, m := range snap.Providers {
			providerAttempts[name] = float64(m.TotalAttempts)
			providerFailureRate[name] = m.FailureRate
		}
		out = append(out,
			labeledGaugeF("provider_attempts", "Attempts per provider.", "provider", providerAttempts),
			labeledGaugeF("provider_failure_rate", "Failure rate per provider.", "provider", providerFailureRate),
		)
	}
	return out
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strPtr(namespace + "_" + name),
		Help:   strPtr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: f64Ptr(value)}}},
	}
}

func labeledGauge(name, help, label string, values map[string]int) *dto.MetricFamily {
	fv := make(map[string]float64, len(values))
	for k, v := range values {
		fv[k] = float64(v)
	}
	return labeledGaugeF(name, help, label, fv)
}

func labeledGaugeF(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	metrics := make([]*dto.Metric, 0, len(keys))
	for _, k := range keys {
		metrics = append(metrics, &dto.Metric{
			Label: []*dto.LabelPair{{Name: strPtr(label), Value: strPtr(k)}},
			Gauge: &dto.Gauge{Value: f64Ptr(values[k])},
		})
	}
	return &dto.MetricFamily{
		Name:   strPtr(namespace + "_" + name),
		Help:   strPtr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
