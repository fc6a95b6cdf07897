package threshold

import (
	"testing"

	"github.com/regsentry/regsentry/internal/config"
	"github.com/regsentry/regsentry/internal/reliability"
)

func snapWith(successRate float64, mtbf *float64) reliability.Snapshot {
	return reliability.Snapshot{
		Overall: reliability.OverallMetrics{
			SuccessRate: successRate,
			FailureRate: 1 - successRate,
			MTBFHours:   mtbf,
		},
		Intervention: reliability.InterventionMetrics{InterventionRate: 0.1},
	}
}

func rule(name, cond, severity string) config.ThresholdRule {
	return config.ThresholdRule{Name: name, Condition: cond, Severity: severity}
}

func TestEvaluate_FiresAndPasses(t *testing.T) {
	tests := []struct {
		name        string
		successRate float64
		wantFired   bool
	}{
		{"below threshold fires", 0.80, true},
		{"at threshold passes", 0.85, false},
		{"above threshold passes", 0.95, false},
	}
	rules := []config.ThresholdRule{rule("min-success", "success_rate < 0.85", "critical")}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(rules, snapWith(tc.successRate, nil))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if fired := len(got) == 1; fired != tc.wantFired {
				t.Errorf("fired = %v, want %v", fired, tc.wantFired)
			}
			if tc.wantFired {
				if got[0].Value != tc.successRate {
					t.Errorf("Value = %v, want %v", got[0].Value, tc.successRate)
				}
				if !got[0].Critical() {
					t.Error("critical rule must report Critical")
				}
			}
		})
	}
}

func TestEvaluate_UndefinedMTBFNeverFires(t *testing.T) {
	rules := []config.ThresholdRule{rule("mtbf-floor", "mtbf_hours < 100", "warning")}

	got, err := Evaluate(rules, snapWith(1, nil))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("undefined MTBF fired a rule: %v", got)
	}

	two := 2.0
	got, err = Evaluate(rules, snapWith(1, &two))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("defined MTBF of 2h should fire the <100 rule")
	}
}

func TestEvaluate_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cond string
	}{
		{"malformed expression", "success_rate <"},
		{"unknown operator", "success_rate ~ 0.85"},
		{"unparsable value", "success_rate < high"},
		{"unknown field", "vibes < 0.85"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate([]config.ThresholdRule{rule("r", tc.cond, "")}, snapWith(1, nil))
			if err == nil {
				t.Error("expected configuration error, got nil")
			}
		})
	}
}

func TestViolation_SeverityDefaultsToCritical(t *testing.T) {
	v := Violation{Rule: rule("r", "success_rate < 1", "")}
	if !v.Critical() {
		t.Error("empty severity must default to critical")
	}
	v.Rule.Severity = "warning"
	if v.Critical() {
		t.Error("warning severity must not be critical")
	}
}
