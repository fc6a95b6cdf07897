// Package threshold evaluates configured pass/fail rules against a
// ReliabilitySnapshot. A rule is a "field operator value" expression such
// as "success_rate < 0.85"; critical violations make the run exit non-zero.
package threshold

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/regsentry/regsentry/internal/config"
	"github.com/regsentry/regsentry/internal/reliability"
)

// SeverityCritical marks a violation that should fail the run.
const SeverityCritical = "critical"

// Violation is one fired rule together with the value that fired it.
type Violation struct {
	Rule  config.ThresholdRule
	Value float64
}

// Critical reports whether the violation should fail the run.
// A rule with no severity defaults to critical — thresholds exist to gate.
func (v Violation) Critical() bool {
	return v.Rule.Severity == SeverityCritical || v.Rule.Severity == ""
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (value %.4f)", v.Rule.Name, v.Rule.Condition, v.Value)
}

// Evaluate tests every rule against the snapshot and returns the
// violations in rule order. A malformed condition or unknown field is a
// configuration error, not a silently-passing rule.
func Evaluate(rules []config.ThresholdRule, snap reliability.Snapshot) ([]Violation, error) {
	var out []Violation
	for i, rule := range rules {
		field, op, threshold, err := parseCondition(rule.Condition)
		if err != nil {
			return nil, fmt.Errorf("threshold: rule %d (%s): %w", i, rule.Name, err)
		}

		value, defined, err := resolveField(field, snap)
		if err != nil {
			return nil, fmt.Errorf("threshold: rule %d (%s): %w", i, rule.Name, err)
		}
		if !defined {
			// MTBF is undefined below two failures; a rule over an
			// undefined value cannot fire.
			continue
		}

		if compare(value, op, threshold) {
			out = append(out, Violation{Rule: rule, Value: value})
		}
	}
	return out, nil
}

// parseCondition splits "field op value" into its parts.
func parseCondition(cond string) (field, op string, threshold float64, err error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("condition %q: want \"field op value\"", cond)
	}
	field, op = parts[0], parts[1]
	switch op {
	case ">", ">=", "<", "<=", "==":
	default:
		return "", "", 0, fmt.Errorf("condition %q: unknown operator %q", cond, op)
	}
	threshold, err = strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("condition %q: bad value: %w", cond, err)
	}
	return field, op, threshold, nil
}

// resolveField maps a field name to its value in the snapshot. The second
// return is false when the field exists but has no defined value.
func resolveField(field string, snap reliability.Snapshot) (float64, bool, error) {
	switch field {
	case "success_rate":
		return snap.Overall.SuccessRate, true, nil
	case "failure_rate":
		return snap.Overall.FailureRate, true, nil
	case "retry_success_rate":
		return snap.Retry.RetrySuccessRate, true, nil
	case "intervention_rate":
		return snap.Intervention.InterventionRate, true, nil
	case "avg_recovery_time_minutes":
		return snap.Recovery.AvgMinutes, true, nil
	case "max_recovery_time_minutes":
		return snap.Recovery.MaxMinutes, true, nil
	case "mtbf_hours":
		if snap.Overall.MTBFHours == nil {
			return 0, false, nil
		}
		return *snap.Overall.MTBFHours, true, nil
	default:
		return 0, false, fmt.Errorf("unknown field %q", field)
	}
}

// compare applies a comparison operator to two float64 values.
func compare(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
