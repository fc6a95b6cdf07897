package config

import (
	"testing"
	"time"

	"github.com/regsentry/regsentry/internal/incident"
)

func parseErr(t *testing.T, yaml string) error {
	t.Helper()
	_, err := Parse([]byte(yaml))
	return err
}

func TestParse_Valid(t *testing.T) {
	yaml := `
providers:
  - name: skiclubpro
    weights:
      - category: network_timeout
        weight: 0.7
      - category: program_full
        weight: 0.3
retry:
  max_retries: 2
  spacing: 10m
  success_rate: 0.5
simulation:
  attempts: 50
  seed: 42
output:
  dir: out
  textfile: out/regsentry.prom
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "skiclubpro" {
		t.Errorf("Providers: got %+v", cfg.Providers)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Errorf("max_retries: got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.Spacing != 10*time.Minute {
		t.Errorf("spacing: got %v", cfg.Retry.Spacing)
	}
	if cfg.Simulation.Attempts != 50 {
		t.Errorf("attempts: got %d", cfg.Simulation.Attempts)
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("seed: got %d", cfg.Simulation.Seed)
	}
	if cfg.Output.Textfile != "out/regsentry.prom" {
		t.Errorf("textfile: got %q", cfg.Output.Textfile)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse empty: %v", err)
	}

	if len(cfg.Providers) != 3 {
		t.Fatalf("default providers: got %d, want 3", len(cfg.Providers))
	}
	want := []string{"skiclubpro", "daysmart", "campminder"}
	for i, name := range cfg.ProviderNames() {
		if name != want[i] {
			t.Errorf("provider[%d] = %q, want %q", i, name, want[i])
		}
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.Spacing != 5*time.Minute || cfg.Retry.SuccessRate != 0.8 {
		t.Errorf("default retry: %+v", cfg.Retry)
	}
	if cfg.Simulation.Attempts != DefaultAttempts || cfg.Simulation.FailureRate != DefaultFailureRate {
		t.Errorf("default simulation: %+v", cfg.Simulation)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0].Condition != "success_rate < 0.85" {
		t.Errorf("default thresholds: %+v", cfg.Thresholds)
	}
}

func TestParse_DefaultProfilesAreValidTables(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	profiles, err := cfg.Profiles()
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	// The classifier enforces the sum-to-1.0 invariant; the built-in
	// tables must pass it.
	if _, err := incident.NewClassifier(profiles); err != nil {
		t.Errorf("NewClassifier on default profiles: %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown category", `
providers:
  - name: p
    weights:
      - category: gremlins
        weight: 1.0
`},
		{"missing provider name", `
providers:
  - weights:
      - category: network_timeout
        weight: 1.0
`},
		{"duplicate provider", `
providers:
  - name: p
    weights: [{category: network_timeout, weight: 1.0}]
  - name: p
    weights: [{category: network_timeout, weight: 1.0}]
`},
		{"zero retries", `
retry:
  max_retries: 0
`},
		{"success rate out of range", `
retry:
  success_rate: 1.5
`},
		{"negative window", `
simulation:
  window_days: -1
`},
		{"unknown threshold severity", `
thresholds:
  - name: r
    condition: "success_rate < 0.85"
    severity: catastrophic
`},
		{"threshold without condition", `
thresholds:
  - name: r
    severity: warning
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := parseErr(t, tc.yaml); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestProfiles_RoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(`
providers:
  - name: p
    weights:
      - category: captcha_challenge
        weight: 0.25
      - category: network_timeout
        weight: 0.75
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	profiles, err := cfg.Profiles()
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}
	table := profiles["p"]
	if len(table) != 2 {
		t.Fatalf("table: got %d entries", len(table))
	}
	if table[0].Category != incident.CaptchaChallenge || table[0].Value != 0.25 {
		t.Errorf("table[0] = %+v", table[0])
	}
}
