package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/regsentry/regsentry/internal/cascade"
	"github.com/regsentry/regsentry/internal/incident"
)

// Default values applied when fields are absent from the config file.
// Simulation defaults mirror the standard evaluation batch: 100 attempts
// from 20 users over 10 programs across a 30-day window at a 15% failure
// rate.
const (
	DefaultAttempts    = 100
	DefaultUsers       = 20
	DefaultPrograms    = 10
	DefaultWindowDays  = 30
	DefaultFailureRate = 0.15
)

// Config is the top-level configuration for one evaluation run.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	// Providers holds the per-provider failure profiles. Every provider
	// that appears in the attempt batch must be listed; the classifier
	// refuses unknown providers.
	Providers []ProviderProfile `yaml:"providers"`

	// Retry is the cascade policy applied to retry-eligible failures.
	Retry RetryConfig `yaml:"retry"`

	// Simulation controls the synthetic attempt batch.
	Simulation SimulationConfig `yaml:"simulation"`

	// Thresholds are the pass/fail rules evaluated against the snapshot.
	Thresholds []ThresholdRule `yaml:"thresholds"`

	// Output controls where results land.
	Output OutputConfig `yaml:"output"`
}

// ProviderProfile is one provider's weighted failure distribution.
// Declaration order in the file is the round-robin order used by the
// simulator.
type ProviderProfile struct {
	Name    string           `yaml:"name"`
	Weights []CategoryWeight `yaml:"weights"`
}

// CategoryWeight is one (category, weight) pair; weights per provider must
// sum to 1.0.
type CategoryWeight struct {
	Category string  `yaml:"category"`
	Weight   float64 `yaml:"weight"`
}

// RetryConfig is the retry cascade policy.
type RetryConfig struct {
	// MaxRetries is the per-incident retry budget.
	MaxRetries int `yaml:"max_retries"`

	// Spacing separates consecutive retry rounds (logical time).
	Spacing time.Duration `yaml:"spacing"`

	// SuccessRate is the independent per-round success probability.
	SuccessRate float64 `yaml:"success_rate"`
}

// Cascade converts the policy to the cascade package's config.
func (r RetryConfig) Cascade() cascade.Config {
	return cascade.Config{
		MaxRetries:  r.MaxRetries,
		Spacing:     r.Spacing,
		SuccessRate: r.SuccessRate,
	}
}

// SimulationConfig controls the synthetic attempt batch.
type SimulationConfig struct {
	Attempts   int `yaml:"attempts"`
	Users      int `yaml:"users"`
	Programs   int `yaml:"programs"`
	WindowDays int `yaml:"window_days"`

	// FailureRate is the probability that an original attempt fails.
	FailureRate float64 `yaml:"failure_rate"`

	// Seed fixes the random source for reproducible runs; 0 derives a
	// seed from the clock.
	Seed int64 `yaml:"seed"`
}

// ThresholdRule defines a pass/fail condition over the snapshot, e.g.
// "success_rate < 0.85". A run with critical violations exits non-zero.
type ThresholdRule struct {
	// Name is the human-readable rule identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "success_rate < 0.85" or
	// "intervention_rate > 0.2".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning.
	Severity string `yaml:"severity"`
}

// OutputConfig controls result artifacts.
type OutputConfig struct {
	// Dir is where the JSON results file is written.
	Dir string `yaml:"dir"`

	// Textfile, when set, is the path of a Prometheus textfile-collector
	// export of the snapshot (e.g. /var/lib/node_exporter/regsentry.prom).
	Textfile string `yaml:"textfile"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes config YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with the built-in provider
// profiles and the standard retry and simulation policies.
func Default() *Config {
	return &Config{
		Providers: defaultProfiles(),
		Retry: RetryConfig{
			MaxRetries:  cascade.DefaultMaxRetries,
			Spacing:     cascade.DefaultSpacing,
			SuccessRate: cascade.DefaultSuccessRate,
		},
		Simulation: SimulationConfig{
			Attempts:    DefaultAttempts,
			Users:       DefaultUsers,
			Programs:    DefaultPrograms,
			WindowDays:  DefaultWindowDays,
			FailureRate: DefaultFailureRate,
		},
		Thresholds: []ThresholdRule{
			{Name: "minimum-success-rate", Condition: "success_rate < 0.85", Severity: "critical"},
		},
		Output: OutputConfig{Dir: "."},
	}
}

// defaultProfiles returns the built-in failure profiles. Each provider
// fails differently: skiclubpro leans on auth and rate limiting, daysmart
// on form validation and full programs, campminder on full programs.
func defaultProfiles() []ProviderProfile {
	return []ProviderProfile{
		{Name: "skiclubpro", Weights: []CategoryWeight{
			{Category: "authentication_failed", Weight: 0.3},
			{Category: "rate_limited", Weight: 0.2},
			{Category: "network_timeout", Weight: 0.2},
			{Category: "payment_declined", Weight: 0.15},
			{Category: "site_maintenance", Weight: 0.1},
			{Category: "captcha_challenge", Weight: 0.05},
		}},
		{Name: "daysmart", Weights: []CategoryWeight{
			{Category: "form_validation_error", Weight: 0.25},
			{Category: "program_full", Weight: 0.25},
			{Category: "network_timeout", Weight: 0.2},
			{Category: "authentication_failed", Weight: 0.15},
			{Category: "payment_declined", Weight: 0.15},
		}},
		{Name: "campminder", Weights: []CategoryWeight{
			{Category: "program_full", Weight: 0.4},
			{Category: "payment_declined", Weight: 0.2},
			{Category: "network_timeout", Weight: 0.2},
			{Category: "authentication_failed", Weight: 0.2},
		}},
	}
}

// ProviderNames returns the provider names in declaration order.
func (c *Config) ProviderNames() []string {
	out := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		out = append(out, p.Name)
	}
	return out
}

// Profiles converts the configured provider tables into classifier weight
// tables, resolving category names.
func (c *Config) Profiles() (map[string][]incident.Weight, error) {
	out := make(map[string][]incident.Weight, len(c.Providers))
	for _, p := range c.Providers {
		table := make([]incident.Weight, 0, len(p.Weights))
		for _, w := range p.Weights {
			cat, err := incident.ParseCategory(w.Category)
			if err != nil {
				return nil, fmt.Errorf("config: provider %q: %w", p.Name, err)
			}
			table = append(table, incident.Weight{Category: cat, Value: w.Weight})
		}
		out[p.Name] = table
	}
	return out, nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("providers: at least one provider profile is required")
	}
	seen := make(map[string]bool, len(cfg.Providers))
	for i, p := range cfg.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("providers[%d]: duplicate provider %q", i, p.Name)
		}
		seen[p.Name] = true
		if len(p.Weights) == 0 {
			return fmt.Errorf("providers[%d] %q: weights are required", i, p.Name)
		}
		for _, w := range p.Weights {
			if _, err := incident.ParseCategory(w.Category); err != nil {
				return fmt.Errorf("providers[%d] %q: %w", i, p.Name, err)
			}
		}
	}

	if cfg.Retry.MaxRetries <= 0 {
		return fmt.Errorf("retry.max_retries must be positive")
	}
	if cfg.Retry.Spacing <= 0 {
		return fmt.Errorf("retry.spacing must be positive")
	}
	if cfg.Retry.SuccessRate < 0 || cfg.Retry.SuccessRate > 1 {
		return fmt.Errorf("retry.success_rate must be in [0,1]")
	}

	if cfg.Simulation.Attempts <= 0 {
		return fmt.Errorf("simulation.attempts must be positive")
	}
	if cfg.Simulation.Users <= 0 {
		return fmt.Errorf("simulation.users must be positive")
	}
	if cfg.Simulation.Programs <= 0 {
		return fmt.Errorf("simulation.programs must be positive")
	}
	if cfg.Simulation.WindowDays < 0 {
		return fmt.Errorf("simulation.window_days must not be negative")
	}
	if cfg.Simulation.FailureRate < 0 || cfg.Simulation.FailureRate > 1 {
		return fmt.Errorf("simulation.failure_rate must be in [0,1]")
	}

	for i, r := range cfg.Thresholds {
		if r.Condition == "" {
			return fmt.Errorf("thresholds[%d]: condition is required", i)
		}
		switch r.Severity {
		case "critical", "warning", "":
		default:
			return fmt.Errorf("thresholds[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}

	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	return nil
}
