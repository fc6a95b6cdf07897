// Package cascade drives the bounded retry cascade for a failed signup
// attempt: up to MaxRetries rounds, spaced Spacing apart in logical time,
// each succeeding independently with probability SuccessRate. The cascade
// terminates on the first success, and an exhausted cascade escalates the
// incident to manual intervention.
package cascade

import (
	"time"

	"github.com/regsentry/regsentry/internal/incident"
)

// Defaults mirror the evaluated pipeline's retry policy.
const (
	DefaultMaxRetries  = 3
	DefaultSpacing     = 5 * time.Minute
	DefaultSuccessRate = 0.8
)

// Config is the retry policy for one evaluation run.
type Config struct {
	// MaxRetries is the retry budget per incident.
	MaxRetries int

	// Spacing separates retry round k from the incident at k*Spacing.
	// Timestamps are logical — the cascade never sleeps.
	Spacing time.Duration

	// SuccessRate is the independent per-round success probability.
	SuccessRate float64
}

// DefaultConfig returns the standard 3-round, 5-minute, 0.8 policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  DefaultMaxRetries,
		Spacing:     DefaultSpacing,
		SuccessRate: DefaultSuccessRate,
	}
}

// Runner executes retry cascades. The random draw source is injected so
// tests can force any round sequence.
type Runner struct {
	cfg  Config
	draw func() float64 // uniform in [0,1)
}

// New creates a Runner with the given policy and draw source.
func New(cfg Config, draw func() float64) *Runner {
	return &Runner{cfg: cfg, draw: draw}
}

// Run performs the retry cascade for a failed original attempt, mutating
// inc in place and returning the retry attempts in round order.
//
// Retry-ineligible categories (program_full, payment_declined) skip the
// cascade entirely: no retries, retry_count stays 0, and the incident's
// intervention state is left exactly as the classifier set it.
func (r *Runner) Run(original incident.Attempt, inc *incident.Incident) []incident.Attempt {
	if !inc.Category.Retryable() {
		return nil
	}

	var retries []incident.Attempt
	for round := 1; round <= r.cfg.MaxRetries; round++ {
		at := inc.CreatedAt.Add(time.Duration(round) * r.cfg.Spacing)
		success := r.draw() < r.cfg.SuccessRate

		retries = append(retries, incident.Attempt{
			ID:        incident.RetryAttemptID(original.ID, round),
			UserID:    original.UserID,
			Provider:  original.Provider,
			ProgramID: original.ProgramID,
			Timestamp: at,
			Success:   success,
			RetryOf:   original.ID,
		})

		if success {
			// First success terminates the cascade. Resolve cannot fail
			// here: the incident was unresolved and at > CreatedAt.
			_ = inc.Resolve(at, round)
			return retries
		}
		inc.RetryCount = round
	}

	// Budget exhausted without success: the incident stays unresolved and
	// a human takes over.
	inc.Escalate(incident.CustomerSupport)
	return retries
}
