// Package eval wires one evaluation run end to end: original attempts are
// classified, failed ones run their retry cascade, everything lands in the
// ledger, and — only once every cascade has finished — the ledger is
// reduced to a ReliabilitySnapshot.
package eval

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/regsentry/regsentry/internal/cascade"
	"github.com/regsentry/regsentry/internal/config"
	"github.com/regsentry/regsentry/internal/incident"
	"github.com/regsentry/regsentry/internal/ledger"
	"github.com/regsentry/regsentry/internal/reliability"
)

// Evaluator runs reliability evaluations. One Evaluator may serve many
// runs; each run gets its own ledger.
type Evaluator struct {
	classifier *incident.Classifier
	retry      *cascade.Runner

	// draw feeds both classification and retry rounds; tests script it.
	draw func() float64
	now  func() time.Time // injectable for deterministic tests
}

// New builds an Evaluator from the configured provider profiles and retry
// policy. Profile problems (unknown categories, weights not summing to
// 1.0) surface here, before any attempt is processed.
func New(cfg *config.Config, rnd *rand.Rand) (*Evaluator, error) {
	profiles, err := cfg.Profiles()
	if err != nil {
		return nil, err
	}
	classifier, err := incident.NewClassifier(profiles)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	e := &Evaluator{
		classifier: classifier,
		draw:       rnd.Float64,
		now:        time.Now,
	}
	// Late-bind the draw so tests can swap it after construction.
	e.retry = cascade.New(cfg.Retry.Cascade(), func() float64 { return e.draw() })
	return e, nil
}

// Run processes an ordered batch of original attempts and returns the
// finalized ledger and its reliability snapshot.
//
// An unknown provider aborts the run: defaulting its weight table would
// silently corrupt the per-provider breakdown.
func (e *Evaluator) Run(attempts []incident.Attempt) (*ledger.Ledger, reliability.Snapshot, error) {
	led := ledger.New()

	for _, a := range attempts {
		if a.Success {
			led.AppendAttempt(a)
			continue
		}

		out, err := e.classifier.Classify(a.Provider, e.draw())
		if err != nil {
			return nil, reliability.Snapshot{}, fmt.Errorf("eval: attempt %s: %w", a.ID, err)
		}

		inc := incident.New(a, out)
		a.IncidentID = inc.ID
		led.AppendAttempt(a)
		led.AppendIncident(inc)

		for _, retry := range e.retry.Run(a, inc) {
			led.AppendAttempt(retry)
		}
	}

	// All cascades are done — the reduction runs over a finalized ledger.
	snap := reliability.Reduce(led, e.now())

	attemptCount, incidentCount := led.Counts()
	slog.Debug("evaluation run complete",
		"attempts", attemptCount,
		"incidents", incidentCount,
		"failure_rate", snap.Overall.FailureRate,
	)
	return led, snap, nil
}
