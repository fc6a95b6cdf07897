// Package simulate generates the synthetic signup attempt batch that feeds
// an evaluation run: a fixed number of original attempts spread over a
// trailing time window, cycling through the configured providers, with a
// fixed per-attempt failure probability.
//
// The generator is a collaborator of the core, not part of it — the core
// consumes any ordered attempt sequence.
package simulate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/regsentry/regsentry/internal/config"
	"github.com/regsentry/regsentry/internal/incident"
)

// Generator produces synthetic attempt batches. The random source is
// injected so runs are reproducible under a fixed seed.
type Generator struct {
	providers []string
	sim       config.SimulationConfig
	rnd       *rand.Rand
}

// New creates a Generator for the configured providers and batch shape.
func New(cfg *config.Config, rnd *rand.Rand) *Generator {
	return &Generator{
		providers: cfg.ProviderNames(),
		sim:       cfg.Simulation,
		rnd:       rnd,
	}
}

// Batch generates the ordered original-attempt sequence. Timestamps are
// spread uniformly over the trailing WindowDays ending at now; providers
// are assigned round-robin in config declaration order so every provider
// gets comparable volume.
func (g *Generator) Batch(now time.Time) []incident.Attempt {
	out := make([]incident.Attempt, 0, g.sim.Attempts)
	for i := 0; i < g.sim.Attempts; i++ {
		out = append(out, incident.Attempt{
			ID:        fmt.Sprintf("signup_%04d", i),
			UserID:    fmt.Sprintf("user_%d", (i%g.sim.Users)+1),
			Provider:  g.providers[i%len(g.providers)],
			ProgramID: fmt.Sprintf("program_%d", (i%g.sim.Programs)+1),
			Timestamp: now.AddDate(0, 0, -g.rnd.Intn(g.sim.WindowDays+1)),
			Success:   g.rnd.Float64() >= g.sim.FailureRate,
		})
	}
	return out
}
