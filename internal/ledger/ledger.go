package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/regsentry/regsentry/internal/incident"
)

// Ledger is the authoritative record of all attempts and incidents for one
// evaluation run. Attempts are append-only and immutable; incidents are
// mutated only through the retry cascade and Resolve.
//
// A run is built single-threaded, but appends and mutations are serialized
// with a mutex so independent cascades may be run concurrently without
// changing the ledger contract.
type Ledger struct {
	mu        sync.RWMutex
	attempts  []incident.Attempt
	incidents []*incident.Incident
	byID      map[string]*incident.Incident
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{byID: make(map[string]*incident.Incident)}
}

// AppendAttempt records an attempt. Creation order is preserved and is the
// order every query returns.
func (l *Ledger) AppendAttempt(a incident.Attempt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, a)
}

// AppendIncident records an incident. The ledger takes ownership of the
// pointer; later cascade mutations are visible through the ledger.
func (l *Ledger) AppendIncident(in *incident.Incident) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.incidents = append(l.incidents, in)
	l.byID[in.ID] = in
}

// Resolve marks the incident with the given ID resolved. Resolving an
// unknown or already-resolved incident is a caller defect and returns an
// error rather than being silently ignored.
func (l *Ledger) Resolve(id string, at time.Time, retries int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	in, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("ledger: unknown incident %q", id)
	}
	return in.Resolve(at, retries)
}

// Attempts returns all attempts in creation order.
func (l *Ledger) Attempts() []incident.Attempt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]incident.Attempt(nil), l.attempts...)
}

// Incidents returns value copies of all incidents in creation order.
// Copies keep readers isolated from later cascade mutations.
func (l *Ledger) Incidents() []incident.Incident {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]incident.Incident, 0, len(l.incidents))
	for _, in := range l.incidents {
		out = append(out, *in)
	}
	return out
}

// AttemptsByProvider returns all attempts for one provider, in creation order.
func (l *Ledger) AttemptsByProvider(provider string) []incident.Attempt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []incident.Attempt
	for _, a := range l.attempts {
		if a.Provider == provider {
			out = append(out, a)
		}
	}
	return out
}

// IncidentsByResolved returns copies of incidents filtered by resolution state.
func (l *Ledger) IncidentsByResolved(resolved bool) []incident.Incident {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []incident.Incident
	for _, in := range l.incidents {
		if in.Resolved == resolved {
			out = append(out, *in)
		}
	}
	return out
}

// RetriesOf returns the retry attempts of the given original attempt, in
// creation order (which is cascade round order).
func (l *Ledger) RetriesOf(originalID string) []incident.Attempt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []incident.Attempt
	for _, a := range l.attempts {
		if a.RetryOf == originalID {
			out = append(out, a)
		}
	}
	return out
}

// Counts returns the number of attempts and incidents recorded.
func (l *Ledger) Counts() (attempts, incidents int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.attempts), len(l.incidents)
}
