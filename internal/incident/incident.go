package incident

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attempt is one signup attempt — either an original attempt from the
// input batch or a retry created by the cascade. Attempts are never
// mutated after creation; resolution state lives on the Incident.
type Attempt struct {
	ID        string    `json:"attempt_id"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	ProgramID string    `json:"program_id"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`

	// RetryOf is the original attempt ID when this attempt is a retry,
	// empty for originals.
	RetryOf string `json:"retry_of,omitempty"`

	// IncidentID links a failed original attempt to its incident.
	// Retries carry RetryOf instead and never open a new incident.
	IncidentID string `json:"incident_id,omitempty"`
}

// IsRetry reports whether the attempt was created by the retry cascade.
func (a Attempt) IsRetry() bool { return a.RetryOf != "" }

// RetryAttemptID derives the ID of retry round k for an original attempt.
func RetryAttemptID(originalID string, round int) string {
	return fmt.Sprintf("%s_retry_%d", originalID, round)
}

// Incident records one failed original attempt and its resolution journey.
// The retry cascade is the only writer of the mutable fields (Resolved,
// ResolvedAt, RetryCount, ManualIntervention, Intervention); everything
// else is fixed at creation.
type Incident struct {
	ID        string    `json:"incident_id"`
	AttemptID string    `json:"attempt_id"`
	Provider  string    `json:"provider"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`

	Resolved   bool      `json:"resolved"`
	ResolvedAt time.Time `json:"resolved_at"` // zero unless Resolved
	RetryCount int       `json:"retry_count"`

	ManualIntervention bool `json:"manual_intervention"`
	Intervention       Kind `json:"intervention,omitempty"` // KindNone unless ManualIntervention

	ErrorMessage string `json:"error_message"`
}

// New creates the Incident for a failed original attempt, applying the
// classifier outcome's static intervention policy.
func New(a Attempt, out Outcome) *Incident {
	return &Incident{
		ID:                 "incident_" + uuid.NewString(),
		AttemptID:          a.ID,
		Provider:           a.Provider,
		Category:           out.Category,
		CreatedAt:          a.Timestamp,
		ManualIntervention: out.RequiresIntervention,
		Intervention:       out.Intervention,
		ErrorMessage:       out.Category.Message(),
	}
}

// Resolve marks the incident resolved at t after retries rounds.
// Resolving an already-resolved incident is a caller defect and is
// rejected loudly rather than silently overwritten.
func (in *Incident) Resolve(t time.Time, retries int) error {
	if in.Resolved {
		return fmt.Errorf("incident %s: already resolved at %s", in.ID, in.ResolvedAt.Format(time.RFC3339))
	}
	if t.Before(in.CreatedAt) {
		return fmt.Errorf("incident %s: resolution time %s precedes creation %s",
			in.ID, t.Format(time.RFC3339), in.CreatedAt.Format(time.RFC3339))
	}
	in.Resolved = true
	in.ResolvedAt = t
	in.RetryCount = retries
	return nil
}

// Escalate marks the incident as requiring manual intervention.
// A kind already set by category policy is kept; otherwise fallback
// applies (customer_support when the cascade exhausts).
func (in *Incident) Escalate(fallback Kind) {
	in.ManualIntervention = true
	if in.Intervention == KindNone {
		in.Intervention = fallback
	}
}

// RecoveryTime returns the minutes between creation and resolution,
// and false when the incident is unresolved.
func (in *Incident) RecoveryTime() (float64, bool) {
	if !in.Resolved {
		return 0, false
	}
	return in.ResolvedAt.Sub(in.CreatedAt).Minutes(), true
}
