package reliability

import "time"

// Snapshot is the full reliability reduction of one evaluation run. It is
// plain data with stable JSON field names: the report renderer, the JSON
// results writer and the textfile exporter all consume it as-is.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`

	Overall      OverallMetrics             `json:"overall_metrics"`
	Retry        RetryMetrics               `json:"retry_metrics"`
	Recovery     RecoveryMetrics            `json:"recovery_metrics"`
	Intervention InterventionMetrics        `json:"intervention_metrics"`
	Failures     FailureAnalysis            `json:"failure_analysis"`
	Providers    map[string]ProviderMetrics `json:"provider_metrics"`
}

// OverallMetrics covers the whole attempt set, originals and retries alike.
type OverallMetrics struct {
	TotalAttempts      int     `json:"total_attempts"`
	SuccessfulAttempts int     `json:"successful_attempts"`
	FailedAttempts     int     `json:"failed_attempts"`
	FailureRate        float64 `json:"failure_rate"`
	SuccessRate        float64 `json:"success_rate"`

	// MTBFHours is nil when fewer than two failures exist — "undefined"
	// is distinct from a true zero MTBF and serializes as JSON null.
	MTBFHours *float64 `json:"mtbf_hours"`
}

// RetryMetrics describes how well the retry cascade recovered failures.
type RetryMetrics struct {
	TotalRetries      int `json:"total_retries"`
	SuccessfulRetries int `json:"successful_retries"`

	// RetrySuccessRate is successful retries over original failures,
	// 0 when there were no original failures.
	RetrySuccessRate     float64 `json:"retry_success_rate"`
	AvgRetriesPerFailure float64 `json:"avg_retries_per_failure"`
}

// RecoveryMetrics summarizes time-to-resolution over resolved incidents.
type RecoveryMetrics struct {
	AvgMinutes        float64 `json:"avg_recovery_time_minutes"`
	MaxMinutes        float64 `json:"max_recovery_time_minutes"`
	ResolvedIncidents int     `json:"resolved_incidents"`
	TotalIncidents    int     `json:"total_incidents"`
}

// InterventionMetrics counts incidents that needed a human.
type InterventionMetrics struct {
	ManualInterventions int     `json:"manual_interventions"`
	InterventionRate    float64 `json:"intervention_rate"`

	// ByKind counts escalated incidents per intervention kind, keyed by
	// the kind's wire name.
	ByKind map[string]int `json:"intervention_types"`
}

// FailureAnalysis breaks incidents down by failure category.
type FailureAnalysis struct {
	// ByCategory counts incidents per category wire name. Categories with
	// zero incidents are omitted.
	ByCategory map[string]int `json:"failure_types"`

	// MostCommon is the category with the highest count; ties break by
	// category declaration order. Empty when there are no incidents.
	MostCommon string `json:"most_common_failure,omitempty"`
}

// ProviderMetrics is the overall computation filtered to one provider.
type ProviderMetrics struct {
	TotalAttempts int     `json:"total_attempts"`
	Failures      int     `json:"failures"`
	FailureRate   float64 `json:"failure_rate"`
	SuccessRate   float64 `json:"success_rate"`
}
