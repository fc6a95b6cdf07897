// Package incident defines the domain model of the signup reliability
// evaluation: signup attempts, failure incidents, the closed sets of
// failure categories and intervention kinds, and the weighted classifier
// that assigns a category to a failed attempt.
//
// Attempts are immutable after creation. An Incident is the only mutable
// entity — its resolution fields are updated by the retry cascade, and
// Resolve guards against double-resolution.
package incident
