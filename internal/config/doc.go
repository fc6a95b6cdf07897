// Package config loads, validates and hot-reloads the evaluation
// configuration: per-provider failure profiles, the retry cascade policy,
// synthetic batch parameters, pass/fail thresholds and output settings.
package config
