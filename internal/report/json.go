package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/regsentry/regsentry/internal/reliability"
)

// ResultsFilename derives the timestamped JSON results filename for a run.
func ResultsFilename(now time.Time) string {
	return fmt.Sprintf("reliability_results_%s.json", now.Format("20060102_150405"))
}

// WriteJSON persists the snapshot to dir under a timestamped filename and
// returns the full path written.
func WriteJSON(dir string, snap reliability.Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create output dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal snapshot: %w", err)
	}

	path := filepath.Join(dir, ResultsFilename(snap.GeneratedAt))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("report: write results: %w", err)
	}
	return path, nil
}
