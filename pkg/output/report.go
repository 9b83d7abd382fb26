// Package output renders findings for the terminal, for pipelines and as a
// JSON report file.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/axss/pkg/models"
)

// Report is the machine readable record of one run.
type Report struct {
	RunID      string           `json:"run_id"`
	Targets    []string         `json:"targets"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Findings   []models.Finding `json:"findings"`
	Stats      models.Stats     `json:"stats"`
}

// NewReport starts a report with a fresh run ID.
func NewReport(targets []string, started time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Targets:   append([]string(nil), targets...),
		StartedAt: started,
		Findings:  []models.Finding{},
	}
}

// Finish records the outcome of the run.
func (r *Report) Finish(findings []models.Finding, stats models.Stats, finished time.Time) {
	r.FinishedAt = finished
	r.Stats = stats
	if findings != nil {
		r.Findings = findings
	}
}

// WriteJSONReport writes the report, indented, to path.
func (r *Report) WriteJSONReport(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
