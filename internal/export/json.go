package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/scoring"
)

// Document is the JSON form of a report.
type Document struct {
	RunID          string                    `json:"run_id"`
	StartedAt      time.Time                 `json:"started_at"`
	ElapsedSeconds float64                   `json:"elapsed_seconds"`
	Requirements   *jd.Requirements          `json:"job_requirements"`
	Weights        map[string]float64        `json:"weights"`
	Results        []scoring.CandidateResult `json:"results"`
	Issues         []string                  `json:"validation_issues,omitempty"`
}

// NewDocument converts a report.
func NewDocument(report *screening.Report) Document {
	return Document{
		RunID:          report.RunID,
		StartedAt:      report.StartedAt,
		ElapsedSeconds: report.Elapsed.Seconds(),
		Requirements:   report.Requirements,
		Weights:        report.Weights.Map(),
		Results:        report.Results,
		Issues:         report.Issues,
	}
}

// DumpJSON writes the report as indented JSON. With an empty path a new
// file is created in the system temp directory. It returns the path written.
func DumpJSON(report *screening.Report, path string) (string, error) {
	data, err := json.MarshalIndent(NewDocument(report), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	if path == "" {
		f, err := os.CreateTemp("", "screening_results_*.json")
		if err != nil {
			return "", fmt.Errorf("create temp file: %w", err)
		}
		defer f.Close()
		if _, err := f.Write(data); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
		return f.Name(), nil
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
