package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/scoring"
)

func sampleReport() *screening.Report {
	result := func(id, name string, tech, career, fit float64) scoring.CandidateResult {
		breakdown := map[scoring.Category]scoring.AgentResult{
			scoring.Technical: {Score: tech, Reasoning: "Matched 2/2 skills.", Strengths: []string{"Has: Go"}},
			scoring.Career:    {Score: career, Reasoning: "5 yrs experience"},
			scoring.Fit:       {Score: fit, Reasoning: "Unable to parse LLM response", Degraded: true},
		}
		combined := scoring.Combine(breakdown[scoring.Technical], breakdown[scoring.Career], breakdown[scoring.Fit], scoring.DefaultWeights())
		return scoring.CandidateResult{
			CandidateID:    id,
			Name:           name,
			Email:          id + "@example.com",
			Phone:          screening.MissingPhone,
			TotalScore:     combined.Total,
			Breakdown:      combined.Breakdown,
			WeightedScores: combined.WeightedScores,
			Tier:           scoring.Tier(combined.Total),
			Confidence:     scoring.Confidence(combined.Breakdown),
		}
	}

	results := []scoring.CandidateResult{
		result("bob", "Bob", 34, 21, 70),
		result("alice", "Alice", 100, 100, 70),
	}
	scoring.Rank(results)

	req := jd.Default()
	req.RequiredSkills = []string{"Go", "Docker"}
	req.Domain = "backend"

	return &screening.Report{
		RunID:        "run-1",
		Requirements: req,
		Weights:      scoring.DefaultWeights(),
		Results:      results,
		Issues:       []string{"bob: low confidence"},
		StartedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Elapsed:      1500 * time.Millisecond,
	}
}

func TestXLSX(t *testing.T) {
	t.Parallel()

	path, err := XLSX(sampleReport(), filepath.Join(t.TempDir(), "ranking"))
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, rankedSheet, breakdownSheet}, f.GetSheetList())

	ranked, err := f.GetRows(rankedSheet)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Rank", ranked[0][0])
	assert.Equal(t, []string{"1", "alice", "Alice", "alice@example.com", "N/A"}, ranked[1][:5])
	assert.Equal(t, "bob", ranked[2][1])
	assert.Equal(t, "Poor", ranked[2][9])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run ID", "run-1"}, summary[0])
	assert.Contains(t, summary, []string{"Required skills", "Go, Docker"})
	assert.Contains(t, summary, []string{"Validation issues", "bob: low confidence"})

	breakdown, err := f.GetRows(breakdownSheet)
	require.NoError(t, err)
	// Header plus one row per candidate and category.
	require.Len(t, breakdown, 1+2*len(scoring.Categories))
	assert.Equal(t, []string{"alice", "technical", "100", "no", "Matched 2/2 skills.", "Has: Go"}, breakdown[1][:6])
	assert.Equal(t, "yes", breakdown[3][3])
}

func TestXLSXKeepsExtension(t *testing.T) {
	t.Parallel()

	want := filepath.Join(t.TempDir(), "out.XLSX")
	path, err := XLSX(sampleReport(), want)
	require.NoError(t, err)
	assert.Equal(t, want, path)
}

func TestXLSXUnwritablePath(t *testing.T) {
	t.Parallel()

	_, err := XLSX(sampleReport(), filepath.Join(t.TempDir(), "missing", "dir", "out.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save workbook")
}

func TestDumpJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "explicit path", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "report.json") }},
		{name: "temp file", path: func(*testing.T) string { return "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := tt.path(t)
			path, err := DumpJSON(sampleReport(), want)
			require.NoError(t, err)
			if want != "" {
				assert.Equal(t, want, path)
			} else {
				t.Cleanup(func() { _ = os.Remove(path) })
				assert.Contains(t, filepath.Base(path), "screening_results_")
			}

			data, err := os.ReadFile(path)
			require.NoError(t, err)

			var doc struct {
				RunID          string             `json:"run_id"`
				ElapsedSeconds float64            `json:"elapsed_seconds"`
				Weights        map[string]float64 `json:"weights"`
				Results        []struct {
					CandidateID string  `json:"candidate_id"`
					TotalScore  float64 `json:"total_score"`
					Breakdown   map[string]struct {
						Score    float64 `json:"score"`
						Degraded bool    `json:"degraded"`
					} `json:"breakdown"`
				} `json:"results"`
				Issues []string `json:"validation_issues"`
			}
			require.NoError(t, json.Unmarshal(data, &doc))

			assert.Equal(t, "run-1", doc.RunID)
			assert.InDelta(t, 1.5, doc.ElapsedSeconds, 1e-9)
			assert.InDelta(t, 0.4, doc.Weights["technical"], 1e-9)
			require.Len(t, doc.Results, 2)
			assert.Equal(t, "alice", doc.Results[0].CandidateID)
			assert.True(t, doc.Results[0].Breakdown["fit"].Degraded)
			assert.Equal(t, []string{"bob: low confidence"}, doc.Issues)
		})
	}
}
