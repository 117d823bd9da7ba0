// Package scoring combines agent results into a ranked, auditable list.
package scoring

import "github.com/spigell/resume-screener/internal/utils"

// Category is one weighted dimension of a candidate's evaluation.
type Category string

const (
	Technical Category = "technical"
	Career    Category = "career"
	Fit       Category = "fit"
)

// Categories lists every category in report order.
var Categories = []Category{Technical, Career, Fit}

const (
	MinScore = 0.0
	MaxScore = 100.0
	// NeutralScore is reported when an agent has nothing better to say.
	NeutralScore = 50.0
)

// AgentResult is produced once by an agent and not modified afterwards.
type AgentResult struct {
	Score          float64            `json:"score"`
	Reasoning      string             `json:"reasoning"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
	CategoryScores map[string]float64 `json:"category_scores"`
	// Degraded marks a result built without a usable model answer.
	Degraded bool `json:"degraded,omitempty"`
}

// ClampScore limits a score to [MinScore, MaxScore].
func ClampScore(v float64) float64 {
	return utils.Clamp(v, MinScore, MaxScore)
}

// CandidateResult is one row of the ranking.
type CandidateResult struct {
	CandidateID    string                   `json:"candidate_id"`
	Name           string                   `json:"name"`
	Email          string                   `json:"email"`
	Phone          string                   `json:"phone"`
	Filename       string                   `json:"filename,omitempty"`
	TotalScore     float64                  `json:"total_score"`
	Breakdown      map[Category]AgentResult `json:"breakdown"`
	WeightedScores map[Category]float64     `json:"weighted_scores"`
	Tier           string                   `json:"tier"`
	Confidence     float64                  `json:"confidence"`
	Percentile     float64                  `json:"percentile"`
}
