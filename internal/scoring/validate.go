package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrRankingOrder reports a result list that is not sorted by total score.
var ErrRankingOrder = errors.New("results are not ordered by total score")

const minReasoningLength = 10

// ValidateAgentResult lists the problems with a single agent result. None of
// them are fatal; callers log them.
func ValidateAgentResult(agent string, r AgentResult) []string {
	var issues []string
	if math.IsNaN(r.Score) || r.Score < MinScore || r.Score > MaxScore {
		issues = append(issues, fmt.Sprintf("%s: score %v out of range", agent, r.Score))
	}
	if len(strings.TrimSpace(r.Reasoning)) < minReasoningLength {
		issues = append(issues, fmt.Sprintf("%s: reasoning too short", agent))
	}
	if r.Strengths == nil {
		issues = append(issues, fmt.Sprintf("%s: missing strengths", agent))
	}
	if r.Weaknesses == nil {
		issues = append(issues, fmt.Sprintf("%s: missing weaknesses", agent))
	}
	return issues
}

// ValidateResults checks a ranked list. Field and bound problems are
// returned as issues. A broken ordering is returned as ErrRankingOrder
// because it can only come from a bug.
func ValidateResults(results []CandidateResult) ([]string, error) {
	if len(results) == 0 {
		return []string{"empty results list"}, nil
	}

	var issues []string
	for i, r := range results {
		if r.CandidateID == "" {
			issues = append(issues, fmt.Sprintf("result %d: missing candidate_id", i))
		}
		if r.Name == "" {
			issues = append(issues, fmt.Sprintf("result %d: missing name", i))
		}
		if math.IsNaN(r.TotalScore) || r.TotalScore < MinScore || r.TotalScore > MaxScore {
			issues = append(issues, fmt.Sprintf("result %d: total score %v out of range", i, r.TotalScore))
		}
		for _, c := range Categories {
			if _, ok := r.Breakdown[c]; !ok {
				issues = append(issues, fmt.Sprintf("result %d: missing %s breakdown", i, c))
			}
		}
	}

	for i := 1; i < len(results); i++ {
		if results[i].TotalScore > results[i-1].TotalScore {
			return issues, fmt.Errorf("%w: position %d (%.2f) above position %d (%.2f)",
				ErrRankingOrder, i, results[i].TotalScore, i-1, results[i-1].TotalScore)
		}
	}

	return issues, nil
}
