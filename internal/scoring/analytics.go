package scoring

import (
	"math"

	"github.com/spigell/resume-screener/internal/utils"
)

// ConsistencyTolerance bounds the difference between a stored total and its recomputation.
const ConsistencyTolerance = 0.1

// Tier labels a score.
func Tier(score float64) string {
	switch {
	case score >= 90:
		return "Exceptional"
	case score >= 75:
		return "Strong"
	case score >= 60:
		return "Adequate"
	case score >= 45:
		return "Below Average"
	default:
		return "Poor"
	}
}

// PercentileRank is the share of scores strictly below target, as a
// percentage with one decimal. An empty list ranks everyone at 50.
func PercentileRank(scores []float64, target float64) float64 {
	if len(scores) == 0 {
		return 50
	}
	below := 0
	for _, s := range scores {
		if s < target {
			below++
		}
	}
	return utils.Round(float64(below)/float64(len(scores))*100, 1)
}

// Confidence falls as the agents disagree: 100 minus twice the population
// standard deviation of the three scores, floored at 0. A missing category
// counts as the neutral score.
func Confidence(breakdown map[Category]AgentResult) float64 {
	scores := make([]float64, 0, len(Categories))
	for _, c := range Categories {
		if r, ok := breakdown[c]; ok {
			scores = append(scores, r.Score)
		} else {
			scores = append(scores, NeutralScore)
		}
	}

	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	return utils.Round(math.Max(0, 100-2*math.Sqrt(variance)), 2)
}

var categoryPrefix = map[Category]string{
	Technical: "tech_",
	Career:    "career_",
	Fit:       "fit_",
}

// AggregateCategories flattens every agent's sub-scores into one map with
// category-prefixed keys.
func AggregateCategories(breakdown map[Category]AgentResult) map[string]float64 {
	out := map[string]float64{}
	for _, c := range Categories {
		for key, value := range breakdown[c].CategoryScores {
			out[categoryPrefix[c]+key] = value
		}
	}
	return out
}

// Comparison summarises how two candidates differ.
type Comparison struct {
	ScoreDifference float64              `json:"score_difference"`
	Winner          string               `json:"winner"`
	CategoryDiffs   map[Category]float64 `json:"category_diffs"`
}

// Compare reports a minus b. Ties go to b, as a does not strictly win.
func Compare(a, b CandidateResult) Comparison {
	diff := a.TotalScore - b.TotalScore
	winner := b.Name
	if diff > 0 {
		winner = a.Name
	}

	diffs := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		diffs[c] = utils.Round(a.Breakdown[c].Score-b.Breakdown[c].Score, 2)
	}

	return Comparison{
		ScoreDifference: utils.Round(diff, 2),
		Winner:          winner,
		CategoryDiffs:   diffs,
	}
}

// CheckConsistency recomputes the weighted total of r and compares it with
// the stored one.
func CheckConsistency(r CandidateResult, w Weights) bool {
	expected := 0.0
	for _, c := range Categories {
		expected += r.Breakdown[c].Score * w.Of(c)
	}
	return math.Abs(expected-r.TotalScore) <= ConsistencyTolerance
}
