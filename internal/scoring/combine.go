package scoring

import (
	"sort"

	"github.com/spigell/resume-screener/internal/utils"
)

// Combined is the weighted aggregate of the three agent results.
type Combined struct {
	Total          float64
	Breakdown      map[Category]AgentResult
	WeightedScores map[Category]float64
}

// Combine applies w to the agent scores. The total is rounded to two
// decimals and clamped to the score range, since weights only sum to one
// within WeightTolerance. The breakdown keeps each result unchanged.
func Combine(technical, career, fit AgentResult, w Weights) Combined {
	breakdown := map[Category]AgentResult{Technical: technical, Career: career, Fit: fit}

	total := 0.0
	weighted := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		part := breakdown[c].Score * w.Of(c)
		weighted[c] = utils.Round(part, 2)
		total += part
	}

	return Combined{
		Total:          ClampScore(utils.Round(total, 2)),
		Breakdown:      breakdown,
		WeightedScores: weighted,
	}
}

// Rank sorts results by total score, highest first. Equal totals are
// ordered by candidate ID so the ranking is reproducible. Percentiles are
// filled in against the whole batch.
func Rank(results []CandidateResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].CandidateID < results[j].CandidateID
	})

	totals := make([]float64, len(results))
	for i, r := range results {
		totals[i] = r.TotalScore
	}
	for i := range results {
		results[i].Percentile = PercentileRank(totals, results[i].TotalScore)
	}
}
