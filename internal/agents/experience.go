package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/facts"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/utils"
)

// irrelevantRolePenalty scales the years score when no title is technical.
const irrelevantRolePenalty = 0.6

var (
	experienceSystemPrompt       = mustPrompt("experience_system.md")
	experienceInstructionsPrompt = mustPrompt("experience_instructions.md")
)

// ExperienceAgent scores career history from computed tenure and role
// relevance, with a bounded model adjustment for progression quality.
type ExperienceAgent struct {
	base
}

func NewExperienceAgent(llm ai.TextService, cfg Config, logger *zap.Logger) *ExperienceAgent {
	return &ExperienceAgent{base: newBase("experience", scoring.Career, llm, cfg, logger)}
}

// YearsScore rates tenure against the requirement. With no requirement every
// year adds 10 points on top of 50. Otherwise the score steps down from 100
// at one and a half times the requirement, with a floor of 20.
func YearsScore(years, required float64) float64 {
	switch {
	case required <= 0:
		return math.Min(100, 50+years*10)
	case years >= 1.5*required:
		return 100
	case years >= required:
		return 90
	case years >= 0.75*required:
		return 70
	default:
		return math.Max(20, years/required*70)
	}
}

// ExperienceBaseline applies the irrelevant-role penalty to YearsScore.
func ExperienceBaseline(f *facts.Baseline) float64 {
	score := YearsScore(f.YearsOfExperience, f.MinRequiredYears)
	if !f.RoleRelevant && f.YearsOfExperience > 0 {
		score *= irrelevantRolePenalty
	}
	return score
}

func (a *ExperienceAgent) Score(ctx context.Context, in Input) scoring.AgentResult {
	f := a.facts(in)
	req := requirementsOrDefault(in.Requirements)
	years := YearsScore(f.YearsOfExperience, f.MinRequiredYears)
	baseline := ExperienceBaseline(f)

	relevance := "Relevant"
	if !f.RoleRelevant {
		relevance = "NOT relevant"
	}

	instructions := strings.NewReplacer(
		"{{BASELINE}}", num(utils.Round(baseline, 1)),
		"{{YEARS}}", num(f.YearsOfExperience),
		"{{REQUIRED}}", num(f.MinRequiredYears),
		"{{RELEVANT}}", relevance,
	).Replace(experienceInstructionsPrompt)

	prompt := buildPrompt(
		experienceSystemPrompt,
		experienceCandidateContext(in, f, baseline),
		experienceJobContext(req),
		instructions,
	)

	ans, err := a.ask(ctx, prompt, candidateID(in.Resume))
	adjustment := BoundAdjustment(ans.Adjustment, err)
	final := utils.Round(Adjust(baseline, adjustment, nil), 1)

	reasoning := fmt.Sprintf("%s yrs experience (required: %s). Roles %s.",
		num(f.YearsOfExperience), num(f.MinRequiredYears), strings.ToLower(relevance))
	if ans.Reasoning != "" {
		reasoning += " " + ans.Reasoning
	}

	strengths := []string{fmt.Sprintf("Has %s years of experience", num(f.YearsOfExperience))}
	if f.RoleRelevant {
		strengths = append(strengths, "Relevant roles: "+strings.Join(firstN(f.RelevantRoles, 2), ", "))
	} else {
		strengths = append(strengths, "Experience in different domain")
	}

	weaknesses := []string{}
	if f.YearsOfExperience < f.MinRequiredYears {
		weaknesses = append(weaknesses, fmt.Sprintf("Below %s year requirement", num(f.MinRequiredYears)))
	}
	if !f.RoleRelevant {
		weaknesses = append(weaknesses, "No relevant technical experience")
	}
	if f.UnparsedPositions > 0 {
		weaknesses = append(weaknesses, fmt.Sprintf("%d position(s) with unreadable dates", f.UnparsedPositions))
	}

	return scoring.AgentResult{
		Score:      final,
		Reasoning:  reasoning,
		Strengths:  strengths,
		Weaknesses: weaknesses,
		CategoryScores: map[string]float64{
			"years":          utils.Round(years, 1),
			"baseline":       utils.Round(baseline, 1),
			"llm_adjustment": adjustment,
			"final":          final,
		},
		Degraded: err != nil,
	}
}

func experienceCandidateContext(in Input, f *facts.Baseline, baseline float64) string {
	var b strings.Builder
	b.WriteString("FACTUAL DATA (VERIFIED FROM RESUME):\n")
	fmt.Fprintf(&b, "- Total experience: %s years (%d months)\n", num(f.YearsOfExperience), f.TotalMonths)
	fmt.Fprintf(&b, "- Required: %s years\n", num(f.MinRequiredYears))
	fmt.Fprintf(&b, "- Roles: %s\n", listOrNone(f.AllRoles))
	fmt.Fprintf(&b, "- Relevant technical roles: %s\n", listOrNone(f.RelevantRoles))
	fmt.Fprintf(&b, "- Has relevant experience: %t\n", f.RoleRelevant)
	fmt.Fprintf(&b, "\nBASELINE SCORE: %s/100\n", num(utils.Round(baseline, 1)))

	if in.Resume != nil && len(in.Resume.Experience) > 0 {
		b.WriteString("\nPOSITIONS:\n")
		for _, pos := range in.Resume.Experience {
			fmt.Fprintf(&b, "- %s at %s (%s - %s)\n", pos.Title, pos.Company, pos.StartDate, pos.EndDate)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func experienceJobContext(req *jd.Requirements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role Level: %s\n", req.RoleLevel)
	fmt.Fprintf(&b, "Minimum Experience: %s years\n", num(req.MinExperienceYears))
	fmt.Fprintf(&b, "Domain: %s", req.Domain)
	return b.String()
}
