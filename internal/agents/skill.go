package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/facts"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/utils"
)

const (
	skillMatchWeight     = 0.6
	educationMatchWeight = 0.4
)

var (
	skillSystemPrompt       = mustPrompt("skill_system.md")
	skillInstructionsPrompt = mustPrompt("skill_instructions.md")
)

// SkillAgent scores technical match. The baseline is 60% skill match and
// 40% education; the model may only nudge it.
type SkillAgent struct {
	base
}

func NewSkillAgent(llm ai.TextService, cfg Config, logger *zap.Logger) *SkillAgent {
	return &SkillAgent{base: newBase("skill", scoring.Technical, llm, cfg, logger)}
}

// SkillBaseline is the rule-based technical score.
func SkillBaseline(f *facts.Baseline) float64 {
	return skillMatchWeight*f.SkillMatchPercentage + educationMatchWeight*f.EducationScore
}

func (a *SkillAgent) Score(ctx context.Context, in Input) scoring.AgentResult {
	f := a.facts(in)
	req := requirementsOrDefault(in.Requirements)
	baseline := SkillBaseline(f)

	prompt := buildPrompt(
		skillSystemPrompt,
		skillCandidateContext(f),
		skillJobContext(req),
		strings.ReplaceAll(skillInstructionsPrompt, "{{BASELINE}}", num(utils.Round(baseline, 1))),
	)

	ans, err := a.ask(ctx, prompt, candidateID(in.Resume))
	adjustment := BoundAdjustment(ans.Adjustment, err)
	final := utils.Round(Adjust(baseline, adjustment, nil), 1)

	reasoning := fmt.Sprintf("Matched %d/%d skills.", len(f.MatchedSkills), len(f.RequiredSkills))
	if ans.Reasoning != "" {
		reasoning += " " + ans.Reasoning
	}

	strengths := []string{}
	if len(f.MatchedSkills) > 0 {
		strengths = append(strengths, "Has: "+strings.Join(firstN(f.MatchedSkills, 5), ", "))
	}
	if f.EducationRelevant {
		strengths = append(strengths, "Relevant education background")
	}
	if f.ProjectCount > 0 {
		strengths = append(strengths, fmt.Sprintf("%d project(s) listed", f.ProjectCount))
	}

	weaknesses := []string{}
	if len(f.MissingSkills) > 0 {
		weaknesses = append(weaknesses, "Missing: "+strings.Join(firstN(f.MissingSkills, 5), ", "))
	}
	if !f.EducationRelevant {
		weaknesses = append(weaknesses, "Non-technical education")
	}

	return scoring.AgentResult{
		Score:      final,
		Reasoning:  reasoning,
		Strengths:  strengths,
		Weaknesses: weaknesses,
		CategoryScores: map[string]float64{
			"skill_match":         utils.Round(f.SkillMatchPercentage, 1),
			"education_relevance": f.EducationScore,
			"baseline":            utils.Round(baseline, 1),
			"llm_adjustment":      adjustment,
			"final":               final,
		},
		Degraded: err != nil,
	}
}

func skillCandidateContext(f *facts.Baseline) string {
	var b strings.Builder
	b.WriteString("FACTUAL ANALYSIS (VERIFIED FROM RESUME):\n")
	fmt.Fprintf(&b, "- Candidate has: %s\n", listOrNone(f.CandidateSkills))
	fmt.Fprintf(&b, "- Required skills: %s\n", listOrNone(f.RequiredSkills))
	fmt.Fprintf(&b, "- Matched: %s\n", listOrNone(f.MatchedSkills))
	fmt.Fprintf(&b, "- Missing: %s\n", listOrNone(f.MissingSkills))
	fmt.Fprintf(&b, "- Match rate: %s%%\n", num(f.SkillMatchPercentage))
	fmt.Fprintf(&b, "- Education: %s (tech relevant: %t)\n", listOrNone(f.Degrees), f.EducationRelevant)
	fmt.Fprintf(&b, "- Projects: %d\n", f.ProjectCount)
	b.WriteString("\nBASELINE SCORE: ")
	b.WriteString(num(utils.Round(SkillBaseline(f), 1)))
	b.WriteString("/100")
	return b.String()
}

func skillJobContext(req *jd.Requirements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Required: %s\n", listOrNone(req.RequiredSkills))
	fmt.Fprintf(&b, "Preferred: %s\n", listOrNone(req.PreferredSkills))
	education := req.EducationRequirements
	if education == "" {
		education = "None"
	}
	fmt.Fprintf(&b, "Education: %s", education)
	return b.String()
}
