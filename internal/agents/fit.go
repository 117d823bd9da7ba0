package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/utils"
)

var (
	fitSystemPrompt       = mustPrompt("fit_system.md")
	fitInstructionsPrompt = mustPrompt("fit_instructions.md")
)

// FitAgent scores resume quality and soft indicators. Its score comes from
// the model, clamped to the valid range.
type FitAgent struct {
	base
}

func NewFitAgent(llm ai.TextService, cfg Config, logger *zap.Logger) *FitAgent {
	return &FitAgent{base: newBase("fit", scoring.Fit, llm, cfg, logger)}
}

func (a *FitAgent) Score(ctx context.Context, in Input) scoring.AgentResult {
	r := in.Resume
	if r == nil {
		r = &resume.Resume{}
	}
	req := requirementsOrDefault(in.Requirements)

	prompt := buildPrompt(fitSystemPrompt, fitCandidateContext(r), fitJobContext(req), fitInstructionsPrompt)

	ans, err := a.ask(ctx, prompt, r.ID)

	score := scoring.NeutralScore
	if ans.HasScore {
		score = ans.Score
	}
	reasoning := ans.Reasoning
	if reasoning == "" {
		reasoning = ParseFailureReasoning
	}

	categories := make(map[string]float64, len(ans.CategoryScores))
	for k, v := range ans.CategoryScores {
		categories[k] = utils.Round(scoring.ClampScore(v), 1)
	}

	return scoring.AgentResult{
		Score:          utils.Round(scoring.ClampScore(score), 1),
		Reasoning:      reasoning,
		Strengths:      ans.Strengths,
		Weaknesses:     ans.Weaknesses,
		CategoryScores: categories,
		Degraded:       err != nil || !ans.HasScore,
	}
}

func fitCandidateContext(r *resume.Resume) string {
	var b strings.Builder
	b.WriteString("RESUME QUALITY INDICATORS:\n")
	fmt.Fprintf(&b, "- Has professional summary: %s\n", yesNo(strings.TrimSpace(r.Summary) != ""))
	fmt.Fprintf(&b, "- Contact info complete: %s\n",
		yesNo(r.PersonalInfo.Email != "" && r.PersonalInfo.Phone.String() != ""))
	fmt.Fprintf(&b, "- Has LinkedIn: %s\n", yesNo(r.PersonalInfo.LinkedIn != ""))

	b.WriteString("\nCAREER INDICATORS:\n")
	fmt.Fprintf(&b, "- Number of positions: %d\n", len(r.Experience))
	for i, pos := range r.Experience {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "  - %s at %s\n", pos.Title, pos.Company)
	}

	achievements := 0
	for _, ach := range r.Achievements {
		if !ach.Empty() {
			achievements++
		}
	}
	b.WriteString("\nACHIEVEMENTS & IMPACT:\n")
	if achievements > 0 {
		fmt.Fprintf(&b, "- %d achievement(s) documented\n", achievements)
	} else {
		b.WriteString("- No specific achievements listed\n")
	}

	b.WriteString("\nLEARNING INDICATORS:\n")
	fmt.Fprintf(&b, "- Certifications: %d\n", len(r.Certifications))
	fmt.Fprintf(&b, "- Projects: %d\n", len(r.Projects))
	fmt.Fprintf(&b, "- Languages: %s\n", listOrNone(r.Languages))

	b.WriteString("\nPROFESSIONAL SUMMARY:\n")
	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString(s)
	} else {
		b.WriteString("No summary provided")
	}
	return b.String()
}

func fitJobContext(req *jd.Requirements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role Level: %s\n", req.RoleLevel)
	fmt.Fprintf(&b, "Culture Indicators: %s\n", listOrNone(req.CultureIndicators))
	fmt.Fprintf(&b, "Key Responsibilities: %s\n", listOrNone(firstN(req.KeyResponsibilities, 3)))
	fmt.Fprintf(&b, "Must-Have Qualifications: %s\n", listOrNone(req.MustHaveQualifications))
	fmt.Fprintf(&b, "Risk Factors: %s", listOrNone(req.RiskFactorsToWatch))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
