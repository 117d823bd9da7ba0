// Package agents scores one candidate along one category each. Skill and
// experience agents start from rule-based facts and accept a bounded model
// adjustment; the fit agent is model-led.
package agents

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/facts"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/jsonrepair"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/utils"
)

const (
	// MaxAdjustment bounds how far a model may move a rule-based score.
	MaxAdjustment = 10.0

	ParseFailureReasoning = "Unable to parse LLM response"
	UnavailableReasoning  = "LLM service unavailable"
)

//go:embed prompts/*.md
var prompts embed.FS

var framePrompt = mustPrompt("frame.md")

func mustPrompt(name string) string {
	data, err := prompts.ReadFile("prompts/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded prompt %s: %v", name, err))
	}
	return strings.TrimSpace(string(data))
}

// Input is everything an agent may look at.
type Input struct {
	Resume       *resume.Resume
	Requirements *jd.Requirements
	// Facts is computed from Resume when nil.
	Facts *facts.Baseline
}

// Agent scores a candidate in one category. Score never fails: model
// problems yield a degraded result.
type Agent interface {
	Name() string
	Category() scoring.Category
	Score(ctx context.Context, in Input) scoring.AgentResult
}

// Config is shared by all agents.
type Config struct {
	Options ai.Options
	Retry   ai.JSONRetry
	// Now is the instant ongoing positions end at. Defaults to time.Now.
	Now func() time.Time
}

// BoundAdjustment clamps a model adjustment to ±MaxAdjustment. A failed
// answer or a non-finite value counts as no adjustment.
func BoundAdjustment(adjustment float64, err error) float64 {
	if err != nil || math.IsNaN(adjustment) || math.IsInf(adjustment, 0) {
		return 0
	}
	return utils.Clamp(adjustment, -MaxAdjustment, MaxAdjustment)
}

// Adjust applies a bounded model adjustment to a rule-based baseline.
func Adjust(baseline, adjustment float64, err error) float64 {
	return scoring.ClampScore(baseline + BoundAdjustment(adjustment, err))
}

// answer is the part of a model reply the agents read.
type answer struct {
	Score          float64
	HasScore       bool
	Adjustment     float64
	Reasoning      string
	Strengths      []string
	Weaknesses     []string
	CategoryScores map[string]float64
}

// fallbackAnswer is used when the model gave nothing usable.
func fallbackAnswer(err error) answer {
	reasoning := ParseFailureReasoning
	if errors.Is(err, ai.ErrTimeout) || errors.Is(err, ai.ErrUnreachable) {
		reasoning = UnavailableReasoning
	}
	return answer{
		Score:          scoring.NeutralScore,
		Reasoning:      reasoning,
		Strengths:      []string{},
		Weaknesses:     []string{},
		CategoryScores: map[string]float64{},
	}
}

func parseAnswer(value any) (answer, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return answer{}, fmt.Errorf("expected JSON object, got %T: %w", value, jsonrepair.ErrMalformedOutput)
	}

	a := answer{
		Reasoning:      strings.TrimSpace(jsonrepair.String(obj["reasoning"])),
		Strengths:      nonNil(jsonrepair.Strings(obj["strengths"])),
		Weaknesses:     nonNil(jsonrepair.Strings(obj["weaknesses"])),
		CategoryScores: jsonrepair.Floats(obj["category_scores"]),
	}
	if a.CategoryScores == nil {
		a.CategoryScores = map[string]float64{}
	}
	if v, ok := jsonrepair.Float(obj["score"]); ok {
		a.Score, a.HasScore = v, true
	}
	if v, ok := jsonrepair.Float(obj["adjustment"]); ok {
		a.Adjustment = v
	}
	return a, nil
}

// base holds what every agent needs to talk to the model.
type base struct {
	name     string
	category scoring.Category
	llm      ai.TextService
	cfg      Config
	logger   *zap.Logger
}

func newBase(name string, category scoring.Category, llm ai.TextService, cfg Config, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return base{
		name:     name,
		category: category,
		llm:      llm,
		cfg:      cfg,
		logger:   logger.WithAgent(log, name),
	}
}

func (b *base) Name() string { return b.name }

func (b *base) Category() scoring.Category { return b.category }

// facts returns the precomputed baseline or derives one.
func (b *base) facts(in Input) *facts.Baseline {
	if in.Facts != nil {
		return in.Facts
	}
	return facts.Compute(in.Resume, in.Requirements, b.cfg.Now())
}

// ask sends the prompt and reads the reply. On any failure the fallback
// answer is returned together with the error.
func (b *base) ask(ctx context.Context, prompt string, candidateID string) (answer, error) {
	value, err := ai.CompleteJSON(ctx, b.llm, prompt, b.cfg.Options, b.cfg.Retry)
	if err == nil {
		var a answer
		if a, err = parseAnswer(value); err == nil {
			return a, nil
		}
	}

	b.logger.Warn("agent falling back",
		zap.String(logger.FieldCandidate, candidateID),
		zap.Error(err),
	)
	return fallbackAnswer(err), err
}

// buildPrompt fills the shared frame.
func buildPrompt(system, candidate, job, instructions string) string {
	return strings.NewReplacer(
		"{{SYSTEM}}", system,
		"{{CANDIDATE}}", candidate,
		"{{JOB}}", job,
		"{{INSTRUCTIONS}}", instructions,
	).Replace(framePrompt)
}

func requirementsOrDefault(req *jd.Requirements) *jd.Requirements {
	if req == nil {
		return jd.Default()
	}
	return req
}

func candidateID(r *resume.Resume) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// num prints a number without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
