package jd

import (
	"context"
	_ "embed"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/jsonrepair"
)

// ErrEmptyJobDescription reports a description that is blank after trimming.
var ErrEmptyJobDescription = errors.New("job description is empty")

var leadingNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

//go:embed prompt.md
var promptTemplate string

// Parser extracts requirements with a single model call.
type Parser struct {
	llm    ai.TextService
	opts   ai.Options
	retry  ai.JSONRetry
	logger *zap.Logger
}

func NewParser(llm ai.TextService, opts ai.Options, retry ai.JSONRetry, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{llm: llm, opts: opts, retry: retry, logger: logger}
}

// Parse never fails for a non-empty description: when the model is
// unreachable or its answer cannot be repaired, Default is returned.
func (p *Parser) Parse(ctx context.Context, text string) (*Requirements, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyJobDescription
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_DESCRIPTION}}", text)

	value, err := ai.CompleteJSON(ctx, p.llm, prompt, p.opts, p.retry)
	if err != nil {
		p.logger.Warn("job description parsing failed, using defaults", zap.Error(err))
		return Default(), nil
	}

	var req Requirements
	if err := jsonrepair.DecodeValue(coerceYears(value), &req); err != nil {
		p.logger.Warn("job description has unexpected shape, using defaults", zap.Error(err))
		return Default(), nil
	}

	for _, issue := range Validate(&req) {
		p.logger.Warn("job description field repaired", zap.String("issue", issue))
	}
	req.normalize()

	p.logger.Info("parsed job description",
		zap.Int("required_skills", len(req.RequiredSkills)),
		zap.Int("preferred_skills", len(req.PreferredSkills)),
		zap.Float64("min_experience_years", req.MinExperienceYears),
		zap.String("role_level", req.RoleLevel),
		zap.String("domain", req.Domain),
	)

	return &req, nil
}

// coerceYears turns answers such as "3+ years" into a number before decoding.
func coerceYears(value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	raw, ok := obj["min_experience_years"].(string)
	if !ok {
		return value
	}
	if m := leadingNumber.FindString(raw); m != "" {
		if years, err := strconv.ParseFloat(m, 64); err == nil {
			obj["min_experience_years"] = years
			return obj
		}
	}
	obj["min_experience_years"] = 0.0
	return obj
}
