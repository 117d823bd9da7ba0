package resume

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
)

const (
	// MinTextLength is the shortest extracted text worth sending to the model.
	MinTextLength = 50
	// DefaultMaxChars roughly matches an 8000 token context.
	DefaultMaxChars = 32000
	// ParseTemperature keeps extraction close to deterministic.
	ParseTemperature = 0.05

	truncationMarker = "...[truncated]"
)

// ErrInsufficientText reports a source that yielded too little text to parse.
var ErrInsufficientText = errors.New("could not extract sufficient text from resume")

//go:embed prompt.md
var parsePrompt string

// Parser turns raw resume text into a structured Resume with one model call.
type Parser struct {
	llm      ai.TextService
	opts     ai.Options
	retry    ai.JSONRetry
	maxChars int
	logger   *zap.Logger
}

func NewParser(llm ai.TextService, opts ai.Options, retry ai.JSONRetry, maxChars int, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Parser{llm: llm, opts: opts, retry: retry, maxChars: maxChars, logger: logger}
}

// Parse extracts a resume from text. The result is normalized but carries
// no ID; see ParseFile.
func (p *Parser) Parse(ctx context.Context, text string) (*Resume, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return nil, ErrInsufficientText
	}

	if utf8.RuneCountInString(text) > p.maxChars {
		p.logger.Debug("truncating resume text", zap.Int("max_chars", p.maxChars))
		text = string([]rune(text)[:p.maxChars]) + truncationMarker
	}

	prompt := strings.ReplaceAll(parsePrompt, "{{RESUME_TEXT}}", text)

	value, err := ai.CompleteJSON(ctx, p.llm, prompt, p.opts, p.retry)
	if err != nil {
		return nil, fmt.Errorf("parse resume with llm: %w", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("re-encode parsed resume: %w", err)
	}

	var r Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode parsed resume: %w", err)
	}
	Normalize(&r)

	if r.PersonalInfo.Name == "" {
		p.logger.Warn("parsed resume has no candidate name; it will be skipped during screening")
	}

	return &r, nil
}

// ParseFile extracts the text of path and parses it. The candidate ID is the
// file name without its extension.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Resume, error) {
	text, err := ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}

	r, err := p.Parse(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	name := filepath.Base(path)
	r.ID = strings.TrimSuffix(name, filepath.Ext(name))
	r.Filename = name

	p.logger.Info("parsed resume",
		zap.String("file", name),
		zap.String("name", r.PersonalInfo.Name),
		zap.Int("positions", len(r.Experience)),
		zap.Int("skills", len(r.Skills.Technical)+len(r.Skills.Tools)),
	)
	return r, nil
}

// Save writes r as <dir>/<id>.json and returns the path.
func Save(r *Resume, dir string) (string, error) {
	if r.ID == "" {
		return "", errors.New("save resume: missing id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode resume: %w", err)
	}

	path := filepath.Join(dir, r.ID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write resume: %w", err)
	}
	return path, nil
}
