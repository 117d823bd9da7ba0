package ai

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/utils"
)

const defaultMaxLogLength = 200

// Observer records completion outcomes.
type Observer interface {
	ObserveCompletion(provider, outcome string, elapsed time.Duration)
}

type instrumented struct {
	next      TextService
	observer  Observer
	logger    *zap.Logger
	provider  string
	model     string
	maxLogLen int
}

// Instrument wraps svc with debug logging of prompts and responses, a trace
// span per call and outcome metrics. observer may be nil.
func Instrument(svc TextService, observer Observer, log *zap.Logger, maxLogLength int) TextService {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	provider, model := Describe(svc)
	return &instrumented{
		next:      svc,
		observer:  observer,
		logger:    logger.WithLLM(log, provider, model),
		provider:  provider,
		model:     model,
		maxLogLen: maxLogLength,
	}
}

func (i *instrumented) Provider() string { return i.provider }

func (i *instrumented) Model() string { return i.model }

func (i *instrumented) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	ctx, span := otel.Tracer("github.com/spigell/resume-screener/internal/ai").Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", i.provider),
		attribute.String("llm.model", i.model),
		attribute.Int("llm.prompt_length", utf8.RuneCountInString(prompt)),
	)

	i.logger.Debug("llm request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, i.maxLogLen)),
	)

	start := time.Now()
	text, err := i.next.Complete(ctx, prompt, opts)
	elapsed := time.Since(start)

	if i.observer != nil {
		i.observer.ObserveCompletion(i.provider, Outcome(err), elapsed)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Debug("llm request failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", err
	}

	i.logger.Debug("llm response",
		zap.Duration("elapsed", elapsed),
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, i.maxLogLen)),
	)

	return text, nil
}

// Outcome maps a completion error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}
