package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
)

// RetryConfig bounds transport retries.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = time.Second
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	return c
}

type retrying struct {
	next   TextService
	cfg    RetryConfig
	logger *zap.Logger
}

// WithRetry wraps svc so that unreachable-service failures are retried with
// exponential backoff. Timeouts and client errors are returned at once.
func WithRetry(svc TextService, cfg RetryConfig, log *zap.Logger) TextService {
	provider, model := Describe(svc)
	return &retrying{
		next:   svc,
		cfg:    cfg.withDefaults(),
		logger: logger.WithLLM(log, provider, model),
	}
}

func (r *retrying) Provider() string {
	provider, _ := Describe(r.next)
	return provider
}

func (r *retrying) Model() string {
	_, model := Describe(r.next)
	return model
}

func (r *retrying) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.cfg.InitialInterval
	expo.MaxInterval = r.cfg.MaxInterval
	expo.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(r.cfg.MaxAttempts-1)), ctx)

	var (
		output  string
		attempt int
	)
	op := func() error {
		attempt++
		text, err := r.next.Complete(ctx, prompt, opts)
		if err == nil {
			output = text
			return nil
		}
		if !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("llm request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.cfg.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return "", err
	}

	return output, nil
}

func (r *retrying) retryable(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Transient() && status.RetryAfter <= r.cfg.MaxInterval
	}
	return errors.Is(err, ErrUnreachable)
}
