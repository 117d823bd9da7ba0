// Package ai defines the text completion boundary used by every LLM consumer.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrTimeout reports a completion that exceeded its wall-clock budget.
	ErrTimeout = errors.New("llm request timed out")
	// ErrUnreachable reports a completion service that could not serve the request.
	ErrUnreachable = errors.New("llm service unreachable")
	// ErrEmptyResponse reports a completion that carried no text.
	ErrEmptyResponse = errors.New("llm returned empty response")
)

// Options tune a single completion.
type Options struct {
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// TextService turns a prompt into raw model text.
// Implementations do not retry; see WithRetry.
type TextService interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Describer is implemented by services that can name their provider and model.
type Describer interface {
	Provider() string
	Model() string
}

// StatusError is a non-success answer from the completion endpoint.
type StatusError struct {
	Code int
	Body string
	// RetryAfter is the delay the service asked for, when it said so.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("llm status %d", e.Code)
	}
	return fmt.Sprintf("llm status %d: %s", e.Code, e.Body)
}

// Is treats throttling and server-side failures as an unreachable service.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnreachable && e.Transient()
}

// Transient reports whether the same request may succeed later.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Describe returns provider and model for svc when it exposes them.
func Describe(svc TextService) (provider, model string) {
	if d, ok := svc.(Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}
