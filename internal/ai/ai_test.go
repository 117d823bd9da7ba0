package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/jsonrepair"
)

type stubService struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (s *stubService) Complete(_ context.Context, prompt string, _ Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	if err != nil {
		return "", err
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", nil
}

func (s *stubService) Provider() string { return "stub" }

func (s *stubService) Model() string { return "stub-model" }

var fastRetry = RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func TestWithRetryRecoversFromUnreachable(t *testing.T) {
	stub := &stubService{
		errs:      []error{ErrUnreachable, &StatusError{Code: http.StatusBadGateway}},
		responses: []string{"", "", "ok"},
	}

	svc := WithRetry(stub, fastRetry, zap.NewNop())
	out, err := svc.Complete(context.Background(), "prompt", Options{})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, stub.prompts, 3)
}

func TestWithRetryStopsAfterMaxAttempts(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	stub := &stubService{errs: []error{ErrUnreachable, ErrUnreachable, ErrUnreachable, ErrUnreachable}}

	svc := WithRetry(stub, fastRetry, zap.New(core))
	_, err := svc.Complete(context.Background(), "prompt", Options{})

	require.ErrorIs(t, err, ErrUnreachable)
	assert.Len(t, stub.prompts, 3)
	assert.Equal(t, 2, observed.FilterMessage("llm request failed, retrying").Len())
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "timeout", err: ErrTimeout},
		{name: "client error", err: &StatusError{Code: http.StatusBadRequest, Body: "bad model"}},
		{name: "long quota delay", err: &StatusError{Code: http.StatusTooManyRequests, RetryAfter: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubService{errs: []error{tt.err, tt.err}}
			svc := WithRetry(stub, fastRetry, zap.NewNop())

			_, err := svc.Complete(context.Background(), "prompt", Options{})
			require.Error(t, err)
			assert.Len(t, stub.prompts, 1)
		})
	}
}

func TestWithRetryKeepsDescription(t *testing.T) {
	t.Parallel()

	provider, model := Describe(WithRetry(&stubService{}, RetryConfig{}, nil))
	assert.Equal(t, "stub", provider)
	assert.Equal(t, "stub-model", model)
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, &StatusError{Code: http.StatusServiceUnavailable}, ErrUnreachable)
	assert.ErrorIs(t, &StatusError{Code: http.StatusTooManyRequests}, ErrUnreachable)
	assert.NotErrorIs(t, &StatusError{Code: http.StatusNotFound}, ErrUnreachable)
}

func TestCompleteJSON(t *testing.T) {
	t.Parallel()

	stub := &stubService{responses: []string{"Sorry, I cannot do that.", "```json\n{\"score\": 70}\n```"}}

	value, err := CompleteJSON(context.Background(), stub, "score this", Options{}, JSONRetry{Attempts: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"score": 70.0}, value)

	require.Len(t, stub.prompts, 2)
	assert.False(t, strings.HasSuffix(stub.prompts[0], StrictJSONSuffix))
	assert.True(t, strings.HasSuffix(stub.prompts[1], StrictJSONSuffix))
}

func TestCompleteJSONFailures(t *testing.T) {
	t.Parallel()

	stub := &stubService{responses: []string{"nope", "still nope"}}
	_, err := CompleteJSON(context.Background(), stub, "p", Options{}, JSONRetry{Attempts: 2})
	require.ErrorIs(t, err, jsonrepair.ErrMalformedOutput)
	assert.Len(t, stub.prompts, 2)

	transport := &stubService{errs: []error{ErrTimeout}}
	_, err = CompleteJSON(context.Background(), transport, "p", Options{}, JSONRetry{Attempts: 3})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Len(t, transport.prompts, 1)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveCompletion(_, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestInstrument(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	rec := &recordingObserver{}
	stub := &stubService{
		responses: []string{"first answer"},
		errs:      []error{nil, ErrTimeout},
	}

	svc := Instrument(stub, rec, zap.New(core), 5)

	out, err := svc.Complete(context.Background(), "a long prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "first answer", out)

	_, err = svc.Complete(context.Background(), "again", Options{})
	require.True(t, errors.Is(err, ErrTimeout))

	assert.Equal(t, []string{"ok", "timeout"}, rec.outcomes)

	requests := observed.FilterMessage("llm request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, "a lon...", requests[0].ContextMap()["prompt_preview"])
	assert.Equal(t, "stub", requests[0].ContextMap()["llm_provider"])
}
