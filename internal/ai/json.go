package ai

import (
	"context"
	"time"

	"github.com/spigell/resume-screener/internal/jsonrepair"
	"github.com/spigell/resume-screener/internal/utils"
)

// StrictJSONSuffix is appended to a prompt after the model returned unusable JSON.
const StrictJSONSuffix = "\n\nRETURN ONLY VALID JSON. Start with { and end with }. No markdown, no code blocks."

// JSONRetry bounds re-asking the model when its output cannot be parsed.
type JSONRetry struct {
	// Attempts counts the first call. Values below 1 mean a single call.
	Attempts int
	Delay    time.Duration
}

// CompleteJSON asks svc for a JSON answer and extracts it. When extraction
// fails and attempts remain, the prompt is tightened and sent again after
// Delay. Transport errors are returned immediately. The error after the last
// attempt wraps jsonrepair.ErrMalformedOutput.
func CompleteJSON(ctx context.Context, svc TextService, prompt string, opts Options, retry JSONRetry) (any, error) {
	attempts := retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt == 1 {
			prompt += StrictJSONSuffix
		}
		if attempt > 0 {
			if err := utils.WaitFor(ctx, retry.Delay); err != nil {
				return nil, err
			}
		}

		text, err := svc.Complete(ctx, prompt, opts)
		if err != nil {
			return nil, err
		}

		value, err := jsonrepair.Extract(text)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}

	return nil, lastErr
}
