package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the LLM backend name, such as ollama or gemini.
	FieldProvider = "llm_provider"
	// FieldModel is the LLM model identifier.
	FieldModel = "llm_model"
	// FieldRunID identifies a single screening run.
	FieldRunID = "run_id"
	// FieldCandidate is the candidate identifier, usually the resume file stem.
	FieldCandidate = "candidate_id"
	// FieldAgent names the scoring agent that produced an entry.
	FieldAgent = "agent"
	// FieldState is the orchestrator state a run has entered.
	FieldState = "state"
)

// nonEmpty turns key/value pairs into string fields, trimming whitespace and
// dropping pairs whose value is blank.
func nonEmpty(pairs ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if value := strings.TrimSpace(pairs[i+1]); value != "" {
			fields = append(fields, zap.String(pairs[i], value))
		}
	}
	return fields
}

// with attaches fields to logger, falling back to a no-op logger when nil.
func with(logger *zap.Logger, fields []zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// LLMFields describes the backend serving completions. Empty values are omitted.
func LLMFields(provider, model string) []zap.Field {
	return nonEmpty(FieldProvider, provider, FieldModel, model)
}

// WithLLM attaches the provider and model to logger.
func WithLLM(logger *zap.Logger, provider, model string) *zap.Logger {
	return with(logger, LLMFields(provider, model))
}

// WithRun attaches the run ID to logger.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return with(logger, nonEmpty(FieldRunID, runID))
}

// WithCandidate attaches the candidate ID to logger.
func WithCandidate(logger *zap.Logger, candidateID string) *zap.Logger {
	return with(logger, nonEmpty(FieldCandidate, candidateID))
}

// WithAgent attaches the agent name to logger.
func WithAgent(logger *zap.Logger, agent string) *zap.Logger {
	return with(logger, nonEmpty(FieldAgent, agent))
}
