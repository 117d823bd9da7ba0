package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/ollama"
	"github.com/spigell/resume-screener/internal/secrets"
)

const jsonRetryDelay = time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// newBackend builds the raw completion client for the configured provider.
func newBackend(ctx context.Context, cfg *LLMConfig, logger *zap.Logger) (ai.TextService, error) {
	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", "ollama":
		baseURL := ""
		if cfg.Ollama != nil {
			baseURL = cfg.Ollama.BaseURL
		}
		return ollama.New(baseURL, cfg.Model, cfg.Timeout, logger), nil
	case "gemini":
		return newGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

func newGemini(ctx context.Context, cfg *LLMConfig) (ai.TextService, error) {
	gc := cfg.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	genCfg := gemini.Config{
		Model:    cfg.Model,
		Backend:  gc.Backend,
		Project:  gc.Project,
		Location: gc.Location,
		Timeout:  cfg.Timeout,
	}

	if gc.Backend != gemini.BackendVertexAI {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gc.APIKey,
			File:  gc.APIKeyFile,
			Env:   []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set llm.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		genCfg.APIKey = apiKey
	}

	return gemini.NewGenerator(ctx, genCfg)
}

// newTextService decorates backend with instrumentation and transport
// retries. Every attempt is observed separately.
func newTextService(backend ai.TextService, cfg *LLMConfig, observer ai.Observer, logger *zap.Logger) ai.TextService {
	instrumented := ai.Instrument(backend, observer, logger, cfg.MaxLogLength)
	return ai.WithRetry(instrumented, ai.RetryConfig{MaxAttempts: cfg.MaxRetries}, logger)
}

// checkHealth warns when the backend does not answer. The run continues and
// degrades to fallback scores.
func checkHealth(ctx context.Context, backend ai.TextService, logger *zap.Logger) {
	p, ok := backend.(pinger)
	if !ok {
		return
	}
	if err := p.Ping(ctx); err != nil {
		logger.Warn("llm service is not reachable, scores will fall back to baselines",
			zap.Error(err),
			zap.String("hint", "start the service or check llm.ollama.base-url"),
		)
		return
	}
	logger.Debug("llm service is reachable")
}

func jsonRetry(cfg *LLMConfig) ai.JSONRetry {
	return ai.JSONRetry{Attempts: cfg.JSONRetries, Delay: jsonRetryDelay}
}
