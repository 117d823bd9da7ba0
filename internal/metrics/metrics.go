// Package metrics collects per-run screening metrics on a private registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "resume_screener"

// Recorder owns the collectors of one process.
type Recorder struct {
	registry *prometheus.Registry

	llmRequests    *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
	agentResults   *prometheus.CounterVec
	agentFallbacks *prometheus.CounterVec
	scores         *prometheus.HistogramVec
	candidates     *prometheus.GaugeVec
	runDuration    prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total number of LLM completions by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "LLM completion duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider"},
		),
		agentResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_results_total",
				Help:      "Total number of agent results",
			},
			[]string{"agent"},
		),
		agentFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_fallbacks_total",
				Help:      "Agent results built without a usable model answer",
			},
			[]string{"agent"},
		),
		scores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_score",
				Help:      "Distribution of agent scores by category",
				Buckets:   prometheus.LinearBuckets(10, 10, 9),
			},
			[]string{"category"},
		),
		candidates: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "candidates",
				Help:      "Candidates seen at each stage of the last run",
			},
			[]string{"stage"},
		),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last screening run",
		}),
	}
}

// Registry exposes the collectors for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCompletion records one LLM call.
func (r *Recorder) ObserveCompletion(provider, outcome string, elapsed time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	r.llmRequests.WithLabelValues(provider, outcome).Inc()
	r.llmDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveAgent records one agent result.
func (r *Recorder) ObserveAgent(agent, category string, score float64, degraded bool) {
	r.agentResults.WithLabelValues(agent).Inc()
	if degraded {
		r.agentFallbacks.WithLabelValues(agent).Inc()
	}
	r.scores.WithLabelValues(category).Observe(score)
}

// SetCandidates records the batch size at a pipeline stage.
func (r *Recorder) SetCandidates(stage string, n int) {
	r.candidates.WithLabelValues(stage).Set(float64(n))
}

// ObserveRun records the duration of a finished run.
func (r *Recorder) ObserveRun(elapsed time.Duration) {
	r.runDuration.Set(elapsed.Seconds())
}

// WriteToTextfile dumps the registry in the text exposition format, for
// pickup by the node exporter textfile collector.
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
