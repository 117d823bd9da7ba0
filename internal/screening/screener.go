// Package screening runs a batch of resumes through the scoring pipeline:
// parse the job description, load and filter candidates, score each one with
// every agent, then combine and rank.
package screening

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-screener/internal/agents"
	"github.com/spigell/resume-screener/internal/facts"
	"github.com/spigell/resume-screener/internal/filtering"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/scoring"
)

// ErrEmptyBatch reports a run with no valid candidates left to rank.
var ErrEmptyBatch = errors.New("no valid candidates to screen")

// MissingPhone is reported for candidates without a phone number.
const MissingPhone = "N/A"

// State is a step of a screening run. A run moves through the states in
// declaration order and never goes back.
type State string

const (
	StateInit             State = "init"
	StateJDParsed         State = "jd_parsed"
	StateCandidatesLoaded State = "candidates_loaded"
	StateScoring          State = "scoring"
	StateRanked           State = "ranked"
	StateDone             State = "done"
)

// Source provides the candidate batch.
type Source interface {
	Load(ctx context.Context) ([]*resume.Resume, error)
}

// RequirementsParser turns a job description into requirements.
type RequirementsParser interface {
	Parse(ctx context.Context, text string) (*jd.Requirements, error)
}

// Recorder receives run metrics.
type Recorder interface {
	ObserveAgent(agent, category string, score float64, degraded bool)
	SetCandidates(stage string, n int)
	ObserveRun(elapsed time.Duration)
}

// Config tunes a Screener.
type Config struct {
	// Weights defaults to scoring.DefaultWeights.
	Weights scoring.Weights
	// Parallelism is the number of candidates scored at once. Values below 1 mean 1.
	Parallelism int
	// Filters run between loading and scoring, in order.
	Filters      []filtering.Filter
	FilterConfig *filtering.Config
	// Now fixes the instant ongoing positions end at. Defaults to time.Now.
	Now func() time.Time
	// OnState, when set, is called on every state change.
	OnState func(State)
}

// Report is the outcome of one run.
type Report struct {
	RunID        string
	Requirements *jd.Requirements
	Weights      scoring.Weights
	Results      []scoring.CandidateResult
	// Issues are non-fatal validation findings.
	Issues    []string
	StartedAt time.Time
	Elapsed   time.Duration
}

// Screener is safe for sequential reuse; each Run is independent.
type Screener struct {
	parser   RequirementsParser
	agents   map[scoring.Category]agents.Agent
	cfg      Config
	recorder Recorder
	logger   *zap.Logger
	tracer   trace.Tracer
}

// New wires a Screener. Exactly one agent per scoring category is required.
// recorder may be nil.
func New(parser RequirementsParser, list []agents.Agent, cfg Config, recorder Recorder, log *zap.Logger) (*Screener, error) {
	if parser == nil {
		return nil, errors.New("requirements parser is required")
	}

	byCategory := make(map[scoring.Category]agents.Agent, len(list))
	for _, a := range list {
		if _, dup := byCategory[a.Category()]; dup {
			return nil, &scoring.ConfigurationError{Reason: fmt.Sprintf("more than one agent for %q", a.Category())}
		}
		byCategory[a.Category()] = a
	}
	for _, c := range scoring.Categories {
		if _, ok := byCategory[c]; !ok {
			return nil, &scoring.ConfigurationError{Reason: fmt.Sprintf("no agent for %q", c)}
		}
	}

	if cfg.Weights.IsZero() {
		cfg.Weights = scoring.DefaultWeights()
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Screener{
		parser:   parser,
		agents:   byCategory,
		cfg:      cfg,
		recorder: recorder,
		logger:   log,
		tracer:   otel.Tracer("github.com/spigell/resume-screener/internal/screening"),
	}, nil
}

// Run screens the batch from src against jdText.
//
// Only batch-level problems fail a run: an empty job description, a source
// that cannot be read, or no candidates left after loading and filtering.
// Model failures degrade individual agent results instead.
func (s *Screener) Run(ctx context.Context, jdText string, src Source) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Weights:   s.cfg.Weights,
		StartedAt: s.cfg.Now(),
	}
	log := logger.WithRun(s.logger, report.RunID)
	started := time.Now()

	ctx, span := s.tracer.Start(ctx, "screening.run", trace.WithAttributes(attribute.String("run.id", report.RunID)))
	defer span.End()

	fail := func(err error) (*Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.enter(log, StateInit)

	req, err := s.parser.Parse(ctx, jdText)
	if err != nil {
		return fail(fmt.Errorf("parse job description: %w", err))
	}
	report.Requirements = req
	s.enter(log, StateJDParsed)

	batch, err := src.Load(ctx)
	if err != nil {
		return fail(fmt.Errorf("load candidates: %w", err))
	}
	s.observeCandidates("loaded", len(batch))

	if len(s.cfg.Filters) > 0 {
		batch, err = filtering.Run(ctx, s.cfg.FilterConfig, filtering.Deps{Logger: log}, s.cfg.Filters, batch)
		if err != nil {
			return fail(fmt.Errorf("filter candidates: %w", err))
		}
	}
	s.observeCandidates("filtered", len(batch))

	if len(batch) == 0 {
		return fail(ErrEmptyBatch)
	}
	s.enter(log, StateCandidatesLoaded)
	span.SetAttributes(attribute.Int("run.candidates", len(batch)))

	s.enter(log, StateScoring)
	results, err := s.scoreAll(ctx, log, req, batch)
	if err != nil {
		return fail(err)
	}
	s.observeCandidates("scored", len(results))

	scoring.Rank(results)
	issues, err := scoring.ValidateResults(results)
	if err != nil {
		return fail(err)
	}
	for _, issue := range issues {
		log.Warn("result validation issue", zap.String("issue", issue))
	}
	for _, r := range results {
		if !scoring.CheckConsistency(r, s.cfg.Weights) {
			issue := fmt.Sprintf("%s: total score does not match weighted breakdown", r.CandidateID)
			log.Warn("result validation issue", zap.String("issue", issue))
			issues = append(issues, issue)
		}
	}
	report.Results = results
	report.Issues = issues
	s.enter(log, StateRanked)

	report.Elapsed = time.Since(started)
	if s.recorder != nil {
		s.recorder.ObserveRun(report.Elapsed)
	}
	s.enter(log, StateDone)

	log.Info("screening finished",
		zap.Int("candidates", len(results)),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// scoreAll scores candidates with bounded parallelism. Results keep batch
// order; ranking happens afterwards, so parallelism never changes the outcome.
func (s *Screener) scoreAll(ctx context.Context, log *zap.Logger, req *jd.Requirements, batch []*resume.Resume) ([]scoring.CandidateResult, error) {
	results := make([]scoring.CandidateResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)

	for i, r := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Info("scoring candidate",
				zap.String(logger.FieldCandidate, r.ID),
				zap.Int("position", i+1),
				zap.Int("total", len(batch)),
			)
			results[i] = s.scoreCandidate(gctx, log, req, r)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	return results, nil
}

// scoreCandidate runs every agent concurrently and waits for all of them.
// Agents never fail, so the group only carries cancellation.
func (s *Screener) scoreCandidate(ctx context.Context, log *zap.Logger, req *jd.Requirements, r *resume.Resume) scoring.CandidateResult {
	ctx, span := s.tracer.Start(ctx, "screening.candidate", trace.WithAttributes(attribute.String("candidate.id", r.ID)))
	defer span.End()
	log = logger.WithCandidate(log, r.ID)

	in := agents.Input{
		Resume:       r,
		Requirements: req,
		Facts:        facts.Compute(r, req, s.cfg.Now()),
	}

	var (
		mu        sync.Mutex
		breakdown = make(map[scoring.Category]scoring.AgentResult, len(scoring.Categories))
		wg        sync.WaitGroup
	)
	for _, c := range scoring.Categories {
		agent := s.agents[c]
		wg.Add(1)
		go func() {
			defer wg.Done()
			actx, aspan := s.tracer.Start(ctx, "screening.agent", trace.WithAttributes(attribute.String("agent", agent.Name())))
			res := agent.Score(actx, in)
			aspan.SetAttributes(attribute.Float64("agent.score", res.Score), attribute.Bool("agent.degraded", res.Degraded))
			aspan.End()

			mu.Lock()
			breakdown[c] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, c := range scoring.Categories {
		res := breakdown[c]
		name := s.agents[c].Name()
		for _, issue := range scoring.ValidateAgentResult(name, res) {
			log.Debug("agent result issue", zap.String(logger.FieldAgent, name), zap.String("issue", issue))
		}
		if s.recorder != nil {
			s.recorder.ObserveAgent(name, string(c), res.Score, res.Degraded)
		}
	}

	combined := scoring.Combine(breakdown[scoring.Technical], breakdown[scoring.Career], breakdown[scoring.Fit], s.cfg.Weights)

	phone := r.PersonalInfo.Phone.String()
	if phone == "" {
		phone = MissingPhone
	}

	result := scoring.CandidateResult{
		CandidateID:    r.ID,
		Name:           r.PersonalInfo.Name,
		Email:          r.PersonalInfo.Email,
		Phone:          phone,
		Filename:       r.Filename,
		TotalScore:     combined.Total,
		Breakdown:      combined.Breakdown,
		WeightedScores: combined.WeightedScores,
		Tier:           scoring.Tier(combined.Total),
		Confidence:     scoring.Confidence(combined.Breakdown),
	}
	span.SetAttributes(attribute.Float64("candidate.total_score", result.TotalScore))

	log.Info("candidate scored",
		zap.Float64("total_score", result.TotalScore),
		zap.Float64("technical", breakdown[scoring.Technical].Score),
		zap.Float64("career", breakdown[scoring.Career].Score),
		zap.Float64("fit", breakdown[scoring.Fit].Score),
	)
	return result
}

func (s *Screener) enter(log *zap.Logger, state State) {
	log.Debug("screening state", zap.String(logger.FieldState, string(state)))
	if s.cfg.OnState != nil {
		s.cfg.OnState(state)
	}
}

func (s *Screener) observeCandidates(stage string, n int) {
	if s.recorder != nil {
		s.recorder.SetCandidates(stage, n)
	}
}
