package agents

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/facts"
	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/scoring"
)

type stubLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string, _ ai.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func techFacts() *facts.Baseline {
	return &facts.Baseline{
		CandidateSkills:      []string{"Go", "Docker", "Rust"},
		RequiredSkills:       []string{"Go", "Docker", "Kubernetes"},
		MatchedSkills:        []string{"Go", "Docker"},
		MissingSkills:        []string{"Kubernetes"},
		SkillMatchPercentage: 66.7,
		TotalMonths:          48,
		YearsOfExperience:    4,
		MinRequiredYears:     5,
		EducationScore:       100,
		EducationRelevant:    true,
		Degrees:              []string{"B.S. Computer Science"},
		RoleRelevant:         true,
		RelevantRoles:        []string{"Backend Engineer"},
		AllRoles:             []string{"Backend Engineer"},
		ProjectCount:         1,
	}
}

func testInput(f *facts.Baseline) Input {
	return Input{
		Resume: &resume.Resume{
			ID:           "alice",
			PersonalInfo: resume.PersonalInfo{Name: "Alice", Email: "alice@example.com", Phone: "123"},
			Summary:      "Backend engineer.",
			Experience:   []resume.Position{{Company: "Acme", Title: "Backend Engineer", StartDate: "Jan 2020", EndDate: "Present"}},
		},
		Requirements: &jd.Requirements{
			RequiredSkills:     []string{"Go", "Docker", "Kubernetes"},
			MinExperienceYears: 5,
			RoleLevel:          "senior",
			CultureIndicators:  []string{"ownership"},
		},
		Facts: f,
	}
}

func TestBoundAdjustment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		baseline float64
		adj      float64
		err      error
		want     float64
	}{
		{name: "within bound", baseline: 40, adj: 5, want: 45},
		{name: "clamped up", baseline: 40, adj: 25, want: 50},
		{name: "clamped down", baseline: 40, adj: -25, want: 30},
		{name: "error ignores adjustment", baseline: 40, adj: 8, err: errors.New("boom"), want: 40},
		{name: "nan ignored", baseline: 40, adj: math.NaN(), want: 40},
		{name: "upper score bound", baseline: 95, adj: 10, want: 100},
		{name: "lower score bound", baseline: 3, adj: -10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Adjust(tt.baseline, tt.adj, tt.err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, math.Abs(got-tt.baseline), MaxAdjustment)
		})
	}
}

func TestSkillAgentAppliesBoundedAdjustment(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{reply: "```json\n{\"adjustment\": 25, \"reasoning\": \"Strong projects.\", \"category_scores\": {\"project_quality\": 90}}\n```"}
	agent := NewSkillAgent(llm, Config{}, zap.NewNop())

	res := agent.Score(context.Background(), testInput(techFacts()))

	assert.Equal(t, scoring.Technical, agent.Category())
	assert.Equal(t, "skill", agent.Name())
	assert.Equal(t, 90.0, res.Score)
	assert.Equal(t, "Matched 2/3 skills. Strong projects.", res.Reasoning)
	assert.Equal(t, 80.0, res.CategoryScores["baseline"])
	assert.Equal(t, 10.0, res.CategoryScores["llm_adjustment"])
	assert.Equal(t, 90.0, res.CategoryScores["final"])
	assert.Contains(t, res.Strengths, "Has: Go, Docker")
	assert.Contains(t, res.Weaknesses, "Missing: Kubernetes")
	assert.False(t, res.Degraded)

	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompts[0], "FACTUAL ANALYSIS (VERIFIED FROM RESUME):")
	assert.Contains(t, llm.prompts[0], "- Matched: Go, Docker")
	assert.Contains(t, llm.prompts[0], "Given the baseline score of 80/100")
}

func TestSkillAgentFallsBackOnUnparseableAnswer(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	llm := &stubLLM{reply: "I think this candidate is great"}
	agent := NewSkillAgent(llm, Config{}, zap.New(core))

	res := agent.Score(context.Background(), testInput(techFacts()))

	assert.Equal(t, 80.0, res.Score)
	assert.Equal(t, 0.0, res.CategoryScores["llm_adjustment"])
	assert.Contains(t, res.Reasoning, ParseFailureReasoning)
	assert.True(t, res.Degraded)

	entries := logs.FilterMessage("agent falling back").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "skill", entries[0].ContextMap()["agent"])
	assert.Equal(t, "alice", entries[0].ContextMap()["candidate_id"])
}

func TestSkillAgentReportsUnavailableService(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{err: ai.ErrUnreachable}
	res := NewSkillAgent(llm, Config{}, nil).Score(context.Background(), testInput(techFacts()))

	assert.Equal(t, 80.0, res.Score)
	assert.Contains(t, res.Reasoning, UnavailableReasoning)
	assert.True(t, res.Degraded)
}

func TestSkillAgentComputesMissingFacts(t *testing.T) {
	t.Parallel()

	in := testInput(nil)
	in.Resume.Skills = resume.Skills{Technical: []string{"go", "docker"}}
	in.Resume.Education = []resume.Degree{{Degree: "BSc Computer Science"}}

	now := func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	llm := &stubLLM{reply: `{"adjustment": 0, "reasoning": "ok"}`}
	res := NewSkillAgent(llm, Config{Now: now}, nil).Score(context.Background(), in)

	assert.Equal(t, 66.7, res.CategoryScores["skill_match"])
	assert.Equal(t, 100.0, res.CategoryScores["education_relevance"])
	assert.Equal(t, 80.0, res.Score)
}

func TestYearsScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100.0, YearsScore(3.5, 2))
	assert.Equal(t, 90.0, YearsScore(2, 2))
	assert.Equal(t, 70.0, YearsScore(4, 5))
	assert.Equal(t, 35.0, YearsScore(1, 2))
	assert.Equal(t, 20.0, YearsScore(0.1, 2))
	assert.Equal(t, 80.0, YearsScore(3, 0))
	assert.Equal(t, 100.0, YearsScore(9, 0))
	assert.Equal(t, 50.0, YearsScore(0, 0))
}

func TestExperienceAgent(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{reply: `{"adjustment": -4, "reasoning": "Lateral moves."}`}
	agent := NewExperienceAgent(llm, Config{}, nil)

	res := agent.Score(context.Background(), testInput(techFacts()))

	assert.Equal(t, scoring.Career, agent.Category())
	assert.Equal(t, 66.0, res.Score)
	assert.Equal(t, 70.0, res.CategoryScores["baseline"])
	assert.Equal(t, "4 yrs experience (required: 5). Roles relevant. Lateral moves.", res.Reasoning)
	assert.Equal(t, []string{"Has 4 years of experience", "Relevant roles: Backend Engineer"}, res.Strengths)
	assert.Equal(t, []string{"Below 5 year requirement"}, res.Weaknesses)
	assert.Equal(t, -4.0, res.CategoryScores["llm_adjustment"])
	assert.Contains(t, llm.prompts[0], "- 4 years experience (required: 5)")
}

func TestExperienceAgentPenalisesIrrelevantRoles(t *testing.T) {
	t.Parallel()

	f := techFacts()
	f.YearsOfExperience = 3
	f.MinRequiredYears = 0
	f.RoleRelevant = false
	f.RelevantRoles = []string{}

	llm := &stubLLM{err: ai.ErrTimeout}
	res := NewExperienceAgent(llm, Config{}, nil).Score(context.Background(), testInput(f))

	assert.Equal(t, 48.0, res.Score)
	assert.Equal(t, 80.0, res.CategoryScores["years"])
	assert.Contains(t, res.Reasoning, "Roles not relevant.")
	assert.Contains(t, res.Reasoning, UnavailableReasoning)
	assert.Equal(t, []string{"No relevant technical experience"}, res.Weaknesses)
	assert.True(t, res.Degraded)
}

func TestFitAgentClampsModelScore(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{reply: `{"score": 150, "reasoning": "Clear story.", "strengths": ["clarity"], "weaknesses": [], "category_scores": {"resume_quality": "120", "learning_attitude": 70}}`}
	agent := NewFitAgent(llm, Config{}, nil)

	res := agent.Score(context.Background(), testInput(nil))

	assert.Equal(t, scoring.Fit, agent.Category())
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "Clear story.", res.Reasoning)
	assert.Equal(t, []string{"clarity"}, res.Strengths)
	assert.Equal(t, map[string]float64{"resume_quality": 100, "learning_attitude": 70}, res.CategoryScores)
	assert.False(t, res.Degraded)
	assert.Contains(t, llm.prompts[0], "Culture Indicators: ownership")
	assert.Contains(t, llm.prompts[0], "  - Backend Engineer at Acme")
}

func TestFitAgentFallback(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{reply: "{not json at all"}
	res := NewFitAgent(llm, Config{Retry: ai.JSONRetry{Attempts: 2}}, nil).Score(context.Background(), testInput(nil))

	assert.Equal(t, scoring.NeutralScore, res.Score)
	assert.Equal(t, ParseFailureReasoning, res.Reasoning)
	assert.Empty(t, res.Strengths)
	assert.NotNil(t, res.Strengths)
	assert.Empty(t, res.CategoryScores)
	assert.True(t, res.Degraded)
	assert.Equal(t, 2, llm.calls())
	assert.Contains(t, llm.prompts[1], ai.StrictJSONSuffix)
}

func TestAgentsSatisfyInterface(t *testing.T) {
	t.Parallel()

	var list []Agent
	list = append(list,
		NewSkillAgent(&stubLLM{}, Config{}, nil),
		NewExperienceAgent(&stubLLM{}, Config{}, nil),
		NewFitAgent(&stubLLM{}, Config{}, nil),
	)

	seen := map[scoring.Category]bool{}
	for _, a := range list {
		seen[a.Category()] = true
	}
	assert.Len(t, seen, len(scoring.Categories))
}
