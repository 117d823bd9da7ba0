package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/resume"
)

func candidate(id, email string) *resume.Resume {
	return &resume.Resume{ID: id, PersonalInfo: resume.PersonalInfo{Name: id, Email: email}}
}

func ids(batch []*resume.Resume) []string {
	out := make([]string, 0, len(batch))
	for _, r := range batch {
		out = append(out, r.ID)
	}
	return out
}

func TestRunDefaultChain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exclude := filepath.Join(dir, "exclude.txt")
	require.NoError(t, os.WriteFile(exclude, []byte("# reviewed last week\nBOB\n\ncarol@example.com\n"), 0o600))

	batch := []*resume.Resume{
		candidate("alice", "alice@example.com"),
		candidate("alice_v2", "Alice@Example.com"),
		candidate("bob", "bob@example.com"),
		candidate("carol", "carol@example.com"),
		candidate("dave", ""),
		candidate("erin", ""),
		candidate("frank", "frank@example.com"),
	}

	core, logs := observer.New(zap.InfoLevel)
	got, err := Run(context.Background(), &Config{ExcludeFile: exclude, Limit: 3}, Deps{Logger: zap.New(core)}, Default(), batch)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "dave", "erin"}, ids(got))

	steps := logs.FilterMessage("filter step").All()
	require.Len(t, steps, 3)
	assert.Equal(t, "duplicate_email", steps[0].ContextMap()["name"])
	assert.EqualValues(t, 1, steps[0].ContextMap()["dropped"])
	assert.Equal(t, "exclude_file", steps[1].ContextMap()["name"])
	assert.EqualValues(t, 2, steps[1].ContextMap()["dropped"])
	assert.Equal(t, "limit", steps[2].ContextMap()["name"])
	assert.EqualValues(t, 1, steps[2].ContextMap()["dropped"])
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "limit", "requested")

	batch := []*resume.Resume{candidate("a", ""), candidate("b", ""), candidate("c", "")}
	got, err := Run(context.Background(), &Config{Limit: 1}, Deps{}, steps, batch)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	statuses := Describe(steps)
	require.Len(t, statuses, 3)
	assert.False(t, statuses[2].Enabled)
	assert.Equal(t, "requested", statuses[2].Reason)
}

func TestRunValidationError(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), &Config{Limit: -1}, Deps{}, Default(), nil)
	require.ErrorContains(t, err, "limit: limit must not be negative")
}

func TestExcludeFileMissing(t *testing.T) {
	t.Parallel()

	cfg := &Config{ExcludeFile: filepath.Join(t.TempDir(), "missing.txt")}
	_, err := Run(context.Background(), cfg, Deps{}, []Filter{NewExcludeFile()}, []*resume.Resume{candidate("a", "")})
	require.ErrorContains(t, err, "exclude_file: getting excluded candidates from file")
}

func TestFiltersWithoutConfigKeepBatch(t *testing.T) {
	t.Parallel()

	batch := []*resume.Resume{candidate("a", "x@example.com"), candidate("b", "y@example.com")}
	got, err := Run(context.Background(), nil, Deps{}, Default(), batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestDescribeDetails(t *testing.T) {
	t.Parallel()

	steps := Default()
	for _, s := range steps {
		require.NoError(t, s.Validate(&Config{ExcludeFile: "skip.txt", Limit: 10}))
	}

	statuses := Describe(steps)
	assert.Equal(t, "skip.txt", statuses[1].Details["path"])
	assert.Equal(t, "10", statuses[2].Details["limit"])
}
