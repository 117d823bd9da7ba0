package filtering

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/resume"
)

type limitFilter struct {
	toggle
	limit int
}

// NewLimit creates a filter that keeps the first N candidates.
func NewLimit() Filter {
	return &limitFilter{}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg != nil {
		f.limit = cfg.Limit
	}
	if f.limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func (f *limitFilter) Apply(_ context.Context, deps Deps, batch []*resume.Resume) ([]*resume.Resume, Step, error) {
	initial := len(batch)
	if f.limit == 0 || initial <= f.limit {
		return batch, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	deps.Logger.Info("limiting candidates", zap.Int("limit", f.limit), zap.Int("candidates", initial))
	return batch[:f.limit], Step{Initial: initial, Dropped: initial - f.limit, Left: f.limit}, nil
}

func (f *limitFilter) Status() Status {
	details := map[string]string{}
	if f.limit > 0 {
		details["limit"] = strconv.Itoa(f.limit)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
