package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/resume"
)

type duplicateEmailFilter struct {
	toggle
}

// NewDuplicateEmail creates a filter that keeps only the first resume per
// e-mail address. Resumes without an e-mail are never treated as duplicates.
func NewDuplicateEmail() Filter {
	return &duplicateEmailFilter{}
}

func (f *duplicateEmailFilter) Name() string { return "duplicate_email" }

func (f *duplicateEmailFilter) Validate(*Config) error { return nil }

func (f *duplicateEmailFilter) Apply(_ context.Context, deps Deps, batch []*resume.Resume) ([]*resume.Resume, Step, error) {
	initial := len(batch)
	seen := make(map[string]string, initial)

	kept, removed := exclude(batch, func(r *resume.Resume) bool {
		email := strings.ToLower(strings.TrimSpace(r.PersonalInfo.Email))
		if email == "" {
			return false
		}
		if first, ok := seen[email]; ok {
			deps.Logger.Debug("duplicate candidate e-mail",
				zap.String("candidate_id", r.ID),
				zap.String("first_seen", first),
			)
			return true
		}
		seen[email] = r.ID
		return false
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding duplicate candidates",
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *duplicateEmailFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
