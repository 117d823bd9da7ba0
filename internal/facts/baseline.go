// Package facts computes the verifiable, model-free facts about a candidate
// that every scoring agent starts from.
package facts

import (
	"regexp"
	"strings"
	"time"

	"github.com/spigell/resume-screener/internal/jd"
	"github.com/spigell/resume-screener/internal/resume"
	"github.com/spigell/resume-screener/internal/utils"
)

const (
	// NeutralSkillMatch is used when the job lists no required skills.
	NeutralSkillMatch = 50.0
	// UnknownDurationMonths replaces a position whose dates cannot be read.
	UnknownDurationMonths = 12
)

// Education tiers, checked in order.
var educationTiers = []struct {
	score    float64
	relevant bool
	keywords []string
}{
	{100, true, []string{"computer science", "software engineering", "information technology", "cs", "computer engineering"}},
	{70, true, []string{"engineering", "electronics", "telecommunication", "mathematics", "physics", "data science"}},
	{30, false, []string{"bachelor", "b.tech", "b.e", "master", "m.tech"}},
}

const unmatchedEducationScore = 10.0

// RoleKeywords mark a position title as technically relevant. The list does
// not depend on the job's domain.
var RoleKeywords = []string{"software", "developer", "engineer", "programmer", "technical", "backend", "frontend", "fullstack", "devops", "data"}

var educationPatterns = compileTiers()

// Baseline is a read-only snapshot for one candidate against one set of requirements.
type Baseline struct {
	CandidateSkills      []string `json:"candidate_skills"`
	RequiredSkills       []string `json:"required_skills"`
	MatchedSkills        []string `json:"matched_skills"`
	MissingSkills        []string `json:"missing_skills"`
	SkillMatchPercentage float64  `json:"skill_match_percentage"`

	TotalMonths       int     `json:"total_months"`
	YearsOfExperience float64 `json:"years_of_experience"`
	MinRequiredYears  float64 `json:"min_required_years"`
	UnparsedPositions int     `json:"unparsed_positions"`

	EducationScore    float64  `json:"education_score"`
	EducationRelevant bool     `json:"education_relevant"`
	Degrees           []string `json:"degrees"`

	RoleRelevant  bool     `json:"role_relevant"`
	RelevantRoles []string `json:"relevant_roles"`
	AllRoles      []string `json:"all_roles"`

	ProjectCount     int `json:"project_count"`
	AchievementCount int `json:"achievement_count"`
}

// Compute derives the baseline. It performs no I/O and never fails; now is
// the instant ongoing positions end at.
func Compute(r *resume.Resume, req *jd.Requirements, now time.Time) *Baseline {
	if r == nil {
		r = &resume.Resume{}
	}
	if req == nil {
		req = jd.Default()
	}

	b := &Baseline{
		CandidateSkills:  CandidateSkills(r),
		RequiredSkills:   resume.Dedupe(req.RequiredSkills),
		MinRequiredYears: req.MinExperienceYears,
		ProjectCount:     len(r.Projects),
	}

	b.MatchedSkills, b.MissingSkills = MatchSkills(b.CandidateSkills, b.RequiredSkills)
	if len(b.RequiredSkills) == 0 {
		b.SkillMatchPercentage = NeutralSkillMatch
	} else {
		b.SkillMatchPercentage = utils.Round(float64(len(b.MatchedSkills))/float64(len(b.RequiredSkills))*100, 1)
	}

	for _, pos := range r.Experience {
		months, ok := PositionMonths(pos.StartDate, pos.EndDate, now)
		if !ok {
			months = UnknownDurationMonths
			b.UnparsedPositions++
		}
		b.TotalMonths += months
	}
	b.YearsOfExperience = utils.Round(float64(b.TotalMonths)/12, 1)

	b.EducationScore, b.EducationRelevant, b.Degrees = Education(r.Education)
	b.RoleRelevant, b.RelevantRoles, b.AllRoles = Roles(r.Experience)

	for _, a := range r.Achievements {
		if !a.Empty() {
			b.AchievementCount++
		}
	}

	return b
}

// CandidateSkills unions technical skills, tools and project technologies,
// keeping the first spelling of each case-insensitive duplicate.
func CandidateSkills(r *resume.Resume) []string {
	all := make([]string, 0, len(r.Skills.Technical)+len(r.Skills.Tools))
	all = append(all, r.Skills.Technical...)
	all = append(all, r.Skills.Tools...)
	for _, p := range r.Projects {
		all = append(all, p.Technologies...)
	}
	return resume.Dedupe(all)
}

// MatchSkills splits required into skills the candidate lists and skills they
// lack, by exact case-insensitive comparison. Required spelling is kept.
func MatchSkills(candidate, required []string) (matched, missing []string) {
	have := make(map[string]struct{}, len(candidate))
	for _, s := range candidate {
		have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	matched, missing = []string{}, []string{}
	for _, s := range required {
		if _, ok := have[strings.ToLower(strings.TrimSpace(s))]; ok {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

// Education scores the degree texts against the tier keywords. A keyword
// must start a word, so "cs" does not fire inside "physics" while "master"
// still matches "masters".
func Education(degrees []resume.Degree) (score float64, relevant bool, names []string) {
	names = make([]string, 0, len(degrees))
	for _, d := range degrees {
		names = append(names, d.Degree)
	}
	if len(degrees) == 0 {
		return 0, false, names
	}

	text := strings.ToLower(strings.Join(names, " "))
	for i, tier := range educationTiers {
		if educationPatterns[i].MatchString(text) {
			return tier.score, tier.relevant, names
		}
	}
	return unmatchedEducationScore, false, names
}

// Roles reports which position titles contain a role keyword.
func Roles(experience []resume.Position) (relevant bool, relevantRoles, allRoles []string) {
	relevantRoles, allRoles = []string{}, make([]string, 0, len(experience))
	for _, pos := range experience {
		allRoles = append(allRoles, pos.Title)
		title := strings.ToLower(pos.Title)
		for _, kw := range RoleKeywords {
			if strings.Contains(title, kw) {
				relevantRoles = append(relevantRoles, pos.Title)
				break
			}
		}
	}
	return len(relevantRoles) > 0, relevantRoles, allRoles
}

func compileTiers() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(educationTiers))
	for _, tier := range educationTiers {
		quoted := make([]string, 0, len(tier.keywords))
		for _, kw := range tier.keywords {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
		patterns = append(patterns, regexp.MustCompile(`(?:^|[^a-z0-9])(?:`+strings.Join(quoted, "|")+`)`))
	}
	return patterns
}
