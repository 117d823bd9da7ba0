// Package jd turns a free-text job description into structured requirements.
package jd

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/resume-screener/internal/resume"
)

// DefaultRoleLevel applies when the model gives no usable level.
const DefaultRoleLevel = "mid"

// RoleLevels lists the accepted seniority labels.
var RoleLevels = []string{"entry", "mid", "senior", "lead", "principal", "staff"}

// Requirements is created once per run and must not be modified afterwards.
type Requirements struct {
	RequiredSkills         []string `json:"required_skills" validate:"dive,required"`
	PreferredSkills        []string `json:"preferred_skills" validate:"dive,required"`
	MinExperienceYears     float64  `json:"min_experience_years" validate:"gte=0,lte=60"`
	EducationRequirements  string   `json:"education_requirements"`
	RoleLevel              string   `json:"role_level" validate:"oneof=entry mid senior lead principal staff"`
	KeyResponsibilities    []string `json:"key_responsibilities"`
	CultureIndicators      []string `json:"culture_indicators"`
	MustHaveQualifications []string `json:"must_have_qualifications"`
	RiskFactorsToWatch     []string `json:"risk_factors_to_watch"`
	Domain                 string   `json:"domain"`
}

// Default returns the requirements used when the description cannot be parsed.
func Default() *Requirements {
	r := &Requirements{RoleLevel: DefaultRoleLevel}
	r.normalize()
	return r
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every problem with r. It never modifies r.
func Validate(r *Requirements) []string {
	if r == nil {
		return []string{"requirements are missing"}
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	issues := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, fmt.Sprintf("%s: invalid value %v (%s)", fe.Namespace(), fe.Value(), fe.Tag()))
	}
	return issues
}

// normalize repairs r in place so it always satisfies Validate.
func (r *Requirements) normalize() {
	r.RequiredSkills = resume.Dedupe(r.RequiredSkills)
	r.PreferredSkills = resume.Dedupe(r.PreferredSkills)
	r.KeyResponsibilities = clean(r.KeyResponsibilities)
	r.CultureIndicators = clean(r.CultureIndicators)
	r.MustHaveQualifications = clean(r.MustHaveQualifications)
	r.RiskFactorsToWatch = clean(r.RiskFactorsToWatch)
	r.EducationRequirements = strings.TrimSpace(r.EducationRequirements)
	r.Domain = strings.TrimSpace(r.Domain)

	if r.MinExperienceYears < 0 || r.MinExperienceYears > 60 {
		r.MinExperienceYears = 0
	}

	r.RoleLevel = normalizeLevel(r.RoleLevel)
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	for _, known := range RoleLevels {
		if level == known {
			return level
		}
	}
	// Models often answer "Senior Engineer" or "mid-level".
	for _, known := range RoleLevels {
		if strings.Contains(level, known) {
			return known
		}
	}
	return DefaultRoleLevel
}

func clean(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
