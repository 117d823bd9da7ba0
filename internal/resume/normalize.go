package resume

import "strings"

var ongoingMarkers = map[string]struct{}{
	"present": {},
	"current": {},
	"now":     {},
}

// Normalize brings a decoded resume into its canonical shape: every section
// is a non-nil container, strings are trimmed, ongoing positions end with
// Present, and skill lists hold no case-insensitive duplicates.
func Normalize(r *Resume) {
	if r == nil {
		return
	}

	p := &r.PersonalInfo
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = Text(strings.TrimSpace(string(p.Phone)))
	p.Location = strings.TrimSpace(p.Location)
	p.LinkedIn = strings.TrimSpace(p.LinkedIn)
	p.GitHub = strings.TrimSpace(p.GitHub)
	p.Website = strings.TrimSpace(p.Website)
	r.Summary = strings.TrimSpace(r.Summary)

	if r.Experience == nil {
		r.Experience = []Position{}
	}
	for i := range r.Experience {
		pos := &r.Experience[i]
		pos.Company = strings.TrimSpace(pos.Company)
		pos.Title = strings.TrimSpace(pos.Title)
		pos.Location = strings.TrimSpace(pos.Location)
		pos.StartDate = strings.TrimSpace(pos.StartDate)
		pos.EndDate = strings.TrimSpace(pos.EndDate)
		if _, ok := ongoingMarkers[strings.ToLower(pos.EndDate)]; ok {
			pos.EndDate = Present
		}
		pos.Responsibilities = compact(pos.Responsibilities)
	}

	if r.Education == nil {
		r.Education = []Degree{}
	}
	for i := range r.Education {
		d := &r.Education[i]
		d.Institution = strings.TrimSpace(d.Institution)
		d.Degree = strings.TrimSpace(d.Degree)
		d.Location = strings.TrimSpace(d.Location)
		d.StartDate = Text(strings.TrimSpace(string(d.StartDate)))
		d.EndDate = Text(strings.TrimSpace(string(d.EndDate)))
	}

	r.Skills.Technical = dedupe(r.Skills.Technical)
	r.Skills.SoftSkills = dedupe(r.Skills.SoftSkills)
	r.Skills.Tools = dedupe(r.Skills.Tools)

	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}

	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		pr := &r.Projects[i]
		pr.Name = strings.TrimSpace(pr.Name)
		pr.Description = strings.TrimSpace(pr.Description)
		pr.Technologies = dedupe(pr.Technologies)
	}

	r.Languages = compact(r.Languages)

	if r.Achievements == nil {
		r.Achievements = []Achievement{}
	}
}

// Dedupe drops empty entries and case-insensitive duplicates, keeping the
// first spelling and the original order.
func Dedupe(values []string) []string {
	return dedupe(values)
}

func dedupe(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, v)
	}
	return result
}

func compact(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
