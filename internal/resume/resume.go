// Package resume holds the parsed resume model and the ways resumes enter a run.
package resume

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Present marks an ongoing position.
const Present = "Present"

type Resume struct {
	ID       string `json:"_id,omitempty"`
	Filename string `json:"_filename,omitempty"`

	PersonalInfo   PersonalInfo    `json:"personal_info"`
	Summary        string          `json:"summary"`
	Experience     []Position      `json:"experience"`
	Education      []Degree        `json:"education"`
	Skills         Skills          `json:"skills"`
	Certifications []Certification `json:"certifications"`
	Projects       []Project       `json:"projects"`
	Languages      []string        `json:"languages"`
	Achievements   []Achievement   `json:"achievements"`
}

type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    Text   `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

type Position struct {
	Company          string   `json:"company"`
	Title            string   `json:"title"`
	Location         string   `json:"location"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Responsibilities []string `json:"responsibilities"`
}

// UnmarshalJSON accepts "position" as an alias of "title" and numeric
// dates. Only a missing end_date marks the position as ongoing; an empty or
// null one is kept empty and counts as unreadable.
func (p *Position) UnmarshalJSON(data []byte) error {
	type plain Position
	var aux struct {
		plain
		Position  string          `json:"position"`
		StartDate Text            `json:"start_date"`
		EndDate   json.RawMessage `json:"end_date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Position(aux.plain)
	if strings.TrimSpace(p.Title) == "" {
		p.Title = aux.Position
	}
	p.StartDate = aux.StartDate.String()

	if aux.EndDate == nil {
		p.EndDate = Present
		return nil
	}
	var end Text
	if err := json.Unmarshal(aux.EndDate, &end); err != nil {
		return err
	}
	p.EndDate = end.String()
	return nil
}

type Degree struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Location    string `json:"location"`
	StartDate   Text   `json:"start_date"`
	EndDate     Text   `json:"end_date"`
	GPA         Text   `json:"gpa"`
}

type Skills struct {
	Technical  []string `json:"technical"`
	SoftSkills []string `json:"soft_skills"`
	Tools      []string `json:"tools"`
}

// UnmarshalJSON accepts a flat list, which is treated as technical skills.
func (s *Skills) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*s = Skills{Technical: list}
		return nil
	}

	type plain Skills
	var aux plain
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return err
	}
	*s = Skills(aux)
	return nil
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// UnmarshalJSON accepts a bare string as the certification name.
func (c *Certification) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Certification{Name: name}
		return nil
	}
	type plain Certification
	var aux plain
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Certification(aux)
	return nil
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         string   `json:"link,omitempty"`
}

type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// UnmarshalJSON accepts a bare string as the achievement name.
func (a *Achievement) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = Achievement{Name: name}
		return nil
	}
	type plain Achievement
	var aux struct {
		plain
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Achievement(aux.plain)
	if strings.TrimSpace(a.Name) == "" {
		a.Name = aux.Title
	}
	return nil
}

// Empty reports whether the achievement carries no text.
func (a Achievement) Empty() bool {
	return strings.TrimSpace(a.Name) == "" && strings.TrimSpace(a.Description) == ""
}

// Text is a free-form scalar that models emit as either a string or a number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return err
	}
	*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func (t Text) String() string { return string(t) }
