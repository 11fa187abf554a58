package profile

import "strings"

// Snapshot is a read-only view of a candidate's structured data. It is
// supplied by the caller per invocation and never mutated by the engine.
type Snapshot struct {
	Name     string `json:"name" mapstructure:"name"`
	Email    string `json:"email" mapstructure:"email"`
	Phone    string `json:"phone" mapstructure:"phone"`
	Location string `json:"location" mapstructure:"location"`
	LinkedIn string `json:"linkedin" mapstructure:"linkedin"`
	Website  string `json:"website" mapstructure:"website"`
	Summary  string `json:"summary" mapstructure:"summary"`

	Education  []Education  `json:"education" mapstructure:"education"`
	Experience []Experience `json:"experience" mapstructure:"experience"`
	Skills     []string     `json:"skills" mapstructure:"skills"`
	Projects   []Project    `json:"projects" mapstructure:"projects"`
}

// Education is a single education entry.
type Education struct {
	Degree       string `json:"degree" mapstructure:"degree"`
	FieldOfStudy string `json:"field_of_study" mapstructure:"field_of_study"`
	School       string `json:"school" mapstructure:"school"`
	Location     string `json:"location" mapstructure:"location"`
	Year         string `json:"year" mapstructure:"year"`
}

// Experience is a single work experience entry with its achievement bullets.
type Experience struct {
	Title   string   `json:"title" mapstructure:"title"`
	Company string   `json:"company" mapstructure:"company"`
	Dates   string   `json:"dates" mapstructure:"dates"`
	Bullets []string `json:"bullets" mapstructure:"bullets"`
}

// Project is a single project entry.
type Project struct {
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	Highlights  []string `json:"highlights" mapstructure:"highlights"`
}

// RoleContext bundles the target role inputs for one invocation.
type RoleContext struct {
	Company     string `json:"company" mapstructure:"company"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
	Notes       string `json:"notes" mapstructure:"notes"`
}

// FlatText joins the summary, skills and experience bullets into a single
// lowercase blob used by the rule-based tasks and the keyword scorer.
func (s *Snapshot) FlatText() string {
	parts := make([]string, 0, 2+len(s.Skills))
	parts = append(parts, s.Summary)
	parts = append(parts, s.Skills...)
	for _, exp := range s.Experience {
		parts = append(parts, exp.Title, exp.Company)
		parts = append(parts, exp.Bullets...)
	}
	for _, proj := range s.Projects {
		parts = append(parts, proj.Name, proj.Description)
		parts = append(parts, proj.Highlights...)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Bullets returns every experience bullet in document order.
func (s *Snapshot) Bullets() []string {
	var out []string
	for _, exp := range s.Experience {
		out = append(out, exp.Bullets...)
	}
	return out
}
