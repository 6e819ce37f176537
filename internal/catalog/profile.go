package catalog

import (
	"sort"
	"strings"
)

// Profile is the candidate side of a matching run.
type Profile struct {
	// Skills maps a category name (technology, design, ...) to its skills.
	Skills     map[string][]string `json:"skills,omitempty"`
	Languages  []Language          `json:"languages,omitempty"`
	Experience []Employment        `json:"experience,omitempty"`
	Location   string              `json:"location,omitempty"`
}

type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency,omitempty"`
}

type Employment struct {
	Company          string   `json:"company,omitempty"`
	Title            string   `json:"title,omitempty"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// AllSkills flattens every category into one list. Categories are visited in
// name order so that the result does not depend on map iteration.
func (p *Profile) AllSkills() []string {
	if p == nil {
		return nil
	}

	categories := make([]string, 0, len(p.Skills))
	for name := range p.Skills {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	out := make([]string, 0)
	for _, name := range categories {
		for _, skill := range p.Skills[name] {
			if strings.TrimSpace(skill) == "" {
				continue
			}
			out = append(out, skill)
		}
	}
	return out
}

func (p *Profile) LanguageNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Languages))
	for _, l := range p.Languages {
		if name := strings.TrimSpace(l.Language); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// WithLocation returns a shallow copy of the profile with another location.
func (p *Profile) WithLocation(location string) *Profile {
	if p == nil {
		return &Profile{Location: location}
	}
	cp := *p
	cp.Location = location
	return &cp
}
