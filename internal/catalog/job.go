package catalog

import (
	"strings"

	"github.com/google/uuid"
)

const (
	JobIDField      = "ID"
	JobCompanyField = "Company"
)

// WorkMode describes where the work happens.
type WorkMode string

const (
	WorkModeRemote WorkMode = "remote"
	WorkModeHybrid WorkMode = "hybrid"
	WorkModeOnsite WorkMode = "onsite"
)

type Jobs struct {
	Items []*Job
}

// Job is a structured job posting produced by the ingestion pipeline.
type Job struct {
	ID                 string   `json:"id" validate:"required"`
	Title              string   `json:"title,omitempty"`
	Company            string   `json:"company,omitempty"`
	Skills             []string `json:"skills,omitempty" validate:"max=500,dive,max=200"`
	Tools              []string `json:"tools,omitempty" validate:"max=500,dive,max=200"`
	ExperienceRequired string   `json:"experience_required,omitempty"`
	LanguageRequired   string   `json:"language_required,omitempty"`
	Location           string   `json:"location,omitempty"`
	WorkMode           WorkMode `json:"work_mode,omitempty"`
	Remote             bool     `json:"remote,omitempty"`
	// Stored coordinates skip job-side geocoding when both are set.
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

func (j *Job) IsRemote() bool {
	return j.Remote || j.WorkMode == WorkModeRemote
}

func (j *Job) IsHybrid() bool {
	return !j.IsRemote() && j.WorkMode == WorkModeHybrid
}

// HasCoordinates reports whether the posting carries stored coordinates.
func (j *Job) HasCoordinates() bool {
	return j.Latitude != nil && j.Longitude != nil
}

func (j *Job) GetStringField(name string) string {
	switch name {
	case JobIDField:
		return j.ID
	case JobCompanyField:
		return j.Company
	default:
		return ""
	}
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	for _, job := range j.Items {
		if job != nil && job.ID == id {
			return job
		}
	}
	return nil
}

func (j *Jobs) IDs() []string {
	ids := make([]string, 0, len(j.Items))
	for _, job := range j.Items {
		if job != nil {
			ids = append(ids, job.ID)
		}
	}
	return ids
}

// EnsureIDs assigns a random id to every posting that came without one.
// It returns the number of generated ids.
func (j *Jobs) EnsureIDs() int {
	generated := 0
	for _, job := range j.Items {
		if job == nil || strings.TrimSpace(job.ID) != "" {
			continue
		}
		job.ID = uuid.NewString()
		generated++
	}
	return generated
}

// Locations returns the distinct non-empty job location texts in first-seen order.
func (j *Jobs) Locations() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, job := range j.Items {
		if job == nil {
			continue
		}
		loc := strings.TrimSpace(job.Location)
		if loc == "" {
			continue
		}
		key := strings.ToLower(loc)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, loc)
	}
	return out
}

func normalizeWorkMode(mode WorkMode) WorkMode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case "remote", "fully remote", "remote-first":
		return WorkModeRemote
	case "hybrid":
		return WorkModeHybrid
	case "onsite", "on-site", "on site", "office":
		return WorkModeOnsite
	case "":
		return ""
	default:
		return WorkMode(strings.ToLower(strings.TrimSpace(string(mode))))
	}
}
