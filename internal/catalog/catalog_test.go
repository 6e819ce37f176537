package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJobsJSONList(t *testing.T) {
	path := writeFile(t, "jobs.json", `[
		{"id": 42, "title": "Backend", "company": "Acme", "skills": ["Go", "SQL"],
		 "work_mode": "Remote", "latitude": 52.52, "longitude": 13.405},
		{"id": "b", "skills": ["React"], "experience_required": "3+ years", "work_mode": "on-site"}
	]`)

	jobs, err := LoadJobs(path)
	require.NoError(t, err)
	require.Equal(t, 2, jobs.Len())

	first := jobs.FindByID("42")
	require.NotNil(t, first)
	assert.Equal(t, []string{"Go", "SQL"}, first.Skills)
	assert.True(t, first.IsRemote())
	assert.True(t, first.HasCoordinates())
	assert.InDelta(t, 52.52, *first.Latitude, 1e-9)

	second := jobs.FindByID("b")
	require.NotNil(t, second)
	assert.Equal(t, WorkModeOnsite, second.WorkMode)
	assert.Equal(t, "3+ years", second.ExperienceRequired)
	assert.False(t, second.HasCoordinates())
}

func TestLoadJobsYAMLDocument(t *testing.T) {
	path := writeFile(t, "jobs.yaml", `
jobs:
  - id: one
    location: Berlin
    work_mode: hybrid
    tools: [docker, git]
  - title: no id
`)

	jobs, err := LoadJobs(path)
	require.NoError(t, err)
	require.Equal(t, 2, jobs.Len())
	assert.True(t, jobs.Items[0].IsHybrid())
	assert.Equal(t, []string{"docker", "git"}, jobs.Items[0].Tools)

	assert.Equal(t, 1, jobs.EnsureIDs())
	assert.NotEmpty(t, jobs.Items[1].ID)
	assert.Equal(t, 0, jobs.EnsureIDs())
}

func TestLoadJobsErrors(t *testing.T) {
	_, err := LoadJobs(writeFile(t, "empty.json", "  "))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = LoadJobs(writeFile(t, "bad.json", `{"items": []}`))
	assert.Error(t, err)

	_, err = LoadJobs(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadProfileAcceptsBareLanguages(t *testing.T) {
	path := writeFile(t, "profile.json", `{
		"skills": {"technology": ["Go", "Docker"], "design": ["Figma"]},
		"languages": ["English", {"language": "German", "proficiency": "B2"}],
		"experience": [{"company": "Acme", "start_date": "2020-01", "end_date": "present"}],
		"location": "Hamburg"
	}`)

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"English", "German"}, profile.LanguageNames())
	assert.Equal(t, "B2", profile.Languages[1].Proficiency)
	assert.Equal(t, "2020-01", profile.Experience[0].StartDate)
	assert.Equal(t, "Hamburg", profile.Location)
}

func TestProfileAllSkillsIsDeterministic(t *testing.T) {
	profile := &Profile{Skills: map[string][]string{
		"technology": {"Go", " ", "SQL"},
		"design":     {"Figma"},
		"business":   {"Sales"},
	}}

	for range 10 {
		assert.Equal(t, []string{"Sales", "Figma", "Go", "SQL"}, profile.AllSkills())
	}

	var empty *Profile
	assert.Empty(t, empty.AllSkills())
}

func TestJobValidate(t *testing.T) {
	lat := 123.0
	tests := []struct {
		name    string
		job     *Job
		wantErr bool
	}{
		{name: "valid", job: &Job{ID: "1", Skills: []string{"go"}}},
		{name: "missing id", job: &Job{}, wantErr: true},
		{name: "latitude out of range", job: &Job{ID: "1", Latitude: &lat}, wantErr: true},
		{name: "nil", job: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJobsLocations(t *testing.T) {
	jobs := &Jobs{Items: []*Job{
		{ID: "1", Location: "Berlin"},
		{ID: "2", Location: " berlin "},
		nil,
		{ID: "3", Location: "Munich"},
		{ID: "4"},
	}}
	assert.Equal(t, []string{"Berlin", "Munich"}, jobs.Locations())
	assert.Equal(t, []string{"1", "2", "3", "4"}, jobs.IDs())
}

func TestExcludedJobsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	excluded, err := GetExcludedJobsFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, excluded.Items)

	added := excluded.Append(&ExcludedJobs{Items: []*ExcludedJob{
		{ID: "1", Reason: "manual"},
		{ID: "2", Reason: "manual"},
		{ID: "1", Reason: "duplicate"},
	}})
	assert.Equal(t, 2, added)
	require.NoError(t, excluded.ToFile(path))

	// Rewriting with fewer entries must not leave stale bytes behind.
	require.NoError(t, (&ExcludedJobs{Items: []*ExcludedJob{{ID: "3"}}}).ToFile(path))

	loaded, err := GetExcludedJobsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, loaded.IDs())
}
