package catalog

import (
	"encoding/json"
	"os"
	"time"
)

type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	ID         string
	Title      string
	Company    string
	Reason     string
	ExcludedAt time.Time
}

// GetExcludedJobsFromFile reads an exclude file. A missing or empty file is an empty list.
func GetExcludedJobsFromFile(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries that are not in the list yet.
func (e *ExcludedJobs) Append(s *ExcludedJobs) int {
	known := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		known[item.ID] = struct{}{}
	}

	added := 0
	for _, item := range s.Items {
		if _, ok := known[item.ID]; ok {
			continue
		}
		known[item.ID] = struct{}{}
		e.Items = append(e.Items, item)
		added++
	}
	return added
}

func (e *ExcludedJobs) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, job := range e.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

func (e *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
