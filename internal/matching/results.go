package matching

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/scoring"
)

// Scored is one job with its score. Breakdown is nil when scoring failed.
type Scored struct {
	Job       *catalog.Job       `json:"job"`
	Score     int                `json:"score"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
	Details   *scoring.Details   `json:"details,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (s *Scored) ID() string {
	if s == nil || s.Job == nil {
		return ""
	}
	return s.Job.ID
}

// Clone copies the entry and its breakdown. The job is shared.
func (s *Scored) Clone() *Scored {
	cp := *s
	if s.Breakdown != nil {
		b := *s.Breakdown
		cp.Breakdown = &b
	}
	if s.Details != nil {
		d := *s.Details
		cp.Details = &d
	}
	return &cp
}

type Results struct {
	Items []*Scored
}

func (r *Results) Len() int {
	return len(r.Items)
}

// Sort orders by descending score. Equal scores keep their order.
func (r *Results) Sort() {
	sort.SliceStable(r.Items, func(i, j int) bool {
		return r.Items[i].Score > r.Items[j].Score
	})
}

func (r *Results) Clone() *Results {
	out := &Results{Items: make([]*Scored, 0, len(r.Items))}
	for _, item := range r.Items {
		out.Items = append(out.Items, item.Clone())
	}
	return out
}

func (r *Results) FindByID(id string) *Scored {
	for _, item := range r.Items {
		if item.ID() == id {
			return item
		}
	}
	return nil
}

func (r *Results) IDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.ID())
	}
	return ids
}

// Top returns at most n leading entries.
func (r *Results) Top(n int) []*Scored {
	if n <= 0 || n >= len(r.Items) {
		return r.Items
	}
	return r.Items[:n]
}

// Exclude drops entries whose job field matches one of the targets and keeps
// the order of the rest. It returns the dropped job ids.
func (r *Results) Exclude(field string, targets []string) []string {
	drop := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		drop[t] = struct{}{}
	}

	var excluded []string
	kept := r.Items[:0]
	for _, item := range r.Items {
		if item.Job != nil {
			if _, ok := drop[item.Job.GetStringField(field)]; ok {
				excluded = append(excluded, item.Job.ID)
				continue
			}
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(r.Items); i++ {
		r.Items[i] = nil
	}
	r.Items = kept
	return excluded
}

func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (r *Results) ToExcluded(reason string) *catalog.ExcludedJobs {
	excluded := &catalog.ExcludedJobs{}
	for _, item := range r.Items {
		if item.Job == nil {
			continue
		}
		excluded.Items = append(excluded.Items, &catalog.ExcludedJob{
			ID:         item.Job.ID,
			Title:      item.Job.Title,
			Company:    item.Job.Company,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// ReportByCompany groups entries by company for display.
func (r *Results) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range r.Items {
		if item.Job == nil {
			continue
		}
		company := item.Job.Company
		if company == "" {
			company = "unknown company"
		}
		entry := map[string]string{
			"id":       item.Job.ID,
			"title":    item.Job.Title,
			"score":    fmt.Sprintf("%d", item.Score),
			"location": item.Job.Location,
		}
		if item.Breakdown != nil && item.Breakdown.DistanceKm != nil {
			entry["distance"] = fmt.Sprintf("%.1f km", *item.Breakdown.DistanceKm)
		}
		if item.Details != nil && len(item.Details.Skills.CriticalMissing) > 0 {
			entry["missing"] = fmt.Sprintf("%v", item.Details.Skills.CriticalMissing)
		}
		report[company] = append(report[company], entry)
	}
	return report
}
