package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/job-matcher/internal/matching"
)

type minScoreFilter struct {
	toggle
	min int
}

// NewMinScore drops jobs scoring below threshold. A zero threshold keeps everything.
func NewMinScore(threshold int) Filter {
	return &minScoreFilter{min: threshold}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate() error {
	if f.min < 0 || f.min > 100 {
		return fmt.Errorf("minimum score must be within 0..100, got %d", f.min)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, r *matching.Results) (*matching.Results, Step, error) {
	initial := r.Len()
	if f.min == 0 {
		return r, Step{Initial: initial, Left: initial}, nil
	}

	kept := r.Items[:0]
	for _, item := range r.Items {
		if item.Score >= f.min {
			kept = append(kept, item)
		}
	}
	r.Items = kept

	return r, Step{Initial: initial, Dropped: initial - r.Len(), Left: r.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.Itoa(f.min)},
	}
}
