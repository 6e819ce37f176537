package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/job-matcher/internal/matching"
)

type maxDistanceFilter struct {
	toggle
	km float64
}

// NewMaxDistance drops on-site and hybrid jobs farther than km from the
// candidate. Remote jobs and jobs with an unknown distance are kept.
// A zero limit keeps everything.
func NewMaxDistance(km float64) Filter {
	return &maxDistanceFilter{km: km}
}

func (f *maxDistanceFilter) Name() string { return "max_distance" }

func (f *maxDistanceFilter) Validate() error {
	if f.km < 0 {
		return fmt.Errorf("maximum distance must not be negative, got %v", f.km)
	}
	return nil
}

func (f *maxDistanceFilter) Apply(_ context.Context, r *matching.Results) (*matching.Results, Step, error) {
	initial := r.Len()
	if f.km == 0 {
		return r, Step{Initial: initial, Left: initial}, nil
	}

	kept := r.Items[:0]
	for _, item := range r.Items {
		if f.keep(item) {
			kept = append(kept, item)
		}
	}
	r.Items = kept

	return r, Step{Initial: initial, Dropped: initial - r.Len(), Left: r.Len()}, nil
}

func (f *maxDistanceFilter) keep(item *matching.Scored) bool {
	if item.Job != nil && item.Job.IsRemote() {
		return true
	}
	if item.Breakdown == nil || item.Breakdown.DistanceKm == nil {
		return true
	}
	return *item.Breakdown.DistanceKm <= f.km
}

func (f *maxDistanceFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"max_distance_km": strconv.FormatFloat(f.km, 'f', -1, 64)},
	}
}
