// Package enrich refreshes the location part of already scored jobs when the
// candidate location changes.
package enrich

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/scoring"
)

// Location changes at or below this are ignored.
const materialChange = 0.001

type Merger struct {
	locator    scoring.Locator
	prefetcher matching.Prefetcher
	logger     *zap.Logger
}

// NewMerger builds a merger. When the locator can also resolve batches it is
// used to warm the cache before the entries are rescored.
func NewMerger(locator scoring.Locator, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Merger{locator: locator, logger: logger}
	if p, ok := locator.(matching.Prefetcher); ok {
		m.prefetcher = p
	}
	return m
}

// Enrich returns a copy of scored with the location component recomputed for
// the given candidate location. Other components are kept as they are.
// Entries without a breakdown pass through unchanged.
func (m *Merger) Enrich(ctx context.Context, scored *matching.Results, location string) (*matching.Results, error) {
	out := scored.Clone()
	location = strings.TrimSpace(location)
	if location == "" {
		return out, nil
	}

	if m.prefetcher != nil {
		m.prefetch(ctx, out, location)
	}

	changed := 0
	for _, item := range out.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.Breakdown == nil || item.Job == nil {
			continue
		}

		match := m.locator.Match(ctx, location, scoring.SiteFor(item.Job))
		// Distance and reason always follow the new location; the score
		// only moves on a material change.
		item.Breakdown.DistanceKm = match.DistanceKm
		if item.Details != nil {
			item.Details.LocationReason = match.Reason
			item.Details.LocationExplanation = match.Explanation
		}
		if math.Abs(match.Score-item.Breakdown.Location) <= materialChange {
			continue
		}

		item.Breakdown.Location = match.Score
		item.Breakdown.Total = scoring.Aggregate(*item.Breakdown)
		item.Score = item.Breakdown.Total
		changed++

		m.logger.Debug("location rescored",
			append(logger.JobFields(item.Job),
				zap.Float64("location_score", match.Score),
				zap.Int("score", item.Score),
			)...,
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Sort()
	m.logger.Info("geo enrichment finished",
		zap.String("location", location),
		zap.Int("jobs", out.Len()),
		zap.Int("changed", changed),
	)
	return out, nil
}

func (m *Merger) prefetch(ctx context.Context, results *matching.Results, location string) {
	texts := []string{location}
	for _, item := range results.Items {
		job := item.Job
		if item.Breakdown == nil || job == nil || job.IsRemote() || job.HasCoordinates() {
			continue
		}
		texts = append(texts, job.Location)
	}
	m.prefetcher.ResolveBatch(ctx, texts)
}
