// Package matching scores a batch of jobs for one profile.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/scoring"
)

const DefaultWorkers = 4

var errNilJob = errors.New("job is nil")

// JobScorer scores a single job.
type JobScorer interface {
	Score(ctx context.Context, profile *catalog.Profile, job *catalog.Job) (*scoring.Result, error)
}

// Prefetcher resolves place names ahead of scoring.
type Prefetcher interface {
	ResolveBatch(ctx context.Context, texts []string) map[string]*geo.Location
}

type Option func(*Orchestrator)

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPrefetcher resolves the distinct job locations once before scoring.
func WithPrefetcher(p Prefetcher) Option {
	return func(o *Orchestrator) {
		o.prefetcher = p
	}
}

type Orchestrator struct {
	scorer     JobScorer
	prefetcher Prefetcher
	logger     *zap.Logger
	workers    int
}

func New(scorer JobScorer, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		scorer:  scorer,
		logger:  logger,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScoreAll returns one entry per job sorted by descending score. A job that
// fails to score gets score 0 and no breakdown; the batch never fails.
func (o *Orchestrator) ScoreAll(ctx context.Context, jobs []*catalog.Job, profile *catalog.Profile) *Results {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))
	start := time.Now()

	log.Info("scoring jobs", zap.Int("jobs", len(jobs)), zap.Int("workers", o.workers))

	if o.prefetcher != nil {
		o.prefetch(ctx, log, jobs, profile)
	}

	items := make([]*Scored, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(o.workers)

	for i, job := range jobs {
		g.Go(func() error {
			items[i] = o.scoreOne(ctx, log, profile, job)
			return nil
		})
	}
	_ = g.Wait()

	results := &Results{Items: items}
	results.Sort()

	failed := 0
	for _, item := range items {
		if item.Breakdown == nil {
			failed++
		}
	}
	log.Info("jobs scored",
		zap.Int("jobs", len(jobs)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
	return results
}

func (o *Orchestrator) scoreOne(ctx context.Context, log *zap.Logger, profile *catalog.Profile, job *catalog.Job) *Scored {
	item := &Scored{Job: job}
	log = logger.WithJobFields(log, job)

	res, err := o.safeScore(ctx, profile, job)
	if err != nil {
		log.Warn("job scoring failed", zap.Error(err))
		item.Error = err.Error()
		return item
	}

	item.Score = res.Breakdown.Total
	item.Breakdown = &res.Breakdown
	item.Details = &res.Details
	log.Debug("job scored", zap.Int("score", item.Score))
	return item
}

func (o *Orchestrator) safeScore(ctx context.Context, profile *catalog.Profile, job *catalog.Job) (res *scoring.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic while scoring: %v", r)
		}
	}()

	if job == nil {
		return nil, errNilJob
	}
	res, err = o.scorer.Score(ctx, profile, job)
	if err == nil && res == nil {
		err = errors.New("scorer returned no result")
	}
	return res, err
}

func (o *Orchestrator) prefetch(ctx context.Context, log *zap.Logger, jobs []*catalog.Job, profile *catalog.Profile) {
	texts := make([]string, 0, len(jobs)+1)
	if profile != nil && strings.TrimSpace(profile.Location) != "" {
		texts = append(texts, profile.Location)
	}
	for _, job := range jobs {
		if job == nil || job.IsRemote() || job.HasCoordinates() {
			continue
		}
		texts = append(texts, job.Location)
	}
	resolved := o.prefetcher.ResolveBatch(ctx, texts)
	log.Debug("locations prefetched", zap.Int("requested", len(texts)), zap.Int("resolved", len(resolved)))
}
