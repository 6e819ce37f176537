package matching

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/experience"
	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/scoring"
	"github.com/spigell/job-matcher/internal/skills"
)

// fixedScorer returns a preset total per job id.
type fixedScorer struct {
	totals   map[string]int
	panics   map[string]bool
	failures map[string]bool
	delay    time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
}

func (s *fixedScorer) Score(_ context.Context, _ *catalog.Profile, job *catalog.Job) (*scoring.Result, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		cur := s.maxActive.Load()
		if n <= cur || s.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if s.panics[job.ID] {
		panic("boom")
	}
	if s.failures[job.ID] {
		return nil, errors.New("broken record")
	}
	return &scoring.Result{Breakdown: scoring.Breakdown{Total: s.totals[job.ID], Weights: scoring.DefaultWeights}}, nil
}

type countingPrefetcher struct {
	mu    sync.Mutex
	calls [][]string
}

func (p *countingPrefetcher) ResolveBatch(_ context.Context, texts []string) map[string]*geo.Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, texts)
	return map[string]*geo.Location{}
}

func jobsWithIDs(ids ...string) []*catalog.Job {
	jobs := make([]*catalog.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, &catalog.Job{ID: id})
	}
	return jobs
}

func TestScoreAllSortsDescending(t *testing.T) {
	scorer := &fixedScorer{totals: map[string]int{"a": 40, "b": 90, "c": 40, "d": 70}}
	o := New(scorer, nil)

	res := o.ScoreAll(context.Background(), jobsWithIDs("a", "b", "c", "d"), &catalog.Profile{})

	require.Equal(t, 4, res.Len())
	assert.Equal(t, []string{"b", "d", "a", "c"}, res.IDs())
	for i := 1; i < res.Len(); i++ {
		assert.GreaterOrEqual(t, res.Items[i-1].Score, res.Items[i].Score)
	}
}

func TestScoreAllIsolatesFailures(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	scorer := &fixedScorer{
		totals:   map[string]int{"ok": 55},
		panics:   map[string]bool{"panics": true},
		failures: map[string]bool{"fails": true},
	}
	o := New(scorer, zap.New(core))

	jobs := append(jobsWithIDs("panics", "ok", "fails"), nil)
	res := o.ScoreAll(context.Background(), jobs, &catalog.Profile{})

	require.Equal(t, 4, res.Len())
	assert.Equal(t, "ok", res.Items[0].ID())
	assert.Equal(t, 55, res.Items[0].Score)
	require.NotNil(t, res.Items[0].Breakdown)

	for _, item := range res.Items[1:] {
		assert.Zero(t, item.Score)
		assert.Nil(t, item.Breakdown)
		assert.NotEmpty(t, item.Error)
	}

	failed := observed.FilterMessage("job scoring failed").All()
	require.Len(t, failed, 3)
	ids := make([]any, 0, len(failed))
	for _, e := range failed {
		ids = append(ids, e.ContextMap()["job_id"])
	}
	assert.Contains(t, ids, "panics")
	assert.Contains(t, ids, "fails")
}

func TestScoreAllBoundsWorkers(t *testing.T) {
	scorer := &fixedScorer{totals: map[string]int{}, delay: 5 * time.Millisecond}
	o := New(scorer, nil, WithWorkers(2))

	res := o.ScoreAll(context.Background(), jobsWithIDs("1", "2", "3", "4", "5", "6", "7", "8"), &catalog.Profile{})
	assert.Equal(t, 8, res.Len())
	assert.LessOrEqual(t, scorer.maxActive.Load(), int32(2))
}

func TestScoreAllEmpty(t *testing.T) {
	o := New(&fixedScorer{}, nil)
	res := o.ScoreAll(context.Background(), nil, &catalog.Profile{})
	assert.Zero(t, res.Len())
}

func TestScoreAllPrefetchesLocations(t *testing.T) {
	lat, lon := 1.0, 2.0
	jobs := []*catalog.Job{
		{ID: "1", Location: "Berlin"},
		{ID: "2", Location: "Berlin", Remote: true},
		{ID: "3", Location: "Hamburg", Latitude: &lat, Longitude: &lon},
		{ID: "4", Location: "Munich"},
	}
	prefetcher := &countingPrefetcher{}
	o := New(&fixedScorer{}, nil, WithPrefetcher(prefetcher))

	o.ScoreAll(context.Background(), jobs, &catalog.Profile{Location: "Potsdam"})

	require.Len(t, prefetcher.calls, 1)
	assert.Equal(t, []string{"Potsdam", "Berlin", "Munich"}, prefetcher.calls[0])
}

func TestScoreAllWithRealScorer(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	scorer := scoring.New(skills.DefaultTables(), experience.NewEstimator(clock), nil, scoring.Options{})
	o := New(scorer, nil)

	profile := &catalog.Profile{Skills: map[string][]string{"tech": {"Go", "Kubernetes", "PostgreSQL"}}}
	jobs := []*catalog.Job{
		{ID: "frontend", Skills: []string{"React", "CSS"}},
		{ID: "platform", Skills: []string{"Go", "Kubernetes"}, Tools: []string{"PostgreSQL"}},
		{ID: ""},
	}

	res := o.ScoreAll(context.Background(), jobs, profile)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "platform", res.Items[0].ID())
	assert.Nil(t, res.Items[2].Breakdown)
}

func TestResultsExcludeKeepsOrder(t *testing.T) {
	res := &Results{Items: []*Scored{
		{Job: &catalog.Job{ID: "1", Company: "Acme"}, Score: 90},
		{Job: &catalog.Job{ID: "2", Company: "Globex"}, Score: 80},
		{Job: &catalog.Job{ID: "3", Company: "Acme"}, Score: 70},
		{Job: &catalog.Job{ID: "4", Company: "Initech"}, Score: 60},
	}}

	excluded := res.Exclude(catalog.JobCompanyField, []string{"Acme"})
	assert.Equal(t, []string{"1", "3"}, excluded)
	assert.Equal(t, []string{"2", "4"}, res.IDs())

	excluded = res.Exclude(catalog.JobIDField, []string{"4", "missing"})
	assert.Equal(t, []string{"4"}, excluded)
	assert.Equal(t, []string{"2"}, res.IDs())
}

func TestResultsReportAndDump(t *testing.T) {
	km := 12.3
	res := &Results{Items: []*Scored{
		{Job: &catalog.Job{ID: "1", Title: "Go dev", Company: "Acme"}, Score: 90,
			Breakdown: &scoring.Breakdown{DistanceKm: &km}},
		{Job: &catalog.Job{ID: "2", Title: "SRE"}, Score: 80},
		{Job: nil},
	}}

	report := res.ReportByCompany()
	require.Len(t, report["Acme"], 1)
	assert.Equal(t, "90", report["Acme"][0]["score"])
	assert.Equal(t, "12.3 km", report["Acme"][0]["distance"])
	require.Len(t, report["unknown company"], 1)

	path, err := res.DumpToTmpFile()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	excluded := res.ToExcluded("manual")
	assert.Equal(t, []string{"1", "2"}, excluded.IDs())
	assert.Equal(t, "manual", excluded.Items[0].Reason)
}

func TestResultsClone(t *testing.T) {
	res := &Results{Items: []*Scored{
		{Job: &catalog.Job{ID: "1"}, Score: 50, Breakdown: &scoring.Breakdown{Location: 0.5, Total: 50}},
	}}
	cp := res.Clone()
	cp.Items[0].Breakdown.Location = 1
	cp.Items[0].Score = 99

	assert.InDelta(t, 0.5, res.Items[0].Breakdown.Location, 1e-9)
	assert.Equal(t, 50, res.Items[0].Score)
	assert.Same(t, res.Items[0].Job, cp.Items[0].Job)
}
