package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/scoring"
)

type stubLocator struct {
	mu     sync.Mutex
	scores map[string]float64
	calls  []string

	block   string
	started chan struct{}
	release chan struct{}
}

func (s *stubLocator) Match(_ context.Context, candidate string, site geo.Site) geo.Match {
	s.mu.Lock()
	s.calls = append(s.calls, candidate)
	s.mu.Unlock()

	if s.block != "" && candidate == s.block {
		s.started <- struct{}{}
		<-s.release
	}

	score, ok := s.scores[site.Text]
	if !ok {
		score = 0.5
	}
	km := 10.0
	return geo.Match{Score: score, DistanceKm: &km, Reason: geo.ReasonDistance, Explanation: "Great match - 10km commutable"}
}

func (s *stubLocator) Candidates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func scored(id, location string, skillsScore, locationScore float64) *matching.Scored {
	b := scoring.Breakdown{
		Skills:     skillsScore,
		Tools:      0.5,
		Experience: 0.8,
		Language:   1.0,
		Location:   locationScore,
		Weights:    scoring.DefaultWeights,
	}
	b.Total = scoring.Aggregate(b)
	return &matching.Scored{
		Job:       &catalog.Job{ID: id, Location: location},
		Score:     b.Total,
		Breakdown: &b,
		Details:   &scoring.Details{LocationReason: geo.ReasonNoData},
	}
}

func baseResults() *matching.Results {
	return &matching.Results{Items: []*matching.Scored{
		scored("far", "Paris", 0.62, 0.5),
		scored("near", "Berlin", 0.6, 0.5),
		{Job: &catalog.Job{ID: "broken"}},
	}}
}

func TestEnrichRecomputesOnlyLocation(t *testing.T) {
	locator := &stubLocator{scores: map[string]float64{"Berlin": 1.0, "Paris": 0.1}}
	m := NewMerger(locator, nil)
	base := baseResults()

	out, err := m.Enrich(context.Background(), base, "Potsdam")
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, []string{"near", "far", "broken"}, out.IDs())

	near := out.FindByID("near")
	assert.InDelta(t, 1.0, near.Breakdown.Location, 1e-9)
	assert.InDelta(t, 0.6, near.Breakdown.Skills, 1e-9)
	assert.InDelta(t, 0.5, near.Breakdown.Tools, 1e-9)
	assert.InDelta(t, 0.8, near.Breakdown.Experience, 1e-9)
	assert.InDelta(t, 1.0, near.Breakdown.Language, 1e-9)
	assert.Equal(t, scoring.Aggregate(*near.Breakdown), near.Score)
	require.NotNil(t, near.Breakdown.DistanceKm)
	assert.Equal(t, geo.ReasonDistance, near.Details.LocationReason)

	assert.Nil(t, out.FindByID("broken").Breakdown)

	// The input list is left untouched.
	assert.Equal(t, []string{"far", "near", "broken"}, base.IDs())
	assert.InDelta(t, 0.5, base.FindByID("near").Breakdown.Location, 1e-9)
	assert.Nil(t, base.FindByID("near").Breakdown.DistanceKm)
}

func TestEnrichIgnoresImmaterialChanges(t *testing.T) {
	locator := &stubLocator{scores: map[string]float64{"Berlin": 0.5005, "Paris": 0.5}}
	m := NewMerger(locator, nil)
	base := baseResults()

	out, err := m.Enrich(context.Background(), base, "Potsdam")
	require.NoError(t, err)

	near := out.FindByID("near")
	before := base.FindByID("near")
	assert.InDelta(t, 0.5, near.Breakdown.Location, 1e-12)
	assert.Equal(t, before.Score, near.Score)
	assert.Equal(t, before.Breakdown.Total, near.Breakdown.Total)

	// The new place still shows up in the distance and the explanation.
	require.NotNil(t, near.Breakdown.DistanceKm)
	assert.InDelta(t, 10.0, *near.Breakdown.DistanceKm, 1e-9)
	assert.Equal(t, geo.ReasonDistance, near.Details.LocationReason)
	assert.Equal(t, "Great match - 10km commutable", near.Details.LocationExplanation)

	assert.Nil(t, before.Breakdown.DistanceKm)
	assert.Equal(t, geo.ReasonNoData, before.Details.LocationReason)
}

func TestEnrichEmptyLocationPassesThrough(t *testing.T) {
	locator := &stubLocator{}
	m := NewMerger(locator, nil)
	base := baseResults()

	out, err := m.Enrich(context.Background(), base, "   ")
	require.NoError(t, err)
	assert.Equal(t, base.IDs(), out.IDs())
	assert.Empty(t, locator.Candidates())
}

func TestEnrichCancelled(t *testing.T) {
	m := NewMerger(&stubLocator{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Enrich(ctx, baseResults(), "Potsdam")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichWithResolver(t *testing.T) {
	g := geo.NewGazetteer([]geo.Place{
		{Name: "Berlin", Latitude: 52.52, Longitude: 13.405, CountryCode: "de"},
		{Name: "Potsdam", Latitude: 52.3906, Longitude: 13.0645, CountryCode: "de"},
		{Name: "Paris", Latitude: 48.8566, Longitude: 2.3522, CountryCode: "fr"},
	})
	resolver := geo.NewResolver(g, geo.Config{}, nil)
	m := NewMerger(resolver, nil)

	out, err := m.Enrich(context.Background(), baseResults(), "Potsdam")
	require.NoError(t, err)

	assert.InDelta(t, 0.75, out.FindByID("near").Breakdown.Location, 1e-9)
	assert.InDelta(t, 0.1, out.FindByID("far").Breakdown.Location, 1e-9)
	assert.Equal(t, "near", out.Items[0].ID())
	assert.EqualValues(t, 3, resolver.Lookups())
}

func TestSessionAppliesOnlyLatestLocation(t *testing.T) {
	locator := &stubLocator{scores: map[string]float64{"Berlin": 1.0}}
	m := NewMerger(locator, nil)

	var mu sync.Mutex
	var updates []Update
	s := m.NewSession(context.Background(), baseResults(), 30*time.Millisecond, OnUpdate(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	}))

	s.LocationChanged("Hamburg")
	s.LocationChanged("Munich")
	last := s.LocationChanged("Potsdam")
	assert.EqualValues(t, 3, last)

	got := s.Wait()
	assert.Equal(t, last, got.Generation)
	assert.Equal(t, "Potsdam", got.Location)
	assert.Equal(t, "near", got.Results.Items[0].ID())

	for _, c := range locator.Candidates() {
		assert.Equal(t, "Potsdam", c)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 1)
	assert.Equal(t, last, updates[0].Generation)
}

func TestSessionDiscardsStaleResults(t *testing.T) {
	locator := &stubLocator{
		scores:  map[string]float64{"Berlin": 1.0},
		block:   "Hamburg",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := NewMerger(locator, nil)

	var mu sync.Mutex
	published := 0
	s := m.NewSession(context.Background(), baseResults(), -1, OnUpdate(func(Update) {
		mu.Lock()
		defer mu.Unlock()
		published++
	}))

	s.LocationChanged("Hamburg")
	<-locator.started
	second := s.LocationChanged("Potsdam")

	require.Eventually(t, func() bool {
		return s.Latest().Generation == second
	}, time.Second, 5*time.Millisecond)

	close(locator.release)
	got := s.Wait()

	assert.Equal(t, second, got.Generation)
	assert.Equal(t, "Potsdam", got.Location)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, published)
}

func TestSessionLatestBeforeAnyChange(t *testing.T) {
	base := baseResults()
	s := NewMerger(&stubLocator{}, nil).NewSession(context.Background(), base, 0)

	assert.Same(t, base, s.Latest().Results)
	assert.Zero(t, s.Generation())
	s.Close()
}
