package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/utils"
)

const DefaultDebounce = 300 * time.Millisecond

// Update is a published enrichment result.
type Update struct {
	Generation uint64
	Location   string
	Results    *matching.Results
}

// Session re-enriches a fixed scored list whenever the candidate location
// changes. Every change gets a higher generation number; a task only
// publishes when its generation is still the newest one.
type Session struct {
	merger   *Merger
	base     *matching.Results
	debounce time.Duration
	logger   *zap.Logger
	onUpdate func(Update)

	ctx context.Context
	wg  sync.WaitGroup

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	latest     Update
}

type SessionOption func(*Session)

// OnUpdate registers a callback invoked after each published update.
func OnUpdate(fn func(Update)) SessionOption {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// NewSession starts a session over base. A negative debounce disables the quiet period.
func (m *Merger) NewSession(ctx context.Context, base *matching.Results, debounce time.Duration, opts ...SessionOption) *Session {
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	s := &Session{
		merger:   m,
		base:     base,
		debounce: debounce,
		logger:   m.logger,
		ctx:      ctx,
		latest:   Update{Results: base},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LocationChanged supersedes any pending enrichment and schedules a new one
// after the quiet period. It returns the generation of the new request.
func (s *Session) LocationChanged(location string) uint64 {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, gen, location)
	}()
	return gen
}

func (s *Session) run(ctx context.Context, gen uint64, location string) {
	if err := utils.WaitFor(ctx, s.debounce); err != nil {
		s.logger.Debug("enrichment superseded", zap.Uint64("generation", gen))
		return
	}

	results, err := s.merger.Enrich(ctx, s.base, location)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("enrichment failed", zap.Uint64("generation", gen), zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale enrichment", zap.Uint64("generation", gen))
		return
	}
	update := Update{Generation: gen, Location: location, Results: results}
	s.latest = update
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(update)
	}
}

// Wait blocks until every scheduled task has finished and returns the newest
// published update.
func (s *Session) Wait() Update {
	s.wg.Wait()
	return s.Latest()
}

// Latest returns the newest published update. Before any update it holds the base list.
func (s *Session) Latest() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Generation is the number of the most recent request.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close cancels pending work and waits for it to stop.
func (s *Session) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
