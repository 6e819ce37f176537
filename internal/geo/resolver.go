package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultMinDelay = 600 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
	DefaultMissTTL  = 5 * time.Minute
)

type Config struct {
	// MinDelay is the minimum gap between two external lookups.
	MinDelay time.Duration
	// Timeout bounds a single external lookup.
	Timeout time.Duration
	// TTL expires cached places. Zero keeps them for the process lifetime.
	TTL time.Duration
	// MissTTL keeps failed lookups in memory so that a batch asks for an
	// unknown place once. Misses never reach the Store. Negative disables it.
	MissTTL time.Duration
	Regions []Region
}

type Option func(*Resolver)

// WithStore adds a second-level cache consulted before the provider.
func WithStore(store Store) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithClock replaces time.Now for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// cacheEntry holds either a place or the error of a failed lookup.
type cacheEntry struct {
	loc       *Location
	err       error
	expiresAt time.Time
}

// Resolver geocodes place names with a shared cache. Concurrent requests for
// the same place share one lookup, and lookups reach the provider one at a
// time with at least MinDelay between them.
type Resolver struct {
	provider Provider
	store    Store
	logger   *zap.Logger
	cfg      Config
	cities   *cityIndex
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry

	group   singleflight.Group
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	lookups atomic.Int64
}

// NewResolver builds a resolver. A nil provider turns every cache miss into ErrNotFound.
func NewResolver(provider Provider, cfg Config, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MissTTL == 0 {
		cfg.MissTTL = DefaultMissTTL
	}
	if cfg.MinDelay < 0 {
		cfg.MinDelay = 0
	}
	if cfg.Regions == nil {
		cfg.Regions = DefaultRegions()
	}

	limit := rate.Inf
	if cfg.MinDelay > 0 {
		limit = rate.Every(cfg.MinDelay)
	}

	r := &Resolver{
		provider: provider,
		logger:   logger,
		cfg:      cfg,
		cities:   newCityIndex(cfg.Regions),
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
		sem:      semaphore.NewWeighted(1),
		limiter:  rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coordinates of a place or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Location, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, ErrNotFound
	}
	key := cacheKey(query)

	if entry, ok := r.cached(key); ok {
		return entry.loc, entry.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared lookup outlives any single caller; each caller stops
	// waiting when its own context ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		if entry, ok := r.cached(key); ok {
			return entry.loc, entry.err
		}
		loc, err := r.lookup(flightCtx, key, query)
		r.remember(key, loc, err)
		return loc, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			r.logger.Debug("shared geocode lookup", zap.String("query", query))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Location), nil
	}
}

// ResolveBatch resolves each distinct text once, sequentially, and returns the
// places that could be resolved keyed by the trimmed input text.
func (r *Resolver) ResolveBatch(ctx context.Context, texts []string) map[string]*Location {
	out := make(map[string]*Location, len(texts))
	done := make(map[string]struct{}, len(texts))
	failed := 0

	for _, text := range texts {
		query := strings.TrimSpace(text)
		key := cacheKey(query)
		if key == "" {
			continue
		}
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}

		if ctx.Err() != nil {
			break
		}
		loc, err := r.Resolve(ctx, query)
		if err != nil {
			failed++
			r.logger.Debug("batch geocode failed", zap.String("query", query), zap.Error(err))
			continue
		}
		out[query] = loc
	}

	r.logger.Debug("batch geocode finished",
		zap.Int("requested", len(done)),
		zap.Int("resolved", len(out)),
		zap.Int("failed", failed),
	)
	return out
}

// Clear drops every cached place and remembered miss.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cacheEntry)
}

// Lookups reports how many external lookups were made.
func (r *Resolver) Lookups() int64 {
	return r.lookups.Load()
}

func (r *Resolver) cached(key string) (cacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		return cacheEntry{}, false
	}
	return entry, true
}

func (r *Resolver) remember(key string, loc *Location, err error) {
	entry := cacheEntry{loc: loc, err: err}
	ttl := r.cfg.TTL
	if err != nil {
		if r.cfg.MissTTL < 0 || errors.Is(err, context.Canceled) {
			return
		}
		ttl = r.cfg.MissTTL
	}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = entry
}

func (r *Resolver) lookup(ctx context.Context, key, query string) (*Location, error) {
	if r.store != nil {
		loc, err := r.store.Get(ctx, key)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("geocode store read failed", zap.String("query", query), zap.Error(err))
		}
	}

	if r.provider == nil {
		return nil, ErrNotFound
	}

	enhanced := r.cities.enhance(query)
	loc, err := r.call(ctx, enhanced)
	if err != nil && enhanced != query && ctx.Err() == nil {
		r.logger.Debug("enhanced geocode failed, retrying with original text",
			zap.String("query", query),
			zap.String("enhanced", enhanced),
			zap.Error(err),
		)
		loc, err = r.call(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.Set(ctx, key, loc); err != nil {
			r.logger.Warn("geocode store write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return loc, nil
}

// call performs one paced, time-bounded provider lookup.
func (r *Resolver) call(ctx context.Context, query string) (*Location, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for geocode slot: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	r.lookups.Add(1)
	start := time.Now()
	loc, err := r.provider.Lookup(callCtx, query)
	r.logger.Debug("geocode lookup",
		zap.String("query", query),
		zap.Duration("took", time.Since(start)),
		zap.Bool("found", err == nil),
	)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNotFound
	}
	return loc, nil
}
