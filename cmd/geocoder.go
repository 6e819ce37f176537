package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/geo"
	"github.com/spigell/job-matcher/internal/secrets"
)

const (
	providerLocationIQ = "locationiq"
	providerGazetteer  = "gazetteer"
	providerNone       = "none"
)

// newResolver builds the shared place resolver. The returned func releases
// the optional redis store.
func newResolver(ctx context.Context, cfg *GeocoderConfig, logger *zap.Logger) (*geo.Resolver, func(), error) {
	provider, err := newProvider(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	resolverCfg := geo.Config{
		MinDelay: cfg.MinDelay,
		Timeout:  cfg.Timeout,
		TTL:      cfg.CacheTTL,
		MissTTL:  cfg.MissTTL,
	}
	// Local lookups need no pacing.
	if normalizeProvider(cfg.Provider) != providerLocationIQ {
		resolverCfg.MinDelay = 0
	}

	cleanup := func() {}
	var opts []geo.Option
	if redisURL := strings.TrimSpace(cfg.RedisURL); redisURL != "" {
		store, err := geo.NewRedisStore(redisURL, cfg.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			logger.Warn("geocode cache is unavailable, continuing without it", zap.Error(err))
			_ = store.Close()
		} else {
			opts = append(opts, geo.WithStore(store))
			cleanup = func() { _ = store.Close() }
		}
	}

	return geo.NewResolver(provider, resolverCfg, logger.With(zap.String("provider", normalizeProvider(cfg.Provider))), opts...), cleanup, nil
}

func newProvider(cfg *GeocoderConfig, logger *zap.Logger) (geo.Provider, error) {
	switch normalizeProvider(cfg.Provider) {
	case providerNone:
		logger.Info("geocoding is disabled, locations are rated without coordinates")
		return nil, nil
	case providerGazetteer:
		if strings.TrimSpace(cfg.PlacesFile) == "" {
			return nil, fmt.Errorf("geocoder.places-file is required for the gazetteer provider")
		}
		g, err := geo.LoadGazetteer(cfg.PlacesFile)
		if err != nil {
			return nil, fmt.Errorf("loading places: %w", err)
		}
		logger.Info("loaded places", zap.String("path", cfg.PlacesFile), zap.Int("count", g.Len()))
		return g, nil
	case providerLocationIQ:
		key, err := secrets.Load(secrets.Source{
			Name:  "geocoder api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "LOCATIONIQ_API_KEY_FILE",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set geocoder.api-key-file or %s_GEOCODER_KEY_FILE)", err, envPrefix)
		}
		client := geo.NewLocationIQ(logger, key)
		if cfg.URL != "" {
			client.APIURL = cfg.URL
		}
		if cfg.UserAgent != "" {
			client.UserAgent = cfg.UserAgent
		}
		if cfg.Language != "" {
			client.Language = cfg.Language
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported geocoder provider: %s", cfg.Provider)
	}
}

func normalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return providerNone
	}
	return name
}
