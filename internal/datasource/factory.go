package datasource

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/config"
	"github.com/gojankovic/fpl-insights/internal/database"
	"github.com/gojankovic/fpl-insights/internal/provider"
	"github.com/gojankovic/fpl-insights/internal/repository"
)

// Factory creates providers based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfig derives HTTP client settings from the provider section
func (f *Factory) HTTPClientConfig() HTTPClientConfig {
	hc := DefaultHTTPClientConfig()
	if f.config.Provider.TimeoutSeconds > 0 {
		hc.Timeout = f.config.ProviderTimeout()
	}
	hc.MaxRetries = f.config.Provider.RetryAttempts
	if f.config.Provider.RequestsPerSecond > 0 {
		hc.RateLimit = f.config.Provider.RequestsPerSecond
	}
	return hc
}

// NewFPLClient builds an API client from configuration
func (f *Factory) NewFPLClient() *FPLClient {
	httpClient := NewRateLimitedHTTPClient(f.HTTPClientConfig(), f.logger)
	return NewFPLClient(httpClient, f.config.Provider.BaseURL, f.logger)
}

// NewProvider creates the configured provider, wrapped in a read cache when enabled.
// The returned close func releases any pool or connections.
func (f *Factory) NewProvider(ctx context.Context) (provider.Provider, func(), error) {
	var (
		p       provider.Provider
		closeFn = func() {}
	)

	switch f.config.Provider.Kind {
	case config.ProviderMemory:
		mem, err := provider.LoadSnapshot(f.config.Provider.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		p = mem

	case config.ProviderPostgres:
		db, err := database.Initialize(ctx, f.config, f.logger)
		if err != nil {
			return nil, nil, err
		}
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		p = repos.Players
		closeFn = db.Close

	case config.ProviderFPLAPI:
		client := f.NewFPLClient()
		p = client
		closeFn = func() { _ = client.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown provider kind: %s", f.config.Provider.Kind)
	}

	f.logger.WithField("kind", f.config.Provider.Kind).Info("Created player data provider")

	if f.config.Provider.CacheEnabled && f.config.Provider.CacheTTLSeconds > 0 {
		p = provider.NewCached(p, f.config.CacheTTL(), f.config.Provider.CacheMaxSize, f.logger)
	}
	return p, closeFn, nil
}
