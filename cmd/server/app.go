package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/api"
	"github.com/warp/charge-rate-engine/config"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/logging"
	"github.com/warp/charge-rate-engine/generic/store"
	"github.com/warp/charge-rate-engine/ratesource"
	"github.com/warp/charge-rate-engine/store/sqlite"
)

// newResolver builds the cascade from config: extra tables from disk, the
// remote source when a base URL is set, and the cache TTL.
func newResolver(cfg *config.Config, clock generic.Clock, l *zap.Logger) (*ratesource.Resolver, error) {
	tables := ratesource.DefaultTables()
	if path := cfg.RateSource.TablesFile; path != "" {
		extra, err := ratesource.LoadTablesFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback tables: %w", err)
		}
		tables.Merge(extra)
		l.Info("loaded fallback tables", zap.String("path", path))
	}

	opts := []ratesource.Option{
		ratesource.WithTables(tables),
		ratesource.WithCache(ratesource.NewCache[[]ratesource.Classification](cfg.RateSource.CacheTTL, clock)),
		ratesource.WithTimeout(cfg.RateSource.Timeout),
		ratesource.WithLogger(logging.Named(l, "ratesource")),
	}
	if cfg.RateSource.RemoteEnabled() {
		src := ratesource.NewHTTPSource(
			cfg.RateSource.BaseURL,
			ratesource.StaticCredential(cfg.RateSource.SubscriptionKey),
			cfg.RateSource.Timeout,
		)
		opts = append(opts, ratesource.WithRemote(src))
		l.Info("remote rate source enabled", zap.String("base_url", cfg.RateSource.BaseURL))
	}
	return ratesource.NewResolver(opts...), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore returns the map-backed store for "memory" and SQLite otherwise.
func openStore(cfg *config.Config, clock generic.Clock, l *zap.Logger) (api.Store, io.Closer, error) {
	if cfg.Database.Path == config.MemoryDatabase {
		l.Info("using in-memory store")
		return store.NewMemory(store.WithClock(clock)), nopCloser{}, nil
	}

	s, err := sqlite.New(cfg.Database.Path, sqlite.WithLogger(logging.Named(l, "sqlite")), sqlite.WithClock(clock))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	l.Info("using sqlite store", zap.String("path", cfg.Database.Path))
	return s, s, nil
}
