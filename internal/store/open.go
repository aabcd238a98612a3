// Package store selects and opens the configured core.Store backend.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/salesdash/internal/config"
	"github.com/JonMunkholm/salesdash/internal/core"
	"github.com/JonMunkholm/salesdash/internal/store/postgres"
	"github.com/JonMunkholm/salesdash/internal/store/sqlite"
)

// Open connects to the backend named by cfg.Store.Driver, migrating first
// when AutoMigrate is set. The returned func releases the backend.
func Open(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Store.URL, postgres.PoolConfig{
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
			MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Store.AutoMigrate {
			if err := postgres.Migrate(pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			slog.Info("database migrations applied")
		}
		s := postgres.New(pool, postgres.WithCopyThreshold(cfg.Upload.CopyThreshold))
		return s, s.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath, cfg.Store.AutoMigrate)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("failed to close sqlite store", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ServiceOptions maps upload settings onto core.Options.
func ServiceOptions(cfg *config.Config) core.Options {
	return core.Options{
		MaxFileSize:          cfg.Upload.MaxFileSize,
		UploadTimeout:        cfg.Upload.Timeout,
		TempDir:              cfg.Upload.TempDir,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
	}
}
