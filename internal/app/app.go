// Package app assembles the market engine from configuration. Both the API
// server and the terminal client start through Open.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrJamesThe3rd/gridshare/internal/analytics"
	"github.com/MrJamesThe3rd/gridshare/internal/config"
	"github.com/MrJamesThe3rd/gridshare/internal/database"
	"github.com/MrJamesThe3rd/gridshare/internal/export"
	"github.com/MrJamesThe3rd/gridshare/internal/identity"
	"github.com/MrJamesThe3rd/gridshare/internal/importer"
	"github.com/MrJamesThe3rd/gridshare/internal/market"
	"github.com/MrJamesThe3rd/gridshare/internal/market/seed"
	"github.com/MrJamesThe3rd/gridshare/internal/market/store"
	"github.com/MrJamesThe3rd/gridshare/internal/metrics"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/badgerkv"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/memory"
	"github.com/MrJamesThe3rd/gridshare/internal/persistence/postgres"
)

type App struct {
	Engine   *market.Engine
	Imports  *importer.Service
	Exports  *export.Service
	Registry *prometheus.Registry

	closers []func() error
}

// Open builds the engine on the configured backend and loads its state.
// Seeding, when enabled, credits the identity ids resolves from ctx.
func Open(ctx context.Context, cfg *config.Config, ids identity.Provider, logger *slog.Logger) (*App, error) {
	a := &App{Registry: prometheus.NewRegistry()}

	backend, err := a.openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []market.Option{
		market.WithLogger(logger),
		market.WithRecorder(metrics.New(a.Registry)),
	}

	if cfg.Store.Seed {
		opts = append(opts, market.WithSeeder(seed.New(seed.DefaultProfile(), nil)))
	}

	repo := store.New(persistence.NewAdapter(backend, logger))
	a.Engine = market.NewEngine(repo, ids, opts...)

	if err := a.Engine.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("loading market: %w", err)
	}

	a.Imports = importer.NewService(a.Engine, importer.NewParser(a.Engine.Now))
	a.Exports = export.NewService(a.Engine, a.Engine.Now)

	return a, nil
}

func (a *App) openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (persistence.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store, state is lost on exit")
		return memory.New(), nil

	case config.BackendBadger:
		if err := os.MkdirAll(cfg.Store.BadgerDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating badger directory: %w", err)
		}

		db, err := badgerkv.Open(cfg.Store.BadgerDir)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, db.Close)

		return badgerkv.New(db), nil

	case config.BackendPostgres:
		db, err := database.Open(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, db.Close)

		b := postgres.New(db)
		if err := b.EnsureSchema(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}

		return b, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Summary computes analytics for participant over the current ledger.
func (a *App) Summary(participant string) analytics.Summary {
	return analytics.Summarize(a.Engine.SnapshotTransactions(), participant, a.Engine.Now())
}

// Close releases the store.
func (a *App) Close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}

	a.closers = nil

	return errors.Join(errs...)
}
