package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pharmdist/salesflow/internal/application/pipeline"
	"github.com/pharmdist/salesflow/internal/application/warehouse"
	"github.com/pharmdist/salesflow/internal/domain/territory"
	"github.com/pharmdist/salesflow/internal/infrastructure/cache"
	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"github.com/pharmdist/salesflow/internal/infrastructure/logger"
	"github.com/pharmdist/salesflow/internal/infrastructure/persistence"
	"github.com/pharmdist/salesflow/internal/infrastructure/storage"
	"github.com/pharmdist/salesflow/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// app holds the wired pipeline and the resources it must release
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	metrics  *telemetry.Metrics
	pipeline *pipeline.Pipeline
	closers  []func() error
}

// newApp loads configuration and connects the optional backends. The warehouse
// is connected when the job needs it or when region matching reads customers
// from it.
func newApp(ctx context.Context, configFile string, needsWarehouse bool) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return nil, err
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: telemetry.NewMetrics()}
	a.closers = append(a.closers, func() error { return logger.Sync(log) })

	if err := cfg.EnsureDataFolders(); err != nil {
		a.Close()
		return nil, logger.Outcome(log, err)
	}

	opts := []pipeline.Option{pipeline.WithMetrics(a.metrics)}

	if needsWarehouse || cfg.Database.RegionMatching {
		db, err := a.connect(ctx)
		switch {
		case err == nil:
			var locations territory.CustomerLocationRepository = persistence.NewGormCustomerLocationRepository(db.DB)
			locations = a.cached(ctx, locations)
			opts = append(opts,
				pipeline.WithWarehouse(persistence.NewGormWarehouseRepository(db.DB, cfg.Database.ChunkSize)),
				pipeline.WithLocations(locations))
		case needsWarehouse:
			a.Close()
			return nil, logger.Outcome(log, warehouse.ConnectionError(err))
		default:
			log.Warn("Warehouse unavailable, region matching from the database is skipped", zap.Error(err))
		}
	}

	publisher, err := storage.NewPublisher(ctx, &cfg.Storage, log)
	if err != nil {
		a.Close()
		return nil, logger.Outcome(log, err)
	}
	opts = append(opts, pipeline.WithPublisher(publisher))

	a.pipeline = pipeline.New(cfg, log, opts...)
	return a, nil
}

func (a *app) connect(ctx context.Context) (*persistence.Database, error) {
	db, err := persistence.NewDatabase(&a.cfg.Database, a.log)
	if err != nil {
		return nil, err
	}
	if db.Driver() != "postgres" {
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	a.closers = append(a.closers, db.Close)
	a.log.Info("Database connected successfully", zap.String("driver", db.Driver()))
	return db, nil
}

// cached puts the Redis cache in front of repo when enabled and reachable
func (a *app) cached(ctx context.Context, repo territory.CustomerLocationRepository) territory.CustomerLocationRepository {
	if !a.cfg.Redis.Enabled {
		return repo
	}
	c, err := cache.NewCustomerLocationCache(ctx, a.cfg.Redis, repo, cache.WithLogger(a.log.Named("cache")))
	if err != nil {
		a.log.Warn("Customer location cache disabled", zap.Error(err))
		return repo
	}
	a.closers = append(a.closers, c.Close)
	return c
}

func (a *app) writeMetrics() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		a.log.Warn("Failed to write metrics textfile", zap.Error(err))
	}
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
