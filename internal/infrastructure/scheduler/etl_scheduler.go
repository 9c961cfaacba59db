// Package scheduler runs the warehouse ETL on a fixed interval or cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RunFunc is one scheduled ETL run
type RunFunc func(ctx context.Context) error

// ETLScheduler triggers RunFunc on schedule. Runs never overlap: a tick that
// fires while a run is in progress is skipped.
type ETLScheduler struct {
	cfg    config.SchedulerConfig
	run    RunFunc
	logger *zap.Logger
	loc    *time.Location
}

// NewETLScheduler creates a scheduler for run
func NewETLScheduler(cfg config.SchedulerConfig, run RunFunc, logger *zap.Logger) *ETLScheduler {
	return &ETLScheduler{cfg: cfg, run: run, logger: logger.Named("scheduler"), loc: time.Local}
}

func (e *ETLScheduler) schedule(ctx context.Context) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(e.loc)
	s.SingletonModeAll()

	var builder *gocron.Scheduler
	switch {
	case e.cfg.Cron != "":
		builder = s.Cron(e.cfg.Cron)
	case e.cfg.Interval > 0:
		builder = s.Every(e.cfg.Interval)
	default:
		return nil, errors.New("scheduler needs an interval or a cron expression")
	}

	_, err := builder.Do(func() {
		start := time.Now()
		e.logger.Info("Scheduled ETL run started")
		if err := e.run(ctx); err != nil {
			e.logger.Error("Scheduled ETL run failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
			return
		}
		e.logger.Info("Scheduled ETL run finished", zap.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule ETL job: %w", err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled. The first run starts immediately.
func (e *ETLScheduler) Start(ctx context.Context) error {
	s, err := e.schedule(ctx)
	if err != nil {
		return err
	}

	e.logger.Info("ETL scheduler started",
		zap.Duration("interval", e.cfg.Interval),
		zap.String("cron", e.cfg.Cron))
	s.StartAsync()

	<-ctx.Done()
	s.Stop()
	e.logger.Info("ETL scheduler stopped")
	return nil
}
