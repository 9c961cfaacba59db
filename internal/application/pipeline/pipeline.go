// Package pipeline runs the operator-facing jobs: the vtorichka reports, the
// warehouse ETL and the 1C export cleaning.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmdist/salesflow/internal/application/warehouse"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/domain/territory"
	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"github.com/pharmdist/salesflow/internal/infrastructure/logger"
	"github.com/pharmdist/salesflow/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Pipeline names used in logs, spans and metrics
const (
	NameVtorichka = "vtorichka"
	NameETL       = "etl"
	NameClean1C   = "clean_1c"
)

// Publisher uploads generated workbooks and returns their remote locations
type Publisher interface {
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}

// Metrics receives run, stage and load measurements
type Metrics interface {
	warehouse.Metrics
	ObserveStage(pipeline, stage string, d time.Duration)
	RunFinished(pipeline, outcome string, at time.Time)
}

type nopMetrics struct{}

func (nopMetrics) RowsRead(int)                               {}
func (nopMetrics) FactsLoaded(int)                            {}
func (nopMetrics) FactsSkipped(int)                           {}
func (nopMetrics) DimensionWrites(string, int, int)           {}
func (nopMetrics) ObserveStage(string, string, time.Duration) {}
func (nopMetrics) RunFinished(string, string, time.Time)      {}

// Result describes one finished run
type Result struct {
	RunID uuid.UUID
	// Files are the workbooks written locally
	Files []string
	// Published are the remote keys of the uploaded files
	Published []string
	// Load is set by the ETL run
	Load *warehouse.Result
}

// Pipeline wires the application services for one configuration
type Pipeline struct {
	cfg       *config.Config
	log       *zap.Logger
	locations territory.CustomerLocationRepository
	warehouse dw.Repository
	publisher Publisher
	metrics   Metrics
	now       func() time.Time
}

// Option is a functional option for configuring the pipeline
type Option func(*Pipeline)

// WithLocations enables the customer-dimension pass of territory assignment
func WithLocations(repo territory.CustomerLocationRepository) Option {
	return func(p *Pipeline) {
		p.locations = repo
	}
}

// WithWarehouse sets the star-schema repository the ETL loads into
func WithWarehouse(repo dw.Repository) Option {
	return func(p *Pipeline) {
		p.warehouse = repo
	}
}

// WithPublisher uploads the vtorichka outputs after each run
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// WithMetrics sets the run metrics sink
func WithMetrics(m Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// New creates a pipeline
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		log:     log.Named("pipeline"),
		metrics: nopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run executes fn under a fresh run id and logs its outcome
func (p *Pipeline) run(ctx context.Context, name string, fn func(ctx context.Context, res *Result) error) (*Result, error) {
	res := &Result{RunID: uuid.New()}
	ctx, log := logger.WithRunID(ctx, p.log, res.RunID.String())
	ctx, span := telemetry.StartSpan(ctx, "pipeline."+name,
		attribute.String("pipeline", name),
		attribute.String("run_id", res.RunID.String()))
	log = log.With(zap.String("pipeline", name))
	ctx = logger.WithContext(ctx, log)

	log.Info("Run started")
	err := fn(ctx, res)
	telemetry.EndSpan(span, err)
	p.metrics.RunFinished(name, outcome(err), p.now())

	if err != nil {
		return res, logger.Outcome(log, err)
	}
	logger.Completed(log, "Processing completed successfully",
		zap.Int("files", len(res.Files)),
		zap.Int("published", len(res.Published)))
	return res, nil
}

// stage runs one step of a pipeline with its own span and duration metric
func (p *Pipeline) stage(ctx context.Context, pipeline, name string, fn func(ctx context.Context, log *zap.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, log := logger.WithStage(ctx, name)
	ctx, span := telemetry.StartSpan(ctx, pipeline+"."+name)
	start := time.Now()

	err := fn(ctx, logger.L(ctx))
	elapsed := time.Since(start)
	p.metrics.ObserveStage(pipeline, name, elapsed)
	telemetry.EndSpan(span, err)
	log.Debug("Stage finished", zap.Duration("duration", elapsed), zap.Bool("ok", err == nil))
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case shared.IsExpected(err):
		return telemetry.OutcomeExpected
	default:
		return telemetry.OutcomeUnexpected
	}
}
