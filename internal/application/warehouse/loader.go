// Package warehouse loads processed sales into the star schema.
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/pharmdist/salesflow/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Metrics receives load counters
type Metrics interface {
	RowsRead(n int)
	FactsLoaded(n int)
	FactsSkipped(n int)
	DimensionWrites(dimension string, inserted, updated int)
}

type nopMetrics struct{}

func (nopMetrics) RowsRead(int)                     {}
func (nopMetrics) FactsLoaded(int)                  {}
func (nopMetrics) FactsSkipped(int)                 {}
func (nopMetrics) DimensionWrites(string, int, int) {}

// Result summarises one load
type Result struct {
	RunID        uuid.UUID
	RowsRead     int
	FactsLoaded  int
	FactsSkipped int
	Dimensions   map[string]dw.UpsertStats
}

// Loader runs the star-schema load
type Loader struct {
	repo    dw.Repository
	metrics Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewLoader creates a loader. metrics may be nil.
func NewLoader(repo dw.Repository, metrics Metrics, log *zap.Logger) *Loader {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Loader{repo: repo, metrics: metrics, log: log.Named("warehouse"), now: time.Now}
}

// Run loads ds into the warehouse under a new run log entry
func (l *Loader) Run(ctx context.Context, ds *sales.Dataset, groups *sales.DrugGroups) (*Result, error) {
	if err := l.repo.Ping(ctx); err != nil {
		return nil, ConnectionError(err)
	}

	run := dw.NewRunLog(runID(ctx), l.now())
	if err := l.repo.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to open etl run log: %w", err)
	}

	result, err := l.load(ctx, ds, groups)
	if result != nil {
		result.RunID = run.ID
		run.RowsRead = result.RowsRead
		run.FactsLoaded = result.FactsLoaded
		run.FactsSkipped = result.FactsSkipped
	}
	run.Finish(l.now(), err)
	// The run log is closed even when the load was cancelled.
	if ferr := l.repo.FinishRun(context.WithoutCancel(ctx), run); ferr != nil {
		l.log.Warn("Failed to close etl run log", zap.String("run_id", run.ID.String()), zap.Error(ferr))
	}
	if err != nil {
		return nil, err
	}

	l.log.Info(fmt.Sprintf("ETL completed successfully. Loaded %d new records.", result.FactsLoaded),
		zap.String("run_id", run.ID.String()))
	return result, nil
}

func (l *Loader) load(ctx context.Context, ds *sales.Dataset, groups *sales.DrugGroups) (*Result, error) {
	rows := dw.Transform(ds, groups)
	result := &Result{RowsRead: len(rows), Dimensions: make(map[string]dw.UpsertStats)}
	l.metrics.RowsRead(len(rows))

	if conflicts := dw.ConflictingCustomers(rows); len(conflicts) > 0 {
		return result, fmt.Errorf("some customers have conflicting region or territory mappings: %s",
			strings.Join(conflicts, ", "))
	}

	ids := make(map[string]map[string]int64, 3)
	for _, dim := range []dw.Dimension{dw.OptovikDimension, dw.CustomerDimension, dw.ProductDimension} {
		m, stats, err := l.repo.UpsertDimension(ctx, dim, dw.Members(dim, rows))
		if err != nil {
			return result, fmt.Errorf("upsert dimension %s failed: %w", dim.Table, err)
		}
		ids[dim.Name] = m
		result.Dimensions[dim.Name] = stats
		l.metrics.DimensionWrites(dim.Name, stats.Inserted, stats.Updated)
		l.log.Info("Dimension upserted",
			zap.String("table", dim.Table),
			zap.Int("inserted", stats.Inserted),
			zap.Int("updated", stats.Updated),
			zap.Int("skipped", stats.Skipped))
	}

	timeIDs, inserted, err := l.repo.UpsertDates(ctx, distinctDates(rows))
	if err != nil {
		return result, fmt.Errorf("upsert time dimension failed: %w", err)
	}
	if inserted > 0 {
		l.log.Info(fmt.Sprintf("Inserted %d new dates into dim_time", inserted))
	}

	l.log.Info("Preparing fact data...")
	facts := make([]dw.Fact, 0, len(rows))
	for _, r := range rows {
		optovikID, ok1 := ids[dw.OptovikDimension.Name][r.Optovik]
		customerID, ok2 := ids[dw.CustomerDimension.Name][r.Customer]
		productID, ok3 := ids[dw.ProductDimension.Name][r.Product]
		var timeID int64
		ok4 := false
		if key, ok := r.DateKey(); ok {
			timeID, ok4 = timeIDs[key]
		}
		if !ok1 || !ok2 || !ok3 || !ok4 {
			result.FactsSkipped++
			continue
		}
		facts = append(facts, dw.NewFact(optovikID, customerID, productID, timeID, r.Quantity, r.TotalSales))
	}
	l.metrics.FactsSkipped(result.FactsSkipped)
	l.log.Info(fmt.Sprintf("Valid rows: %d, Skipped rows: %d", len(facts), result.FactsSkipped))

	if len(facts) == 0 {
		l.log.Warn("No fact records to load")
		return result, nil
	}

	l.log.Info("Loading fact data...")
	loaded, err := l.repo.InsertFacts(ctx, facts)
	if err != nil {
		return result, fmt.Errorf("fact data load failed: %w", err)
	}
	result.FactsLoaded = int(loaded)
	l.metrics.FactsLoaded(result.FactsLoaded)
	l.log.Info(fmt.Sprintf("Loaded %d new fact records.", loaded))
	return result, nil
}

func distinctDates(rows []dw.FactRow) []dw.DateKey {
	seen := make(map[dw.DateKey]struct{})
	var out []dw.DateKey
	for _, r := range rows {
		key, ok := r.DateKey()
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// ConnectionError explains a failed warehouse connection to the operator
func ConnectionError(err error) error {
	return shared.NewExpectedError(shared.ErrCodeDatabase, "ETL process failed: could not connect to the database").
		WithDetails(
			"📌 Reason: A network-related or instance-specific error occurred.",
			fmt.Sprintf("🔧 Technical details: %v", err),
		).
		WithFix(
			"✅ Make sure the database host, port and name in config.toml are correct.",
			"🖥️ Check that the database server is running.",
			"🌐 Ensure the server accepts remote connections.",
			"🔥 Verify that the firewall is not blocking the database port.",
			"🧪 Try connecting with psql or mysql using the same credentials.",
		)
}

// runID reuses the pipeline run id so etl_run_log rows match the run log
func runID(ctx context.Context) uuid.UUID {
	if id, err := uuid.Parse(logger.GetRunID(ctx)); err == nil {
		return id
	}
	return uuid.New()
}
