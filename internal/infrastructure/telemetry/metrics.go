// Package telemetry provides Prometheus counters for pipeline runs and the
// OpenTelemetry tracer used for per-stage spans.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pharmdist/salesflow/internal/application/warehouse"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salesflow"

var _ warehouse.Metrics = (*Metrics)(nil)

// Metrics holds the pipeline counters in a private registry that is flushed
// to a node-exporter textfile at the end of a run.
type Metrics struct {
	registry *prometheus.Registry

	rowsRead        prometheus.Counter
	factsLoaded     prometheus.Counter
	factsSkipped    prometheus.Counter
	dimensionWrites *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	lastSuccess     *prometheus.GaugeVec
}

// NewMetrics registers every pipeline metric in a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "rows_read_total",
			Help:      "Sales rows read by the warehouse load.",
		}),
		factsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "facts_loaded_total",
			Help:      "Fact rows inserted into fact_sales.",
		}),
		factsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "facts_skipped_total",
			Help:      "Fact rows skipped for missing keys or already loaded.",
		}),
		dimensionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "dimension_writes_total",
			Help:      "Dimension rows written, by dimension and operation.",
		}, []string{"dimension", "operation"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"pipeline", "stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"pipeline", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"pipeline"}),
	}
	m.registry.MustRegister(
		m.rowsRead, m.factsLoaded, m.factsSkipped, m.dimensionWrites,
		m.stageDuration, m.runs, m.lastSuccess,
	)
	return m
}

// Registry exposes the registry for tests and custom gatherers
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RowsRead counts rows read by the warehouse load
func (m *Metrics) RowsRead(n int) {
	m.rowsRead.Add(float64(n))
}

// FactsLoaded counts inserted facts
func (m *Metrics) FactsLoaded(n int) {
	m.factsLoaded.Add(float64(n))
}

// FactsSkipped counts facts that were not inserted
func (m *Metrics) FactsSkipped(n int) {
	m.factsSkipped.Add(float64(n))
}

// DimensionWrites counts inserted and updated dimension members
func (m *Metrics) DimensionWrites(dimension string, inserted, updated int) {
	m.dimensionWrites.WithLabelValues(dimension, "insert").Add(float64(inserted))
	m.dimensionWrites.WithLabelValues(dimension, "update").Add(float64(updated))
}

// ObserveStage records how long a pipeline stage took
func (m *Metrics) ObserveStage(pipeline, stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

// RunFinished counts a run outcome; success also stamps the last-success gauge
func (m *Metrics) RunFinished(pipeline, outcome string, at time.Time) {
	m.runs.WithLabelValues(pipeline, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.lastSuccess.WithLabelValues(pipeline).Set(float64(at.Unix()))
	}
}

// Run outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeExpected   = "expected_error"
	OutcomeUnexpected = "unexpected_error"
)

// WriteTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics folder: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
