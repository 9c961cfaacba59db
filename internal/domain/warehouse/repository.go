package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Dimension describes a Type 1 slowly changing dimension table keyed by a business key
type Dimension struct {
	Name       string
	Table      string
	KeyColumn  string
	IDColumn   string
	Attributes []string
}

// Star schema dimensions
var (
	OptovikDimension = Dimension{
		Name:      "optovik",
		Table:     "dim_optovik",
		KeyColumn: "optovik",
		IDColumn:  "optovik_id",
	}
	CustomerDimension = Dimension{
		Name:       "customer",
		Table:      "dim_customer",
		KeyColumn:  "customer",
		IDColumn:   "customer_id",
		Attributes: []string{"region", "territory"},
	}
	ProductDimension = Dimension{
		Name:       "product",
		Table:      "dim_product",
		KeyColumn:  "product",
		IDColumn:   "product_id",
		Attributes: []string{"product_groups"},
	}
)

// Member is one business key of a dimension with its attribute values
type Member struct {
	Key        string
	Attributes map[string]string
}

// Changed reports whether any attribute differs from stored; missing values compare as empty
func (m Member) Changed(stored map[string]string, attributes []string) bool {
	for _, a := range attributes {
		if m.Attributes[a] != stored[a] {
			return true
		}
	}
	return false
}

// UpsertStats counts the writes of one dimension upsert
type UpsertStats struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Members extracts the distinct members of dim from rows in first-seen order.
// Later rows never override the attributes of an earlier one.
func Members(dim Dimension, rows []FactRow) []Member {
	seen := make(map[string]struct{})
	var out []Member
	for _, r := range rows {
		m := memberOf(dim, r)
		if m.Key == "" {
			continue
		}
		if _, ok := seen[m.Key]; ok {
			continue
		}
		seen[m.Key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func memberOf(dim Dimension, r FactRow) Member {
	switch dim.Name {
	case CustomerDimension.Name:
		return Member{Key: r.Customer, Attributes: map[string]string{"region": r.Region, "territory": r.Territory}}
	case ProductDimension.Name:
		return Member{Key: r.Product, Attributes: map[string]string{"product_groups": r.ProductGroup}}
	default:
		return Member{Key: r.Optovik}
	}
}

// RunStatus is the state of an ETL run
type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunSuccess    RunStatus = "success"
	RunFailed     RunStatus = "failed"
)

// RunLog is one row of etl_run_log
type RunLog struct {
	ID           uuid.UUID
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       RunStatus
	RowsRead     int
	FactsLoaded  int
	FactsSkipped int
	ErrorMessage string
}

// NewRunLog opens a run in progress
func NewRunLog(id uuid.UUID, now time.Time) *RunLog {
	return &RunLog{ID: id, StartedAt: now, Status: RunInProgress}
}

// Finish closes the run, failed when err is non-nil
func (r *RunLog) Finish(now time.Time, err error) {
	r.FinishedAt = &now
	if err != nil {
		r.Status = RunFailed
		r.ErrorMessage = err.Error()
		return
	}
	r.Status = RunSuccess
}

// Repository loads the star schema
type Repository interface {
	// Ping verifies the warehouse is reachable
	Ping(ctx context.Context) error
	// UpsertDimension inserts new members, updates changed attributes and returns key to surrogate ID
	UpsertDimension(ctx context.Context, dim Dimension, members []Member) (map[string]int64, UpsertStats, error)
	// UpsertDates appends missing days and returns every day's surrogate ID
	UpsertDates(ctx context.Context, dates []DateKey) (map[DateKey]int64, int, error)
	// InsertFacts inserts facts whose row hash is not loaded yet and returns how many were new
	InsertFacts(ctx context.Context, facts []Fact) (int64, error)
	StartRun(ctx context.Context, run *RunLog) error
	FinishRun(ctx context.Context, run *RunLog) error
}
