package persistence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/pharmdist/salesflow/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultChunkSize = 1000

// GormWarehouseRepository implements warehouse.Repository using GORM
type GormWarehouseRepository struct {
	db        *gorm.DB
	chunkSize int
	now       func() time.Time
}

// NewGormWarehouseRepository creates a warehouse repository. Key lookups and
// inserts are issued in chunks of chunkSize.
func NewGormWarehouseRepository(db *gorm.DB, chunkSize int) *GormWarehouseRepository {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &GormWarehouseRepository{db: db, chunkSize: chunkSize, now: time.Now}
}

// Ping verifies the connection
func (r *GormWarehouseRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// UpsertDimension applies a Type 1 update: new keys are inserted, changed
// attributes are overwritten in place, and the key to ID map is returned
func (r *GormWarehouseRepository) UpsertDimension(ctx context.Context, dim dw.Dimension, members []dw.Member) (map[string]int64, dw.UpsertStats, error) {
	var stats dw.UpsertStats
	if len(members) == 0 {
		return map[string]int64{}, stats, nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, m.Key)
	}

	existing, err := r.existingMembers(ctx, dim, keys)
	if err != nil {
		return nil, stats, err
	}

	now := r.now()
	var inserts []map[string]any
	for _, m := range members {
		stored, ok := existing[m.Key]
		if !ok {
			row := attributeValues(dim, m)
			row[dim.KeyColumn] = m.Key
			row["last_updated"] = now
			inserts = append(inserts, row)
			continue
		}
		if len(dim.Attributes) == 0 || !m.Changed(stored, dim.Attributes) {
			continue
		}
		updates := attributeValues(dim, m)
		updates["last_updated"] = now
		if err := r.db.WithContext(ctx).Table(dim.Table).
			Where(dim.KeyColumn+" = ?", m.Key).
			Updates(updates).Error; err != nil {
			return nil, stats, fmt.Errorf("failed to update %s %q: %w", dim.Table, m.Key, err)
		}
		stats.Updated++
	}

	if len(inserts) > 0 {
		res := r.db.WithContext(ctx).Table(dim.Table).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: dim.KeyColumn}}, DoNothing: true}).
			CreateInBatches(inserts, r.chunkSize)
		if res.Error != nil {
			return nil, stats, fmt.Errorf("failed to insert into %s: %w", dim.Table, res.Error)
		}
		stats.Inserted = int(res.RowsAffected)
		stats.Skipped = len(inserts) - stats.Inserted
	}

	ids, err := r.memberIDs(ctx, dim, keys)
	if err != nil {
		return nil, stats, err
	}
	return ids, stats, nil
}

func (r *GormWarehouseRepository) existingMembers(ctx context.Context, dim dw.Dimension, keys []string) (map[string]map[string]string, error) {
	columns := append([]string{dim.KeyColumn}, dim.Attributes...)
	out := make(map[string]map[string]string, len(keys))
	for _, chunk := range chunks(keys, r.chunkSize) {
		var rows []map[string]any
		if err := r.db.WithContext(ctx).Table(dim.Table).
			Select(columns).
			Where(dim.KeyColumn+" IN ?", chunk).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dim.Table, err)
		}
		for _, row := range rows {
			attrs := make(map[string]string, len(dim.Attributes))
			for _, a := range dim.Attributes {
				attrs[a] = asString(row[a])
			}
			out[asString(row[dim.KeyColumn])] = attrs
		}
	}
	return out, nil
}

func (r *GormWarehouseRepository) memberIDs(ctx context.Context, dim dw.Dimension, keys []string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	for _, chunk := range chunks(keys, r.chunkSize) {
		var rows []map[string]any
		if err := r.db.WithContext(ctx).Table(dim.Table).
			Select([]string{dim.KeyColumn, dim.IDColumn}).
			Where(dim.KeyColumn+" IN ?", chunk).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to read %s ids: %w", dim.Table, err)
		}
		for _, row := range rows {
			id, err := asInt64(row[dim.IDColumn])
			if err != nil {
				return nil, fmt.Errorf("invalid %s.%s: %w", dim.Table, dim.IDColumn, err)
			}
			out[asString(row[dim.KeyColumn])] = id
		}
	}
	return out, nil
}

// UpsertDates appends missing calendar days and returns the ID of every stored day
func (r *GormWarehouseRepository) UpsertDates(ctx context.Context, dates []dw.DateKey) (map[dw.DateKey]int64, int, error) {
	ids, err := r.dateIDs(ctx)
	if err != nil {
		return nil, 0, err
	}

	var missing []models.DimTimeModel
	for _, d := range dates {
		if _, ok := ids[d]; ok {
			continue
		}
		missing = append(missing, models.DimTimeModel{Year: d.Year, Month: d.Month, Day: d.Day})
	}
	if len(missing) == 0 {
		return ids, 0, nil
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "month"}, {Name: "day"}},
			DoNothing: true,
		}).
		CreateInBatches(&missing, r.chunkSize)
	if res.Error != nil {
		return nil, 0, fmt.Errorf("failed to insert dates: %w", res.Error)
	}

	ids, err = r.dateIDs(ctx)
	if err != nil {
		return nil, 0, err
	}
	return ids, int(res.RowsAffected), nil
}

func (r *GormWarehouseRepository) dateIDs(ctx context.Context) (map[dw.DateKey]int64, error) {
	var rows []models.DimTimeModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read dim_time: %w", err)
	}
	out := make(map[dw.DateKey]int64, len(rows))
	for _, row := range rows {
		out[row.Key()] = row.TimeID
	}
	return out, nil
}

// InsertFacts inserts facts in batches; rows whose hash is already loaded are skipped
func (r *GormWarehouseRepository) InsertFacts(ctx context.Context, facts []dw.Fact) (int64, error) {
	if len(facts) == 0 {
		return 0, nil
	}
	rows := make([]models.FactSalesModel, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, models.FactSalesModelFromDomain(f))
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "row_hash"}}, DoNothing: true}).
		CreateInBatches(&rows, r.chunkSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert facts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// StartRun inserts an etl_run_log row
func (r *GormWarehouseRepository) StartRun(ctx context.Context, run *dw.RunLog) error {
	return r.db.WithContext(ctx).Create(models.EtlRunLogModelFromDomain(run)).Error
}

// FinishRun stores the final state of a run
func (r *GormWarehouseRepository) FinishRun(ctx context.Context, run *dw.RunLog) error {
	m := models.EtlRunLogModelFromDomain(run)
	return r.db.WithContext(ctx).Model(&models.EtlRunLogModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"finished_at":   m.FinishedAt,
			"status":        m.Status,
			"rows_read":     m.RowsRead,
			"facts_loaded":  m.FactsLoaded,
			"facts_skipped": m.FactsSkipped,
			"error_message": m.ErrorMessage,
		}).Error
}

// FindRun returns a run log entry
func (r *GormWarehouseRepository) FindRun(ctx context.Context, id string) (*dw.RunLog, error) {
	var m models.EtlRunLogModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// attributeValues maps member attributes to column values; empty values are stored as NULL
func attributeValues(dim dw.Dimension, m dw.Member) map[string]any {
	out := make(map[string]any, len(dim.Attributes)+2)
	for _, a := range dim.Attributes {
		if v := m.Attributes[a]; v != "" {
			out[a] = v
		} else {
			out[a] = nil
		}
	}
	return out
}

func chunks(keys []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		out = append(out, keys[start:end])
	}
	return out
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case *string:
		if x == nil {
			return ""
		}
		return *x
	default:
		return fmt.Sprint(x)
	}
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}
