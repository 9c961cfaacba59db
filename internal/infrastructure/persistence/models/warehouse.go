// Package models holds the gorm persistence models of the sales warehouse.
package models

import (
	"time"

	"github.com/google/uuid"
	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/shopspring/decimal"
)

// DimOptovikModel is a row of dim_optovik
type DimOptovikModel struct {
	OptovikID   int64     `gorm:"column:optovik_id;primaryKey;autoIncrement"`
	Optovik     string    `gorm:"column:optovik;size:255;not null;uniqueIndex"`
	LastUpdated time.Time `gorm:"column:last_updated;not null"`
}

// TableName returns the table name for GORM
func (DimOptovikModel) TableName() string {
	return dw.OptovikDimension.Table
}

// DimCustomerModel is a row of dim_customer
type DimCustomerModel struct {
	CustomerID  int64     `gorm:"column:customer_id;primaryKey;autoIncrement"`
	Customer    string    `gorm:"column:customer;size:255;not null;uniqueIndex"`
	Region      *string   `gorm:"column:region;size:100"`
	Territory   *string   `gorm:"column:territory;size:100"`
	LastUpdated time.Time `gorm:"column:last_updated;not null"`
}

// TableName returns the table name for GORM
func (DimCustomerModel) TableName() string {
	return dw.CustomerDimension.Table
}

// DimProductModel is a row of dim_product
type DimProductModel struct {
	ProductID     int64     `gorm:"column:product_id;primaryKey;autoIncrement"`
	Product       string    `gorm:"column:product;size:255;not null;uniqueIndex"`
	ProductGroups *string   `gorm:"column:product_groups;size:100"`
	LastUpdated   time.Time `gorm:"column:last_updated;not null"`
}

// TableName returns the table name for GORM
func (DimProductModel) TableName() string {
	return dw.ProductDimension.Table
}

// DimTimeModel is a row of dim_time
type DimTimeModel struct {
	TimeID int64 `gorm:"column:time_id;primaryKey;autoIncrement"`
	Year   int   `gorm:"column:year;not null;uniqueIndex:uq_dim_time_ymd,priority:1"`
	Month  int   `gorm:"column:month;not null;uniqueIndex:uq_dim_time_ymd,priority:2"`
	Day    int   `gorm:"column:day;not null;uniqueIndex:uq_dim_time_ymd,priority:3"`
}

// TableName returns the table name for GORM
func (DimTimeModel) TableName() string {
	return "dim_time"
}

// Key returns the calendar day of the row
func (m DimTimeModel) Key() dw.DateKey {
	return dw.DateKey{Year: m.Year, Month: m.Month, Day: m.Day}
}

// FactSalesModel is a row of fact_sales
type FactSalesModel struct {
	SalesID    int64           `gorm:"column:sales_id;primaryKey;autoIncrement"`
	OptovikID  int64           `gorm:"column:optovik_id;not null;index:idx_fact_optovik"`
	CustomerID int64           `gorm:"column:customer_id;not null;index:idx_fact_customer"`
	ProductID  int64           `gorm:"column:product_id;not null;index:idx_fact_product"`
	TimeID     int64           `gorm:"column:time_id;not null;index:idx_fact_time"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(18,4)"`
	TotalSales decimal.Decimal `gorm:"column:total_sales;type:numeric(18,2)"`
	RowHash    string          `gorm:"column:row_hash;type:char(64);not null;uniqueIndex"`
	LoadDate   time.Time       `gorm:"column:load_date;autoCreateTime"`
}

// TableName returns the table name for GORM
func (FactSalesModel) TableName() string {
	return "fact_sales"
}

// FactSalesModelFromDomain converts a domain fact
func FactSalesModelFromDomain(f dw.Fact) FactSalesModel {
	return FactSalesModel{
		OptovikID:  f.OptovikID,
		CustomerID: f.CustomerID,
		ProductID:  f.ProductID,
		TimeID:     f.TimeID,
		Quantity:   f.Quantity,
		TotalSales: f.TotalSales,
		RowHash:    f.RowHash,
	}
}

// EtlRunLogModel is a row of etl_run_log
type EtlRunLogModel struct {
	ID           uuid.UUID  `gorm:"column:id;type:varchar(36);primaryKey"`
	StartedAt    time.Time  `gorm:"column:started_at;not null"`
	FinishedAt   *time.Time `gorm:"column:finished_at"`
	Status       string     `gorm:"column:status;size:20;not null"`
	RowsRead     int        `gorm:"column:rows_read;not null;default:0"`
	FactsLoaded  int        `gorm:"column:facts_loaded;not null;default:0"`
	FactsSkipped int        `gorm:"column:facts_skipped;not null;default:0"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
}

// TableName returns the table name for GORM
func (EtlRunLogModel) TableName() string {
	return "etl_run_log"
}

// EtlRunLogModelFromDomain converts a domain run log
func EtlRunLogModelFromDomain(r *dw.RunLog) *EtlRunLogModel {
	return &EtlRunLogModel{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Status:       string(r.Status),
		RowsRead:     r.RowsRead,
		FactsLoaded:  r.FactsLoaded,
		FactsSkipped: r.FactsSkipped,
		ErrorMessage: r.ErrorMessage,
	}
}

// ToDomain converts the model to a domain run log
func (m *EtlRunLogModel) ToDomain() *dw.RunLog {
	return &dw.RunLog{
		ID:           m.ID,
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
		Status:       dw.RunStatus(m.Status),
		RowsRead:     m.RowsRead,
		FactsLoaded:  m.FactsLoaded,
		FactsSkipped: m.FactsSkipped,
		ErrorMessage: m.ErrorMessage,
	}
}

// All returns every warehouse model in dependency order
func All() []any {
	return []any{
		&DimOptovikModel{},
		&DimCustomerModel{},
		&DimProductModel{},
		&DimTimeModel{},
		&FactSalesModel{},
		&EtlRunLogModel{},
	}
}
