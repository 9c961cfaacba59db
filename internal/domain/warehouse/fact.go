// Package warehouse describes the sales star schema: the flattened fact rows
// produced from a processed dataset, the dimensions they are keyed by and the
// repository contract used to load them.
package warehouse

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// FactRow is one sales line flattened across optoviks
type FactRow struct {
	Optovik      string
	Customer     string
	Region       string
	Territory    string
	Product      string
	ProductGroup string // empty for products outside every group
	Date         *time.Time
	Quantity     decimal.Decimal
	TotalSales   decimal.Decimal
}

// DateKey returns the calendar day of the row
func (r FactRow) DateKey() (DateKey, bool) {
	if r.Date == nil {
		return DateKey{}, false
	}
	return NewDateKey(*r.Date), true
}

// Transform flattens every optovik of ds into fact rows, tagging each with its
// optovik name and product group
func Transform(ds *sales.Dataset, groups *sales.DrugGroups) []FactRow {
	out := make([]FactRow, 0, ds.RecordCount())
	ds.Each(func(o *sales.Optovik) bool {
		for _, rec := range o.Records {
			row := FactRow{
				Optovik:    o.Name,
				Customer:   rec.Client,
				Region:     rec.Region,
				Territory:  rec.Territory,
				Product:    rec.Drug,
				Date:       rec.Date,
				Quantity:   rec.Quantity,
				TotalSales: rec.TotalSales,
			}
			if groups != nil {
				row.ProductGroup, _ = groups.GroupOf(rec.Drug)
			}
			out = append(out, row)
		}
		return true
	})
	return out
}

// ConflictingCustomers returns customers mapped to more than one region or territory, sorted
func ConflictingCustomers(rows []FactRow) []string {
	type location struct{ region, territory string }
	seen := make(map[string]location)
	conflicts := make(map[string]struct{})
	for _, r := range rows {
		loc := location{r.Region, r.Territory}
		prev, ok := seen[r.Customer]
		if !ok {
			seen[r.Customer] = loc
			continue
		}
		if prev != loc {
			conflicts[r.Customer] = struct{}{}
		}
	}
	out := make([]string, 0, len(conflicts))
	for c := range conflicts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// DateKey identifies a row of the time dimension
type DateKey struct {
	Year  int
	Month int
	Day   int
}

// NewDateKey truncates t to its calendar day
func NewDateKey(t time.Time) DateKey {
	return DateKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Fact is a fact_sales row ready for loading
type Fact struct {
	RowHash    string
	OptovikID  int64
	CustomerID int64
	ProductID  int64
	TimeID     int64
	Quantity   decimal.Decimal
	TotalSales decimal.Decimal
}

// NewFact builds a fact and its content hash
func NewFact(optovikID, customerID, productID, timeID int64, qty, total decimal.Decimal) Fact {
	return Fact{
		RowHash:    RowHash(optovikID, customerID, productID, timeID, qty, total),
		OptovikID:  optovikID,
		CustomerID: customerID,
		ProductID:  productID,
		TimeID:     timeID,
		Quantity:   qty,
		TotalSales: total,
	}
}

// RowHash is the hex sha256 of "optovik|customer|product|time|quantity|sales".
// Loading the same row twice yields the same hash, which the fact table rejects.
func RowHash(optovikID, customerID, productID, timeID int64, qty, total decimal.Decimal) string {
	raw := fmt.Sprintf("%d|%d|%d|%d|%s|%s", optovikID, customerID, productID, timeID, qty.String(), total.String())
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
