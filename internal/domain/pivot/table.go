// Package pivot turns optovik records into client × drug tables and plans
// how those tables are split across the report sheets.
package pivot

import (
	"sort"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// Key identifies a pivot row
type Key struct {
	Client    string
	Region    string
	Territory string
}

func (k Key) less(o Key) bool {
	if k.Client != o.Client {
		return k.Client < o.Client
	}
	if k.Region != o.Region {
		return k.Region < o.Region
	}
	return k.Territory < o.Territory
}

// Cell is the summed quantity and sales of one drug in one row.
// Valid is false when no record contributed, which renders as an empty cell.
type Cell struct {
	Quantity decimal.Decimal
	Sales    decimal.Decimal
	Valid    bool
}

// Row is one client line of a pivot table
type Row struct {
	Key
	Values map[string]Cell
}

// Table is the pivot of one optovik
type Table struct {
	Optovik string
	Reserve bool
	// Drugs are the drug columns, sorted
	Drugs []string
	// Rows are sorted by client, region, territory
	Rows []Row
}

// Build pivots an optovik by (client, region, territory) × drug
func Build(o *sales.Optovik) *Table {
	index := make(map[Key]int)
	drugs := make(map[string]struct{})
	t := &Table{Optovik: o.Name, Reserve: o.Reserve}

	for _, r := range o.Records {
		k := Key{Client: r.Client, Region: r.Region, Territory: r.Territory}
		i, ok := index[k]
		if !ok {
			i = len(t.Rows)
			index[k] = i
			t.Rows = append(t.Rows, Row{Key: k, Values: make(map[string]Cell)})
		}
		c := t.Rows[i].Values[r.Drug]
		c.Quantity = c.Quantity.Add(r.Quantity)
		c.Sales = c.Sales.Add(r.TotalSales)
		c.Valid = true
		t.Rows[i].Values[r.Drug] = c
		drugs[r.Drug] = struct{}{}
	}

	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Key.less(t.Rows[j].Key) })
	for d := range drugs {
		t.Drugs = append(t.Drugs, d)
	}
	sort.Strings(t.Drugs)
	return t
}

// BuildAll pivots every optovik of the dataset in order
func BuildAll(ds *sales.Dataset) []*Table {
	tables := make([]*Table, 0, ds.Len())
	for _, o := range ds.Optoviks() {
		tables = append(tables, Build(o))
	}
	return tables
}

func (t *Table) rows(keep func(Key) bool) []Row {
	var out []Row
	for _, r := range t.Rows {
		if keep(r.Key) {
			out = append(out, r)
		}
	}
	return out
}

// uniqueValues returns the distinct non-empty values of field in row order
func uniqueValues(rows []Row, field func(Key) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		v := field(r.Key)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
