package stages

import (
	"sort"

	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/shopspring/decimal"
)

// amount is a summed quantity and sales pair
type amount struct {
	Quantity decimal.Decimal
	Sales    decimal.Decimal
}

func (a *amount) add(r dw.FactRow) {
	a.Quantity = a.Quantity.Add(r.Quantity)
	a.Sales = a.Sales.Add(r.TotalSales)
}

// groupedRows keeps rows that belong to a product group, keyed by group
func groupedRows(rows []dw.FactRow) map[string][]dw.FactRow {
	out := make(map[string][]dw.FactRow)
	for _, r := range rows {
		if r.ProductGroup == "" {
			continue
		}
		out[r.ProductGroup] = append(out[r.ProductGroup], r)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// locationKey is a pivot row of stage 1
type locationKey struct {
	Region    string
	Territory string
}

// groupPivot is the region by product pivot of one product group
type groupPivot struct {
	Group    string
	Products []string
	Keys     []locationKey
	Cells    map[locationKey]map[string]*amount
}

func buildGroupPivot(group string, rows []dw.FactRow) *groupPivot {
	p := &groupPivot{Group: group, Cells: make(map[locationKey]map[string]*amount)}
	products := make(map[string]struct{})
	for _, r := range rows {
		k := locationKey{r.Region, r.Territory}
		cells, ok := p.Cells[k]
		if !ok {
			cells = make(map[string]*amount)
			p.Cells[k] = cells
			p.Keys = append(p.Keys, k)
		}
		a, ok := cells[r.Product]
		if !ok {
			a = &amount{}
			cells[r.Product] = a
		}
		a.add(r)
		products[r.Product] = struct{}{}
	}
	p.Products = sortedKeys(products)
	sort.Slice(p.Keys, func(i, j int) bool {
		if p.Keys[i].Region != p.Keys[j].Region {
			return p.Keys[i].Region < p.Keys[j].Region
		}
		return p.Keys[i].Territory < p.Keys[j].Territory
	})
	return p
}

// productTotal is one product of a group listing
type productTotal struct {
	Product string
	amount
}

// groupListing lists each group's products with their totals, groups and products sorted by name
type groupListing struct {
	Group    string
	Products []productTotal
}

func buildListing(rows []dw.FactRow) []groupListing {
	byGroup := groupedRows(rows)
	out := make([]groupListing, 0, len(byGroup))
	for _, g := range sortedKeys(byGroup) {
		totals := make(map[string]*amount)
		for _, r := range byGroup[g] {
			a, ok := totals[r.Product]
			if !ok {
				a = &amount{}
				totals[r.Product] = a
			}
			a.add(r)
		}
		listing := groupListing{Group: g}
		for _, p := range sortedKeys(totals) {
			listing.Products = append(listing.Products, productTotal{Product: p, amount: *totals[p]})
		}
		out = append(out, listing)
	}
	return out
}

// partition is a named slice of rows rendered as one regionwise sheet
type partition struct {
	Name string
	Rows []dw.FactRow
}

// regionPartitions splits rows by region for regular optoviks and by optovik
// for reserve optoviks, each sorted by name
func regionPartitions(rows []dw.FactRow, reserves map[string]struct{}) []partition {
	regions := make(map[string][]dw.FactRow)
	reserved := make(map[string][]dw.FactRow)
	for _, r := range rows {
		if _, ok := reserves[r.Optovik]; ok {
			reserved[r.Optovik] = append(reserved[r.Optovik], r)
			continue
		}
		regions[r.Region] = append(regions[r.Region], r)
	}
	var out []partition
	for _, name := range sortedKeys(regions) {
		out = append(out, partition{Name: name, Rows: regions[name]})
	}
	for _, name := range sortedKeys(reserved) {
		out = append(out, partition{Name: name, Rows: reserved[name]})
	}
	return out
}

// productKey identifies a grouped product
type productKey struct {
	Product string
	Group   string
}

// salesByProduct sums total sales per grouped product, sorted by product then group
func salesByProduct(rows []dw.FactRow) ([]productKey, map[productKey]decimal.Decimal) {
	totals := make(map[productKey]decimal.Decimal)
	for _, r := range rows {
		if r.ProductGroup == "" {
			continue
		}
		k := productKey{r.Product, r.ProductGroup}
		totals[k] = totals[k].Add(r.TotalSales)
	}
	keys := make([]productKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Product != keys[j].Product {
			return keys[i].Product < keys[j].Product
		}
		return keys[i].Group < keys[j].Group
	})
	return keys, totals
}
