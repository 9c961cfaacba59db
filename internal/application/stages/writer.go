// Package stages writes the stage review workbooks: per-group pivots with a
// product check list, regionwise monthly quantities and total sales per product.
package stages

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Output file and sheet names
const (
	Stage1File      = "stage-1.xlsx"
	RegionwiseFile  = "stage-2_Regionwise.xlsx"
	TotalSalesFile  = "stage-2_Total_sales.xlsx"
	CheckSheet      = "Проверка"
	TotalSheet      = "Total"
	TotalSalesSheet = "Sheet_"
)

// Writer produces the three stage workbooks in one folder
type Writer struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// NewWriter creates a stage writer targeting dir
func NewWriter(dir string, log *zap.Logger) *Writer {
	return &Writer{dir: dir, log: log.Named("stages"), now: time.Now}
}

// Run writes every stage workbook and returns their paths
func (w *Writer) Run(ctx context.Context, ds *sales.Dataset, groups *sales.DrugGroups) ([]string, error) {
	rows := dw.Transform(ds, groups)
	reserves := make(map[string]struct{})
	ds.Each(func(o *sales.Optovik) bool {
		if o.Reserve {
			reserves[o.Name] = struct{}{}
		}
		return true
	})

	steps := []struct {
		name  string
		write func() (string, error)
	}{
		{"stage 1", func() (string, error) { return w.WriteStage1(rows) }},
		{"stage 2 regionwise", func() (string, error) { return w.WriteRegionwise(rows, reserves) }},
		{"stage 2 total sales", func() (string, error) { return w.WriteTotalSales(rows) }},
	}
	var written []string
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := step.write()
		if err != nil {
			return written, fmt.Errorf("%s: %w", step.name, err)
		}
		w.log.Info("Stage workbook saved", zap.String("stage", step.name), zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

// newBook creates a workbook holding the given sheets in order, names made Excel-safe
func newBook(raw []string) (*excelize.File, []string, error) {
	namer := workbook.NewSheetNamer()
	names := make([]string, len(raw))
	for i, r := range raw {
		names[i] = namer.Name(r)
	}
	f, err := workbook.NewFile(names[0])
	if err != nil {
		return nil, nil, err
	}
	for _, n := range names[1:] {
		if _, err := f.NewSheet(n); err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("failed to add sheet %s: %w", n, err)
		}
	}
	return f, names, nil
}

// WriteStage1 writes one pivot sheet per product group followed by the check list
func (w *Writer) WriteStage1(rows []dw.FactRow) (string, error) {
	byGroup := groupedRows(rows)
	groupNames := sortedKeys(byGroup)

	f, names, err := newBook(append(append([]string{}, groupNames...), CheckSheet))
	if err != nil {
		return "", err
	}
	defer f.Close()
	styles := workbook.NewStyles(f)

	for i, g := range groupNames {
		grid := &grid{f: f, sheet: names[i], styles: styles}
		writeGroupPivot(grid, buildGroupPivot(g, byGroup[g]))
		if grid.err != nil {
			return "", fmt.Errorf("failed to write sheet %s: %w", names[i], grid.err)
		}
	}

	check := &grid{f: f, sheet: names[len(names)-1], styles: styles}
	listing := buildListing(rows)
	writeListing(check, []string{"№", "Product", "total_quantity", "total_sales"}, listing, checkFill,
		func(p productTotal) []decimal.Decimal { return []decimal.Decimal{p.Quantity, p.Sales} })
	if check.err != nil {
		return "", fmt.Errorf("failed to write sheet %s: %w", CheckSheet, check.err)
	}

	path := filepath.Join(w.dir, Stage1File)
	return path, workbook.SaveAs(f, path)
}

func writeGroupPivot(g *grid, p *groupPivot) {
	const first = 5
	for i, h := range []string{"Region", "Territory", "Product_groups"} {
		g.set(i+2, 1, h)
		g.merge(i+2, 1, i+2, 2)
	}
	for i, product := range p.Products {
		col := first + 2*i
		g.set(col, 1, product)
		g.merge(col, 1, col+1, 1)
		g.set(col, 2, "Quantity")
		g.set(col+1, 2, "TotalSales")
	}
	last := first + 2*len(p.Products) - 1

	row := 3
	for i, k := range p.Keys {
		g.set(1, row, i)
		g.set(2, row, k.Region)
		g.set(3, row, k.Territory)
		g.set(4, row, p.Group)
		for j, product := range p.Products {
			a, ok := p.Cells[k][product]
			if !ok {
				continue
			}
			g.set(first+2*j, row, a.Quantity.InexactFloat64())
			g.set(first+2*j+1, row, a.Sales.InexactFloat64())
		}
		row++
	}

	g.style("header", headerStyle, 1, 1, max(last, 4), 2)
	g.style("number", numberStyle, first, 3, last, row-1)
	g.width(2, 4, 15)
	for col := first; col <= last; col++ {
		if col%2 == 1 {
			g.width(col, col, 12)
		} else {
			g.width(col, col, 18)
		}
	}
	g.height(1, 45)
	g.height(2, 35)
}

// writeListing writes a header row and, per group, a filled group row followed
// by its numbered products
func writeListing(g *grid, header []string, listing []groupListing, fill string, values func(productTotal) []decimal.Decimal) {
	last := len(header)
	for i, h := range header {
		g.set(i+1, 1, h)
	}
	g.style("header", headerStyle, 1, 1, last, 1)

	row := 2
	for _, group := range listing {
		g.set(2, row, group.Group)
		g.style("group_"+fill, filledStyle(fill), 1, row, last, row)
		row++
		for i, p := range group.Products {
			g.set(1, row, i+1)
			g.set(2, row, p.Product)
			for j, v := range values(p) {
				g.set(3+j, row, v.InexactFloat64())
			}
			g.style("number", numberStyle, 3, row, last, row)
			row++
		}
	}

	g.width(2, 2, 70)
	g.width(3, last, 22)
}

// WriteRegionwise writes one sheet per region and per reserve optovik with the
// month's quantities, then a Total sheet joining every sheet's column
func (w *Writer) WriteRegionwise(rows []dw.FactRow, reserves map[string]struct{}) (string, error) {
	parts := regionPartitions(rows, reserves)
	raw := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		raw = append(raw, p.Name)
	}
	f, names, err := newBook(append(raw, TotalSheet))
	if err != nil {
		return "", err
	}
	defer f.Close()
	styles := workbook.NewStyles(f)
	month := w.now().Format("January")

	for i, p := range parts {
		g := &grid{f: f, sheet: names[i], styles: styles}
		writeListing(g, []string{"№", "Name of Products", month}, buildListing(p.Rows), regionFill,
			func(pt productTotal) []decimal.Decimal { return []decimal.Decimal{pt.Quantity} })
		if g.err != nil {
			return "", fmt.Errorf("failed to write sheet %s: %w", names[i], g.err)
		}
	}

	total := &grid{f: f, sheet: names[len(names)-1], styles: styles}
	writeRegionTotal(total, parts)
	if total.err != nil {
		return "", fmt.Errorf("failed to write sheet %s: %w", TotalSheet, total.err)
	}

	path := filepath.Join(w.dir, RegionwiseFile)
	return path, workbook.SaveAs(f, path)
}

func writeRegionTotal(g *grid, parts []partition) {
	type cellKey struct {
		product productKey
		part    int
	}
	quantities := make(map[cellKey]decimal.Decimal)
	products := make(map[string]map[string]struct{})
	for i, p := range parts {
		for _, r := range p.Rows {
			if r.ProductGroup == "" {
				continue
			}
			k := cellKey{productKey{r.Product, r.ProductGroup}, i}
			quantities[k] = quantities[k].Add(r.Quantity)
			if products[r.ProductGroup] == nil {
				products[r.ProductGroup] = make(map[string]struct{})
			}
			products[r.ProductGroup][r.Product] = struct{}{}
		}
	}

	last := 2 + len(parts)
	g.set(1, 1, "№")
	g.set(2, 1, "Name of Products")
	for i, p := range parts {
		g.set(3+i, 1, p.Name)
	}
	g.style("total_head", filledHeaderStyle(totalHeadFill), 1, 1, last, 1)

	row := 2
	for _, group := range sortedKeys(products) {
		g.set(2, row, group)
		g.style("total_group", filledStyle(totalGroupFill), 1, row, last, row)
		row++
		for i, product := range sortedKeys(products[group]) {
			g.set(1, row, i+1)
			g.set(2, row, product)
			for j := range parts {
				if q, ok := quantities[cellKey{productKey{product, group}, j}]; ok {
					g.set(3+j, row, q.InexactFloat64())
				}
			}
			g.style("number", numberStyle, 3, row, last, row)
			row++
		}
	}

	g.height(1, 25)
	g.width(2, 2, 70)
	g.width(3, last, 12)
}

// WriteTotalSales writes total sales per grouped product
func (w *Writer) WriteTotalSales(rows []dw.FactRow) (string, error) {
	f, names, err := newBook([]string{TotalSalesSheet})
	if err != nil {
		return "", err
	}
	defer f.Close()

	g := &grid{f: f, sheet: names[0], styles: workbook.NewStyles(f)}
	header := []string{"", "Name of Products", "Group", "Total Sales"}
	for i, h := range header {
		g.set(i+1, 1, h)
	}
	g.style("header", headerStyle, 1, 1, len(header), 1)

	keys, totals := salesByProduct(rows)
	for i, k := range keys {
		row := i + 2
		g.set(1, row, i)
		g.set(2, row, k.Product)
		g.set(3, row, k.Group)
		g.set(4, row, totals[k].InexactFloat64())
	}
	g.style("number", numberStyle, 4, 2, 4, len(keys)+1)
	g.width(2, 2, 70)
	g.width(3, 4, 22)
	g.height(1, 45)
	if g.err != nil {
		return "", fmt.Errorf("failed to write sheet %s: %w", TotalSalesSheet, g.err)
	}

	path := filepath.Join(w.dir, TotalSalesFile)
	return path, workbook.SaveAs(f, path)
}
