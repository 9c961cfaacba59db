package onec

import (
	"fmt"

	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/shopspring/decimal"
)

// Line is one client's sale of one drug in the 1C export
type Line struct {
	Drug      string
	Client    string
	Region    string
	Territory string
	Quantity  decimal.Decimal
	Sales     decimal.Decimal
}

// Price is the unit price, zero when nothing was sold
func (l Line) Price() decimal.Decimal {
	if l.Quantity.IsZero() {
		return decimal.Zero
	}
	return l.Sales.Div(l.Quantity)
}

// table is the raw 1C worksheet with its row and column outline levels
type table struct {
	cells     [][]string
	rowLevels []uint8
	colLevels []uint8
}

func (t *table) level(row int) uint8 {
	if row < 1 || row >= len(t.rowLevels) {
		return 0
	}
	return t.rowLevels[row]
}

func (t *table) cell(row, col int) string {
	if row < 1 || row > len(t.cells) {
		return ""
	}
	cells := t.cells[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return workbook.Text(cells[col-1])
}

// headerRow returns the drug name row. The first level-1 row that has deeper
// rows below it marks the data; the drug row sits four rows above it.
func (t *table) headerRow() (int, error) {
	last := len(t.rowLevels) - 1
	for row := 1; row <= last; row++ {
		if t.level(row) != 1 {
			continue
		}
		for next := row + 1; next <= last; next++ {
			lvl := t.level(next)
			if lvl < 1 {
				break
			}
			if lvl > 1 {
				if row-4 < 1 {
					return 0, layoutError("The header rows above the first subregion are missing")
				}
				return row - 4, nil
			}
		}
	}
	return 0, layoutError("Failed to detect headers in the 1C source file")
}

// lastRow is the last outlined row
func (t *table) lastRow() (int, error) {
	for row := len(t.rowLevels) - 1; row >= 1; row-- {
		if t.level(row) > 0 {
			return row, nil
		}
	}
	return 0, layoutError("No data rows found in the 1C source worksheet")
}

// drugColumn is a quantity and sales column pair under one drug name
type drugColumn struct {
	Drug     string
	Quantity int
	Sales    int
}

// drugColumns pairs the first-level outlined columns after the three client columns
func (t *table) drugColumns(header int) []drugColumn {
	var cols []int
	for col := 4; col < len(t.colLevels); col++ {
		if t.colLevels[col] == 1 {
			cols = append(cols, col)
		}
	}
	var out []drugColumn
	for i := 0; i+1 < len(cols); i += 2 {
		name := t.cell(header, cols[i])
		if name == "" {
			name = t.cell(header, cols[i+1])
		}
		if name == "" {
			continue
		}
		out = append(out, drugColumn{Drug: name, Quantity: cols[i], Sales: cols[i+1]})
	}
	return out
}

// lines unpivots every client row into one line per drug with any value.
// Level-0 rows opening a level-1 block name the region, level-1 rows the
// subregion, and level-2 rows are clients.
func (t *table) lines() ([]Line, error) {
	header, err := t.headerRow()
	if err != nil {
		return nil, err
	}
	last, err := t.lastRow()
	if err != nil {
		return nil, err
	}
	drugs := t.drugColumns(header)

	var (
		out       []Line
		region    string
		subregion string
		bad       []string
	)
	for row := header + 3; row <= last; row++ {
		switch lvl := t.level(row); {
		case lvl == 0 && t.level(row+1) == 1:
			region = t.cell(row, 1)
		case lvl == 1:
			subregion = t.cell(row, 1)
		case lvl == 2:
			client := t.cell(row, 1)
			for _, d := range drugs {
				rawQty, rawSales := t.cell(row, d.Quantity), t.cell(row, d.Sales)
				if rawQty == "" && rawSales == "" {
					continue
				}
				qty, qErr := workbook.ParseDecimal(rawQty)
				sales, sErr := workbook.ParseDecimal(rawSales)
				if qErr != nil || sErr != nil {
					bad = append(bad, fmt.Sprintf("• Row %d (%s), %s: %q / %q", row, client, d.Drug, rawQty, rawSales))
					continue
				}
				out = append(out, Line{
					Drug:      d.Drug,
					Client:    client,
					Region:    region,
					Territory: subregion,
					Quantity:  qty,
					Sales:     sales,
				})
			}
		}
	}
	if len(bad) > 0 {
		return nil, layoutError("The 1C source has non-numeric quantities or sales").WithDetails(bad...)
	}
	return out, nil
}

func layoutError(title string) *shared.ExpectedError {
	return shared.NewExpectedError(shared.ErrCodeSourceLayout, title).
		WithFix(
			"Export the report from 1C again with row and column grouping enabled.",
			"Keep the client, region and territory columns first and the drug columns grouped at level 1.",
			"Do not edit the exported sheet by hand before running the cleaning.",
		).
		WithFooter("The 1C cleaning cannot continue until the export layout is fixed.")
}
