package stages

import (
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/xuri/excelize/v2"
)

const (
	checkFill      = "92D050"
	regionFill     = "E6B8B7"
	totalGroupFill = "D99795"
	totalHeadFill  = "CCFFCC"
)

var accountingFormat = workbook.AccountingFormat

var centered = &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

func headerStyle() *excelize.Style {
	return &excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Border:    workbook.Borders("000000"),
		Alignment: centered,
	}
}

func numberStyle() *excelize.Style {
	return &excelize.Style{CustomNumFmt: &accountingFormat}
}

func filledStyle(color string) func() *excelize.Style {
	return func() *excelize.Style {
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      workbook.Fill(color),
			Alignment: centered,
		}
	}
}

func filledHeaderStyle(color string) func() *excelize.Style {
	return func() *excelize.Style {
		s := headerStyle()
		s.Fill = workbook.Fill(color)
		return s
	}
}

// grid writes cells of one sheet and keeps the first error
type grid struct {
	f      *excelize.File
	sheet  string
	styles *workbook.Styles
	err    error
}

func (g *grid) set(col, row int, v any) {
	if g.err != nil {
		return
	}
	g.err = g.f.SetCellValue(g.sheet, workbook.CellName(col, row), v)
}

func (g *grid) merge(col1, row1, col2, row2 int) {
	if g.err != nil {
		return
	}
	g.err = g.f.MergeCell(g.sheet, workbook.CellName(col1, row1), workbook.CellName(col2, row2))
}

func (g *grid) style(key string, build func() *excelize.Style, col1, row1, col2, row2 int) {
	if g.err != nil || col2 < col1 || row2 < row1 {
		return
	}
	id, err := g.styles.Get(key, build)
	if err != nil {
		g.err = err
		return
	}
	g.err = g.f.SetCellStyle(g.sheet, workbook.CellName(col1, row1), workbook.CellName(col2, row2), id)
}

func (g *grid) width(col1, col2 int, w float64) {
	if g.err != nil || col2 < col1 {
		return
	}
	g.err = g.f.SetColWidth(g.sheet, workbook.ColumnName(col1), workbook.ColumnName(col2), w)
}

func (g *grid) height(row int, h float64) {
	if g.err != nil {
		return
	}
	g.err = g.f.SetRowHeight(g.sheet, row, h)
}
