package report

import (
	"strconv"
	"strings"

	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/xuri/excelize/v2"
)

// sheetWriter wraps excelize calls on one sheet and keeps the first error,
// so rendering code can issue many writes and check once
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles *workbook.Styles
	err    error
}

func (w *sheetWriter) value(col, row int, v any) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(w.sheet, workbook.CellName(col, row), v)
}

func (w *sheetWriter) formula(col, row int, formula string) {
	if w.err != nil {
		return
	}
	w.err = workbook.SetFormula(w.f, w.sheet, workbook.CellName(col, row), formula)
}

func (w *sheetWriter) merge(col1, row1, col2, row2 int) {
	if w.err != nil || (col1 == col2 && row1 == row2) {
		return
	}
	w.err = w.f.MergeCell(w.sheet, workbook.CellName(col1, row1), workbook.CellName(col2, row2))
}

func (w *sheetWriter) style(key string, build func() *excelize.Style, col1, row1, col2, row2 int) {
	if w.err != nil || col2 < col1 || row2 < row1 {
		return
	}
	id, err := w.styles.Get(key, build)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, workbook.CellName(col1, row1), workbook.CellName(col2, row2), id)
}

func (w *sheetWriter) colWidth(col1, col2 int, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, workbook.ColumnName(col1), workbook.ColumnName(col2), width)
}

func (w *sheetWriter) rowHeight(row int, height float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetRowHeight(w.sheet, row, height)
}

func (w *sheetWriter) hideRow(row int, level uint8) {
	if w.err != nil {
		return
	}
	if level > 0 {
		if w.err = w.f.SetRowOutlineLevel(w.sheet, row, level); w.err != nil {
			return
		}
	}
	w.err = w.f.SetRowVisible(w.sheet, row, false)
}

func (w *sheetWriter) hideCol(col int, level uint8) {
	if w.err != nil {
		return
	}
	name := workbook.ColumnName(col)
	if level > 0 {
		if w.err = w.f.SetColOutlineLevel(w.sheet, name, level); w.err != nil {
			return
		}
	}
	w.err = w.f.SetColVisible(w.sheet, name, false)
}

func ref(col, row int) string {
	return workbook.ColumnName(col) + strconv.Itoa(row)
}

// sum joins cell references with "+"; an empty list sums to 0
func sum(refs []string) string {
	if len(refs) == 0 {
		return "0"
	}
	return strings.Join(refs, "+")
}

func refs(cols []int, row int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ref(c, row)
	}
	return out
}
