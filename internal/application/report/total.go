package report

import (
	"fmt"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/xuri/excelize/v2"
)

// TotalSheetName is the name of the summary sheet placed first in the vtorichka workbook
const TotalSheetName = "Total"

const (
	totalHeaderRow   = 2
	totalFirstRow    = 3
	totalLabelColumn = 2
)

// TotalSheet links the final rows of every reserve and region sheet into one summary
type TotalSheet struct {
	labels sales.Labels
	styles *workbook.Styles
}

// NewTotalSheet creates the summary renderer
func NewTotalSheet(f *excelize.File, labels sales.Labels) *TotalSheet {
	return &TotalSheet{labels: labels, styles: workbook.NewStyles(f)}
}

// Render writes the summary of sheets into the existing sheet name.
// Group columns are the union of the sheets' groups; a sheet without a
// group leaves that cell empty.
func (t *TotalSheet) Render(f *excelize.File, name string, sheets []*SheetSummary) error {
	w := &sheetWriter{f: f, sheet: name, styles: t.styles}

	var groups []string
	seen := make(map[string]struct{})
	for _, s := range sheets {
		for _, g := range s.Groups {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			groups = append(groups, g)
		}
	}

	firstGroup := totalLabelColumn + 1
	finalCol := firstGroup + len(groups)
	minusCol, reklamaCol, leksiyaCol := finalCol+1, finalCol+2, finalCol+3
	bothCol := finalCol + 4

	header := append([]string{"Region"}, groups...)
	header = append(header, t.labels.FinalSum, t.labels.FinalSumMinus, t.labels.FinalSumReklama, t.labels.FinalSumLeksiya,
		"Total for Reklama & for Leksiya")
	for i, h := range header {
		w.value(totalLabelColumn+i, totalHeaderRow, h)
	}

	row := totalFirstRow
	for _, s := range sheets {
		w.value(totalLabelColumn, row, s.Sheet)
		for i, g := range groups {
			col, ok := s.GroupSales[g]
			if !ok {
				continue
			}
			w.formula(firstGroup+i, row, workbook.SheetRef(s.Sheet, fmt.Sprintf("%s%d", col, s.FinalSum)))
		}
		if len(groups) > 0 {
			w.formula(finalCol, row, fmt.Sprintf("SUM(%s:%s)", ref(firstGroup, row), ref(finalCol-1, row)))
		} else {
			w.value(finalCol, row, 0)
		}
		w.formula(minusCol, row, workbook.SheetRef(s.Sheet, fmt.Sprintf("%s%d", s.TotalSales, s.FinalMinus)))
		w.formula(reklamaCol, row, workbook.SheetRef(s.Sheet, fmt.Sprintf("%s%d", s.TotalSales, s.FinalReklama)))
		w.formula(leksiyaCol, row, workbook.SheetRef(s.Sheet, fmt.Sprintf("%s%d", s.TotalSales, s.FinalLeksiya)))
		w.formula(bothCol, row, ref(reklamaCol, row)+"+"+ref(leksiyaCol, row))
		row++
	}

	totalRow := row
	w.value(totalLabelColumn, totalRow, "Total")
	for col := firstGroup; col <= bothCol; col++ {
		c := workbook.ColumnName(col)
		w.formula(col, totalRow, fmt.Sprintf("SUM(%s%d:%s%d)", c, totalFirstRow, c, totalRow-1))
	}

	w.style("total_header", totalStyles["total_header"], totalLabelColumn, totalHeaderRow, bothCol, totalHeaderRow)
	if totalRow > totalFirstRow {
		last := totalRow - 1
		w.style("total_label", totalStyles["total_label"], totalLabelColumn, totalFirstRow, totalLabelColumn, last)
		w.style("total_value", totalStyles["total_value"], firstGroup, totalFirstRow, bothCol, last)
		w.style("total_final", totalStyles["total_final"], finalCol, totalFirstRow, finalCol, last)
	}
	w.style("total_row", totalStyles["total_row"], totalLabelColumn, totalRow, bothCol, totalRow)

	w.colWidth(1, 1, 4)
	w.colWidth(totalLabelColumn, bothCol, 22)
	w.rowHeight(totalHeaderRow, 45)
	if w.err != nil {
		return fmt.Errorf("failed to render %s sheet: %w", name, w.err)
	}
	return nil
}
