// Package report renders pivot sheets into the vtorichka workbook and the
// per-region files, with live formulas, outlines and the distribution team's styling.
package report

import (
	"fmt"

	"github.com/pharmdist/salesflow/internal/domain/pivot"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/xuri/excelize/v2"
)

// FirstDataRow is the first worksheet row below the two header rows and the hidden spacer
const FirstDataRow = 4

const (
	drugNotMatched     = "Drug name didn't match"
	budgetValueMissing = "Budget value missing"
)

// Params are the reference data and captions every sheet needs
type Params struct {
	Labels      sales.Labels
	Percentages sales.Percentages
	Budget      *sales.Budget
	Groups      *sales.DrugGroups
}

// SheetSummary locates the cells of a rendered sheet that the Total sheet links to
type SheetSummary struct {
	Sheet string
	// Groups are the outline groups in column order
	Groups []string
	// GroupSales maps a group to its sales column letter
	GroupSales map[string]string
	// TotalSales is the column letter of the total sales column
	TotalSales   string
	FinalSum     int
	FinalMinus   int
	FinalReklama int
	FinalLeksiya int
}

// SheetRenderer writes pivot sheets into one workbook
type SheetRenderer struct {
	f      *excelize.File
	params Params
	styles *workbook.Styles
}

// NewSheetRenderer creates a renderer bound to a workbook
func NewSheetRenderer(f *excelize.File, params Params) *SheetRenderer {
	return &SheetRenderer{f: f, params: params, styles: workbook.NewStyles(f)}
}

type blockRows struct {
	header int
	first  int
	last   int
}

// span is a group pair and the quantity and sales columns of its drugs
type span struct {
	name      string
	qty       int
	sales     int
	drugQty   []int
	drugSales []int
	drugs     []string
}

// Render writes plan into the existing sheet name
func (r *SheetRenderer) Render(name string, plan *pivot.Sheet) (*SheetSummary, error) {
	layout := pivot.NewLayout(plan.Drugs, r.params.Groups, r.params.Labels)
	w := &sheetWriter{f: r.f, sheet: name, styles: r.styles}

	r.writeHeader(w, layout)
	blocks := r.writeRows(w, plan, layout)

	lastData := FirstDataRow + plan.RowCount() - 1
	s := &SheetSummary{
		Sheet:        name,
		Groups:       layout.OutlineGroups(),
		GroupSales:   make(map[string]string),
		TotalSales:   workbook.ColumnName(layout.SalesColumn(layout.TotalIndex())),
		FinalSum:     lastData + 1,
		FinalMinus:   lastData + 2,
		FinalReklama: lastData + 3,
		FinalLeksiya: lastData + 4,
	}
	spans := spansOf(layout)
	for _, sp := range spans {
		s.GroupSales[sp.name] = workbook.ColumnName(sp.sales)
	}

	r.writeBlockSums(w, blocks, layout)
	r.writeGroupFormulas(w, blocks, spans, layout, lastData)
	r.writeFinalRows(w, blocks, spans, layout, plan.Kind, s)
	r.applyOutline(w, blocks, spans)
	r.applyFormatting(w, blocks, layout, s)
	if w.err != nil {
		return nil, fmt.Errorf("failed to render sheet %s: %w", name, w.err)
	}
	return s, nil
}

func spansOf(layout *pivot.Layout) []span {
	var out []span
	for _, g := range layout.Groups() {
		sp := span{name: g.Name, qty: layout.QtyColumn(g.Index), sales: layout.SalesColumn(g.Index)}
		for _, d := range g.Drugs {
			sp.drugQty = append(sp.drugQty, layout.QtyColumn(d))
			sp.drugSales = append(sp.drugSales, layout.SalesColumn(d))
			sp.drugs = append(sp.drugs, layout.Pairs[d].Label)
		}
		out = append(out, sp)
	}
	return out
}

func (r *SheetRenderer) writeHeader(w *sheetWriter, layout *pivot.Layout) {
	labels := r.params.Labels
	w.value(2, 1, labels.MainHeader)
	w.merge(2, 1, 4, 1)
	w.value(2, 2, labels.Client)
	w.value(3, 2, labels.Region)
	w.value(4, 2, labels.Territory)

	for i, p := range layout.Pairs {
		q, s := layout.QtyColumn(i), layout.SalesColumn(i)
		w.value(q, 1, p.Label)
		w.merge(q, 1, s, 1)
		w.value(q, 2, labels.Quantity)
		w.value(s, 2, labels.TotalSales)
	}
}

// writeRows writes each block as a labelled header row followed by its
// numbered client rows. Column A holds the index within the block.
func (r *SheetRenderer) writeRows(w *sheetWriter, plan *pivot.Sheet, layout *pivot.Layout) []blockRows {
	var blocks []blockRows
	row := FirstDataRow
	for _, b := range plan.Blocks {
		br := blockRows{header: row, first: row + 1, last: row + len(b.Rows)}
		w.value(1, row, 0)
		w.value(2, row, b.Label)
		row++
		for i, pr := range b.Rows {
			w.value(1, row, i+1)
			w.value(2, row, pr.Client)
			w.value(3, row, pr.Region)
			w.value(4, row, pr.Territory)
			for pi, p := range layout.Pairs {
				if p.Kind != pivot.PairDrug {
					continue
				}
				c, ok := pr.Values[p.Label]
				if !ok || !c.Valid {
					continue
				}
				w.value(layout.QtyColumn(pi), row, c.Quantity.InexactFloat64())
				w.value(layout.SalesColumn(pi), row, c.Sales.InexactFloat64())
			}
			row++
		}
		blocks = append(blocks, br)
	}
	return blocks
}

func (r *SheetRenderer) writeBlockSums(w *sheetWriter, blocks []blockRows, layout *pivot.Layout) {
	for _, b := range blocks {
		if b.last < b.first {
			continue
		}
		for col := pivot.FirstPairColumn; col <= layout.LastColumn(); col++ {
			c := workbook.ColumnName(col)
			w.formula(col, b.header, fmt.Sprintf("SUM(%s%d:%s%d)", c, b.first, c, b.last))
		}
	}
}

func (r *SheetRenderer) writeGroupFormulas(w *sheetWriter, blocks []blockRows, spans []span, layout *pivot.Layout, lastData int) {
	headers := headerSet(blocks)
	for row := FirstDataRow; row <= lastData; row++ {
		if _, ok := headers[row]; ok {
			continue
		}
		for _, sp := range spans {
			w.formula(sp.qty, row, sum(refs(sp.drugQty, row)))
			w.formula(sp.sales, row, sum(refs(sp.drugSales, row)))
		}
		r.writeTotal(w, spans, layout, row)
	}
}

func (r *SheetRenderer) writeTotal(w *sheetWriter, spans []span, layout *pivot.Layout, row int) {
	var qtyCols, salesCols []int
	for _, sp := range spans {
		qtyCols = append(qtyCols, sp.qty)
		salesCols = append(salesCols, sp.sales)
	}
	t := layout.TotalIndex()
	w.formula(layout.QtyColumn(t), row, sum(refs(qtyCols, row)))
	w.formula(layout.SalesColumn(t), row, sum(refs(salesCols, row)))
}

func (r *SheetRenderer) writeFinalRows(w *sheetWriter, blocks []blockRows, spans []span, layout *pivot.Layout, kind pivot.SheetKind, s *SheetSummary) {
	labels := r.params.Labels
	pct := r.params.Percentages

	w.value(2, s.FinalSum, labels.FinalSum)
	w.value(2, s.FinalMinus, labels.FinalSumMinus)
	w.value(2, s.FinalReklama, labels.FinalSumReklama)
	w.value(2, s.FinalLeksiya, labels.FinalSumLeksiya)

	headerRefs := make([]int, 0, len(blocks))
	for _, b := range blocks {
		headerRefs = append(headerRefs, b.header)
	}
	for col := pivot.FirstPairColumn; col <= layout.LastColumn(); col++ {
		cells := make([]string, len(headerRefs))
		for i, h := range headerRefs {
			cells[i] = ref(col, h)
		}
		w.formula(col, s.FinalSum, sum(cells))
	}

	vtorichka := kind == pivot.SheetVtorichka
	for _, sp := range spans {
		for i, salesCol := range sp.drugSales {
			qtyCol := sp.drugQty[i]
			w.formula(salesCol, s.FinalMinus, fmt.Sprintf("%s*%d%%", ref(salesCol, s.FinalSum), pct.FinalSumMinus))
			w.formula(salesCol, s.FinalLeksiya, fmt.Sprintf("%s*%d%%", ref(salesCol, s.FinalMinus), pct.Leksiya))

			m, ok := r.params.Budget.Multiplier(sp.drugs[i], vtorichka)
			switch {
			case !ok:
				w.value(salesCol, s.FinalReklama, drugNotMatched)
			case !m.Numeric:
				w.value(salesCol, s.FinalReklama, budgetValueMissing)
			case m.IsPercentage():
				w.formula(salesCol, s.FinalReklama, fmt.Sprintf("%s*%s", ref(salesCol, s.FinalMinus), m))
			default:
				w.formula(salesCol, s.FinalReklama, fmt.Sprintf("%s*%s", ref(qtyCol, s.FinalSum), m))
			}
		}
		for _, row := range []int{s.FinalMinus, s.FinalReklama, s.FinalLeksiya} {
			w.formula(sp.sales, row, sum(refs(sp.drugSales, row)))
		}
	}
	for _, row := range []int{s.FinalMinus, s.FinalReklama, s.FinalLeksiya} {
		r.writeTotal(w, spans, layout, row)
	}
}

// applyOutline collapses each block's client rows under its header row and
// each group's drug columns behind the group pair
func (r *SheetRenderer) applyOutline(w *sheetWriter, blocks []blockRows, spans []span) {
	for _, b := range blocks {
		for row := b.first; row <= b.last; row++ {
			w.hideRow(row, 1)
		}
	}
	for _, sp := range spans {
		for i := range sp.drugQty {
			w.hideCol(sp.drugQty[i], 1)
			w.hideCol(sp.drugSales[i], 1)
		}
	}
	if w.err != nil {
		return
	}
	below, right := false, false
	w.err = w.f.SetSheetProps(w.sheet, &excelize.SheetPropsOptions{
		OutlineSummaryBelow: &below,
		OutlineSummaryRight: &right,
	})
}

func (r *SheetRenderer) applyFormatting(w *sheetWriter, blocks []blockRows, layout *pivot.Layout, s *SheetSummary) {
	last := layout.LastColumn()
	w.style("header", sheetStyles["header"], 1, 1, last, 2)

	headers := headerSet(blocks)
	for row := FirstDataRow; row < s.FinalSum; row++ {
		if _, ok := headers[row]; ok {
			w.style("block_key", sheetStyles["block_key"], 1, row, 4, row)
			w.style("block_num", sheetStyles["block_num"], 5, row, last, row)
			continue
		}
		w.style("data_key", sheetStyles["data_key"], 1, row, 4, row)
		w.style("data_num", sheetStyles["data_num"], 5, row, last, row)
	}
	w.style("final_key", sheetStyles["final_key"], 1, s.FinalSum, 4, s.FinalLeksiya)
	w.style("final_num", sheetStyles["final_num"], 5, s.FinalSum, last, s.FinalLeksiya)

	w.colWidth(1, 1, 4)
	w.colWidth(2, 2, 40)
	w.colWidth(3, 4, 10)
	for col := pivot.FirstPairColumn; col <= last; col++ {
		if col%2 == 0 {
			w.colWidth(col, col, 18)
		} else {
			w.colWidth(col, col, 11)
		}
	}
	w.rowHeight(1, 35)
	w.rowHeight(2, 23)
	w.hideRow(3, 0)
	w.hideCol(1, 0)
	if w.err != nil {
		return
	}
	w.err = w.f.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      4,
		YSplit:      2,
		TopLeftCell: "E3",
		ActivePane:  "bottomRight",
	})
}

func headerSet(blocks []blockRows) map[int]struct{} {
	out := make(map[int]struct{}, len(blocks))
	for _, b := range blocks {
		out[b.header] = struct{}{}
	}
	return out
}
