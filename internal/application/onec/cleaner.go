// Package onec converts the outlined 1C sales export into an optovik sheet
// that the regular pipeline can validate and report on.
package onec

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Result summarizes one cleaning run
type Result struct {
	Output  string
	Lines   int
	Clients int
}

// Cleaner reads the 1C export and writes the optovik workbook
type Cleaner struct {
	source string
	output string
	labels sales.Labels
	log    *zap.Logger
}

// NewCleaner creates a cleaner from the 1C source file to the optovik output file
func NewCleaner(source, output string, labels sales.Labels, log *zap.Logger) *Cleaner {
	return &Cleaner{source: source, output: output, labels: labels, log: log.Named("onec")}
}

// Run cleans the 1C export
func (c *Cleaner) Run(ctx context.Context) (*Result, error) {
	c.log.Info("Processing 1C export", zap.String("source", c.source))
	if !workbook.Exists(c.source) {
		return nil, c.missingSource()
	}

	t, err := c.read()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := t.lines()
	if err != nil {
		return nil, err
	}
	if err := c.write(lines); err != nil {
		return nil, err
	}

	clients := make(map[string]struct{})
	for _, l := range lines {
		clients[l.Client] = struct{}{}
	}
	c.log.Info("Workbook saved",
		zap.String("path", c.output),
		zap.Int("lines", len(lines)),
		zap.Int("clients", len(clients)))
	return &Result{Output: c.output, Lines: len(lines), Clients: len(clients)}, nil
}

func (c *Cleaner) read() (*table, error) {
	b, err := workbook.Open(c.source)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	sheet := b.ActiveSheet()
	s, err := b.ReadSheet(sheet)
	if err != nil {
		return nil, err
	}
	t := &table{cells: make([][]string, 0, len(s.Rows)+1)}
	t.cells = append(t.cells, s.Header)
	for _, r := range s.Rows {
		for len(t.cells) < r.Number-1 {
			t.cells = append(t.cells, nil)
		}
		t.cells = append(t.cells, r.Cells)
	}

	// one extra row so the last data row can look at its successor
	if t.rowLevels, err = b.RowOutlineLevels(sheet, len(t.cells)+1); err != nil {
		return nil, err
	}
	if t.colLevels, err = b.ColOutlineLevels(sheet, s.ColumnCount()); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Cleaner) write(lines []Line) error {
	l := c.labels
	header := []string{l.Drug, l.Client, l.Oblast, l.Address, l.Quantity, l.Price, l.Reserve, l.Date}
	rows := make([][]any, len(lines))
	for i, line := range lines {
		rows[i] = []any{
			line.Drug, line.Client, line.Region, line.Territory,
			line.Quantity.InexactFloat64(), line.Price().InexactFloat64(),
			nil, nil,
		}
	}

	f, err := workbook.NewFile(l.OneCSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := workbook.WriteTable(f, sheet, header, rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		format := workbook.AccountingFormat
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			return fmt.Errorf("failed to create number style: %w", err)
		}
		if err := f.SetCellStyle(sheet, "E2", workbook.CellName(6, len(rows)+1), style); err != nil {
			return fmt.Errorf("failed to format %s: %w", sheet, err)
		}
	}
	return workbook.SaveAs(f, c.output)
}

func (c *Cleaner) missingSource() error {
	return shared.NewExpectedError(shared.ErrCodeFilesMissing, "A file is missing").
		WithDetails(
			"❌ The following required file is missing:",
			fmt.Sprintf("• raw_1c_file — Missing file: %s", filepath.Base(c.source)),
			fmt.Sprintf("  📁 Expected at: %s", c.source),
		).
		WithFix(
			"Make sure the file listed above exists at its expected path.",
			"If missing, export or copy the correct version into the folder.",
			"Make sure the file is not open in Excel or locked by another program.",
			"If the file path is wrong in config, update it accordingly.",
		).
		WithFooter("The 1C cleaning cannot continue unless the required file is present in the expected location.")
}
