// Package workbook reads and writes the xlsx files exchanged with the sales team.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a named sheet is absent from a workbook
var ErrSheetNotFound = errors.New("sheet not found")

// Book is an opened xlsx workbook
type Book struct {
	path string
	file *excelize.File
}

// Open opens an existing workbook
func Open(path string) (*Book, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Book{path: path, file: f}, nil
}

// Exists reports whether a regular file exists at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Path returns the file the book was opened from
func (b *Book) Path() string {
	return b.path
}

// File exposes the underlying excelize file for writers
func (b *Book) File() *excelize.File {
	return b.file
}

// SheetNames returns the sheet names in workbook order
func (b *Book) SheetNames() []string {
	return b.file.GetSheetList()
}

// HasSheet reports whether the workbook contains the named sheet
func (b *Book) HasSheet(name string) bool {
	idx, err := b.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// ActiveSheet returns the name of the sheet selected when the file was saved
func (b *Book) ActiveSheet() string {
	return b.file.GetSheetName(b.file.GetActiveSheetIndex())
}

// ReadSheet loads every row of a sheet with raw (unformatted) cell values.
// Row 1 is the header.
func (b *Book) ReadSheet(name string) (*Sheet, error) {
	if !b.HasSheet(name) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	rows, err := b.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	s := &Sheet{Name: name}
	for i, cells := range rows {
		if i == 0 {
			s.Header = cells
			continue
		}
		s.Rows = append(s.Rows, Row{Number: i + 1, Cells: cells})
	}
	return s, nil
}

// Save writes the workbook back to its original path
func (b *Book) Save() error {
	return b.file.Save()
}

// Close releases the workbook
func (b *Book) Close() error {
	return b.file.Close()
}

// Sheet is the content of one worksheet
type Sheet struct {
	Name   string
	Header []string
	Rows   []Row
}

// ColumnCount returns the widest row of the sheet, header included
func (s *Sheet) ColumnCount() int {
	n := len(s.Header)
	for _, r := range s.Rows {
		if w := r.width(); w > n {
			n = w
		}
	}
	return n
}

// LastRow returns the worksheet row number of the last row read
func (s *Sheet) LastRow() int {
	if len(s.Rows) == 0 {
		if len(s.Header) == 0 {
			return 0
		}
		return 1
	}
	return s.Rows[len(s.Rows)-1].Number
}

// Row is one worksheet row below the header
type Row struct {
	// Number is the 1-based worksheet row
	Number int
	Cells  []string
}

// Cell returns the trimmed value of a 1-based column, empty when absent
func (r Row) Cell(col int) string {
	if col < 1 || col > len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[col-1])
}

// Empty reports whether every cell is blank
func (r Row) Empty() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// width is the position of the last non-blank cell
func (r Row) width() int {
	for i := len(r.Cells) - 1; i >= 0; i-- {
		if strings.TrimSpace(r.Cells[i]) != "" {
			return i + 1
		}
	}
	return 0
}

// RowOutlineLevels returns the outline level of rows 1..n, indexed by row number
func (b *Book) RowOutlineLevels(sheet string, n int) ([]uint8, error) {
	levels := make([]uint8, n+1)
	for row := 1; row <= n; row++ {
		lvl, err := b.file.GetRowOutlineLevel(sheet, row)
		if err != nil {
			return nil, fmt.Errorf("failed to read outline of row %d: %w", row, err)
		}
		levels[row] = lvl
	}
	return levels, nil
}

// ColOutlineLevels returns the outline level of columns 1..n, indexed by column number
func (b *Book) ColOutlineLevels(sheet string, n int) ([]uint8, error) {
	levels := make([]uint8, n+1)
	for col := 1; col <= n; col++ {
		lvl, err := b.file.GetColOutlineLevel(sheet, ColumnName(col))
		if err != nil {
			return nil, fmt.Errorf("failed to read outline of column %s: %w", ColumnName(col), err)
		}
		levels[col] = lvl
	}
	return levels, nil
}
