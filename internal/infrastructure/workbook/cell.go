package workbook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// IsMissing reports whether a cell holds no usable value. Exports from other
// tools sometimes carry a literal "nan".
func IsMissing(raw string) bool {
	v := strings.TrimSpace(raw)
	return v == "" || strings.EqualFold(v, "nan")
}

// Text returns the trimmed value, or empty when the cell is missing
func Text(raw string) string {
	if IsMissing(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

// ParseDecimal parses a numeric cell. A missing cell is zero.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	if IsMissing(raw) {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

// ParseDate parses an Excel serial date or a text date in the given layout.
// Values that are neither yield nil.
func ParseDate(raw, layout string) *time.Time {
	v := strings.TrimSpace(raw)
	if IsMissing(v) {
		return nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		return &t
	}
	for _, l := range []string{layout, "2006-01-02", "2006-01-02 15:04:05"} {
		if l == "" {
			continue
		}
		if t, err := time.Parse(l, v); err == nil {
			return &t
		}
	}
	return nil
}

// CellName converts 1-based coordinates to an A1 reference
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// ColumnName converts a 1-based column number to its letters
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}
