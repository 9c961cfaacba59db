package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// AccountingFormat is the accounting number format used on every money and quantity cell
const AccountingFormat = `_(* #,##0.00_);_(* -#,##0.00_);_(* "-"??_);_(@_)`

// MaxSheetNameLength is Excel's limit on sheet names
const MaxSheetNameLength = 31

// NewFile creates an empty workbook whose only sheet is named first
func NewFile(first string) (*excelize.File, error) {
	f := excelize.NewFile()
	if first != "" && first != "Sheet1" {
		if err := f.SetSheetName("Sheet1", first); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to name sheet %s: %w", first, err)
		}
	}
	return f, nil
}

// SaveAs writes f to path, creating parent folders
func SaveAs(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Styles caches excelize style IDs by key so identical styles are registered once
type Styles struct {
	file *excelize.File
	ids  map[string]int
}

// NewStyles creates a style cache bound to a file
func NewStyles(f *excelize.File) *Styles {
	return &Styles{file: f, ids: make(map[string]int)}
}

// Get returns the style ID registered under key, creating it from build on first use
func (s *Styles) Get(key string, build func() *excelize.Style) (int, error) {
	if id, ok := s.ids[key]; ok {
		return id, nil
	}
	id, err := s.file.NewStyle(build())
	if err != nil {
		return 0, fmt.Errorf("failed to create style %s: %w", key, err)
	}
	s.ids[key] = id
	return id, nil
}

// Len returns the number of registered styles
func (s *Styles) Len() int {
	return len(s.ids)
}

// Fill returns a solid pattern fill of the given hex color
func Fill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

// Borders returns thin borders of the given color on all four sides
func Borders(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}

// WriteTable writes a header row and data rows starting at A1
func WriteTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, CellName(1, i+2), &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

// NextVersionedPath returns the first free "<stem>_vN<ext>" next to path, N starting at 1
func NextVersionedPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_v%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// SanitizeSheetName replaces characters Excel forbids and truncates to 31 runes
func SanitizeSheetName(name string) string {
	r := strings.NewReplacer(
		"[", "(", "]", ")", ":", "-", "*", "_", "?", "_", "/", "-", `\`, "-",
	)
	out := strings.Trim(r.Replace(strings.TrimSpace(name)), "'")
	if out == "" {
		out = "Sheet"
	}
	if utf8.RuneCountInString(out) > MaxSheetNameLength {
		out = string([]rune(out)[:MaxSheetNameLength])
	}
	return out
}

// FileName turns a sheet or region name into a safe file name stem
func FileName(name string) string {
	r := strings.NewReplacer("/", "-", `\`, "-", ":", "-", "*", "_", "?", "_", `"`, "", "<", "", ">", "", "|", "-")
	out := strings.TrimSpace(r.Replace(name))
	if out == "" {
		return "unnamed"
	}
	return out
}

// SetFormula writes a formula; a leading "=" is optional
func SetFormula(f *excelize.File, sheet, cell, formula string) error {
	return f.SetCellFormula(sheet, cell, strings.TrimPrefix(formula, "="))
}

// SheetRef returns a cross-sheet cell reference such as 'North'!F10
func SheetRef(sheet, cell string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cell
}

// SheetNamer hands out sanitized sheet names that are unique within a workbook.
// Excel compares sheet names case-insensitively.
type SheetNamer struct {
	used map[string]struct{}
}

// NewSheetNamer creates a namer with names already taken
func NewSheetNamer(taken ...string) *SheetNamer {
	n := &SheetNamer{used: make(map[string]struct{})}
	for _, t := range taken {
		n.used[strings.ToLower(t)] = struct{}{}
	}
	return n
}

// Name returns a free sheet name derived from raw and marks it taken
func (n *SheetNamer) Name(raw string) string {
	base := SanitizeSheetName(raw)
	name := base
	for i := 2; ; i++ {
		if _, ok := n.used[strings.ToLower(name)]; !ok {
			break
		}
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(base)
		if len(runes)+len(suffix) > MaxSheetNameLength {
			runes = runes[:MaxSheetNameLength-len(suffix)]
		}
		name = string(runes) + suffix
	}
	n.used[strings.ToLower(name)] = struct{}{}
	return name
}
