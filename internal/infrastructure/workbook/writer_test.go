package workbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestStyles_Get(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	styles := NewStyles(f)

	calls := 0
	build := func() *excelize.Style {
		calls++
		return &excelize.Style{Fill: Fill("F4ECC5"), Border: Borders("CCCC00")}
	}

	id1, err := styles.Get("header", build)
	require.NoError(t, err)
	id2, err := styles.Get("header", build)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, styles.Len())
}

func TestWriteTable(t *testing.T) {
	f, err := NewFile("Data")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, WriteTable(f, "Data", []string{"client", "region"}, [][]any{
		{"Apteka 1", "Tashkent"},
		{"Apteka 2", nil},
	}))

	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"client", "region"}, {"Apteka 1", "Tashkent"}, {"Apteka 2"}}, rows)
}

func TestNextVersionedPath(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "regions_to_be_corrected.xlsx")

	first := NextVersionedPath(base)
	assert.Equal(t, filepath.Join(dir, "regions_to_be_corrected_v1.xlsx"), first)

	require.NoError(t, os.WriteFile(first, []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "regions_to_be_corrected_v2.xlsx"), NextVersionedPath(base))
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "A-B (C)", SanitizeSheetName("A/B [C]"))
	assert.Equal(t, "Sheet", SanitizeSheetName("  "))

	long := strings.Repeat("Ж", 40)
	assert.Equal(t, 31, len([]rune(SanitizeSheetName(long))))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Tashkent-City", FileName("Tashkent/City"))
	assert.Equal(t, "unnamed", FileName(" "))
}

func TestSheetRef(t *testing.T) {
	assert.Equal(t, "'North'!F10", SheetRef("North", "F10"))
	assert.Equal(t, "'O''Hara'!A1", SheetRef("O'Hara", "A1"))
}

func TestSheetNamer(t *testing.T) {
	n := NewSheetNamer("Total")
	assert.Equal(t, "Total (2)", n.Name("total"))
	assert.Equal(t, "North", n.Name("North"))
	assert.Equal(t, "North (2)", n.Name("North"))
	assert.Equal(t, "a-b", n.Name("a/b"))

	long := n.Name("abcdefghijklmnopqrstuvwxyz0123456789")
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz01234", long)
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz0 (2)", n.Name("abcdefghijklmnopqrstuvwxyz0123456789"))
}

func TestSetFormula(t *testing.T) {
	f, err := NewFile("Data")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, SetFormula(f, "Data", "A1", "=SUM(B1:B2)"))
	got, err := f.GetCellFormula("Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B1:B2)", got)
}
