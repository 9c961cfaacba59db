package workbook

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f, err := NewFile(order[0])
	require.NoError(t, err)
	for i, name := range order {
		if i > 0 {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			require.NoError(t, f.SetSheetRow(name, CellName(1, r+1), &row))
		}
	}
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, SaveAs(f, path))
	require.NoError(t, f.Close())
	return path
}

func TestBook_ReadSheet(t *testing.T) {
	path := writeFixture(t, map[string][][]any{
		"Shayana": {
			{"Препарат", "Клиент", "Регион"},
			{" Aspirin ", "Apteka 1", "Tashkent", nil, 12.5},
			{},
			{"Ibuprofen", "Apteka 2"},
		},
		"Second": {{"only header"}},
	}, "Shayana", "Second")

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Shayana", "Second"}, book.SheetNames())
	assert.True(t, book.HasSheet("Second"))
	assert.False(t, book.HasSheet("Missing"))

	sheet, err := book.ReadSheet("Shayana")
	require.NoError(t, err)

	assert.Equal(t, []string{"Препарат", "Клиент", "Регион"}, sheet.Header)
	assert.Equal(t, 5, sheet.ColumnCount())
	assert.Equal(t, 4, sheet.LastRow())

	require.NotEmpty(t, sheet.Rows)
	first := sheet.Rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, "Aspirin", first.Cell(1))
	assert.Equal(t, "12.5", first.Cell(5))
	assert.Equal(t, "", first.Cell(9))
	assert.Equal(t, "", first.Cell(0))

	last := sheet.Rows[len(sheet.Rows)-1]
	assert.Equal(t, 4, last.Number)
	assert.Equal(t, "Ibuprofen", last.Cell(1))

	_, err = book.ReadSheet("Missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
	assert.False(t, Exists(filepath.Join(t.TempDir(), "nope.xlsx")))
}

func TestRow_Empty(t *testing.T) {
	assert.True(t, Row{Cells: []string{"", "  "}}.Empty())
	assert.False(t, Row{Cells: []string{"", "x"}}.Empty())
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw     string
		want    decimal.Decimal
		wantErr bool
	}{
		{raw: "", want: decimal.Zero},
		{raw: "nan", want: decimal.Zero},
		{raw: " 12.50 ", want: decimal.RequireFromString("12.5")},
		{raw: "1E+3", want: decimal.NewFromInt(1000)},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDecimal(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("excel serial", func(t *testing.T) {
		got := ParseDate("45306", "02.01.2006")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got.UTC())
	})

	t.Run("text layout", func(t *testing.T) {
		got := ParseDate("15.01.2024", "02.01.2006")
		require.NotNil(t, got)
		assert.Equal(t, 2024, got.Year())
		assert.Equal(t, time.January, got.Month())
		assert.Equal(t, 15, got.Day())
	})

	t.Run("iso fallback", func(t *testing.T) {
		require.NotNil(t, ParseDate("2024-02-01", "02.01.2006"))
	})

	t.Run("garbage coerces to nil", func(t *testing.T) {
		assert.Nil(t, ParseDate("yesterday", "02.01.2006"))
		assert.Nil(t, ParseDate("", "02.01.2006"))
	})
}

func TestCellAndColumnName(t *testing.T) {
	assert.Equal(t, "E4", CellName(5, 4))
	assert.Equal(t, "AA", ColumnName(27))
	assert.Equal(t, "", CellName(0, 1))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(" NaN "))
	assert.Equal(t, "x", Text(" x "))
}

func TestNewFile_RenamesDefaultSheet(t *testing.T) {
	f, err := NewFile("Вторичка")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Вторичка"}, f.GetSheetList())
}
