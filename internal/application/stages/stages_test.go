package stages

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	dw "github.com/pharmdist/salesflow/internal/domain/warehouse"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func rec(drug, client, region, terr string, qty, total int64) sales.Record {
	return sales.Record{
		Drug: drug, Client: client, Region: region, Territory: terr,
		Quantity: decimal.NewFromInt(qty), TotalSales: decimal.NewFromInt(total),
	}
}

func testData() (*sales.Dataset, *sales.DrugGroups) {
	ds := sales.NewDataset()
	ds.Add(&sales.Optovik{Name: "Meros", Records: []sales.Record{
		rec("Aspirin", "A", "Tashkent", "Chilonzor", 2, 20),
		rec("Nurofen", "A", "Tashkent", "Chilonzor", 1, 10),
		rec("Aspirin", "B", "Samarkand", "Urgut", 3, 30),
		rec("Vitamin", "B", "Samarkand", "Urgut", 7, 70),
	}})
	ds.Add(&sales.Optovik{Name: "Meros Резерв", Reserve: true, Records: []sales.Record{
		rec("Cream", "C", "Tashkent", "Chilonzor", 4, 40),
		rec("Aspirin", "C", "Tashkent", "Chilonzor", 1, 5),
	}})
	groups := sales.NewDrugGroups([]sales.DrugGroup{
		{Name: "Pain", Products: []string{"Aspirin", "Nurofen"}},
		{Name: "Skin", Products: []string{"Cream"}},
	})
	return ds, groups
}

func testWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir(), zap.NewNop())
	w.now = func() time.Time { return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) }
	return w
}

func open(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func value(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func fillColor(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	if len(style.Fill.Color) == 0 {
		return ""
	}
	return style.Fill.Color[0]
}

func width(t *testing.T, f *excelize.File, sheet, col string) float64 {
	t.Helper()
	w, err := f.GetColWidth(sheet, col)
	require.NoError(t, err)
	return w
}

func TestWriter_Run(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()

	paths, err := w.Run(context.Background(), ds, groups)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(w.dir, Stage1File),
		filepath.Join(w.dir, RegionwiseFile),
		filepath.Join(w.dir, TotalSalesFile),
	}, paths)
}

func TestWriter_RunCancelled(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := w.Run(ctx, ds, groups)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}

func TestWriteStage1_GroupPivot(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()

	path, err := w.WriteStage1(dw.Transform(ds, groups))
	require.NoError(t, err)
	f := open(t, path)

	assert.Equal(t, []string{"Pain", "Skin", CheckSheet}, f.GetSheetList())

	assert.Equal(t, "Region", value(t, f, "Pain", "B1"))
	assert.Equal(t, "Product_groups", value(t, f, "Pain", "D1"))
	assert.Equal(t, "Aspirin", value(t, f, "Pain", "E1"))
	assert.Equal(t, "Nurofen", value(t, f, "Pain", "G1"))
	assert.Equal(t, "Quantity", value(t, f, "Pain", "E2"))
	assert.Equal(t, "TotalSales", value(t, f, "Pain", "H2"))

	// Samarkand sorts first and has no Nurofen sales
	assert.Equal(t, "0", value(t, f, "Pain", "A3"))
	assert.Equal(t, "Samarkand", value(t, f, "Pain", "B3"))
	assert.Equal(t, "Pain", value(t, f, "Pain", "D3"))
	assert.Equal(t, "3", value(t, f, "Pain", "E3"))
	assert.Equal(t, "", value(t, f, "Pain", "G3"))

	// both optoviks sum into the Tashkent row
	assert.Equal(t, "Chilonzor", value(t, f, "Pain", "C4"))
	assert.Equal(t, "3", value(t, f, "Pain", "E4"))
	assert.Equal(t, "25", value(t, f, "Pain", "F4"))
	assert.Equal(t, "1", value(t, f, "Pain", "G4"))

	merged, err := f.GetMergeCells("Pain")
	require.NoError(t, err)
	var ranges []string
	for _, m := range merged {
		ranges = append(ranges, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.ElementsMatch(t, []string{"B1:B2", "C1:C2", "D1:D2", "E1:F1", "G1:H1"}, ranges)

	assert.Equal(t, 15.0, width(t, f, "Pain", "C"))
	assert.Equal(t, 12.0, width(t, f, "Pain", "E"))
	assert.Equal(t, 18.0, width(t, f, "Pain", "F"))
	height, err := f.GetRowHeight("Pain", 1)
	require.NoError(t, err)
	assert.Equal(t, 45.0, height)
}

func TestWriteStage1_CheckSheet(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()

	path, err := w.WriteStage1(dw.Transform(ds, groups))
	require.NoError(t, err)
	f := open(t, path)

	assert.Equal(t, "total_quantity", value(t, f, CheckSheet, "C1"))
	assert.Equal(t, "Pain", value(t, f, CheckSheet, "B2"))
	assert.Equal(t, checkFill, fillColor(t, f, CheckSheet, "A2"))
	assert.Equal(t, checkFill, fillColor(t, f, CheckSheet, "D2"))

	assert.Equal(t, "1", value(t, f, CheckSheet, "A3"))
	assert.Equal(t, "Aspirin", value(t, f, CheckSheet, "B3"))
	assert.Equal(t, "6", value(t, f, CheckSheet, "C3"))
	assert.Equal(t, "55", value(t, f, CheckSheet, "D3"))
	assert.Equal(t, "2", value(t, f, CheckSheet, "A4"))
	assert.Equal(t, "Nurofen", value(t, f, CheckSheet, "B4"))

	assert.Equal(t, "Skin", value(t, f, CheckSheet, "B5"))
	assert.Equal(t, "Cream", value(t, f, CheckSheet, "B6"))
	// ungrouped products never reach the check list
	assert.Equal(t, "", value(t, f, CheckSheet, "B7"))

	assert.Equal(t, 70.0, width(t, f, CheckSheet, "B"))
	assert.Equal(t, 22.0, width(t, f, CheckSheet, "D"))
}

func TestWriteRegionwise(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()
	reserves := map[string]struct{}{"Meros Резерв": {}}

	path, err := w.WriteRegionwise(dw.Transform(ds, groups), reserves)
	require.NoError(t, err)
	f := open(t, path)

	assert.Equal(t, []string{"Samarkand", "Tashkent", "Meros Резерв", TotalSheet}, f.GetSheetList())

	assert.Equal(t, "March", value(t, f, "Tashkent", "C1"))
	assert.Equal(t, "Pain", value(t, f, "Tashkent", "B2"))
	assert.Equal(t, regionFill, fillColor(t, f, "Tashkent", "C2"))
	assert.Equal(t, "Aspirin", value(t, f, "Tashkent", "B3"))
	assert.Equal(t, "2", value(t, f, "Tashkent", "C3"))

	assert.Equal(t, "Pain", value(t, f, "Meros Резерв", "B2"))
	assert.Equal(t, "1", value(t, f, "Meros Резерв", "C3"))
	assert.Equal(t, "Skin", value(t, f, "Meros Резерв", "B4"))
	assert.Equal(t, "Cream", value(t, f, "Meros Резерв", "B5"))
	assert.Equal(t, "4", value(t, f, "Meros Резерв", "C5"))
}

func TestWriteRegionwise_Total(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()
	reserves := map[string]struct{}{"Meros Резерв": {}}

	path, err := w.WriteRegionwise(dw.Transform(ds, groups), reserves)
	require.NoError(t, err)
	f := open(t, path)

	assert.Equal(t, "Name of Products", value(t, f, TotalSheet, "B1"))
	assert.Equal(t, "Samarkand", value(t, f, TotalSheet, "C1"))
	assert.Equal(t, "Meros Резерв", value(t, f, TotalSheet, "E1"))
	assert.Equal(t, totalHeadFill, fillColor(t, f, TotalSheet, "A1"))

	assert.Equal(t, "Pain", value(t, f, TotalSheet, "B2"))
	assert.Equal(t, totalGroupFill, fillColor(t, f, TotalSheet, "E2"))
	assert.Equal(t, "Aspirin", value(t, f, TotalSheet, "B3"))
	assert.Equal(t, "3", value(t, f, TotalSheet, "C3"))
	assert.Equal(t, "2", value(t, f, TotalSheet, "D3"))
	assert.Equal(t, "1", value(t, f, TotalSheet, "E3"))
	assert.Equal(t, "Nurofen", value(t, f, TotalSheet, "B4"))
	assert.Equal(t, "", value(t, f, TotalSheet, "C4"))
	assert.Equal(t, "1", value(t, f, TotalSheet, "D4"))

	assert.Equal(t, "Skin", value(t, f, TotalSheet, "B5"))
	assert.Equal(t, "Cream", value(t, f, TotalSheet, "B6"))
	assert.Equal(t, "4", value(t, f, TotalSheet, "E6"))

	assert.Equal(t, 12.0, width(t, f, TotalSheet, "C"))
	height, err := f.GetRowHeight(TotalSheet, 1)
	require.NoError(t, err)
	assert.Equal(t, 25.0, height)
}

func TestWriteTotalSales(t *testing.T) {
	w := testWriter(t)
	ds, groups := testData()

	path, err := w.WriteTotalSales(dw.Transform(ds, groups))
	require.NoError(t, err)
	f := open(t, path)

	assert.Equal(t, []string{TotalSalesSheet}, f.GetSheetList())
	rows, err := f.GetRows(TotalSalesSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"", "Name of Products", "Group", "Total Sales"},
		{"0", "Aspirin", "Pain", "55"},
		{"1", "Cream", "Skin", "40"},
		{"2", "Nurofen", "Pain", "10"},
	}, rows)
	assert.Equal(t, 70.0, width(t, f, TotalSalesSheet, "B"))
}

func TestRegionPartitions(t *testing.T) {
	rows := []dw.FactRow{
		{Optovik: "A", Region: "North"},
		{Optovik: "R", Region: "North"},
		{Optovik: "B", Region: "East"},
	}
	parts := regionPartitions(rows, map[string]struct{}{"R": {}})

	require.Len(t, parts, 3)
	assert.Equal(t, "East", parts[0].Name)
	assert.Equal(t, "North", parts[1].Name)
	assert.Len(t, parts[1].Rows, 1)
	assert.Equal(t, "R", parts[2].Name)
}

func TestBuildGroupPivot_SortsKeysAndProducts(t *testing.T) {
	rows := []dw.FactRow{
		{Region: "B", Territory: "2", Product: "Z", Quantity: decimal.NewFromInt(1)},
		{Region: "A", Territory: "9", Product: "Y", Quantity: decimal.NewFromInt(2)},
		{Region: "B", Territory: "1", Product: "Z", Quantity: decimal.NewFromInt(3)},
		{Region: "B", Territory: "2", Product: "Z", Quantity: decimal.NewFromInt(4)},
	}
	p := buildGroupPivot("G", rows)

	assert.Equal(t, []string{"Y", "Z"}, p.Products)
	assert.Equal(t, []locationKey{{"A", "9"}, {"B", "1"}, {"B", "2"}}, p.Keys)
	assert.True(t, p.Cells[locationKey{"B", "2"}]["Z"].Quantity.Equal(decimal.NewFromInt(5)))
}
