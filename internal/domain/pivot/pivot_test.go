package pivot

import (
	"testing"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(drug, client, region, terr string, qty, total int64) sales.Record {
	return sales.Record{
		Drug: drug, Client: client, Region: region, Territory: terr,
		Quantity: decimal.NewFromInt(qty), TotalSales: decimal.NewFromInt(total),
	}
}

func TestBuild(t *testing.T) {
	o := &sales.Optovik{Name: "Meros", Records: []sales.Record{
		rec("Nurofen", "B", "Tashkent", "Chilonzor", 1, 10),
		rec("Aspirin", "A", "Tashkent", "Yunusobod", 2, 20),
		rec("Aspirin", "B", "Tashkent", "Chilonzor", 3, 30),
		rec("Aspirin", "A", "Tashkent", "Yunusobod", 4, 40),
	}}

	tbl := Build(o)
	assert.Equal(t, "Meros", tbl.Optovik)
	assert.Equal(t, []string{"Aspirin", "Nurofen"}, tbl.Drugs)
	require.Len(t, tbl.Rows, 2)

	a := tbl.Rows[0]
	assert.Equal(t, "A", a.Client)
	assert.True(t, decimal.NewFromInt(6).Equal(a.Values["Aspirin"].Quantity))
	assert.True(t, decimal.NewFromInt(60).Equal(a.Values["Aspirin"].Sales))
	assert.False(t, a.Values["Nurofen"].Valid)

	b := tbl.Rows[1]
	assert.True(t, b.Values["Nurofen"].Valid)
}

func TestSplit(t *testing.T) {
	ds := sales.NewDataset()
	ds.Add(&sales.Optovik{Name: "Rezerv", Reserve: true, Records: []sales.Record{
		rec("Zinc", "R", "Samarkand", "Urgut", 1, 1),
	}})
	ds.Add(&sales.Optovik{Name: "Meros", Records: []sales.Record{
		rec("Aspirin", "A", "Tashkent", "Yunusobod", 1, 1),
		rec("Aspirin", "B", "Samarkand", "Urgut", 1, 1),
		rec("Nurofen", "C", "Tashkent", "Chilonzor", 1, 1),
	}})
	ds.Add(&sales.Optovik{Name: "Grand", Records: []sales.Record{
		rec("Vitamin", "D", "Tashkent", "Chilonzor", 1, 1),
	}})

	plan := Split(BuildAll(ds), "Вторичка")

	vt := plan.Vtorichka
	assert.Equal(t, SheetVtorichka, vt.Kind)
	require.Len(t, vt.Blocks, 3)
	assert.Equal(t, "Rezerv", vt.Blocks[0].Label)
	assert.Equal(t, []string{"Zinc", "Aspirin", "Nurofen", "Vitamin"}, vt.Drugs)
	assert.Equal(t, 8, vt.RowCount())

	require.Len(t, plan.Reserves, 1)
	assert.Equal(t, "Rezerv", plan.Reserves[0].Name)
	assert.Equal(t, vt.Drugs, plan.Reserves[0].Drugs)

	require.Len(t, plan.Regions, 2)
	tash := plan.Regions[0]
	assert.Equal(t, "Tashkent", tash.Name)
	require.Len(t, tash.Blocks, 2)
	assert.Equal(t, "Meros", tash.Blocks[0].Label)
	assert.Len(t, tash.Blocks[0].Rows, 2)
	assert.Equal(t, "Grand", tash.Blocks[1].Label)
	assert.Equal(t, []string{"Aspirin", "Nurofen", "Vitamin"}, tash.Drugs)

	sam := plan.Regions[1]
	assert.Equal(t, "Samarkand", sam.Name)
	require.Len(t, sam.Blocks, 1)
	assert.Equal(t, []string{"Aspirin", "Nurofen"}, sam.Drugs)

	terrs := plan.Territories["Tashkent"]
	require.Len(t, terrs, 2)
	assert.Equal(t, "Yunusobod", terrs[0].Name)
	assert.Equal(t, "Chilonzor", terrs[1].Name)
	assert.Len(t, terrs[1].Blocks, 2)
	assert.Len(t, plan.Territories["Samarkand"], 1)

	names := make([]string, 0)
	for _, s := range plan.WorkbookSheets() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Вторичка", "Rezerv", "Tashkent", "Samarkand"}, names)
}

func TestNewLayout(t *testing.T) {
	groups := sales.NewDrugGroups([]sales.DrugGroup{
		{Name: "Pain", Products: []string{"Nurofen", "Aspirin"}},
		{Name: "Skin", Products: []string{"Cream"}},
	})
	labels := sales.DefaultLabels()

	l := NewLayout([]string{"Aspirin", "Vitamin", "Nurofen"}, groups, labels)

	var got []string
	for _, p := range l.Pairs {
		got = append(got, p.Label)
	}
	assert.Equal(t, []string{"Pain", "Aspirin", "Nurofen", "Skin", "Others", "Vitamin", "Итого"}, got)
	assert.Equal(t, []string{"Pain", "Skin", "Others"}, l.OutlineGroups())
	assert.True(t, l.HasOthers())
	assert.Equal(t, 5, l.QtyColumn(0))
	assert.Equal(t, 6, l.SalesColumn(0))
	assert.Equal(t, 18, l.LastColumn())
	assert.Equal(t, 6, l.TotalIndex())

	spans := l.Groups()
	require.Len(t, spans, 3)
	assert.Equal(t, []int{1, 2}, spans[0].Drugs)
	assert.Empty(t, spans[1].Drugs)
	assert.Equal(t, "Others", spans[2].Name)
	assert.Equal(t, []int{5}, spans[2].Drugs)
}

func TestNewLayout_NoOthers(t *testing.T) {
	groups := sales.NewDrugGroups([]sales.DrugGroup{{Name: "Pain", Products: []string{"Aspirin"}}})
	l := NewLayout([]string{"Aspirin"}, groups, sales.DefaultLabels())

	assert.False(t, l.HasOthers())
	assert.Equal(t, []string{"Pain"}, l.OutlineGroups())
	assert.Len(t, l.Pairs, 3)
}

func TestSplit_SkipsEmptyOptoviks(t *testing.T) {
	tables := []*Table{
		{Optovik: "Empty"},
		Build(&sales.Optovik{Name: "Meros", Records: []sales.Record{rec("A", "C", "R", "T", 1, 1)}}),
	}
	plan := Split(tables, "Вторичка")
	require.Len(t, plan.Vtorichka.Blocks, 1)
	assert.Equal(t, "Meros", plan.Vtorichka.Blocks[0].Label)
}
