package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset_OrderAndReplace(t *testing.T) {
	ds := NewDataset()
	ds.Add(&Optovik{Name: "Meros", Records: []Record{{Drug: "A"}}})
	ds.Add(&Optovik{Name: "Grand", Records: []Record{{Drug: "B"}, {Drug: "C"}}})
	ds.Add(&Optovik{Name: "Meros", Records: []Record{{Drug: "D"}, {Drug: "E"}}})

	assert.Equal(t, []string{"Meros", "Grand"}, ds.Names())
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 4, ds.RecordCount())

	o, ok := ds.Get("Meros")
	require.True(t, ok)
	assert.Equal(t, "D", o.Records[0].Drug)
	assert.Len(t, ds.Drugs(), 4)
}

func TestOptovik_Drugs(t *testing.T) {
	o := &Optovik{Records: []Record{{Drug: "B"}, {Drug: "A"}, {Drug: "B"}}}
	assert.Equal(t, []string{"B", "A"}, o.Drugs())
}

func TestDrugDictionary_Inspect(t *testing.T) {
	d := &DrugDictionary{Sheet: "Meros", Entries: []DictionaryEntry{
		{Customer: "aspirin 100", Standard: "Aspirin"},
		{Customer: "", Standard: "Nurofen"},
		{Customer: "nurofen", Standard: ""},
		{Customer: "aspirin 100", Standard: "Aspirin"},
	}}

	p := d.Inspect()
	assert.Equal(t, 1, p.MissingCustomer)
	assert.Equal(t, 1, p.MissingStandard)
	assert.Equal(t, []string{"aspirin 100"}, p.Duplicates)
	assert.False(t, p.Empty())
}

func TestDrugDictionary_UnmappedAndStandardize(t *testing.T) {
	d := &DrugDictionary{Entries: []DictionaryEntry{
		{Customer: "asp", Standard: "Aspirin"},
		{Customer: "nur", Standard: ""},
	}}
	o := &Optovik{Records: []Record{{Drug: "asp"}, {Drug: "nur"}, {Drug: "xyz"}, {Drug: "nur"}}}

	assert.Equal(t, []string{"nur", "xyz"}, d.Unmapped(o))

	d.Standardize(o)
	assert.Equal(t, "Aspirin", o.Records[0].Drug)
	assert.Equal(t, "", o.Records[2].Drug)
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		raw        string
		numeric    bool
		percentage bool
		rendered   string
	}{
		{"0.05", true, true, "0.05"},
		{"1", true, true, "1"},
		{"1500", true, false, "1500"},
		{"0", true, false, "0"},
		{"-0.5", true, false, "-0.5"},
		{"", false, false, ""},
		{"n/a", false, false, "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m := ParseMultiplier(tt.raw)
			assert.Equal(t, tt.numeric, m.Numeric)
			assert.Equal(t, tt.percentage, m.IsPercentage())
			assert.Equal(t, tt.rendered, m.String())
		})
	}
}

func TestBudget_Multiplier(t *testing.T) {
	b := NewBudget()
	b.Put(BudgetEntry{Drug: "Aspirin", Vtorichka: ParseMultiplier("0.1"), ByRegion: ParseMultiplier("250")})

	m, ok := b.Multiplier("Aspirin", true)
	require.True(t, ok)
	assert.True(t, m.Value.Equal(decimal.RequireFromString("0.1")))

	m, ok = b.Multiplier("Aspirin", false)
	require.True(t, ok)
	assert.Equal(t, "250", m.String())

	_, ok = b.Multiplier("Nurofen", false)
	assert.False(t, ok)
	assert.Equal(t, []string{"Aspirin"}, b.Drugs())
}

func TestDrugGroups(t *testing.T) {
	dg := NewDrugGroups([]DrugGroup{
		{Name: "Cardio", Products: []string{"Aspirin", "Cardiomagnil"}},
		{Name: "Pain", Products: []string{"Nurofen", "Aspirin"}},
	})

	g, ok := dg.GroupOf("Aspirin")
	require.True(t, ok)
	assert.Equal(t, "Cardio", g)
	assert.True(t, dg.Contains("Pain", "Nurofen"))
	assert.False(t, dg.Contains("Pain", "Aspirin"))
	assert.Equal(t, []string{"Cardio", "Pain"}, dg.Names())
	assert.Equal(t, []string{"Aspirin"}, dg.Duplicates())
}

func TestDataset_Each(t *testing.T) {
	ds := NewDataset()
	ds.Add(&Optovik{Name: "A"})
	ds.Add(&Optovik{Name: "B"})
	ds.Add(&Optovik{Name: "C"})

	var seen []string
	ds.Each(func(o *Optovik) bool {
		seen = append(seen, o.Name)
		return o.Name != "B"
	})
	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestDrugDictionary_Lookup(t *testing.T) {
	d := &DrugDictionary{Entries: []DictionaryEntry{
		{Customer: "asp", Standard: ""},
		{Customer: "asp", Standard: "Aspirin"},
	}}
	got, ok := d.Lookup("asp")
	assert.True(t, ok)
	assert.Equal(t, "Aspirin", got)

	_, ok = d.Lookup("nur")
	assert.False(t, ok)
}

func TestDrugGroups_Products(t *testing.T) {
	dg := NewDrugGroups([]DrugGroup{
		{Name: "Pain", Products: []string{"Aspirin", "Ibuprofen"}},
		{Name: "Fever", Products: []string{"Paracetamol"}},
	})
	assert.Equal(t, []string{"Aspirin", "Ibuprofen", "Paracetamol"}, dg.Products())
}
