package warehouse

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func testDataset() *sales.Dataset {
	ds := sales.NewDataset()
	ds.Add(&sales.Optovik{Name: "Meros", Records: []sales.Record{
		{Drug: "Aspirin", Client: "Apteka 1", Region: "Ташкент", Territory: "Чиланзар",
			Quantity: decimal.NewFromInt(2), TotalSales: decimal.NewFromInt(10), Date: day(2025, 3, 4)},
		{Drug: "Vitamin C", Client: "Apteka 2", Region: "Самарканд", Territory: "Центр",
			Quantity: decimal.NewFromInt(1), TotalSales: decimal.NewFromInt(3)},
	}})
	ds.Add(&sales.Optovik{Name: "Grand", Records: []sales.Record{
		{Drug: "Aspirin", Client: "Apteka 1", Region: "Ташкент", Territory: "Чиланзар",
			Quantity: decimal.NewFromInt(5), TotalSales: decimal.NewFromInt(25), Date: day(2025, 3, 5)},
	}})
	return ds
}

func TestTransform(t *testing.T) {
	groups := sales.NewDrugGroups([]sales.DrugGroup{{Name: "Pain", Products: []string{"Aspirin"}}})

	rows := Transform(testDataset(), groups)

	require.Len(t, rows, 3)
	assert.Equal(t, "Meros", rows[0].Optovik)
	assert.Equal(t, "Pain", rows[0].ProductGroup)
	assert.Equal(t, "", rows[1].ProductGroup)
	assert.Equal(t, "Grand", rows[2].Optovik)
	assert.True(t, rows[2].Quantity.Equal(decimal.NewFromInt(5)))

	key, ok := rows[0].DateKey()
	assert.True(t, ok)
	assert.Equal(t, DateKey{Year: 2025, Month: 3, Day: 4}, key)
	_, ok = rows[1].DateKey()
	assert.False(t, ok)
}

func TestTransform_NilGroups(t *testing.T) {
	rows := Transform(testDataset(), nil)
	for _, r := range rows {
		assert.Empty(t, r.ProductGroup)
	}
}

func TestConflictingCustomers(t *testing.T) {
	rows := []FactRow{
		{Customer: "B", Region: "R1", Territory: "T1"},
		{Customer: "A", Region: "R1", Territory: "T1"},
		{Customer: "B", Region: "R1", Territory: "T2"},
		{Customer: "A", Region: "R1", Territory: "T1"},
		{Customer: "C", Region: "R2", Territory: "T1"},
		{Customer: "C", Region: "R3", Territory: "T1"},
	}
	assert.Equal(t, []string{"B", "C"}, ConflictingCustomers(rows))
	assert.Empty(t, ConflictingCustomers(rows[:2]))
}

func TestMembers(t *testing.T) {
	rows := Transform(testDataset(), sales.NewDrugGroups([]sales.DrugGroup{{Name: "Pain", Products: []string{"Aspirin"}}}))

	optoviks := Members(OptovikDimension, rows)
	require.Len(t, optoviks, 2)
	assert.Equal(t, "Meros", optoviks[0].Key)
	assert.Nil(t, optoviks[0].Attributes)

	customers := Members(CustomerDimension, rows)
	require.Len(t, customers, 2)
	assert.Equal(t, map[string]string{"region": "Ташкент", "territory": "Чиланзар"}, customers[0].Attributes)

	products := Members(ProductDimension, rows)
	require.Len(t, products, 2)
	assert.Equal(t, "Pain", products[0].Attributes["product_groups"])
	assert.Equal(t, "", products[1].Attributes["product_groups"])
}

func TestMember_Changed(t *testing.T) {
	m := Member{Key: "A", Attributes: map[string]string{"region": "R1", "territory": ""}}
	attrs := CustomerDimension.Attributes

	assert.False(t, m.Changed(map[string]string{"region": "R1"}, attrs))
	assert.True(t, m.Changed(map[string]string{"region": "R2"}, attrs))
	assert.True(t, m.Changed(map[string]string{"region": "R1", "territory": "T"}, attrs))
	assert.False(t, Member{Key: "X"}.Changed(nil, nil))
}

func TestRowHash(t *testing.T) {
	qty := decimal.RequireFromString("2.5")
	total := decimal.NewFromInt(10)

	h := RowHash(1, 2, 3, 4, qty, total)
	assert.Len(t, h, 64)
	assert.Equal(t, h, RowHash(1, 2, 3, 4, qty, total))
	assert.NotEqual(t, h, RowHash(1, 2, 3, 5, qty, total))

	f := NewFact(1, 2, 3, 4, qty, total)
	assert.Equal(t, h, f.RowHash)
	assert.Equal(t, int64(4), f.TimeID)
}

func TestRunLog(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	run := NewRunLog(uuid.New(), start)
	assert.Equal(t, RunInProgress, run.Status)
	assert.Nil(t, run.FinishedAt)

	run.Finish(start.Add(time.Minute), nil)
	assert.Equal(t, RunSuccess, run.Status)
	require.NotNil(t, run.FinishedAt)

	failed := NewRunLog(uuid.New(), start)
	failed.Finish(start, errors.New("boom"))
	assert.Equal(t, RunFailed, failed.Status)
	assert.Equal(t, "boom", failed.ErrorMessage)
}
