package geocode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/domain/territory"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const regionsJSON = `{
  "Ташкент": ["Ташкент", "г. Ташкент", "Toshkent"],
  "Самарканд": ["Самарканд"]
}`

const territoriesJSON = `{
  "Ташкент": {
    "Ташкент город": {
      "Чиланзар": [["Чиланзар", "Chilonzor"]],
      "Юнусабад": [["Юнусабад"]]
    }
  },
  "Самарканд": {
    "Самарканд": {
      "Ургут": [["Ургут"]]
    }
  }
}`

type mockLocationRepo struct {
	mock.Mock
}

func (m *mockLocationRepo) HasCustomers(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockLocationRepo) FindLocations(ctx context.Context, customers []string) (map[string]territory.Location, error) {
	args := m.Called(ctx, customers)
	if v := args.Get(0); v != nil {
		return v.(map[string]territory.Location), args.Error(1)
	}
	return nil, args.Error(1)
}

func newResolver(t *testing.T) *territory.Resolver {
	t.Helper()
	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.json")
	territoriesPath := filepath.Join(dir, "territories.json")
	require.NoError(t, os.WriteFile(regionsPath, []byte(regionsJSON), 0o644))
	require.NoError(t, os.WriteFile(territoriesPath, []byte(territoriesJSON), 0o644))

	regions, err := territory.LoadRegionMapping(regionsPath)
	require.NoError(t, err)
	patterns, err := territory.LoadPatterns(territoriesPath)
	require.NoError(t, err)
	return territory.NewResolver(regions, patterns)
}

func newService(t *testing.T, repo territory.CustomerLocationRepository, opts Options) *Service {
	t.Helper()
	dir := t.TempDir()
	opts.Labels = sales.DefaultLabels()
	if opts.CorrectionsPath == "" {
		opts.CorrectionsPath = filepath.Join(dir, "regions_to_be_corrected.xlsx")
	}
	if opts.ExportPath == "" {
		opts.ExportPath = filepath.Join(dir, "to_fix", "regions_manual_correction.xlsx")
	}
	return NewService(newResolver(t), repo, opts, zap.NewNop())
}

func dataset() *sales.Dataset {
	ds := sales.NewDataset()
	ds.Add(&sales.Optovik{Name: "Meros", Records: []sales.Record{
		{Client: "Apteka 1", Region: "г. Ташкент", Territory: "ул. Чиланзар, 5"},
		{Client: "Apteka 2", Region: "Самарканд", Territory: "неизвестно"},
		{Client: "Apteka 3", Region: "", Territory: ""},
	}})
	ds.Add(&sales.Optovik{Name: "Grand", Records: []sales.Record{
		{Client: "Apteka 3", Region: "Москва", Territory: "Арбат"},
		{Client: "Apteka 4", Region: "Toshkent", Territory: "Юнусабад 12"},
	}})
	return ds
}

func TestService_Assign_Patterns(t *testing.T) {
	svc := newService(t, nil, Options{})
	ds := dataset()

	require.NoError(t, svc.Assign(context.Background(), ds))

	meros, _ := ds.Get("Meros")
	assert.Equal(t, "Ташкент город", meros.Records[0].Region)
	assert.Equal(t, "Чиланзар", meros.Records[0].Territory)
	assert.Equal(t, "Самарканд", meros.Records[1].Region)
	assert.Empty(t, meros.Records[1].Territory)
	assert.Empty(t, meros.Records[2].Region)

	grand, _ := ds.Get("Grand")
	assert.Empty(t, grand.Records[0].Region)
	assert.Equal(t, "Юнусабад", grand.Records[1].Territory)
}

func TestService_Assign_Database(t *testing.T) {
	repo := new(mockLocationRepo)
	repo.On("HasCustomers", mock.Anything).Return(true, nil)
	repo.On("FindLocations", mock.Anything, []string{"Apteka 2", "Apteka 3"}).Return(map[string]territory.Location{
		"Apteka 2": {Customer: "Apteka 2", Region: "Самарканд", Territory: "Ургут"},
	}, nil).Once()
	repo.On("FindLocations", mock.Anything, []string{"Apteka 3"}).Return(map[string]territory.Location{
		"Apteka 3": {Customer: "Apteka 3", Region: "Ташкент город", Territory: ""},
	}, nil).Once()

	svc := newService(t, repo, Options{RegionMatching: true})
	ds := dataset()
	require.NoError(t, svc.Assign(context.Background(), ds))

	meros, _ := ds.Get("Meros")
	assert.Equal(t, "Ургут", meros.Records[1].Territory)
	assert.Empty(t, meros.Records[2].Region)

	grand, _ := ds.Get("Grand")
	assert.Equal(t, "Ташкент город", grand.Records[0].Region)
	assert.Empty(t, grand.Records[0].Territory)
	repo.AssertExpectations(t)
}

func TestService_Assign_DatabaseChunks(t *testing.T) {
	repo := new(mockLocationRepo)
	repo.On("HasCustomers", mock.Anything).Return(true, nil)
	repo.On("FindLocations", mock.Anything, []string{"Apteka 2"}).Return(map[string]territory.Location{}, nil).Once()
	repo.On("FindLocations", mock.Anything, []string{"Apteka 3"}).Return(map[string]territory.Location{}, nil).Twice()

	svc := newService(t, repo, Options{RegionMatching: true, ChunkSize: 1})
	require.NoError(t, svc.Assign(context.Background(), dataset()))
	repo.AssertNumberOfCalls(t, "FindLocations", 3)
}

func TestService_Assign_DatabaseUnavailable(t *testing.T) {
	repo := new(mockLocationRepo)
	repo.On("HasCustomers", mock.Anything).Return(false, errors.New("connection refused"))

	svc := newService(t, repo, Options{RegionMatching: true})
	require.NoError(t, svc.Assign(context.Background(), dataset()))
	repo.AssertNotCalled(t, "FindLocations", mock.Anything, mock.Anything)
}

func TestService_Assign_DatabaseDisabled(t *testing.T) {
	repo := new(mockLocationRepo)
	svc := newService(t, repo, Options{RegionMatching: false})
	require.NoError(t, svc.Assign(context.Background(), dataset()))
	repo.AssertNotCalled(t, "HasCustomers", mock.Anything)
}

func TestService_Assign_LookupError(t *testing.T) {
	repo := new(mockLocationRepo)
	repo.On("HasCustomers", mock.Anything).Return(true, nil)
	repo.On("FindLocations", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	svc := newService(t, repo, Options{RegionMatching: true})
	err := svc.Assign(context.Background(), dataset())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Meros")
}

func writeCorrections(t *testing.T, path string, rows ...[]any) {
	t.Helper()
	f, err := workbook.NewFile("Sheet1")
	require.NoError(t, err)
	defer f.Close()
	for i, row := range rows {
		require.NoError(t, f.SetSheetRow("Sheet1", workbook.CellName(1, i+1), &row))
	}
	require.NoError(t, workbook.SaveAs(f, path))
}

func TestService_Assign_ManualCorrections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrected.xlsx")
	writeCorrections(t, path,
		[]any{"Клиент", "Регион", "Территори"},
		[]any{"Apteka 3", "Самарканд", "Ургут"},
		[]any{},
		[]any{"Apteka 3", "Ташкент город", "Юнусабад"},
		[]any{"Apteka 2", "Самарканд", "Ургут"},
	)
	svc := newService(t, nil, Options{CorrectionsPath: path})
	ds := dataset()
	require.NoError(t, svc.Assign(context.Background(), ds))

	meros, _ := ds.Get("Meros")
	assert.Equal(t, "Самарканд", meros.Records[1].Region)
	assert.Equal(t, "Ургут", meros.Records[1].Territory)
	assert.Equal(t, "Ташкент город", meros.Records[2].Region)
	assert.Equal(t, "Юнусабад", meros.Records[2].Territory)

	grand, _ := ds.Get("Grand")
	assert.Equal(t, "Ташкент город", grand.Records[0].Region)
	assert.Equal(t, "Ташкент город", grand.Records[1].Region)
}

func TestService_Assign_ManualCorrectionsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrected.xlsx")
	writeCorrections(t, path,
		[]any{"Клиент", "Регион"},
		[]any{"Apteka 3", "Самарканд"},
	)
	svc := newService(t, nil, Options{CorrectionsPath: path})

	err := svc.Assign(context.Background(), dataset())
	ee, ok := shared.AsExpected(err)
	require.True(t, ok)
	assert.Equal(t, shared.ErrCodeManualCorrection, ee.Code)
	assert.Contains(t, ee.Error(), "Территори")
}

func TestService_Assign_ManualCorrectionsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrected.xlsx")
	writeCorrections(t, path,
		[]any{"Клиент", "Регион", "Территори"},
		[]any{"Apteka 3", "Самарканд", "Ургут"},
		[]any{"Apteka 5", "Moscow", "Ургут"},
		[]any{"Apteka 6", "Самарканд", ""},
	)
	svc := newService(t, nil, Options{CorrectionsPath: path})

	err := svc.Assign(context.Background(), dataset())
	ee, ok := shared.AsExpected(err)
	require.True(t, ok)
	assert.Equal(t, shared.ErrCodeManualCorrection, ee.Code)
	msg := ee.Error()
	assert.Contains(t, msg, "2 rows with invalid region or territory names")
	assert.Contains(t, msg, "Moscow | Ургут")
	assert.Contains(t, msg, "Самарканд | (empty)")
	assert.Contains(t, msg, "📌 Valid Regions: Самарканд, Ташкент город")
	assert.Contains(t, msg, "📌 Valid Territories: Ургут, Чиланзар, Юнусабад")
}

func TestService_ExtractMissing(t *testing.T) {
	svc := newService(t, nil, Options{})
	ds := dataset()
	require.NoError(t, svc.Assign(context.Background(), ds))

	path, ok, err := svc.ExtractMissing(ds)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "regions_manual_correction_v1.xlsx", filepath.Base(path))

	book, err := workbook.Open(path)
	require.NoError(t, err)
	defer book.Close()
	sheet, err := book.ReadSheet("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Клиент", "Регион", "Территори", "Sheet"}, sheet.Header)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Apteka 2", sheet.Rows[0].Cell(1))
	assert.Equal(t, "Meros", sheet.Rows[0].Cell(4))
	assert.Equal(t, "Apteka 3", sheet.Rows[1].Cell(1))
	assert.Equal(t, "Meros", sheet.Rows[1].Cell(4))

	second, ok, err := svc.ExtractMissing(ds)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "regions_manual_correction_v2.xlsx", filepath.Base(second))
}

func TestService_ExtractMissing_NothingMissing(t *testing.T) {
	svc := newService(t, nil, Options{})
	ds := sales.NewDataset()
	ds.Add(&sales.Optovik{Name: "Meros", Records: []sales.Record{
		{Client: "A", Region: "R", Territory: "T"},
	}})

	path, ok, err := svc.ExtractMissing(ds)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestMissingLocationsError(t *testing.T) {
	err := MissingLocationsError("/tmp/export_v1.xlsx", "/tmp/corrected.xlsx")
	assert.True(t, shared.IsExpected(err))
	assert.Contains(t, err.Error(), "/tmp/export_v1.xlsx")
	assert.Contains(t, err.Error(), "/tmp/corrected.xlsx")
}
