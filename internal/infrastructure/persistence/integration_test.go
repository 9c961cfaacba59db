//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/pharmdist/salesflow/internal/application/warehouse"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresWarehouse starts a postgres container and applies the embedded migrations
func newPostgresWarehouse(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sales_dw_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	return Wrap(db)
}

func TestIntegration_WarehouseLoad(t *testing.T) {
	ctx := context.Background()
	d := newPostgresWarehouse(t)
	repo := NewGormWarehouseRepository(d.DB, 2)
	loader := warehouse.NewLoader(repo, nil, zap.NewNop())

	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	ds := sales.NewDataset()
	ds.Add(&sales.Optovik{Name: "Meros", Records: []sales.Record{
		{Drug: "Aspirin", Client: "Apteka 1", Region: "R1", Territory: "T1",
			Quantity: decimal.NewFromInt(2), TotalSales: decimal.NewFromInt(10), Date: &day},
		{Drug: "Nurofen", Client: "Apteka 2", Region: "R2", Territory: "T2",
			Quantity: decimal.RequireFromString("1.5"), TotalSales: decimal.RequireFromString("4.25"), Date: &day},
		{Drug: "Nurofen", Client: "Apteka 3", Region: "R2", Territory: "T2",
			Quantity: decimal.NewFromInt(1), TotalSales: decimal.NewFromInt(3), Date: &day},
	}})
	groups := sales.NewDrugGroups([]sales.DrugGroup{{Name: "Pain", Products: []string{"Aspirin", "Nurofen"}}})

	first, err := loader.Run(ctx, ds, groups)
	require.NoError(t, err)
	assert.Equal(t, 3, first.FactsLoaded)

	second, err := loader.Run(ctx, ds, groups)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FactsLoaded)

	locations := NewGormCustomerLocationRepository(d.DB)
	found, err := locations.FindLocations(ctx, []string{"Apteka 2"})
	require.NoError(t, err)
	assert.Equal(t, "T2", found["Apteka 2"].Territory)

	run, err := repo.FindRun(ctx, second.RunID.String())
	require.NoError(t, err)
	assert.Equal(t, "success", string(run.Status))
}
