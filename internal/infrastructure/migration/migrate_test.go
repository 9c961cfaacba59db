package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	names, err := List()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_warehouse", "000002_create_etl_run_log"}, names)
}

func TestMigrationPairs(t *testing.T) {
	names, err := List()
	require.NoError(t, err)

	for _, name := range names {
		up, err := fs.ReadFile(migrationFiles, sourceDir+"/"+name+".up.sql")
		require.NoError(t, err)
		down, err := fs.ReadFile(migrationFiles, sourceDir+"/"+name+".down.sql")
		require.NoError(t, err, "missing down migration for %s", name)
		assert.NotEmpty(t, strings.TrimSpace(string(up)))
		assert.Contains(t, string(down), "DROP TABLE")
	}
}

func TestWarehouseSchema(t *testing.T) {
	up, err := fs.ReadFile(migrationFiles, sourceDir+"/000001_create_warehouse.up.sql")
	require.NoError(t, err)
	sql := string(up)

	for _, table := range []string{"dim_optovik", "dim_customer", "dim_product", "dim_time", "fact_sales"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, sql, "row_hash    CHAR(64) NOT NULL UNIQUE")
	assert.Contains(t, sql, "UNIQUE (year, month, day)")
}
