package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `-- header
CREATE TABLE a (x Int64);

-- second
CREATE TABLE b (y String)
ENGINE = MergeTree() ORDER BY y;
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int64)", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'a''b'; SELECT 1;`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b'`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'it''s;'`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/market")
	require.NoError(t, err)
	assert.Equal(t, "market", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_runs.sql", "002_orders.sql", "003_trades.sql"}, pg)

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Equal(t, []string{"001_market_ticks.sql", "002_equity_points.sql"}, ch)

	for _, f := range ch {
		data, err := fs.ReadFile(ClickhouseFS, "clickhouse/"+f)
		require.NoError(t, err)
		assert.NoError(t, validateNoSemicolonInStrings(string(data)), f)
		assert.Len(t, splitStatements(string(data)), 1, f)
	}
}
