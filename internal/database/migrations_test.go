package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"stocks",
			"earnings_calls",
			"jobs",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("stocks table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":         "bigint",
			"ticker":     "character varying",
			"name":       "character varying",
			"exchange":   "character varying",
			"created_at": "timestamp without time zone",
			"updated_at": "timestamp without time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'stocks' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in stocks table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("earnings_calls table has correct columns", func(t *testing.T) {
		expectedColumns := []string{
			"id", "stock_id", "date", "quarter", "fiscal_year", "fiscal_quarter",
			"title", "content", "source_url", "created_at", "updated_at",
		}

		for _, colName := range expectedColumns {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.columns
					WHERE table_name = 'earnings_calls' AND column_name = $1
				)
			`, colName).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "column %s should exist in earnings_calls table", colName)
		}
	})

	t.Run("jobs table has correct columns", func(t *testing.T) {
		expectedColumns := []string{
			"id", "name", "stock_id", "status", "retries", "max_retries",
			"run_at", "result", "error", "created_at", "updated_at",
		}

		for _, colName := range expectedColumns {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.columns
					WHERE table_name = 'jobs' AND column_name = $1
				)
			`, colName).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "column %s should exist in jobs table", colName)
		}
	})

	t.Run("indexes exist", func(t *testing.T) {
		expectedIndexes := []struct {
			table string
			index string
		}{
			{"stocks", "idx_stocks_ticker"},
			{"earnings_calls", "idx_earnings_calls_stock_id"},
			{"earnings_calls", "idx_earnings_calls_date"},
			{"earnings_calls", "idx_earnings_calls_quarter"},
			{"jobs", "idx_jobs_status_run_at"},
			{"jobs", "idx_jobs_created_at"},
		}

		for _, idx := range expectedIndexes {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM pg_indexes
					WHERE tablename = $1 AND indexname = $2
				)
			`, idx.table, idx.index).Scan(&exists)

			require.NoError(t, err)
			assert.True(t, exists, "index %s should exist on table %s", idx.index, idx.table)
		}
	})

	t.Run("unique constraints exist", func(t *testing.T) {
		var tickerUnique bool
		err := testDB.GetRawConn().QueryRow(`
			SELECT EXISTS (
				SELECT FROM pg_constraint c
				JOIN pg_class t ON c.conrelid = t.oid
				WHERE t.relname = 'stocks'
				AND c.contype = 'u'
				AND c.conname LIKE '%ticker%'
			)
		`).Scan(&tickerUnique)
		require.NoError(t, err)
		assert.True(t, tickerUnique, "stocks.ticker should have unique constraint")
	})

	t.Run("foreign keys exist", func(t *testing.T) {
		var earningsFK bool
		err := testDB.GetRawConn().QueryRow(`
			SELECT EXISTS (
				SELECT FROM pg_constraint c
				JOIN pg_class t ON c.conrelid = t.oid
				WHERE t.relname = 'earnings_calls'
				AND c.contype = 'f'
			)
		`).Scan(&earningsFK)
		require.NoError(t, err)
		assert.True(t, earningsFK, "earnings_calls should have foreign key to stocks")
	})
}
