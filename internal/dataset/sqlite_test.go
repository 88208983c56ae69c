package dataset

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/schema"
)

func writeTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE sales (id INTEGER, amount REAL, date TEXT, region TEXT)`,
		`INSERT INTO sales VALUES (1, 1200, '2023-01-15', 'North')`,
		`INSERT INTO sales VALUES (2, 800.5, '2023-01-16', 'South')`,
		`CREATE TABLE "order" (id INTEGER)`,
		`INSERT INTO "order" VALUES (7)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestFromSQLite(t *testing.T) {
	reg, err := schema.NewRegistry([]schema.Table{
		{Name: "sales", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
			{Name: "amount", Type: schema.TypeNumeric},
			{Name: "date", Type: schema.TypeDate},
			{Name: "region", Type: schema.TypeText},
		}},
		// Reserved word as a table name; identifier quoting must hold.
		{Name: "order", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
		}},
	})
	require.NoError(t, err)

	src, err := FromSQLite(writeTestDB(t), reg)
	require.NoError(t, err)

	rows, err := src.Rows("sales")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Integer and real cells both land as float64; text cells as string.
	assert.Equal(t, 1200.0, rows[0]["amount"])
	assert.Equal(t, 800.5, rows[1]["amount"])
	assert.Equal(t, "2023-01-15", rows[0]["date"])
	assert.Equal(t, "North", rows[0]["region"])

	rows, err = src.Rows("order")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7.0, rows[0]["id"])
}

func TestFromSQLite_MissingTable(t *testing.T) {
	reg, err := schema.NewRegistry([]schema.Table{
		{Name: "invoices", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
		}},
	})
	require.NoError(t, err)

	_, err = FromSQLite(writeTestDB(t), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scan table "invoices"`)
}

func TestCoerceCell(t *testing.T) {
	numeric := schema.Column{Name: "amount", Type: schema.TypeNumeric}
	text := schema.Column{Name: "region", Type: schema.TypeText}

	v, err := coerceCell(int64(5), numeric)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	v, err = coerceCell([]byte("North"), text)
	require.NoError(t, err)
	assert.Equal(t, "North", v)

	_, err = coerceCell("oops", numeric)
	require.Error(t, err)

	_, err = coerceCell(int64(5), text)
	require.Error(t, err)
}
