package dataset

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tabletalk/tabletalk/internal/schema"
)

// FromSQLite scans every registry table out of a SQLite file into a
// Memory snapshot and closes the database before returning.
//
// The scan happens once at startup; serving never touches SQLite again,
// which keeps the per-request path free of I/O and locking. Cell values
// are coerced to the registry's declared column types (float64 for
// numeric, string for text and date).
func FromSQLite(path string, reg *schema.Registry) (*Memory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// also avoids SQLITE_BUSY during the startup scan.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA query_only = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	tables := make(map[string][]Row)
	for _, t := range reg.Tables() {
		rows, err := scanTable(db, t)
		if err != nil {
			return nil, fmt.Errorf("scan table %q: %w", t.Name, err)
		}
		tables[t.Name] = rows
	}
	return &Memory{tables: tables}, nil
}

// scanTable reads all rows of one table in rowid order so the snapshot
// has a stable source order across restarts.
func scanTable(db *sql.DB, t schema.Table) ([]Row, error) {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(cols, ", "), quoteIdent(t.Name))

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		cells := make([]any, len(t.Columns))
		ptrs := make([]any, len(t.Columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(t.Columns))
		for i, c := range t.Columns {
			v, err := coerceCell(cells[i], c)
			if err != nil {
				return nil, err
			}
			row[c.Name] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// coerceCell converts a driver value to the declared column type.
func coerceCell(v any, c schema.Column) (any, error) {
	switch c.Type {
	case schema.TypeNumeric:
		switch n := v.(type) {
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		default:
			return nil, fmt.Errorf("column %q: want numeric cell, got %T", c.Name, v)
		}
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		default:
			return nil, fmt.Errorf("column %q: want text cell, got %T", c.Name, v)
		}
	}
}

// quoteIdent quotes an identifier for SQLite. Registry names come from
// trusted spec files, but quoting keeps reserved words working.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
