// Package dataset provides read-only row access for the query core.
//
// The core only requires the Source interface; the backing data may be
// an in-memory seed (Memory) or a SQLite file scanned once at startup
// (FromSQLite). Either way the snapshot never changes after startup, so
// concurrent readers need no locking.
package dataset

import "fmt"

// Row is a single data row keyed by column name.
// Numeric cells are float64; text and date cells are string
// (dates use the YYYY-MM-DD form).
type Row map[string]any

// Source provides read-only row access per table.
type Source interface {
	// Rows returns all rows of the named table in stable source order.
	Rows(table string) ([]Row, error)
}

// Memory is an immutable in-memory snapshot of table rows.
type Memory struct {
	tables map[string][]Row
}

// NewMemory builds a Memory source from pre-typed rows.
func NewMemory(tables map[string][]Row) *Memory {
	return &Memory{tables: tables}
}

// FromSeed builds a Memory source from loader seed data
// (schema.LoadResult.Seed has this shape).
func FromSeed(seed map[string][]map[string]any) *Memory {
	tables := make(map[string][]Row, len(seed))
	for name, raw := range seed {
		rows := make([]Row, len(raw))
		for i, r := range raw {
			rows[i] = Row(r)
		}
		tables[name] = rows
	}
	return &Memory{tables: tables}
}

// Rows implements Source. Unknown tables are an error here rather than
// an empty result: callers validate table existence against the schema
// registry first, so reaching an unknown table indicates a wiring bug.
func (m *Memory) Rows(table string) ([]Row, error) {
	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown table %q", table)
	}
	return rows, nil
}
