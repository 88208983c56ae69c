// Package schema holds the static description of tables, columns, and
// column types that every other component reads.
//
// A Registry is built once at startup (usually from CUE spec files, see
// loader.go) and is immutable afterward. Concurrent readers need no
// locking because nothing mutates post-construction.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ColumnType classifies a column for operation compatibility checks.
// SUM and AVG require TypeNumeric; RANGE conditions normally target
// TypeDate columns.
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeText    ColumnType = "text"
	TypeDate    ColumnType = "date"
)

// Valid reports whether ct is one of the declared column types.
func (ct ColumnType) Valid() bool {
	switch ct {
	case TypeNumeric, TypeText, TypeDate:
		return true
	}
	return false
}

// Column describes a single column of a table.
type Column struct {
	Name string
	Type ColumnType
}

// Table describes a named table and its ordered column list.
// Column names are unique within a table (enforced by NewRegistry).
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column, matching case-insensitively.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// FirstOfType returns the first column with the given type, in declared
// order. Used by the resolver for documented defaults (e.g. SUM with no
// column targets the first numeric column).
func (t Table) FirstOfType(ct ColumnType) (Column, bool) {
	for _, c := range t.Columns {
		if c.Type == ct {
			return c, true
		}
	}
	return Column{}, false
}

// Registry is the read-only catalog of known tables.
type Registry struct {
	tables map[string]Table
	names  []string // sorted for deterministic listings
}

// NewRegistry builds a Registry from table definitions.
// Rejects duplicate table names, duplicate column names within a table,
// and undeclared column types.
func NewRegistry(tables []Table) (*Registry, error) {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		key := strings.ToLower(t.Name)
		if _, dup := r.tables[key]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("table %q has no columns", t.Name)
		}
		seen := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			ck := strings.ToLower(c.Name)
			if seen[ck] {
				return nil, fmt.Errorf("table %q: duplicate column %q", t.Name, c.Name)
			}
			seen[ck] = true
			if !c.Type.Valid() {
				return nil, fmt.Errorf("table %q: column %q has unknown type %q", t.Name, c.Name, c.Type)
			}
		}
		r.tables[key] = t
		r.names = append(r.names, t.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Table returns the named table, matching case-insensitively.
func (r *Registry) Table(name string) (Table, bool) {
	t, ok := r.tables[strings.ToLower(name)]
	return t, ok
}

// Column returns the named column of the named table.
func (r *Registry) Column(table, column string) (Column, bool) {
	t, ok := r.Table(table)
	if !ok {
		return Column{}, false
	}
	return t.Column(column)
}

// TableNames returns all table names in sorted order.
func (r *Registry) TableNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Tables returns all table definitions in name-sorted order.
func (r *Registry) Tables() []Table {
	out := make([]Table, 0, len(r.names))
	for _, n := range r.names {
		t, _ := r.Table(n)
		out = append(out, t)
	}
	return out
}

// maxSuggestDistance bounds how dissimilar a name can be before a
// suggestion would mislead more than help.
const maxSuggestDistance = 3

// Nearest returns the known table name closest to the given name by
// Levenshtein distance, for "did you mean" suggestions. Returns false
// when no table is within maxSuggestDistance.
func (r *Registry) Nearest(name string) (string, bool) {
	best, bestDist := "", maxSuggestDistance+1
	lower := strings.ToLower(name)
	for _, n := range r.names {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(n))
		if d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, best != ""
}
