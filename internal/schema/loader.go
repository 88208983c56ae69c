package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Error code constants for spec loading - shared with the CLI layer.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeBadSpec     = "E007" // Spec content invalid
)

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult contains the registry and seed data loaded from CUE specs.
//
// Seed maps table name to its seeded rows. Row values are float64 for
// numeric columns and string for text and date columns; the dataset
// package consumes this shape directly.
type LoadResult struct {
	Registry  *Registry
	Seed      map[string][]map[string]any
	FileCount int // Number of CUE files found
}

// LoadSpecs loads table definitions and seed rows from CUE files in a
// directory. The expected spec shape is:
//
//	table: sales: {
//	    columns: [{name: "amount", type: "numeric"}, ...]
//	    rows: [{amount: 1200, ...}, ...]
//	}
//
// Loading is fail-fast: the first structural problem is returned as a
// *LoadError with a position when CUE can provide one.
func LoadSpecs(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	// Package "*" matches both packaged and package-less CUE files; cue
	// v0.9 excludes package-less files from directory loads by default.
	cfg := &load.Config{Dir: dir, Package: "*"}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	result, err := FromValue(value)
	if err != nil {
		return nil, err
	}
	result.FileCount = len(cueFiles)
	return result, nil
}

// FromValue extracts a LoadResult from an already-built CUE value.
// Exposed separately so tests can use cuecontext.CompileString without
// touching the filesystem.
func FromValue(value cue.Value) (*LoadResult, error) {
	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeBadSpec, Message: "no table definitions found in specs"}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("iterating tables: %v", err)}
	}

	var tables []Table
	seed := make(map[string][]map[string]any)
	for iter.Next() {
		table, rows, err := parseTable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
		seed[table.Name] = rows
	}

	registry, err := NewRegistry(tables)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadSpec, Message: err.Error()}
	}
	return &LoadResult{Registry: registry, Seed: seed}, nil
}

// parseTable parses one table struct: its column list and optional rows.
func parseTable(name string, v cue.Value) (Table, []map[string]any, error) {
	table := Table{Name: name}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return table, nil, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: columns is required", name), Pos: v.Pos()}
	}
	colIter, err := colsVal.List()
	if err != nil {
		return table, nil, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: columns must be a list: %v", name, err), Pos: colsVal.Pos()}
	}
	for colIter.Next() {
		col, err := parseColumn(name, colIter.Value())
		if err != nil {
			return table, nil, err
		}
		table.Columns = append(table.Columns, col)
	}
	if len(table.Columns) == 0 {
		return table, nil, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: at least one column is required", name), Pos: v.Pos()}
	}

	rowsVal := v.LookupPath(cue.ParsePath("rows"))
	if !rowsVal.Exists() {
		return table, nil, nil
	}
	rowIter, err := rowsVal.List()
	if err != nil {
		return table, nil, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: rows must be a list: %v", name, err), Pos: rowsVal.Pos()}
	}
	var rows []map[string]any
	idx := 0
	for rowIter.Next() {
		row, err := parseRow(table, idx, rowIter.Value())
		if err != nil {
			return table, nil, err
		}
		rows = append(rows, row)
		idx++
	}
	return table, rows, nil
}

func parseColumn(table string, v cue.Value) (Column, error) {
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return Column{}, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: column name is required", table), Pos: v.Pos()}
	}
	colName, err := nameVal.String()
	if err != nil {
		return Column{}, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: column name: %v", table, err), Pos: nameVal.Pos()}
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return Column{}, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: column %q: type is required", table, colName), Pos: v.Pos()}
	}
	typeStr, err := typeVal.String()
	if err != nil {
		return Column{}, &LoadError{Code: ErrCodeBadSpec, Message: fmt.Sprintf("table %q: column %q: type: %v", table, colName, err), Pos: typeVal.Pos()}
	}
	ct := ColumnType(typeStr)
	if !ct.Valid() {
		return Column{}, &LoadError{
			Code:    ErrCodeBadSpec,
			Message: fmt.Sprintf("table %q: column %q: unknown type %q (want numeric, text, or date)", table, colName, typeStr),
			Pos:     typeVal.Pos(),
		}
	}
	return Column{Name: colName, Type: ct}, nil
}

// parseRow decodes one seed row, typing each cell by its column's
// declared type: numeric cells become float64, text and date cells
// become string.
func parseRow(table Table, idx int, v cue.Value) (map[string]any, error) {
	row := make(map[string]any, len(table.Columns))
	for _, col := range table.Columns {
		cell := v.LookupPath(cue.ParsePath(col.Name))
		if !cell.Exists() {
			return nil, &LoadError{
				Code:    ErrCodeBadSpec,
				Message: fmt.Sprintf("table %q: row %d: missing value for column %q", table.Name, idx, col.Name),
				Pos:     v.Pos(),
			}
		}
		switch col.Type {
		case TypeNumeric:
			n, err := cell.Float64()
			if err != nil {
				return nil, &LoadError{
					Code:    ErrCodeBadSpec,
					Message: fmt.Sprintf("table %q: row %d: column %q: want number: %v", table.Name, idx, col.Name, err),
					Pos:     cell.Pos(),
				}
			}
			row[col.Name] = n
		case TypeText, TypeDate:
			s, err := cell.String()
			if err != nil {
				return nil, &LoadError{
					Code:    ErrCodeBadSpec,
					Message: fmt.Sprintf("table %q: row %d: column %q: want string: %v", table.Name, idx, col.Name, err),
					Pos:     cell.Pos(),
				}
			}
			row[col.Name] = s
		}
	}
	return row, nil
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
