// Package exec runs validated intents against the in-memory dataset
// snapshot: conditions are applied first (logical AND), then the
// aggregate or selection.
//
// Callers validate before executing; the executor assumes a valid
// intent and turns any remaining data-level anomaly into a typed
// *Error, never a fault.
package exec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/intent"
)

// MaxResultRows caps FILTER and SELECT_ALL result sets. Unbounded row
// sets are a resource risk; Result.Truncated reports when the cap
// applied.
const MaxResultRows = 100

// NoteNoMatchingRows is the documented sentinel for AVG over zero
// matching rows: the result carries Value 0 and this note instead of an
// undefined division.
const NoteNoMatchingRows = "no matching rows"

// Result is the outcome of executing one intent. Aggregates fill
// Value/Count; FILTER and SELECT_ALL fill Rows (bounded) with Count
// holding the full match count before truncation.
type Result struct {
	Op     intent.OpKind `json:"operation"`
	Table  string        `json:"table"`
	Column string        `json:"column,omitempty"`

	Value     float64       `json:"value"`
	Count     int           `json:"count"`
	Rows      []dataset.Row `json:"rows,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Note      string        `json:"note,omitempty"`
}

// Error is a data-level execution failure after validation passed,
// e.g. a non-numeric cell inside a numeric column.
type Error struct {
	Op      intent.OpKind
	Table   string
	Column  string
	Message string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("execute %s on %s.%s: %s", e.Op, e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("execute %s on %s: %s", e.Op, e.Table, e.Message)
}

// IsExecError reports whether err is an execution error.
// Uses errors.As to handle wrapped errors.
func IsExecError(err error) bool {
	var ee *Error
	return errors.As(err, &ee)
}

// Run executes a validated intent against the dataset.
func Run(src dataset.Source, in intent.Intent) (Result, error) {
	out := Result{Op: in.Op, Table: in.Table, Column: in.Column}

	rows, err := src.Rows(in.Table)
	if err != nil {
		return out, &Error{Op: in.Op, Table: in.Table, Message: err.Error()}
	}
	matched := filterRows(rows, in.Conditions)
	out.Count = len(matched)

	switch in.Op {
	case intent.OpSum:
		total, err := sumColumn(matched, in)
		if err != nil {
			return out, err
		}
		out.Value = total

	case intent.OpAvg:
		if len(matched) == 0 {
			out.Note = NoteNoMatchingRows
			break
		}
		total, err := sumColumn(matched, in)
		if err != nil {
			return out, err
		}
		out.Value = total / float64(len(matched))

	case intent.OpCount:
		// Count is already the filtered row count.

	case intent.OpFilter, intent.OpSelectAll:
		out.Rows = matched
		if len(out.Rows) > MaxResultRows {
			out.Rows = out.Rows[:MaxResultRows]
			out.Truncated = true
		}

	default:
		return out, &Error{Op: in.Op, Table: in.Table, Message: "unknown operation"}
	}

	return out, nil
}

// sumColumn folds the target column over the matched rows.
func sumColumn(rows []dataset.Row, in intent.Intent) (float64, error) {
	var total float64
	for _, row := range rows {
		n, ok := row[in.Column].(float64)
		if !ok {
			return 0, &Error{
				Op:      in.Op,
				Table:   in.Table,
				Column:  in.Column,
				Message: fmt.Sprintf("non-numeric value %v", row[in.Column]),
			}
		}
		total += n
	}
	return total, nil
}

// filterRows returns rows satisfying every condition (logical AND).
// Rows whose cells cannot be compared simply do not match; filtering
// never fails.
func filterRows(rows []dataset.Row, conds []intent.Condition) []dataset.Row {
	if len(conds) == 0 {
		return rows
	}
	out := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		pass := true
		for _, cond := range conds {
			if !matches(row, cond) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, row)
		}
	}
	return out
}

// matches evaluates one condition against one row.
// EQ is exact (case-insensitive for text), GT/LT use numeric or date
// ordering, RANGE is an inclusive-bounds membership test.
func matches(row dataset.Row, cond intent.Condition) bool {
	cell, ok := row[cond.Column]
	if !ok {
		return false
	}

	switch cond.Cmp {
	case intent.CmpEQ:
		return equalCell(cell, cond.Values[0])
	case intent.CmpGT:
		cmp, ok := compareCell(cell, cond.Values[0])
		return ok && cmp > 0
	case intent.CmpLT:
		cmp, ok := compareCell(cell, cond.Values[0])
		return ok && cmp < 0
	case intent.CmpRange:
		lo, okLo := compareCell(cell, cond.Values[0])
		hi, okHi := compareCell(cell, cond.Values[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	}
	return false
}

// equalCell tests EQ: numbers exactly, strings case-insensitively.
func equalCell(cell any, val intent.Value) bool {
	switch c := cell.(type) {
	case float64:
		n, ok := val.(intent.Number)
		return ok && c == float64(n)
	case string:
		return strings.EqualFold(c, val.String())
	}
	return false
}

// compareCell orders a cell against a condition value: -1, 0, or 1.
// Numbers order numerically; date cells order by parsed date; the
// second return is false when the pair is not comparable.
func compareCell(cell any, val intent.Value) (int, bool) {
	switch c := cell.(type) {
	case float64:
		n, ok := val.(intent.Number)
		if !ok {
			return 0, false
		}
		switch {
		case c < float64(n):
			return -1, true
		case c > float64(n):
			return 1, true
		}
		return 0, true
	case string:
		cellDate, ok := intent.Date(c).Time()
		if !ok {
			return 0, false
		}
		valDate, ok := intent.Date(val.String()).Time()
		if !ok {
			return 0, false
		}
		switch {
		case cellDate.Before(valDate):
			return -1, true
		case cellDate.After(valDate):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
