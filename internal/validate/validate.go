// Package validate checks a resolved intent against the schema
// registry without executing anything.
package validate

import (
	"fmt"

	"github.com/tabletalk/tabletalk/internal/intent"
	"github.com/tabletalk/tabletalk/internal/schema"
)

// Canonical issue texts. Kept as constants so callers and tests match
// on the exact wording.
const (
	IssueUnknownTable  = "unknown or missing table"
	IssueUnknownColumn = "unknown or missing column"
	IssueNotNumeric    = "operation requires a numeric column"
)

// Result reports whether an intent is executable. Valid is true iff
// Issues is empty. The resolved-components snapshot is filled even when
// invalid so callers see exactly what was understood.
type Result struct {
	Valid      bool               `json:"valid"`
	Issues     []string           `json:"issues,omitempty"`
	Suggestion string             `json:"suggestion,omitempty"`
	Op         intent.OpKind      `json:"operation"`
	Table      string             `json:"table,omitempty"`
	Column     string             `json:"column,omitempty"`
	Conditions []intent.Condition `json:"conditions,omitempty"`
}

// Check validates an intent against the registry. Pure function: no
// side effects, never executes the query, and issues accumulate rather
// than short-circuit so the caller sees every problem at once.
//
// Checks, in order:
//  1. Table resolved and known.
//  2. Column resolved and on the table, when the operation needs one.
//  3. SUM/AVG target column is numeric.
//  4. Each condition's column exists and its value types match the
//     column's declared type.
func Check(reg *schema.Registry, in intent.Intent) Result {
	v := &checker{}

	table, tableOK := reg.Table(in.Table)
	if in.Table == "" || !tableOK {
		v.add(IssueUnknownTable)
		// A near-miss table name earns a "did you mean" hint.
		name := in.Table
		if name == "" {
			name = in.Provenance.UnknownTable
		}
		if name != "" {
			if nearest, ok := reg.Nearest(name); ok {
				v.suggestion = fmt.Sprintf("did you mean table %q?", nearest)
			}
		}
	}

	if in.Op.NeedsColumn() {
		switch {
		case in.Column == "":
			v.add(IssueUnknownColumn)
		case tableOK:
			col, ok := table.Column(in.Column)
			if !ok {
				v.add(IssueUnknownColumn)
			} else if col.Type != schema.TypeNumeric {
				v.add(IssueNotNumeric)
			}
		}
	}

	if tableOK {
		for i, cond := range in.Conditions {
			v.checkCondition(table, i, cond)
		}
	}

	return Result{
		Valid:      len(v.issues) == 0,
		Issues:     v.issues,
		Suggestion: v.suggestion,
		Op:         in.Op,
		Table:      in.Table,
		Column:     in.Column,
		Conditions: in.Conditions,
	}
}

// checker accumulates issues during validation.
type checker struct {
	issues     []string
	suggestion string
}

func (v *checker) add(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *checker) checkCondition(table schema.Table, i int, cond intent.Condition) {
	label := cond.Phrase
	if label == "" {
		label = fmt.Sprintf("condition %d", i+1)
	}

	if cond.Column == "" {
		v.add("condition %q references no resolvable column", label)
		return
	}
	col, ok := table.Column(cond.Column)
	if !ok {
		v.add("condition %q references unknown column %q", label, cond.Column)
		return
	}

	want := len(cond.Values) == 1
	if cond.Cmp == intent.CmpRange {
		want = len(cond.Values) == 2
	}
	if !want {
		v.add("condition %q has the wrong number of values for its comparator", label)
		return
	}

	for _, val := range cond.Values {
		if !typeCompatible(col.Type, val) {
			v.add("condition %q value %q does not match %s column %q",
				label, val.String(), col.Type, col.Name)
		}
	}
}

// typeCompatible reports whether a condition value can be compared
// against a column of the declared type.
func typeCompatible(ct schema.ColumnType, val intent.Value) bool {
	switch val.(type) {
	case intent.Number:
		return ct == schema.TypeNumeric
	case intent.Date:
		return ct == schema.TypeDate
	case intent.Text:
		// Text values compare against text columns, and against date
		// columns when they parse as dates.
		if ct == schema.TypeText {
			return true
		}
		if ct == schema.TypeDate {
			_, ok := intent.Date(val.String()).Time()
			return ok
		}
		return false
	}
	return false
}
