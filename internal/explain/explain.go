// Package explain renders the resolver's reasoning as ordered,
// human-readable processing steps. It never validates or executes:
// unresolved or defaulted state is described honestly instead of
// raising errors.
package explain

import (
	"fmt"
	"strings"

	"github.com/tabletalk/tabletalk/internal/intent"
)

// Result is the ordered explanation plus the resolved intent fields for
// caller transparency.
type Result struct {
	Steps      []string           `json:"steps"`
	Op         intent.OpKind      `json:"operation"`
	Table      string             `json:"table,omitempty"`
	Column     string             `json:"column,omitempty"`
	Conditions []intent.Condition `json:"conditions,omitempty"`
}

// Describe renders the intent as processing steps, in order: operation,
// table, column, conditions, then a one-line summary of what would be
// computed. Deterministic and side-effect free; safe to call on an
// unvalidated or invalid intent.
func Describe(in intent.Intent) Result {
	var steps []string

	steps = append(steps, opStep(in))
	steps = append(steps, tableStep(in))
	if in.Op.NeedsColumn() || in.Column != "" {
		steps = append(steps, columnStep(in))
	}
	for _, cond := range in.Conditions {
		steps = append(steps, conditionStep(cond))
	}
	steps = append(steps, summaryStep(in))

	return Result{
		Steps:      steps,
		Op:         in.Op,
		Table:      in.Table,
		Column:     in.Column,
		Conditions: in.Conditions,
	}
}

func opStep(in intent.Intent) string {
	if in.Provenance.OpKeyword != "" {
		return fmt.Sprintf("Identified %s operation from keyword %q.", opLabel(in.Op), in.Provenance.OpKeyword)
	}
	return fmt.Sprintf("No operation keyword found; defaulted to %s.", opLabel(in.Op))
}

func tableStep(in intent.Intent) string {
	switch {
	case in.Table == "" && in.Provenance.UnknownTable != "":
		return fmt.Sprintf("No known table matched; %q is not a table we have.", in.Provenance.UnknownTable)
	case in.Table == "":
		return "No table detected; the query cannot name its data without one."
	case in.Provenance.TableFromColumn:
		return fmt.Sprintf("Inferred table %q from the owning table of the detected column.", in.Table)
	case in.Provenance.TableAlias != "" && !strings.EqualFold(in.Provenance.TableAlias, in.Table):
		return fmt.Sprintf("Matched %q to table %q.", in.Provenance.TableAlias, in.Table)
	default:
		return fmt.Sprintf("Matched table %q.", in.Table)
	}
}

func columnStep(in intent.Intent) string {
	switch {
	case in.Column == "":
		return "No column detected; operation cannot proceed without one."
	case in.Provenance.ColumnDefaulted:
		return fmt.Sprintf("No column named in the query; defaulted to %q, the first numeric column of %q.", in.Column, in.Table)
	default:
		return fmt.Sprintf("Selected column %q.", in.Column)
	}
}

func conditionStep(cond intent.Condition) string {
	col := cond.Column
	if col == "" {
		col = "(unresolved column)"
	}
	var clause string
	switch cond.Cmp {
	case intent.CmpEQ:
		clause = fmt.Sprintf("%s equals %q", col, value(cond, 0))
	case intent.CmpGT:
		clause = fmt.Sprintf("%s is greater than %s", col, value(cond, 0))
	case intent.CmpLT:
		clause = fmt.Sprintf("%s is less than %s", col, value(cond, 0))
	case intent.CmpRange:
		clause = fmt.Sprintf("%s is between %s and %s inclusive", col, value(cond, 0), value(cond, 1))
	}
	if cond.Phrase != "" {
		return fmt.Sprintf("Will filter rows where %s (from %q).", clause, cond.Phrase)
	}
	return fmt.Sprintf("Will filter rows where %s.", clause)
}

func summaryStep(in intent.Intent) string {
	table := in.Table
	if table == "" {
		table = "(unresolved table)"
	}
	filtered := ""
	if len(in.Conditions) > 0 {
		filtered = " matching all filters"
	}

	switch in.Op {
	case intent.OpSum:
		return fmt.Sprintf("Will sum %s over rows of %q%s.", columnLabel(in), table, filtered)
	case intent.OpAvg:
		return fmt.Sprintf("Will average %s over rows of %q%s.", columnLabel(in), table, filtered)
	case intent.OpCount:
		return fmt.Sprintf("Will count rows of %q%s.", table, filtered)
	case intent.OpFilter:
		return fmt.Sprintf("Will return rows of %q%s.", table, filtered)
	case intent.OpSelectAll:
		return fmt.Sprintf("Will return all rows of %q.", table)
	default:
		return "Nothing to compute."
	}
}

func columnLabel(in intent.Intent) string {
	if in.Column == "" {
		return "(unresolved column)"
	}
	return fmt.Sprintf("column %q", in.Column)
}

func value(cond intent.Condition, i int) string {
	if i >= len(cond.Values) {
		return "(missing value)"
	}
	return cond.Values[i].String()
}

func opLabel(op intent.OpKind) string {
	switch op {
	case intent.OpSum:
		return "SUM"
	case intent.OpCount:
		return "COUNT"
	case intent.OpAvg:
		return "AVG"
	case intent.OpFilter:
		return "FILTER"
	case intent.OpSelectAll:
		return "SELECT ALL"
	default:
		return "unknown"
	}
}
