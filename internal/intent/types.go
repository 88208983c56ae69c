// Package intent defines the structured query intent shared by the
// extractor, resolver, validator, explainer, and executor, and owns all
// disambiguation policy (resolve.go).
//
// An Intent is constructed fresh per request and treated as an
// immutable value after resolution. Ambiguity never fails here: gaps
// stay as unresolved fields and become validator issues later.
package intent

import (
	"fmt"
	"time"

	"github.com/tabletalk/tabletalk/internal/schema"
)

// OpKind identifies the operation a query asks for.
type OpKind string

const (
	// OpUnknown means no operation keyword was detected yet.
	OpUnknown   OpKind = ""
	OpSum       OpKind = "sum"
	OpCount     OpKind = "count"
	OpAvg       OpKind = "average"
	OpFilter    OpKind = "filter"
	OpSelectAll OpKind = "select_all"
)

// Aggregate reports whether the operation produces a single scalar.
func (op OpKind) Aggregate() bool {
	return op == OpSum || op == OpCount || op == OpAvg
}

// NeedsColumn reports whether the operation requires a target column.
// COUNT and SELECT_ALL operate on whole rows.
func (op OpKind) NeedsColumn() bool {
	return op == OpSum || op == OpAvg
}

// Comparator identifies how a condition compares a column to its values.
type Comparator string

const (
	CmpEQ    Comparator = "eq"
	CmpGT    Comparator = "gt"
	CmpLT    Comparator = "lt"
	CmpRange Comparator = "range"
)

// Value is a sealed interface for condition values.
// Only Text, Number, and Date implement it - the marker method keeps
// type switches in the validator and executor exhaustive.
type Value interface {
	value() // Sealed - only types in this package implement it
	String() string
}

// Text is a string condition value, compared case-insensitively.
type Text string

func (Text) value()           {}
func (t Text) String() string { return string(t) }

// Number is a numeric condition value.
type Number float64

func (Number) value() {}

func (n Number) String() string {
	if n == Number(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", float64(n))
}

// DateLayout is the wire form for dates throughout the system.
const DateLayout = "2006-01-02"

// Date is a calendar-date condition value in YYYY-MM-DD form.
type Date string

func (Date) value()           {}
func (d Date) String() string { return string(d) }

// Time parses the date. Reports false for malformed values.
func (d Date) Time() (time.Time, bool) {
	t, err := time.Parse(DateLayout, string(d))
	return t, err == nil
}

// Condition is a predicate narrowing which rows participate.
//
// Invariant: CmpRange carries exactly two values in ascending semantic
// order (inclusive bounds); every other comparator carries exactly one.
type Condition struct {
	Column string
	Cmp    Comparator
	Values []Value

	// Phrase is the source text that produced this condition,
	// kept for explanation output.
	Phrase string
}

// Intent is the resolved structured representation of a query.
// Empty Table/Column mean unresolved - the validator turns those into
// explicit issues; nothing here ever fails.
type Intent struct {
	Op         OpKind
	Table      string
	Column     string
	Conditions []Condition
	Provenance Provenance
}

// Provenance records how the resolver arrived at the intent, so the
// explainer can report matched keywords and applied defaults honestly.
type Provenance struct {
	OpKeyword       string // operation keyword matched in the text ("" = op was defaulted)
	TableAlias      string // alias or name text that matched the table
	TableFromColumn bool   // table inferred from the owning table of the detected column
	ColumnDefaulted bool   // column chosen as the table's first numeric column

	// UnknownTable is a table-position noun that matched no known
	// table. It blocks owning-column table inference and feeds the
	// validator's "did you mean" suggestion.
	UnknownTable string
}

// RawTokens is the loosely structured extraction result: detected
// operation, candidate table and column, and condition candidates. None
// of it is validated against schema compatibility yet.
type RawTokens struct {
	Text string

	Op       OpKind
	OpKeyword string
	OpOffset  int

	Table      string // canonical table name, "" if none matched
	TableAlias string // the token that matched

	Column      string
	ColumnTable string // owning table of the detected column

	// UnknownTable is set when a table-position noun ("of widgets")
	// matched nothing known. See Provenance.UnknownTable.
	UnknownTable string

	Conditions []ConditionCandidate
}

// ConditionCandidate is a condition whose column may still be
// unresolved. BindType tells the resolver which column type to bind an
// unresolved candidate to (date columns for timeframes, numeric columns
// for comparisons).
type ConditionCandidate struct {
	Column   string
	Cmp      Comparator
	Values   []Value
	Phrase   string
	BindType schema.ColumnType
}
