package intent

import "github.com/tabletalk/tabletalk/internal/schema"

// Resolve combines extracted tokens into one Intent, filling gaps with
// documented defaults. It never fails: missing pieces stay unresolved
// and surface as validator issues, not errors here.
//
// Defaulting rules:
//   - No operation keyword: FILTER when conditions or a column were
//     detected (implicit filter), SELECT_ALL otherwise.
//   - No table: use the owning table of the detected column.
//   - SUM/AVG with no column: the first numeric column of the resolved
//     table, flagged in provenance so the explainer reports it.
//   - SELECT_ALL never carries a column; COUNT without one means row count.
//
// Resolve is deterministic: identical tokens always produce an
// identical Intent.
func Resolve(reg *schema.Registry, tokens RawTokens) Intent {
	out := Intent{
		Op:    tokens.Op,
		Table: tokens.Table,
		Provenance: Provenance{
			OpKeyword:    tokens.OpKeyword,
			TableAlias:   tokens.TableAlias,
			UnknownTable: tokens.UnknownTable,
		},
	}

	if out.Op == OpUnknown {
		if len(tokens.Conditions) > 0 || tokens.Column != "" {
			out.Op = OpFilter
		} else {
			out.Op = OpSelectAll
		}
	}

	// A noun that looked like a table but matched nothing known means
	// the user named a table we don't have. Inferring a different
	// table from a stray column match would silently answer the wrong
	// question, so the intent stays unresolved for the validator.
	if out.Table == "" && tokens.UnknownTable == "" && tokens.ColumnTable != "" {
		out.Table = tokens.ColumnTable
		out.Provenance.TableFromColumn = true
	}

	out.Column = tokens.Column
	if out.Op == OpSelectAll {
		out.Column = ""
	}
	if out.Op.NeedsColumn() && out.Column == "" && out.Table != "" {
		if t, ok := reg.Table(out.Table); ok {
			if c, ok := t.FirstOfType(schema.TypeNumeric); ok {
				out.Column = c.Name
				out.Provenance.ColumnDefaulted = true
			}
		}
	}

	for _, cand := range tokens.Conditions {
		out.Conditions = append(out.Conditions, bindCandidate(reg, out.Table, cand))
	}

	return out
}

// bindCandidate fixes up a condition candidate: unresolved columns bind
// to the table's first column of the candidate's bind type, and RANGE
// bounds are normalized to ascending order.
func bindCandidate(reg *schema.Registry, table string, cand ConditionCandidate) Condition {
	cond := Condition{
		Column: cand.Column,
		Cmp:    cand.Cmp,
		Values: cand.Values,
		Phrase: cand.Phrase,
	}

	if cond.Column == "" && table != "" && cand.BindType != "" {
		if t, ok := reg.Table(table); ok {
			if c, ok := t.FirstOfType(cand.BindType); ok {
				cond.Column = c.Name
			}
		}
	}

	if cond.Cmp == CmpRange && len(cond.Values) == 2 {
		cond.Values = ascending(cond.Values[0], cond.Values[1])
	}
	return cond
}

// ascending orders a RANGE pair by its semantic value.
func ascending(a, b Value) []Value {
	swap := false
	switch av := a.(type) {
	case Number:
		if bv, ok := b.(Number); ok {
			swap = bv < av
		}
	case Date:
		if bv, ok := b.(Date); ok {
			swap = string(bv) < string(av)
		}
	case Text:
		if bv, ok := b.(Text); ok {
			swap = string(bv) < string(av)
		}
	}
	if swap {
		return []Value{b, a}
	}
	return []Value{a, b}
}
