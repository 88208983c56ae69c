package lex

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/intent"
	"github.com/tabletalk/tabletalk/internal/schema"
)

// literalIndex maps distinct text-column values to their owning
// table/column, so "west region" can become Condition{region EQ west}
// without a hand-listed vocabulary. Built once from the dataset
// snapshot at startup.
type literalIndex struct {
	entries []literalEntry
	words   map[string]bool
}

type literalEntry struct {
	value  string // lowercase literal as it appears in the data
	table  string
	column string
}

// buildLiteralIndex collects distinct values of every text column.
// Email-like and very long values are skipped: nobody types them as
// filter words, and indexing them only invites false matches.
func buildLiteralIndex(reg *schema.Registry, src dataset.Source) (*literalIndex, error) {
	idx := &literalIndex{words: make(map[string]bool)}
	if src == nil {
		return idx, nil
	}

	seen := make(map[literalEntry]bool)
	for _, t := range reg.Tables() {
		rows, err := src.Rows(t.Name)
		if err != nil {
			return nil, err
		}
		for _, c := range t.Columns {
			if c.Type != schema.TypeText {
				continue
			}
			for _, row := range rows {
				s, ok := row[c.Name].(string)
				if !ok || !indexableLiteral(s) {
					continue
				}
				entry := literalEntry{value: strings.ToLower(s), table: t.Name, column: c.Name}
				if !seen[entry] {
					seen[entry] = true
					idx.entries = append(idx.entries, entry)
					for _, w := range strings.Fields(entry.value) {
						idx.words[w] = true
					}
				}
			}
		}
	}

	// Longest value first so "new york" beats "york"; remaining order
	// fixed for deterministic extraction.
	sort.Slice(idx.entries, func(i, j int) bool {
		a, b := idx.entries[i], idx.entries[j]
		if len(a.value) != len(b.value) {
			return len(a.value) > len(b.value)
		}
		if a.value != b.value {
			return a.value < b.value
		}
		if a.table != b.table {
			return a.table < b.table
		}
		return a.column < b.column
	})
	return idx, nil
}

func indexableLiteral(s string) bool {
	return len(s) >= 3 && len(s) <= 32 && !strings.ContainsAny(s, "@/")
}

// Timeframe phrases. Boundaries are computed against the injected
// clock, inclusive on both ends.
const (
	phraseLastQuarter = "last quarter"
	phraseThisYear    = "this year"
	phraseLastMonth   = "last month"
)

var (
	reBetween  = regexp.MustCompile(`between\s+(\d+(?:\.\d+)?)\s+and\s+(\d+(?:\.\d+)?)`)
	reGreater  = regexp.MustCompile(`(?:(\w+)\s+)?(?:is\s+)?(?:more than|greater than|over)\s+(\d+(?:\.\d+)?)`)
	reLess     = regexp.MustCompile(`(?:(\w+)\s+)?(?:is\s+)?(?:less than|under)\s+(\d+(?:\.\d+)?)`)
	reEqualNum = regexp.MustCompile(`(?:(\w+)\s+)?(?:is\s+)?(?:equal to|equals)\s+(\d+(?:\.\d+)?)`)
	// "where region is west" / "where region equals west" / "where region = 'west'"
	reWhereIs = regexp.MustCompile(`(?:where|with)\s+(\w+)\s+(?:is|equals|=)\s+'?(\w+)'?`)
)

// detectConditions gathers condition candidates: timeframes, explicit
// where-clauses, numeric comparisons, and filter literals. Candidates
// are independent and AND-combined downstream.
func (e *Extractor) detectConditions(lower, table string) []intent.ConditionCandidate {
	var out []intent.ConditionCandidate

	out = append(out, e.detectTimeframes(lower)...)
	out = append(out, e.detectWhereClauses(lower, table)...)
	out = append(out, e.detectComparisons(lower, table)...)
	out = append(out, e.detectLiterals(lower, table, out)...)

	return dedupe(out)
}

// dedupe drops candidates that restate an earlier one. "where amount
// equals 800" matches both the where-clause and the numeric-equality
// pattern; only one condition should survive.
func dedupe(cands []intent.ConditionCandidate) []intent.ConditionCandidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := c.Column + "\x00" + string(c.Cmp)
		for _, v := range c.Values {
			key += "\x00" + v.String()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func (e *Extractor) detectTimeframes(lower string) []intent.ConditionCandidate {
	var out []intent.ConditionCandidate
	today := e.now()

	if phraseIndex(lower, phraseLastQuarter) >= 0 {
		start, end := lastQuarter(today)
		out = append(out, rangeCandidate(phraseLastQuarter, start, end))
	}
	if phraseIndex(lower, phraseThisYear) >= 0 {
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		end := time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, today.Location())
		out = append(out, rangeCandidate(phraseThisYear, start, end))
	}
	if phraseIndex(lower, phraseLastMonth) >= 0 {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start := first.AddDate(0, -1, 0)
		end := first.AddDate(0, 0, -1)
		out = append(out, rangeCandidate(phraseLastMonth, start, end))
	}
	return out
}

// lastQuarter returns the previous calendar quarter's first and last day.
func lastQuarter(today time.Time) (time.Time, time.Time) {
	qStartMonth := time.Month((int(today.Month())-1)/3*3 + 1)
	curStart := time.Date(today.Year(), qStartMonth, 1, 0, 0, 0, 0, today.Location())
	return curStart.AddDate(0, -3, 0), curStart.AddDate(0, 0, -1)
}

// rangeCandidate builds a date RANGE candidate with an unresolved
// column; the resolver binds it to the table's first date column.
func rangeCandidate(phrase string, start, end time.Time) intent.ConditionCandidate {
	return intent.ConditionCandidate{
		Cmp: intent.CmpRange,
		Values: []intent.Value{
			intent.Date(start.Format(intent.DateLayout)),
			intent.Date(end.Format(intent.DateLayout)),
		},
		Phrase:   phrase,
		BindType: schema.TypeDate,
	}
}

// comparisonWords start a comparison phrase and never stand alone as an
// equality value.
var comparisonWords = map[string]bool{
	"more": true, "greater": true, "less": true,
	"over": true, "under": true, "above": true, "below": true,
	"between": true, "than": true, "at": true,
}

// detectWhereClauses handles the explicit "where <column> is <value>"
// family.
func (e *Extractor) detectWhereClauses(lower, table string) []intent.ConditionCandidate {
	var out []intent.ConditionCandidate
	for _, m := range reWhereIs.FindAllStringSubmatch(lower, -1) {
		column, raw := m[1], m[2]
		// "where amount is more than 500" is a comparison, not an
		// equality with value "more"; leave it to detectComparisons.
		if comparisonWords[raw] {
			continue
		}
		var val intent.Value
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			val = intent.Number(n)
		} else {
			val = intent.Text(raw)
		}
		out = append(out, intent.ConditionCandidate{
			Column: e.canonicalColumn(table, column),
			Cmp:    intent.CmpEQ,
			Values: []intent.Value{val},
			Phrase: strings.TrimSpace(m[0]),
		})
	}
	return out
}

// detectComparisons handles numeric comparison phrases. The word just
// before the phrase names the column when it is one; otherwise the
// resolver binds to the table's first numeric column.
func (e *Extractor) detectComparisons(lower, table string) []intent.ConditionCandidate {
	var out []intent.ConditionCandidate

	for _, m := range reBetween.FindAllStringSubmatch(lower, -1) {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		out = append(out, intent.ConditionCandidate{
			Cmp:      intent.CmpRange,
			Values:   []intent.Value{intent.Number(lo), intent.Number(hi)},
			Phrase:   strings.TrimSpace(m[0]),
			BindType: schema.TypeNumeric,
		})
	}

	for cmp, re := range map[intent.Comparator]*regexp.Regexp{
		intent.CmpGT: reGreater,
		intent.CmpLT: reLess,
		intent.CmpEQ: reEqualNum,
	} {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			n, _ := strconv.ParseFloat(m[2], 64)
			out = append(out, intent.ConditionCandidate{
				Column:   e.canonicalColumn(table, m[1]),
				Cmp:      cmp,
				Values:   []intent.Value{intent.Number(n)},
				Phrase:   strings.TrimSpace(m[0]),
				BindType: schema.TypeNumeric,
			})
		}
	}

	// Map iteration above is unordered; fix candidate order for
	// deterministic resolution.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Cmp != out[j].Cmp {
			return out[i].Cmp < out[j].Cmp
		}
		return out[i].Phrase < out[j].Phrase
	})
	return out
}

// detectLiterals matches known text-column values ("west", "laptop")
// appearing in the text, restricted to the detected table when there is
// one. Candidates already produced by an explicit where-clause are not
// duplicated.
func (e *Extractor) detectLiterals(lower, table string, existing []intent.ConditionCandidate) []intent.ConditionCandidate {
	var out []intent.ConditionCandidate
	claimed := make(map[string]bool) // column → already has a condition
	for _, c := range existing {
		if c.Column != "" {
			claimed[strings.ToLower(c.Column)] = true
		}
	}

	for _, entry := range e.literals.entries {
		if table != "" && !strings.EqualFold(entry.table, table) {
			continue
		}
		if claimed[strings.ToLower(entry.column)] {
			continue
		}
		if phraseIndex(lower, entry.value) < 0 {
			continue
		}
		claimed[strings.ToLower(entry.column)] = true
		out = append(out, intent.ConditionCandidate{
			Column: entry.column,
			Cmp:    intent.CmpEQ,
			Values: []intent.Value{intent.Text(entry.value)},
			Phrase: entry.value,
		})
	}
	return out
}

// canonicalColumn maps a raw word to a column name of the candidate
// table (or any table when none resolved). Returns "" when the word
// names no column, leaving the candidate for the resolver to bind.
func (e *Extractor) canonicalColumn(table, word string) string {
	if word == "" {
		return ""
	}
	if table != "" {
		if c, ok := e.reg.Column(table, word); ok {
			return c.Name
		}
		return ""
	}
	for _, t := range e.reg.Tables() {
		if c, ok := t.Column(word); ok {
			return c.Name
		}
	}
	return ""
}
