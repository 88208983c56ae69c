// Package lex scans raw query text for operation keywords, table and
// column names, timeframe phrases, and filter literals.
//
// Extraction never fails: empty or unrecognizable text yields an empty
// token set, and every detection is independent of the others. The
// synonym tables are static package data so they stay independently
// testable and extensible (no scattered conditionals).
package lex

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/intent"
	"github.com/tabletalk/tabletalk/internal/schema"
)

// opKeyword maps one phrase to an operation kind. Order within the
// table does not matter: matching is earliest-occurrence-first with
// kind priority breaking offset ties.
type opKeyword struct {
	phrase string
	op     intent.OpKind
}

// opKeywords is the static synonym table for operation detection.
var opKeywords = []opKeyword{
	{"total", intent.OpSum},
	{"sum", intent.OpSum},
	{"how many", intent.OpCount},
	{"number of", intent.OpCount},
	{"count", intent.OpCount},
	{"average", intent.OpAvg},
	{"avg", intent.OpAvg},
	{"mean", intent.OpAvg},
	{"list all", intent.OpSelectAll},
	{"show all", intent.OpSelectAll},
	{"show me all", intent.OpSelectAll},
	{"display all", intent.OpSelectAll},
	{"all", intent.OpSelectAll},
	{"where", intent.OpFilter},
	{"filter", intent.OpFilter},
	{"more than", intent.OpFilter},
	{"greater than", intent.OpFilter},
	{"less than", intent.OpFilter},
	{"over", intent.OpFilter},
	{"under", intent.OpFilter},
	{"between", intent.OpFilter},
	{"equal to", intent.OpFilter},
	{"equals", intent.OpFilter},
}

// opPriority breaks offset ties: aggregate intents are more specific
// than select-all, which is more specific than filter.
func opPriority(op intent.OpKind) int {
	switch op {
	case intent.OpSum, intent.OpCount, intent.OpAvg:
		return 0
	case intent.OpSelectAll:
		return 1
	default:
		return 2
	}
}

// tableAliases is the hand-authored synonym table for table detection.
// Canonical table names and their singular forms are added per registry
// at extractor construction.
var tableAliases = map[string]string{
	"clients":   "customers",
	"client":    "customers",
	"buyers":    "customers",
	"purchases": "sales",
	"orders":    "sales",
	"revenue":   "sales",
	"items":     "products",
	"goods":     "products",
	"catalog":   "products",
}

// Extractor scans query text against one schema registry and one
// dataset snapshot. Safe for concurrent use: all state is read-only
// after construction.
type Extractor struct {
	reg      *schema.Registry
	aliases  map[string]string // alias → canonical table name
	known    map[string]bool   // every word that means something to us
	literals *literalIndex
	now      func() time.Time
}

// NewExtractor builds an Extractor. The clock is injected so timeframe
// boundaries ("last quarter") are deterministic under test; nil means
// time.Now.
func NewExtractor(reg *schema.Registry, src dataset.Source, now func() time.Time) (*Extractor, error) {
	if now == nil {
		now = time.Now
	}
	e := &Extractor{
		reg:     reg,
		aliases: make(map[string]string),
		known:   make(map[string]bool),
		now:     now,
	}

	for _, name := range reg.TableNames() {
		lower := strings.ToLower(name)
		e.aliases[lower] = name
		if singular := strings.TrimSuffix(lower, "s"); singular != lower {
			e.aliases[singular] = name
		}
	}
	for alias, canonical := range tableAliases {
		if _, ok := reg.Table(canonical); ok {
			e.aliases[alias] = canonical
		}
	}

	idx, err := buildLiteralIndex(reg, src)
	if err != nil {
		return nil, err
	}
	e.literals = idx

	// Words the unknown-table detector must not mistake for a table
	// candidate: aliases, column names, keywords, and filter literals.
	for alias := range e.aliases {
		for _, w := range strings.Fields(alias) {
			e.known[w] = true
		}
	}
	for _, t := range reg.Tables() {
		for _, c := range t.Columns {
			for _, w := range strings.Fields(columnPhrase(c.Name)) {
				e.known[w] = true
			}
		}
	}
	for _, kw := range opKeywords {
		for _, w := range strings.Fields(kw.phrase) {
			e.known[w] = true
		}
	}
	for word := range idx.words {
		e.known[word] = true
	}

	return e, nil
}

// Extract scans text and returns the loosely structured token bag.
// An empty string yields an empty token set, not an error.
func (e *Extractor) Extract(text string) intent.RawTokens {
	tokens := intent.RawTokens{Text: text}
	lower := normalize(text)
	if lower == "" {
		return tokens
	}

	tokens.Op, tokens.OpKeyword, tokens.OpOffset = e.detectOp(lower)
	tokens.Table, tokens.TableAlias = e.detectTable(lower)
	tokens.Column, tokens.ColumnTable = e.detectColumn(lower, tokens.Table)
	if tokens.Table == "" {
		tokens.UnknownTable = e.detectUnknownTable(lower)
	}
	tokens.Conditions = e.detectConditions(lower, tokens.Table)

	return tokens
}

// detectOp finds the operation keyword: earliest occurrence wins, with
// aggregate > select-all > filter breaking offset ties.
func (e *Extractor) detectOp(lower string) (intent.OpKind, string, int) {
	bestOp := intent.OpUnknown
	bestPhrase := ""
	bestOffset := -1
	for _, kw := range opKeywords {
		off := phraseIndex(lower, kw.phrase)
		if off < 0 {
			continue
		}
		if bestOffset < 0 || off < bestOffset ||
			(off == bestOffset && opPriority(kw.op) < opPriority(bestOp)) ||
			(off == bestOffset && opPriority(kw.op) == opPriority(bestOp) && len(kw.phrase) > len(bestPhrase)) {
			bestOp, bestPhrase, bestOffset = kw.op, kw.phrase, off
		}
	}
	return bestOp, bestPhrase, bestOffset
}

// detectTable matches every known table alias against the text.
// The longest matched token wins; offset then name break ties so the
// choice is deterministic.
func (e *Extractor) detectTable(lower string) (string, string) {
	bestTable, bestAlias := "", ""
	bestOffset := -1
	for alias, canonical := range e.aliases {
		off := phraseIndex(lower, alias)
		if off < 0 {
			continue
		}
		better := len(alias) > len(bestAlias) ||
			(len(alias) == len(bestAlias) && (bestOffset < 0 || off < bestOffset)) ||
			(len(alias) == len(bestAlias) && off == bestOffset && canonical < bestTable)
		if better {
			bestTable, bestAlias, bestOffset = canonical, alias, off
		}
	}
	return bestTable, bestAlias
}

// detectColumn matches column names, restricted to the detected table
// when there is one, across all tables otherwise (the owning table is
// reported so the resolver can infer it). Earliest match wins, longest
// name breaking ties.
func (e *Extractor) detectColumn(lower, table string) (string, string) {
	var tables []schema.Table
	if table != "" {
		if t, ok := e.reg.Table(table); ok {
			tables = []schema.Table{t}
		}
	} else {
		tables = e.reg.Tables()
	}

	bestColumn, bestTable := "", ""
	bestOffset := -1
	bestLen := 0
	for _, t := range tables {
		for _, c := range t.Columns {
			phrase := columnPhrase(c.Name)
			off := phraseIndex(lower, phrase)
			if off < 0 {
				continue
			}
			better := bestOffset < 0 || off < bestOffset ||
				(off == bestOffset && len(phrase) > bestLen)
			if better {
				bestColumn, bestTable, bestOffset, bestLen = c.Name, t.Name, off, len(phrase)
			}
		}
	}
	return bestColumn, bestTable
}

// tablePositionMarkers introduce the noun that names the queried table
// ("total amount of widgets", "list all widgets").
var tablePositionMarkers = []string{"of", "from", "in", "all"}

// detectUnknownTable looks for a table-position noun that matched no
// known vocabulary. Only consulted when no table alias matched.
func (e *Extractor) detectUnknownTable(lower string) string {
	words := strings.Fields(lower)
	for i, w := range words {
		marker := false
		for _, m := range tablePositionMarkers {
			if w == m {
				marker = true
				break
			}
		}
		if !marker || i+1 >= len(words) {
			continue
		}
		next := trimWord(words[i+1])
		if next == "" || stopwords[next] || e.known[next] || isNumberWord(next) {
			continue
		}
		return next
	}
	return ""
}

// stopwords are common words that never name a table.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "we": true, "do": true,
	"have": true, "is": true, "are": true, "what": true, "which": true,
	"me": true, "my": true, "our": true, "their": true, "this": true,
	"that": true, "these": true, "those": true, "it": true, "there": true,
	"last": true, "next": true, "year": true, "month": true, "quarter": true,
	"week": true, "day": true, "with": true, "by": true, "for": true,
	"and": true, "or": true, "to": true, "per": true,
}

// normalize prepares text for matching: NFC normalization, lower case,
// collapsed whitespace.
func normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

// columnPhrase turns a column identifier into its spoken form
// ("join_date" → "join date") for matching against query text.
func columnPhrase(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

// phraseIndex returns the offset of the first word-bounded occurrence
// of phrase in text, or -1. Plain substring search would let "total"
// match inside "totally", so both edges must be non-word characters.
func phraseIndex(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(phrase)
		if boundedAt(text, start, end) {
			return start
		}
		from = start + 1
	}
}

// boundedAt reports whether [start, end) sits on word boundaries.
func boundedAt(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || b == '_'
}

// trimWord strips surrounding punctuation from a whitespace-split word.
func trimWord(w string) string {
	return strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isNumberWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
