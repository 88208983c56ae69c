package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/intent"
)

func TestDescribe_SumWithExplicitParts(t *testing.T) {
	got := Describe(intent.Intent{
		Op:     intent.OpSum,
		Table:  "sales",
		Column: "amount",
		Provenance: intent.Provenance{
			OpKeyword:  "total",
			TableAlias: "sales",
		},
	})

	assert.Equal(t, []string{
		`Identified SUM operation from keyword "total".`,
		`Matched table "sales".`,
		`Selected column "amount".`,
		`Will sum column "amount" over rows of "sales".`,
	}, got.Steps)
	assert.Equal(t, intent.OpSum, got.Op)
}

func TestDescribe_AliasedTable(t *testing.T) {
	got := Describe(intent.Intent{
		Op:    intent.OpSelectAll,
		Table: "customers",
		Provenance: intent.Provenance{
			OpKeyword:  "list all",
			TableAlias: "clients",
		},
	})
	assert.Contains(t, got.Steps, `Matched "clients" to table "customers".`)
	assert.Contains(t, got.Steps, `Will return all rows of "customers".`)
}

func TestDescribe_InferredTable(t *testing.T) {
	got := Describe(intent.Intent{
		Op:     intent.OpSum,
		Table:  "sales",
		Column: "amount",
		Provenance: intent.Provenance{
			OpKeyword:       "total",
			TableFromColumn: true,
		},
	})
	assert.Contains(t, got.Steps, `Inferred table "sales" from the owning table of the detected column.`)
}

func TestDescribe_DefaultedOperation(t *testing.T) {
	got := Describe(intent.Intent{Op: intent.OpSelectAll, Table: "sales"})
	assert.Equal(t, "No operation keyword found; defaulted to SELECT ALL.", got.Steps[0])
}

func TestDescribe_DefaultedColumn(t *testing.T) {
	got := Describe(intent.Intent{
		Op:     intent.OpAvg,
		Table:  "sales",
		Column: "amount",
		Provenance: intent.Provenance{
			OpKeyword:       "average",
			TableAlias:      "sales",
			ColumnDefaulted: true,
		},
	})
	assert.Contains(t, got.Steps,
		`No column named in the query; defaulted to "amount", the first numeric column of "sales".`)
}

func TestDescribe_UnresolvedState(t *testing.T) {
	t.Run("unknown table noun", func(t *testing.T) {
		got := Describe(intent.Intent{
			Op:     intent.OpSum,
			Column: "amount",
			Provenance: intent.Provenance{
				OpKeyword:    "total",
				UnknownTable: "widgets",
			},
		})
		assert.Equal(t, []string{
			`Identified SUM operation from keyword "total".`,
			`No known table matched; "widgets" is not a table we have.`,
			`Selected column "amount".`,
			`Will sum column "amount" over rows of "(unresolved table)".`,
		}, got.Steps)
	})

	t.Run("no table at all", func(t *testing.T) {
		got := Describe(intent.Intent{Op: intent.OpCount, Provenance: intent.Provenance{OpKeyword: "count"}})
		assert.Contains(t, got.Steps, "No table detected; the query cannot name its data without one.")
	})

	t.Run("aggregate without a column", func(t *testing.T) {
		got := Describe(intent.Intent{Op: intent.OpSum, Table: "customers", Provenance: intent.Provenance{OpKeyword: "total"}})
		assert.Contains(t, got.Steps, "No column detected; operation cannot proceed without one.")
		assert.Contains(t, got.Steps, `Will sum (unresolved column) over rows of "customers".`)
	})
}

func TestDescribe_Conditions(t *testing.T) {
	tests := []struct {
		name string
		cond intent.Condition
		want string
	}{
		{
			name: "equality with phrase",
			cond: intent.Condition{Column: "region", Cmp: intent.CmpEQ, Values: []intent.Value{intent.Text("west")}, Phrase: "west"},
			want: `Will filter rows where region equals "west" (from "west").`,
		},
		{
			name: "greater than without phrase",
			cond: intent.Condition{Column: "amount", Cmp: intent.CmpGT, Values: []intent.Value{intent.Number(500)}},
			want: "Will filter rows where amount is greater than 500.",
		},
		{
			name: "less than",
			cond: intent.Condition{Column: "amount", Cmp: intent.CmpLT, Values: []intent.Value{intent.Number(900)}, Phrase: "under 900"},
			want: `Will filter rows where amount is less than 900 (from "under 900").`,
		},
		{
			name: "date range",
			cond: intent.Condition{Column: "date", Cmp: intent.CmpRange, Values: []intent.Value{
				intent.Date("2023-01-01"), intent.Date("2023-03-31"),
			}, Phrase: "last quarter"},
			want: `Will filter rows where date is between 2023-01-01 and 2023-03-31 inclusive (from "last quarter").`,
		},
		{
			name: "unresolved column",
			cond: intent.Condition{Cmp: intent.CmpGT, Values: []intent.Value{intent.Number(500)}, Phrase: "over 500"},
			want: `Will filter rows where (unresolved column) is greater than 500 (from "over 500").`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(intent.Intent{
				Op:         intent.OpFilter,
				Table:      "sales",
				Conditions: []intent.Condition{tt.cond},
				Provenance: intent.Provenance{OpKeyword: "where"},
			})
			assert.Contains(t, got.Steps, tt.want)
			assert.Contains(t, got.Steps, `Will return rows of "sales" matching all filters.`)
		})
	}
}

func TestDescribe_StepOrder(t *testing.T) {
	got := Describe(intent.Intent{
		Op:     intent.OpAvg,
		Table:  "sales",
		Column: "amount",
		Conditions: []intent.Condition{
			{Column: "region", Cmp: intent.CmpEQ, Values: []intent.Value{intent.Text("west")}, Phrase: "west"},
		},
		Provenance: intent.Provenance{OpKeyword: "average", TableAlias: "sales"},
	})

	require.Len(t, got.Steps, 5)
	assert.Contains(t, got.Steps[0], "AVG operation")
	assert.Contains(t, got.Steps[1], "table")
	assert.Contains(t, got.Steps[2], "column")
	assert.Contains(t, got.Steps[3], "filter")
	assert.Contains(t, got.Steps[4], "average")
}

func TestDescribe_Deterministic(t *testing.T) {
	in := intent.Intent{
		Op: intent.OpCount, Table: "customers",
		Provenance: intent.Provenance{OpKeyword: "how many", TableAlias: "customers"},
	}
	first := Describe(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Describe(in))
	}
}
