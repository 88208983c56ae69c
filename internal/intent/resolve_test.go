package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry([]schema.Table{
		{Name: "sales", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
			{Name: "product", Type: schema.TypeText},
			{Name: "amount", Type: schema.TypeNumeric},
			{Name: "date", Type: schema.TypeDate},
			{Name: "region", Type: schema.TypeText},
		}},
		{Name: "customers", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeNumeric},
			{Name: "name", Type: schema.TypeText},
		}},
	})
	require.NoError(t, err)
	return reg
}

func TestResolve_KeepsExplicitFields(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{
		Op:        OpSum,
		OpKeyword: "total",
		Table:     "sales",
		Column:    "amount",
	})

	assert.Equal(t, OpSum, got.Op)
	assert.Equal(t, "sales", got.Table)
	assert.Equal(t, "amount", got.Column)
	assert.False(t, got.Provenance.ColumnDefaulted)
	assert.Equal(t, "total", got.Provenance.OpKeyword)
}

func TestResolve_DefaultsOperation(t *testing.T) {
	reg := testRegistry(t)

	t.Run("conditions imply filter", func(t *testing.T) {
		got := Resolve(reg, RawTokens{
			Table: "sales",
			Conditions: []ConditionCandidate{
				{Column: "region", Cmp: CmpEQ, Values: []Value{Text("west")}},
			},
		})
		assert.Equal(t, OpFilter, got.Op)
	})

	t.Run("column implies filter", func(t *testing.T) {
		got := Resolve(reg, RawTokens{Table: "sales", Column: "region"})
		assert.Equal(t, OpFilter, got.Op)
	})

	t.Run("bare table implies select all", func(t *testing.T) {
		got := Resolve(reg, RawTokens{Table: "sales"})
		assert.Equal(t, OpSelectAll, got.Op)
	})
}

func TestResolve_InfersTableFromColumn(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{
		Op:          OpSum,
		Column:      "amount",
		ColumnTable: "sales",
	})
	assert.Equal(t, "sales", got.Table)
	assert.True(t, got.Provenance.TableFromColumn)
}

func TestResolve_UnknownTableBlocksInference(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{
		Op:           OpSum,
		Column:       "amount",
		ColumnTable:  "sales",
		UnknownTable: "widgets",
	})
	assert.Empty(t, got.Table)
	assert.False(t, got.Provenance.TableFromColumn)
	assert.Equal(t, "widgets", got.Provenance.UnknownTable)
}

func TestResolve_DefaultsAggregateColumn(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{Op: OpAvg, Table: "sales"})
	assert.Equal(t, "id", got.Column, "first numeric column in declared order")
	assert.True(t, got.Provenance.ColumnDefaulted)

	got = Resolve(reg, RawTokens{Op: OpCount, Table: "sales"})
	assert.Empty(t, got.Column, "COUNT needs no column")
}

func TestResolve_SelectAllDropsColumn(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{Op: OpSelectAll, Table: "sales", Column: "amount"})
	assert.Empty(t, got.Column)
}

func TestResolve_BindsConditionColumns(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{
		Op:    OpSum,
		Table: "sales",
		Conditions: []ConditionCandidate{
			{Cmp: CmpRange, Values: []Value{Date("2023-01-01"), Date("2023-03-31")}, BindType: schema.TypeDate},
			{Cmp: CmpGT, Values: []Value{Number(500)}, BindType: schema.TypeNumeric},
		},
	})
	require.Len(t, got.Conditions, 2)
	assert.Equal(t, "date", got.Conditions[0].Column)
	assert.Equal(t, "id", got.Conditions[1].Column, "first numeric column")
}

func TestResolve_UnboundConditionStaysUnresolved(t *testing.T) {
	reg := testRegistry(t)

	got := Resolve(reg, RawTokens{
		Op:           OpSum,
		UnknownTable: "widgets",
		Conditions: []ConditionCandidate{
			{Cmp: CmpGT, Values: []Value{Number(500)}, BindType: schema.TypeNumeric},
		},
	})
	require.Len(t, got.Conditions, 1)
	assert.Empty(t, got.Conditions[0].Column)
}

func TestResolve_NormalizesRangeOrder(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name   string
		values []Value
		want   []Value
	}{
		{
			name:   "numbers swapped",
			values: []Value{Number(900), Number(100)},
			want:   []Value{Number(100), Number(900)},
		},
		{
			name:   "dates swapped",
			values: []Value{Date("2023-03-31"), Date("2023-01-01")},
			want:   []Value{Date("2023-01-01"), Date("2023-03-31")},
		},
		{
			name:   "already ascending",
			values: []Value{Number(100), Number(900)},
			want:   []Value{Number(100), Number(900)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(reg, RawTokens{
				Op:    OpFilter,
				Table: "sales",
				Conditions: []ConditionCandidate{
					{Column: "amount", Cmp: CmpRange, Values: tt.values},
				},
			})
			require.Len(t, got.Conditions, 1)
			assert.Equal(t, tt.want, got.Conditions[0].Values)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	reg := testRegistry(t)
	tokens := RawTokens{
		Op:     OpAvg,
		Table:  "sales",
		Column: "amount",
		Conditions: []ConditionCandidate{
			{Column: "region", Cmp: CmpEQ, Values: []Value{Text("west")}, Phrase: "west"},
		},
	}

	first := Resolve(reg, tokens)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(reg, tokens))
	}
}

func TestNumber_String(t *testing.T) {
	assert.Equal(t, "500", Number(500).String())
	assert.Equal(t, "4450", Number(4450).String())
	assert.Equal(t, "816.67", Number(816.67).String())
}

func TestDate_Time(t *testing.T) {
	ts, ok := Date("2023-01-15").Time()
	require.True(t, ok)
	assert.Equal(t, 2023, ts.Year())

	_, ok = Date("not-a-date").Time()
	assert.False(t, ok)
}
