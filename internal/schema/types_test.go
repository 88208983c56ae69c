package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoTables() []Table {
	return []Table{
		{Name: "sales", Columns: []Column{
			{Name: "id", Type: TypeNumeric},
			{Name: "product", Type: TypeText},
			{Name: "amount", Type: TypeNumeric},
			{Name: "date", Type: TypeDate},
			{Name: "region", Type: TypeText},
		}},
		{Name: "customers", Columns: []Column{
			{Name: "id", Type: TypeNumeric},
			{Name: "name", Type: TypeText},
			{Name: "join_date", Type: TypeDate},
		}},
	}
}

func TestNewRegistry_RejectsDuplicateTables(t *testing.T) {
	_, err := NewRegistry([]Table{
		{Name: "sales", Columns: []Column{{Name: "id", Type: TypeNumeric}}},
		{Name: "Sales", Columns: []Column{{Name: "id", Type: TypeNumeric}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate table")
}

func TestNewRegistry_RejectsDuplicateColumns(t *testing.T) {
	_, err := NewRegistry([]Table{
		{Name: "sales", Columns: []Column{
			{Name: "amount", Type: TypeNumeric},
			{Name: "Amount", Type: TypeText},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestNewRegistry_RejectsUnknownType(t *testing.T) {
	_, err := NewRegistry([]Table{
		{Name: "sales", Columns: []Column{{Name: "amount", Type: "decimal"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestNewRegistry_RejectsEmptyTable(t *testing.T) {
	_, err := NewRegistry([]Table{{Name: "sales"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	reg, err := NewRegistry(demoTables())
	require.NoError(t, err)

	table, ok := reg.Table("SALES")
	require.True(t, ok)
	assert.Equal(t, "sales", table.Name)

	col, ok := reg.Column("Sales", "AMOUNT")
	require.True(t, ok)
	assert.Equal(t, "amount", col.Name)
	assert.Equal(t, TypeNumeric, col.Type)

	_, ok = reg.Table("invoices")
	assert.False(t, ok)
}

func TestRegistry_TableNamesSorted(t *testing.T) {
	reg, err := NewRegistry(demoTables())
	require.NoError(t, err)

	assert.Equal(t, []string{"customers", "sales"}, reg.TableNames())

	tables := reg.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "sales", tables[1].Name)
}

func TestTable_FirstOfType(t *testing.T) {
	table := demoTables()[0]

	col, ok := table.FirstOfType(TypeNumeric)
	require.True(t, ok)
	assert.Equal(t, "id", col.Name)

	col, ok = table.FirstOfType(TypeDate)
	require.True(t, ok)
	assert.Equal(t, "date", col.Name)

	_, ok = Table{Name: "empty", Columns: []Column{{Name: "x", Type: TypeText}}}.FirstOfType(TypeDate)
	assert.False(t, ok)
}

func TestRegistry_Nearest(t *testing.T) {
	reg, err := NewRegistry(demoTables())
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "one transposition", input: "slaes", want: "sales", ok: true},
		{name: "case ignored", input: "Salse", want: "sales", ok: true},
		{name: "missing letter", input: "custmers", want: "customers", ok: true},
		{name: "too far away", input: "widgets", ok: false},
		{name: "nothing in common", input: "zzzzzzzzzz", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.Nearest(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
