package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with captured output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--specs", "testdata/specs"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCommand_Sum(t *testing.T) {
	out, err := runCLI(t, "query", "What is the total amount of sales")
	require.NoError(t, err)
	assert.Contains(t, out, "sum of sales.amount = 4450 (5 rows)")
}

func TestQueryCommand_Count(t *testing.T) {
	out, err := runCLI(t, "query", "How many customers do we have?")
	require.NoError(t, err)
	assert.Contains(t, out, "count of customers = 3")
}

func TestQueryCommand_FilterPrintsRows(t *testing.T) {
	out, err := runCLI(t, "query", "show me sales where region is north")
	require.NoError(t, err)
	assert.Contains(t, out, "2 row(s) from sales")
	assert.Contains(t, out, "product=Laptop")
	assert.Contains(t, out, "region=North")
}

func TestQueryCommand_AvgNoMatch(t *testing.T) {
	out, err := runCLI(t, "query", "average amount of sales where region is central")
	require.NoError(t, err)
	assert.Contains(t, out, "average of sales.amount: no matching rows")
}

func TestQueryCommand_InvalidQueryExitsOne(t *testing.T) {
	out, err := runCLI(t, "query", "total amount of widgets")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "invalid:")
	assert.Contains(t, out, "unknown or missing table")
}

func TestQueryCommand_JSONEnvelope(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "query", "What is the total amount of sales")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	result, ok := data["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sum", result["operation"])
	assert.Equal(t, 4450.0, result["value"])
	assert.NotEmpty(t, data["request_id"])
}

func TestValidateCommand_Valid(t *testing.T) {
	out, err := runCLI(t, "validate", "average sales amount in west region")
	require.NoError(t, err)
	assert.Contains(t, out, `valid: average on table "sales"`)
	assert.Contains(t, out, "column: amount")
}

func TestValidateCommand_InvalidWithSuggestion(t *testing.T) {
	out, err := runCLI(t, "validate", "total amount of slaes")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "unknown or missing table")
	assert.Contains(t, out, `did you mean table "sales"?`)
}

func TestExplainCommand(t *testing.T) {
	out, err := runCLI(t, "explain", "total amount of widgets")
	require.NoError(t, err, "explain never fails on unresolvable queries")
	assert.Contains(t, out, "Query: total amount of widgets")
	assert.Contains(t, out, `1. Identified SUM operation from keyword "total".`)
	assert.Contains(t, out, `"widgets" is not a table we have`)
}

func TestTablesCommand(t *testing.T) {
	out, err := runCLI(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "customers")
	assert.Contains(t, out, "products")
	assert.Contains(t, out, "sales")
	assert.Contains(t, out, "amount")
}

func TestTablesCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "tables")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	tables, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, tables, 3)
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	_, err := runCLI(t, "--format", "xml", "tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingSpecsDirIsCommandError(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--specs", "testdata/nope", "tables"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.String(), "E005")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "nope")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "nope")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
