package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Assert checks a scenario's expectation against the observed outcome.
// Expectations are subset matches: zero-valued fields are not asserted.
func Assert(t *testing.T, s *Scenario, out *Outcome) {
	t.Helper()

	exp := s.Expect
	if exp.Operation != "" {
		assert.Equal(t, exp.Operation, string(out.Validation.Op), "operation")
	}
	if exp.Table != "" {
		assert.Equal(t, exp.Table, out.Validation.Table, "table")
	}
	if exp.Column != "" {
		assert.Equal(t, exp.Column, out.Validation.Column, "column")
	}

	assert.Equal(t, exp.Valid, out.Validation.Valid, "valid (issues: %v)", out.Validation.Issues)
	for _, want := range exp.Issues {
		found := false
		for _, issue := range out.Validation.Issues {
			if strings.Contains(issue, want) {
				found = true
				break
			}
		}
		assert.True(t, found, "no issue containing %q in %v", want, out.Validation.Issues)
	}

	if exp.Value != nil {
		require.NotNil(t, out.Result, "expected an execution result")
		assert.InDelta(t, *exp.Value, out.Result.Value, 1e-9, "value")
	}
	if exp.Count != nil {
		require.NotNil(t, out.Result, "expected an execution result")
		assert.Equal(t, *exp.Count, out.Result.Count, "count")
	}
	if !exp.Valid {
		assert.Nil(t, out.Result, "invalid query must not execute")
	}
}
