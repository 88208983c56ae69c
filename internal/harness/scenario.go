// Package harness runs YAML conformance scenarios through the full
// pipeline and compares explanation transcripts against golden files.
//
// Scenarios pin the externally observable contract: given this query
// text, the system resolves this operation/table/column, validates this
// way, and (when executable) computes this value. The fixed clock and
// fixed request IDs keep every transcript byte-stable.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario (also the golden file name).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Query is the natural-language input under test.
	Query string `yaml:"query"`

	// Expect describes the required outcome.
	Expect Expectation `yaml:"expect"`
}

// Expectation is a subset match: only set fields are asserted.
type Expectation struct {
	// Operation is the resolved operation kind (sum, count, average,
	// filter, select_all).
	Operation string `yaml:"operation,omitempty"`

	// Table and Column are the resolved component names.
	Table  string `yaml:"table,omitempty"`
	Column string `yaml:"column,omitempty"`

	// Valid is whether validation must pass.
	Valid bool `yaml:"valid"`

	// Issues are substrings that must each appear in some
	// validation issue (only checked when Valid is false).
	Issues []string `yaml:"issues,omitempty"`

	// Value is the expected aggregate result (SUM/AVG).
	Value *float64 `yaml:"value,omitempty"`

	// Count is the expected row count (COUNT, or the match count for
	// FILTER/SELECT_ALL).
	Count *int `yaml:"count,omitempty"`
}

// LoadScenario reads one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Query == "" {
		return nil, fmt.Errorf("scenario %s: query is required", path)
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario in a directory, sorted by
// file name for deterministic test order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var scenarios []*Scenario
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	return scenarios, nil
}
