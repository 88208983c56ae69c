package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/exec"
	"github.com/tabletalk/tabletalk/internal/intent"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <query>",
		Short: "Translate and execute a query against the dataset",
		Long: `Query validates the translated intent first; when valid it executes
the aggregate, filter, or selection and prints the result. When
invalid, the validation issues come back instead and the command exits
non-zero.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}
}

func runQuery(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	svc, err := buildService(opts, formatter)
	if err != nil {
		return err
	}

	outcome, err := svc.Query(text)
	if err != nil {
		_ = formatter.Error("E010", err.Error(), nil)
		return WrapExitError(ExitFailure, "execution failed", err)
	}

	if formatter.Format == "json" {
		if err := formatter.JSON(outcome); err != nil {
			return err
		}
	} else if outcome.Validation != nil {
		printValidation(formatter, *outcome.Validation)
	} else {
		printResult(formatter, *outcome.Result)
	}

	if outcome.Validation != nil {
		return NewExitError(ExitFailure, "query failed validation")
	}
	return nil
}

func printResult(f *OutputFormatter, res exec.Result) {
	switch res.Op {
	case intent.OpSum:
		f.Textf("sum of %s.%s = %g (%d rows)", res.Table, res.Column, res.Value, res.Count)
	case intent.OpAvg:
		if res.Note != "" {
			f.Textf("average of %s.%s: %s", res.Table, res.Column, res.Note)
			return
		}
		f.Textf("average of %s.%s = %g (%d rows)", res.Table, res.Column, res.Value, res.Count)
	case intent.OpCount:
		f.Textf("count of %s = %d", res.Table, res.Count)
	default:
		f.Textf("%d row(s) from %s", res.Count, res.Table)
		for _, row := range res.Rows {
			f.Textf("  %s", formatRow(row))
		}
		if res.Truncated {
			f.Textf("  ... truncated to %d rows", len(res.Rows))
		}
	}
}

// formatRow renders one row with sorted keys for stable output.
func formatRow(row dataset.Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + cellString(row[k])
	}
	return strings.Join(parts, " ")
}

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return intent.Number(c).String()
	default:
		return "?"
	}
}
