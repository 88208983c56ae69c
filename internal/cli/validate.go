package cli

import (
	"github.com/spf13/cobra"

	"github.com/tabletalk/tabletalk/internal/validate"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <query>",
		Short: "Check whether a query can be executed, without executing it",
		Long: `Validate resolves the query and checks it against the schema: table
exists, column exists, column type is compatible with the operation,
and every filter condition is well-typed. Issues accumulate - one run
reports all of them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	svc, err := buildService(opts, formatter)
	if err != nil {
		return err
	}

	outcome := svc.Validate(text)
	if formatter.Format == "json" {
		if err := formatter.JSON(outcome); err != nil {
			return err
		}
	} else {
		printValidation(formatter, outcome.Validation)
	}

	if !outcome.Validation.Valid {
		return NewExitError(ExitFailure, "query failed validation")
	}
	return nil
}

func printValidation(f *OutputFormatter, result validate.Result) {
	if result.Valid {
		f.Textf("valid: %s on table %q", result.Op, result.Table)
		if result.Column != "" {
			f.Textf("column: %s", result.Column)
		}
		return
	}
	f.Textf("invalid:")
	for _, issue := range result.Issues {
		f.Textf("  - %s", issue)
	}
	if result.Suggestion != "" {
		f.Textf("suggestion: %s", result.Suggestion)
	}
}
