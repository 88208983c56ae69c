package cli

import "github.com/spf13/cobra"

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <query>",
		Short: "Show how a query would be processed, without executing it",
		Long: `Explain renders the translation reasoning as ordered steps: which
operation keyword matched, which table and column were detected, which
defaults were applied, and what would be computed. Nothing executes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
}

func runExplain(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	svc, err := buildService(opts, formatter)
	if err != nil {
		return err
	}

	outcome := svc.Explain(text)
	if formatter.Format == "json" {
		return formatter.JSON(outcome)
	}

	formatter.Textf("Query: %s", outcome.Query)
	for i, step := range outcome.Explanation.Steps {
		formatter.Textf("  %d. %s", i+1, step)
	}
	return nil
}
