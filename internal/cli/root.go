// Package cli is the command front door for the query core: thin
// plumbing that hands raw text to the service and formats what comes
// back. All translation logic lives below internal/service.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	SpecsDir string // CUE spec directory (schema + seed rows)
	Database string // optional SQLite file overriding seed rows
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tabletalk CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tabletalk",
		Short: "tabletalk - ask questions about tabular data in plain language",
		Long: `tabletalk translates short natural-language questions ("total sales
amount last quarter") into structured aggregate/filter/select queries
against a fixed schema, and can explain, validate, or execute them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.SpecsDir, "specs", "specs", "directory of CUE table specs")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite file to load rows from (default: seed rows from specs)")

	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
