package cli

import (
	"github.com/spf13/cobra"

	"github.com/tabletalk/tabletalk/internal/schema"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables",
		Short:         "List known tables and their columns",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}
}

// tableInfo is the JSON shape for one table listing.
type tableInfo struct {
	Name    string       `json:"name"`
	Columns []columnInfo `json:"columns"`
}

type columnInfo struct {
	Name string            `json:"name"`
	Type schema.ColumnType `json:"type"`
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := schema.LoadSpecs(opts.SpecsDir)
	if err != nil {
		return specError(formatter, err)
	}

	infos := make([]tableInfo, 0)
	for _, t := range loaded.Registry.Tables() {
		info := tableInfo{Name: t.Name}
		for _, c := range t.Columns {
			info.Columns = append(info.Columns, columnInfo{Name: c.Name, Type: c.Type})
		}
		infos = append(infos, info)
	}

	if formatter.Format == "json" {
		return formatter.JSON(infos)
	}
	for _, info := range infos {
		formatter.Textf("%s", info.Name)
		for _, c := range info.Columns {
			formatter.Textf("  %-12s %s", c.Name, c.Type)
		}
	}
	return nil
}
