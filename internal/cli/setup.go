package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tabletalk/tabletalk/internal/dataset"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/service"
)

// newFormatter builds the output formatter for one command invocation.
// Verbose logs go to stderr to avoid corrupting JSON output.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// buildService loads the CUE specs, picks the row source (seed rows or
// a SQLite file), and constructs the service. Failures here are
// command errors (exit 2), not query failures.
func buildService(opts *RootOptions, f *OutputFormatter) (*service.Service, error) {
	loaded, err := schema.LoadSpecs(opts.SpecsDir)
	if err != nil {
		return nil, specError(f, err)
	}
	f.VerboseLog("Loaded %d CUE file(s) from %s", loaded.FileCount, opts.SpecsDir)

	var src dataset.Source
	if opts.Database != "" {
		mem, err := dataset.FromSQLite(opts.Database, loaded.Registry)
		if err != nil {
			_ = f.Error(schema.ErrCodeGeneric, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "load database", err)
		}
		f.VerboseLog("Loaded rows from %s", opts.Database)
		src = mem
	} else {
		src = dataset.FromSeed(loaded.Seed)
	}

	svc, err := service.New(loaded.Registry, src, service.Options{})
	if err != nil {
		_ = f.Error(schema.ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "build service", err)
	}
	return svc, nil
}

// specError reports a spec-loading failure with its structured code.
func specError(f *OutputFormatter, err error) error {
	var loadErr *schema.LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Message, nil)
	} else {
		_ = f.Error(schema.ErrCodeGeneric, err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, "load specs", err)
}
