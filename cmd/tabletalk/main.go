package main

import (
	"fmt"
	"os"

	"github.com/tabletalk/tabletalk/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Formatted output already went to stdout/stderr; the exit
		// code is the remaining signal.
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
