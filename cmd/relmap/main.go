package main

import (
	"os"

	"github.com/roach88/relmap/internal/cli"
)

func main() {
	opts := &cli.RootOptions{}
	cmd := cli.NewRootCommandWithOptions(opts)
	if err := cmd.Execute(); err != nil {
		cli.Report(cmd.ErrOrStderr(), opts.Format, opts.Verbose, err)
		os.Exit(cli.GetExitCode(err))
	}
}
