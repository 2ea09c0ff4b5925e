// Command soloq runs single-writer SQLite worker clusters from the
// command line. See `soloq --help` for the available subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/soloq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
