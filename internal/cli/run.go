package cli

import (
	"bufio"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Workers  int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a worker cluster and execute statements from stdin",
		Long: `Start a cluster of workers sharing one broadcast bus and one SQLite
database, then read SQL statements from stdin, one per line.

Statements rotate round-robin across the workers, so most of them are
forwarded to the leader over the bus rather than executed locally.

Example:
  echo "SELECT 1" | soloq run --db ./app.db
  soloq run --db ./app.db --workers 5 --verbose < statements.sql`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCluster(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 3, "number of workers in the cluster")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runCluster(opts *RunOptions, cmd *cobra.Command) error {
	if opts.Workers < 1 {
		return NewExitError(ExitCommandError, "--workers must be at least 1")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers, shutdown, err := startCluster(ctx, opts.Database, opts.Workers)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start cluster", err)
	}
	defer shutdown()

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	next := 0

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		stmt := strings.TrimSpace(scanner.Text())
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}

		w := workers[next%len(workers)]
		next++

		result, err := w.ExecuteQuery(ctx, stmt)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		renderResult(out, opts.Format, result)
	}

	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "reading statements", err)
	}
	return nil
}
