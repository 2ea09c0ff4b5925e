package cli

import (
	"github.com/spf13/cobra"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Database string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute a single statement",
		Long: `Execute one SQL statement against the database and print the result.

A single worker is started; it wins the election and executes locally.

Example:
  soloq exec --db ./app.db "SELECT count(*) FROM users"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execStatement(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func execStatement(opts *ExecOptions, stmt string, cmd *cobra.Command) error {
	workers, shutdown, err := startCluster(cmd.Context(), opts.Database, 1)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start worker", err)
	}
	defer shutdown()

	result, err := workers[0].ExecuteQuery(cmd.Context(), stmt)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}

	renderResult(cmd.OutOrStdout(), opts.Format, result)
	return nil
}
