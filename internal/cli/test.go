package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/soloq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against fresh worker clusters.

Each scenario starts its own bus, lock registry and in-memory database,
executes the configured flow and checks every expectation.

Example:
  soloq test ./scenarios
  soloq test ./scenarios/forwarded_select.yaml --verbose`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	return cmd
}

func runScenarios(opts *TestOptions, args []string, cmd *cobra.Command) error {
	paths, err := collectScenarioPaths(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "collecting scenarios", err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	out := cmd.OutOrStdout()
	failed := 0

	for _, path := range paths {
		sc, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "loading scenario", err)
		}

		result, err := harness.Run(sc, slog.Default())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("running scenario %s", sc.Name), err)
		}

		if result.Pass {
			fmt.Fprintf(out, "PASS %s\n", sc.Name)
		} else {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", sc.Name)
			for _, failure := range result.Failures {
				fmt.Fprintf(out, "  %s\n", failure)
			}
		}

		if opts.Verbose {
			for _, line := range result.Trace {
				fmt.Fprintf(out, "  trace: %s\n", line)
			}
		}
	}

	fmt.Fprintf(out, "%d scenario(s), %d failed\n", len(paths), failed)

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

// collectScenarioPaths expands directories into their *.yaml files.
func collectScenarioPaths(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(arg, "*.yaml"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}

	return paths, nil
}
