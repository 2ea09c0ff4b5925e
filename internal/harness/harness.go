package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/soloq/internal/bus"
	"github.com/roach88/soloq/internal/coord"
	"github.com/roach88/soloq/internal/election"
	"github.com/roach88/soloq/internal/storage"
	"github.com/roach88/soloq/internal/testutil"
)

// startupTimeout bounds how long a scenario waits for the leader to
// announce itself before giving up.
const startupTimeout = 5 * time.Second

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string

	// Pass is true when every step matched its expectation.
	Pass bool

	// Failures holds one line per mismatched step.
	Failures []string

	// Trace is the full bus message trace, one line per message, in
	// publish order.
	Trace []string
}

// Run executes a scenario against a fresh cluster.
//
// An error means the scenario could not be run at all (no leader, setup
// failed); expectation mismatches land in Result.Failures instead.
func Run(sc *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := bus.NewInMemory()
	registry := election.NewRegistry()

	tap, err := b.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("subscribe trace tap: %w", err)
	}
	rec := newRecorder(tap)
	defer rec.Stop()

	dbPath := sc.Database
	if dbPath == "" {
		dbPath = ":memory:"
	}
	opener := storage.NewSQLite(dbPath)

	var ids coord.IDGenerator
	if len(sc.QueryIDs) > 0 {
		ids = testutil.NewFixedIDGenerator(sc.QueryIDs...)
	} else {
		ids = testutil.NewSequenceIDGenerator("q")
	}

	ctx := context.Background()

	workers := make([]*coord.Worker, sc.Workers)
	defer func() {
		for i := len(workers) - 1; i >= 0; i-- {
			if workers[i] != nil {
				workers[i].Close()
			}
		}
	}()

	for i := range workers {
		workers[i] = coord.New(b, registry, opener,
			coord.WithID(fmt.Sprintf("worker-%d", i)),
			coord.WithIDGenerator(ids),
			coord.WithLogger(logger),
		)
		if err := workers[i].Start(ctx); err != nil {
			return nil, fmt.Errorf("start worker %d: %w", i, err)
		}

		if i == 0 {
			// Worker 0 must win the election, or the trace (and the
			// forwarding topology) would depend on goroutine scheduling.
			select {
			case <-rec.LeaderElected():
			case <-time.After(startupTimeout):
				return nil, fmt.Errorf("no leader announced within %v", startupTimeout)
			}
		}
	}

	for i, stmt := range sc.Setup {
		if _, err := workers[0].ExecuteQuery(ctx, stmt); err != nil {
			return nil, fmt.Errorf("setup %d (%s): %w", i, stmt, err)
		}
	}

	result := &Result{Scenario: sc.Name, Pass: true}

	for i, step := range sc.Steps {
		got, err := workers[step.Worker].ExecuteQuery(ctx, step.SQL)

		switch {
		case step.WantError != "":
			if err == nil {
				result.fail("step %d (%s): expected error %q, got result %q",
					i, step.SQL, step.WantError, got)
			} else if err.Error() != step.WantError {
				result.fail("step %d (%s): expected error %q, got %q",
					i, step.SQL, step.WantError, err.Error())
			}
		case err != nil:
			result.fail("step %d (%s): unexpected error: %v", i, step.SQL, err)
		case step.WantResult != "" && got != step.WantResult:
			result.fail("step %d (%s): expected %q, got %q",
				i, step.SQL, step.WantResult, got)
		}
	}

	// Every forwarded step produces a request/response pair; the election
	// produced one announcement. Leader-local steps never touch the bus.
	expected := 1
	for _, step := range sc.Steps {
		if step.Worker != 0 {
			expected += 2
		}
	}
	if err := rec.WaitFor(expected, startupTimeout); err != nil {
		return nil, err
	}

	result.Trace = rec.Lines()
	return result, nil
}

func (r *Result) fail(format string, args ...any) {
	r.Pass = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}
