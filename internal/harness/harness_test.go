package harness

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietLogger keeps scenario runs from spamming test output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ForwardedFlow(t *testing.T) {
	sc := &Scenario{
		Name:    "forwarded-flow",
		Workers: 3,
		Setup: []string{
			"CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)",
			"INSERT INTO notes (id, body) VALUES (1, 'hello')",
		},
		Steps: []Step{
			{Worker: 1, SQL: "SELECT body FROM notes WHERE id = 1", WantResult: `[{"body":"hello"}]`},
			{Worker: 2, SQL: "INSERT INTO notes (id, body) VALUES (2, 'world')", WantResult: `[]`},
			{Worker: 1, SQL: "SELECT count(*) AS n FROM notes", WantResult: `[{"n":2}]`},
		},
	}

	result, err := Run(sc, quietLogger())
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures)
	assert.Empty(t, result.Failures)

	// One announcement plus a request/response pair per forwarded step.
	assert.Len(t, result.Trace, 7)
	assert.Equal(t, "new-leader leader=worker-0", result.Trace[0])
}

func TestRun_LeaderLocalStepsLeaveNoTrace(t *testing.T) {
	sc := &Scenario{
		Name:    "leader-local",
		Workers: 1,
		Steps: []Step{
			{Worker: 0, SQL: "SELECT 1", WantResult: `[{"1":1}]`},
		},
	}

	result, err := Run(sc, quietLogger())
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Failures)
	assert.Equal(t, []string{"new-leader leader=worker-0"}, result.Trace)
}

func TestRun_ExpectedEngineError(t *testing.T) {
	sc := &Scenario{
		Name:    "engine-error",
		Workers: 2,
		Steps: []Step{
			{Worker: 1, SQL: "SELECT * FROM missing_table", WantError: "no such table: missing_table"},
		},
	}

	result, err := Run(sc, quietLogger())
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Failures)
}

func TestRun_ReportsMismatch(t *testing.T) {
	sc := &Scenario{
		Name:    "mismatch",
		Workers: 2,
		Steps: []Step{
			{Worker: 1, SQL: "SELECT 1", WantResult: `[{"1":2}]`},
		},
	}

	result, err := Run(sc, quietLogger())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "expected")
}

func TestRun_SetupFailureAborts(t *testing.T) {
	sc := &Scenario{
		Name:    "bad-setup",
		Workers: 1,
		Setup:   []string{"CREATE BOGUS"},
	}

	_, err := Run(sc, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup")
}
