package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario drops a scenario file into a temp dir and returns its path.
func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: simple
description: a follower forwards one statement
workers: 2
setup:
  - CREATE TABLE t (id INTEGER)
steps:
  - worker: 1
    sql: SELECT 1
    want_result: '[{"1":1}]'
query_ids:
  - q-1
`)

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "simple", sc.Name)
	assert.Equal(t, 2, sc.Workers)
	require.Len(t, sc.Steps, 1)
	assert.Equal(t, 1, sc.Steps[0].Worker)
	assert.Equal(t, "SELECT 1", sc.Steps[0].SQL)
	assert.Equal(t, `[{"1":1}]`, sc.Steps[0].WantResult)
	assert.Equal(t, []string{"q-1"}, sc.QueryIDs)
}

func TestLoadScenario_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			"missing name",
			"workers: 2\nsteps:\n  - worker: 0\n    sql: SELECT 1\n",
		},
		{
			"zero workers",
			"name: x\nworkers: 0\nsteps:\n  - worker: 0\n    sql: SELECT 1\n",
		},
		{
			"empty sql",
			"name: x\nworkers: 1\nsteps:\n  - worker: 0\n    sql: ''\n",
		},
		{
			"misspelled field",
			"name: x\nworkers: 1\nstesp:\n  - worker: 0\n    sql: SELECT 1\n",
		},
		{
			"misspelled step field",
			"name: x\nworkers: 1\nsteps:\n  - worker: 0\n    sql: SELECT 1\n    want_resalt: '[]'\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_WorkerOutOfRange(t *testing.T) {
	path := writeScenario(t, `
name: out-of-range
workers: 2
steps:
  - worker: 2
    sql: SELECT 1
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadScenario_ConflictingExpectations(t *testing.T) {
	path := writeScenario(t, `
name: conflicting
workers: 1
steps:
  - worker: 0
    sql: SELECT 1
    want_result: '[]'
    want_error: boom
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_NotYAML(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "{{{ nope"))
	assert.Error(t, err)
}
