package harness

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test: a worker cluster plus a flow of
// statements with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Workers is the cluster size. Worker 0 is started first and becomes
	// the leader.
	Workers int `yaml:"workers"`

	// Database is the SQLite path; defaults to ":memory:".
	Database string `yaml:"database,omitempty"`

	// Setup statements run on the leader before the steps, and are
	// assumed to succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Steps is the main flow.
	Steps []Step `yaml:"steps"`

	// QueryIDs fixes the correlation ids issued during the run, in order.
	// Required for golden-trace scenarios; when absent, sequential ids
	// ("q-1", "q-2", ...) are used.
	QueryIDs []string `yaml:"query_ids,omitempty"`
}

// Step issues one statement from one worker.
type Step struct {
	// Worker is the index of the issuing worker. 0 exercises the leader's
	// local path; anything else exercises forwarding.
	Worker int `yaml:"worker"`

	// SQL is the statement to execute.
	SQL string `yaml:"sql"`

	// WantResult, when set, is the exact expected result text.
	WantResult string `yaml:"want_result,omitempty"`

	// WantError, when set, is the exact expected error text. Mutually
	// exclusive with WantResult.
	WantError string `yaml:"want_error,omitempty"`
}

// scenarioSchema is the CUE definition every scenario file must satisfy.
// Closed structs reject misspelled fields.
const scenarioSchema = `
#Step: {
	worker:       int & >=0
	sql:          string & !=""
	want_result?: string
	want_error?:  string
}

#Scenario: {
	name:         string & !=""
	description?: string
	workers:      int & >=1
	database?:    string
	setup?: [...string]
	steps: [...#Step]
	query_ids?: [...string]
}
`

// LoadScenario reads, schema-validates and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}

	if err := sc.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

// validateSchema unifies the raw document with the #Scenario definition.
func validateSchema(raw any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema: %w", err)
	}
	return nil
}

// check enforces the cross-field constraints CUE does not express here.
func (sc *Scenario) check() error {
	for i, step := range sc.Steps {
		if step.Worker >= sc.Workers {
			return fmt.Errorf("step %d: worker %d out of range (cluster size %d)",
				i, step.Worker, sc.Workers)
		}
		if step.WantResult != "" && step.WantError != "" {
			return fmt.Errorf("step %d: want_result and want_error are mutually exclusive", i)
		}
	}
	return nil
}
