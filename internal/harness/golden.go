package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures everything a scenario run should reproduce exactly
// for a given seed.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Seed         uint64         `json:"seed"`
	Trace        []TraceEvent   `json:"trace"`
	Context      map[string]any `json:"context"`
	EvalTrace    []string       `json:"eval_trace,omitempty"`
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// Map keys are sorted and HTML characters are left unescaped so comparison
// operators in the evaluation trace stay readable.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewSnapshot builds the golden snapshot for a finished run.
func NewSnapshot(scenario *Scenario, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: scenario.Name,
		Seed:         scenario.Seed,
		Trace:        result.Trace,
		Context:      result.Context,
		EvalTrace:    result.EvalTrace,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run. A snapshot mismatch fails
// t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against the
// scenario's golden file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
