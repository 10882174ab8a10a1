package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"tavern_evening", "gate_toll"} {
		t.Run(name, func(t *testing.T) {
			scenario := loadTestScenario(t, name)
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "tavern_evening")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario, first).Marshal()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario, second).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSnapshot_MarshalKeepsOperators(t *testing.T) {
	snap := &TraceSnapshot{
		ScenarioName: "ops",
		Trace:        []TraceEvent{},
		Context:      map[string]any{"b": 2.0, "a": 1.0},
		EvalTrace:    []string{"Evaluated: 1 < 2 = true"},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)

	assert.Contains(t, string(data), `"Evaluated: 1 < 2 = true"`)
	assert.Contains(t, string(data), "\"a\": 1,\n    \"b\": 2")
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "gate_toll.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, scenario, result))
}
