package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
deck: decks/town.yaml
seed: 42
context:
  wealth: 2
functions:
  has_tag:
    arity: 1
    true_for: [danger]
steps:
  - action: reshuffle
    tag: start
    expect:
      pile: [docks]
  - action: draw_hand
    count: 2
    reshuffle: true
assertions:
  - type: drawn_count
    storylet: docks
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "decks", "town.yaml"), scenario.Deck)
	assert.Equal(t, uint64(42), scenario.Seed)
	assert.Equal(t, 2, scenario.Context["wealth"])
	assert.Equal(t, []string{"danger"}, scenario.Functions["has_tag"].TrueFor)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, "start", scenario.Steps[0].Tag)
	assert.Equal(t, []string{"docks"}, scenario.Steps[0].Expect.Pile)
	assert.True(t, scenario.Steps[1].Reshuffle)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertDrawnCount, scenario.Assertions[0].Type)
}

func TestLoadScenario_AbsoluteDeckPathKept(t *testing.T) {
	dir := t.TempDir()
	deckPath := filepath.Join(dir, "elsewhere", "deck.yaml")
	path := writeScenario(t, dir, `
name: abs
description: absolute deck path
deck: `+deckPath+`
steps:
  - action: reshuffle
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, deckPath, scenario.Deck)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: misspelled key
deck: deck.yaml
step:
  - action: draw
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_EmptyPileExpectation(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: empty
description: explicit empty pile
deck: deck.yaml
steps:
  - action: reshuffle
    expect:
      pile: []
  - action: draw
`))
	require.NoError(t, err)

	require.NotNil(t, scenario.Steps[0].Expect)
	assert.NotNil(t, scenario.Steps[0].Expect.Pile)
	assert.Empty(t, scenario.Steps[0].Expect.Pile)
	assert.Nil(t, scenario.Steps[1].Expect)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing name",
			content: "description: d\ndeck: x.yaml\nsteps:\n  - action: draw\n",
			errMsg:  "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ndeck: x.yaml\nsteps:\n  - action: draw\n",
			errMsg:  "description is required",
		},
		{
			name:    "missing deck",
			content: "name: n\ndescription: d\nsteps:\n  - action: draw\n",
			errMsg:  "deck is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\ndeck: x.yaml\n",
			errMsg:  "steps list is required",
		},
		{
			name:    "negative chunk size",
			content: "name: n\ndescription: d\ndeck: x.yaml\nchunk_size: -1\nsteps:\n  - action: draw\n",
			errMsg:  "chunk_size must be non-negative",
		},
		{
			name:    "unknown action",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: shuffle\n",
			errMsg:  `steps[0]: unknown action "shuffle"`,
		},
		{
			name:    "missing action",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - count: 2\n",
			errMsg:  "steps[0]: action is required",
		},
		{
			name:    "draw_hand without count",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: draw_hand\n",
			errMsg:  "draw_hand requires count",
		},
		{
			name:    "play without storylet",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: play\n",
			errMsg:  "play requires storylet",
		},
		{
			name:    "empty set",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: set\n",
			errMsg:  "set requires at least one value",
		},
		{
			name:    "true_for without argument",
			content: "name: n\ndescription: d\ndeck: x.yaml\nfunctions:\n  f:\n    arity: 0\n    true_for: [a]\nsteps:\n  - action: draw\n",
			errMsg:  "functions.f: true_for needs at least one argument",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: draw\nassertions:\n  - type: trace_contains\n",
			errMsg:  `assertions[0]: unknown assertion type "trace_contains"`,
		},
		{
			name:    "drawn_order needs two",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: draw\nassertions:\n  - type: drawn_order\n    storylets: [a]\n",
			errMsg:  "drawn_order requires at least 2 storylets",
		},
		{
			name:    "context_value needs key",
			content: "name: n\ndescription: d\ndeck: x.yaml\nsteps:\n  - action: draw\nassertions:\n  - type: context_value\n    value: 1\n",
			errMsg:  "context_value requires key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
