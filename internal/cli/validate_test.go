package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gateDeck = `context:
  gold: 4
storylets:
  - id: toll
    condition: gold >= 3
  - id: beg
    condition: gold < 3
`

func TestValidate_ValidFile(t *testing.T) {
	out, err := executeCommand(t, "validate", barksDeck())
	require.NoError(t, err)
	assert.Equal(t, "✓ "+barksDeck()+" (6 storylets)\n"+
		"  warning: poor_street: undefined variable street_wealth\n"+
		"  warning: rich_street: undefined variable street_wealth\n"+
		"  warning: close_call: undefined function encounter_tag\n", out)
}

func TestValidate_UndefinedNames(t *testing.T) {
	path := writeFile(t, t.TempDir(), "names.yaml", `context:
  gold: 1
storylets:
  - id: shop
    condition: gold > price and in_town()
    priority: gold + discount
    updateOnPlayed:
      gold: gold - price
`)

	out, err := executeCommand(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var result ValidationResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Files, 1)
	assert.Equal(t, []string{
		"shop: undefined variable price",
		"shop: undefined function in_town",
		"shop: undefined variable discount",
	}, result.Files[0].Warnings)

	out, err = executeCommand(t, "--format", "json", "validate",
		"--var", "price=2", "--var", "discount=1", path)
	require.NoError(t, err)

	var withVars ValidationResult
	decodeResponse(t, out, &withVars)
	require.Len(t, withVars.Files, 1)
	assert.Equal(t, []string{"shop: undefined function in_town"}, withVars.Files[0].Warnings)
}

func TestValidate_Directory(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "gate.yaml", gateDeck)
	bad := writeFile(t, dir, "broken.yaml", "storylets: [\n")
	writeFile(t, dir, "README.md", "not a deck")

	out, err := executeCommand(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+bad+"\n  E020: ")
	assert.Contains(t, out, "✓ "+good+" (2 storylets)")
}

func TestValidate_DuplicateStorylet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dup.yaml", "storylets:\n  - id: a\n  - id: a\n")

	out, err := executeCommand(t, "--format", "json", "validate", path)
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDeckDuplicate, resp.Error.Code)
	assert.False(t, result.Valid)
}

func TestValidate_Reshuffle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gate.yaml", gateDeck)

	out, err := executeCommand(t, "--format", "json", "validate", "--reshuffle", path)
	require.NoError(t, err)

	var result ValidationResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Files, 1)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.Files[0].Storylets)
	assert.Equal(t, 1, result.Files[0].Pile)
}

func TestValidate_ReshuffleNeedsHostValues(t *testing.T) {
	out, err := executeCommand(t, "validate", "--reshuffle", barksDeck())
	require.Error(t, err)
	assert.Contains(t, out, "E011: ")

	dir := t.TempDir()
	path := writeFile(t, dir, "streets.yaml", "storylets:\n  - id: poor\n    condition: street_wealth < 2\n")
	out, err = executeCommand(t, "validate", "--reshuffle", "--var", "street_wealth=1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+path)
}

func TestValidate_CommandErrors(t *testing.T) {
	empty := t.TempDir()

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing path", []string{"validate", filepath.Join(empty, "nope")}, ErrCodeNotFound},
		{"no deck files", []string{"validate", empty}, ErrCodeNoFiles},
		{"bad var", []string{"validate", "--var", "x", barksDeck()}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			if tt.code != "" {
				resp := decodeResponse(t, out, nil)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.code, resp.Error.Code)
			}
		})
	}
}
