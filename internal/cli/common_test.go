package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVar(t *testing.T) {
	tests := []struct {
		in    string
		name  string
		value any
	}{
		{"gold=7", "gold", 7.0},
		{"ratio=0.5", "ratio", 0.5},
		{"cursed=true", "cursed", true},
		{"cursed=false", "cursed", false},
		{"street=north", "street", "north"},
		{"empty=", "empty", ""},
		{" spaced =a=b", "spaced", "a=b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value, err := parseVar(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseVar_Invalid(t *testing.T) {
	for _, in := range []string{"gold", "=7", ""} {
		_, _, err := parseVar(in)
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), "expected name=value")
	}
}

func TestContextFromVars_LaterWins(t *testing.T) {
	ctx, err := contextFromVars([]string{"gold=1", "gold=2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"gold": 2.0}, ctx.Values())
}

func TestFindDeckFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "storylets: []")
	writeFile(t, dir, "b.json", "{}")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".hidden"), 0o755))
	writeFile(t, filepath.Join(dir, ".hidden"), "c.yaml", "storylets: []")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "d.cue", "storylets: []")
	explicit := writeFile(t, t.TempDir(), "deck.toml", "")

	files, err := findDeckFiles([]string{dir, explicit})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "nested", "d.cue"),
		explicit,
	}, files)
}

func TestFindDeckFiles_Missing(t *testing.T) {
	_, err := findDeckFiles([]string{filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
