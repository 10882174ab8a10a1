package cli

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/loader"
)

// parseVar splits a --var flag of the form name=value. The value becomes a
// bool for true/false, a number when it parses as one, and text otherwise.
func parseVar(s string) (string, any, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid --var %q: expected name=value", s)
	}

	switch raw {
	case "true":
		return name, true, nil
	case "false":
		return name, false, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return name, f, nil
	}
	return name, raw, nil
}

// contextFromVars builds the host context from --var flags. Later flags
// override earlier ones.
func contextFromVars(vars []string) (env.Env, error) {
	ctx := env.New()
	for _, v := range vars {
		name, value, err := parseVar(v)
		if err != nil {
			return nil, err
		}
		ctx.Set(name, value)
	}
	return ctx, nil
}

// findDeckFiles expands paths into deck files. Directories are walked,
// skipping hidden directories; only loader.Extensions are kept. Explicit
// file arguments are kept regardless of extension so the loader reports an
// unsupported format.
func findDeckFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(loader.Extensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}
	return files, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
