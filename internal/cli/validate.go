package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/loader"
	"github.com/roach88/storydeck/internal/storylet"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Vars      []string
	Reshuffle bool
}

// FileResult is the validation outcome for one deck file.
type FileResult struct {
	Path      string    `json:"path"`
	Valid     bool      `json:"valid"`
	Storylets int       `json:"storylets"`
	Pile      int       `json:"pile,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Error     *CLIError `json:"error,omitempty"`
}

// ValidationResult holds validation results for every file.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate deck files",
		Long: `Load each deck file into a fresh deck, reporting parse errors, malformed
packets, context conflicts and invalid storylets. Directories are searched
for .yaml, .yml, .json, .jsonc and .cue files.

Names that expressions read but neither the deck's context nor --var
defines are reported as warnings; a host may still supply them at runtime.

With --reshuffle every condition and priority is also evaluated once, which
needs any host values the deck reads to be passed with --var.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (path not found, no deck files)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "host context value as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Reshuffle, "reshuffle", false, "evaluate conditions and priorities once")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	files, err := findDeckFiles(paths)
	if err != nil {
		code := ErrCodeScanError
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = f.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read deck files", err)
	}
	if len(files) == 0 {
		_ = f.Error(ErrCodeNoFiles, fmt.Sprintf("no deck files found in %v", paths), nil)
		return NewExitError(ExitCommandError, "no deck files found")
	}

	result := ValidationResult{Valid: true, Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		f.VerboseLog("Validating %s", path)
		fr, err := validateFile(opts, path)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		if !fr.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fr)
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = firstFileError(result.Files)
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		for _, fr := range result.Files {
			if fr.Valid {
				fmt.Fprintf(f.Writer, "✓ %s (%d storylets)\n", fr.Path, fr.Storylets)
				for _, w := range fr.Warnings {
					fmt.Fprintf(f.Writer, "  warning: %s\n", w)
				}
				continue
			}
			fmt.Fprintf(f.Writer, "✗ %s\n", fr.Path)
			fmt.Fprintf(f.Writer, "  %s: %s\n", fr.Error.Code, fr.Error.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

// validateFile loads one file. Only a malformed --var is returned as an
// error; deck problems are reported in the result.
func validateFile(opts *ValidateOptions, path string) (FileResult, error) {
	ctx, err := contextFromVars(opts.Vars)
	if err != nil {
		return FileResult{}, err
	}

	fr := FileResult{Path: path}
	d, err := loader.NewDeck(path, ctx, loader.Options{Reshuffle: opts.Reshuffle})
	if err != nil {
		fr.Error = &CLIError{Code: CodeFor(err), Message: err.Error()}
		return fr, nil
	}

	fr.Valid = true
	fr.Storylets = d.Len()
	fr.Pile = d.PileSize()
	fr.Warnings = undefinedNames(d)
	return fr, nil
}

// undefinedNames lists, per storylet in deck order, the variables and
// functions its expressions reference that the deck context lacks.
func undefinedNames(d *deck.Deck) []string {
	ctx := d.Context()

	var warnings []string
	for _, s := range d.Storylets() {
		seen := make(map[string]bool)
		report := func(kind, name string) {
			if ctx.Has(name) || seen[kind+" "+name] {
				return
			}
			seen[kind+" "+name] = true
			warnings = append(warnings, fmt.Sprintf("%s: undefined %s %s", s.ID, kind, name))
		}

		for _, n := range storyletExprs(s) {
			for _, name := range expr.Variables(n) {
				report("variable", name)
			}
			for _, name := range expr.Functions(n) {
				report("function", name)
			}
		}
	}
	return warnings
}

func storyletExprs(s *storylet.Storylet) []expr.Node {
	var nodes []expr.Node
	if s.Condition != nil {
		nodes = append(nodes, s.Condition)
	}
	if s.Priority.Expr != nil {
		nodes = append(nodes, s.Priority.Expr)
	}
	for _, updates := range [][]env.Update{s.UpdateOnDrawn, s.UpdateOnPlayed} {
		for _, u := range updates {
			if u.Expr != nil {
				nodes = append(nodes, u.Expr)
			}
		}
	}
	return nodes
}

func firstFileError(files []FileResult) *CLIError {
	for _, fr := range files {
		if fr.Error != nil {
			return fr.Error
		}
	}
	return nil
}
