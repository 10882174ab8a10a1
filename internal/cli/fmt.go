package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/expr"
)

// FmtOptions holds flags for the fmt command.
type FmtOptions struct {
	*RootOptions
	Strings string
}

// FmtResult is one formatted expression.
type FmtResult struct {
	Source      string `json:"source"`
	Formatted   string `json:"formatted"`
	Specificity int    `json:"specificity"`
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FmtOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fmt <expression>...",
		Short: "Rewrite expressions in canonical form",
		Long: `Parse each expression and write it back with the minimal parentheses
that preserve its structure.

Examples:
  storydeck fmt "(a + b) * c" "a - (b - c)"
  storydeck fmt "name == 'north'" --strings double`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Strings, "strings", "single", "string quoting (single|double|escaped-single|escaped-double)")

	return cmd
}

func runFmt(opts *FmtOptions, sources []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	format, err := expr.ParseStringFormat(opts.Strings)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --strings", err)
	}

	results := make([]FmtResult, 0, len(sources))
	for _, src := range sources {
		n, err := expr.Parse(src)
		if err != nil {
			return f.Fail(ExitFailure, fmt.Sprintf("parse failed for %q", src), err)
		}
		results = append(results, FmtResult{
			Source:      src,
			Formatted:   expr.Write(n, expr.WriteOptions{Strings: format}),
			Specificity: expr.Specificity(n),
		})
	}

	if f.JSON() {
		return f.Success(results)
	}

	for _, r := range results {
		fmt.Fprintln(f.Writer, r.Formatted)
	}
	return nil
}
