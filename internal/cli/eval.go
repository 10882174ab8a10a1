package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/loader"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Vars    []string
	Deck    string
	Trace   bool
	Strings string
}

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Expression string   `json:"expression"`
	Value      any      `json:"value"`
	Type       string   `json:"type"`
	Trace      []string `json:"trace,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression",
		Long: `Evaluate an expression against a context built from --var flags and,
optionally, the context block of a deck file.

Examples:
  storydeck eval "2 + 3 * 4"
  storydeck eval "gold >= 5 and not cursed" --var gold=7 --var cursed=false
  storydeck eval "bark_limit - bark_count" --deck barks.yaml --trace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "context value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Deck, "deck", "", "deck file whose context block is loaded first")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print evaluation steps")
	cmd.Flags().StringVar(&opts.Strings, "strings", "single", "string quoting (single|double|escaped-single|escaped-double)")

	return cmd
}

func runEval(opts *EvalOptions, text string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	format, err := expr.ParseStringFormat(opts.Strings)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --strings", err)
	}

	ctx, err := contextFromVars(opts.Vars)
	if err != nil {
		_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	if opts.Deck != "" {
		f.VerboseLog("Loading context from %s", opts.Deck)
		if _, err := loader.NewDeck(opts.Deck, ctx, loader.Options{}); err != nil {
			return f.Fail(ExitCommandError, "failed to load deck", err)
		}
	}

	n, err := expr.Parse(text)
	if err != nil {
		return f.Fail(ExitFailure, "parse failed", err)
	}

	var trace *expr.Trace
	if opts.Trace {
		trace = expr.NewTrace()
		trace.Format = format
	}

	v, err := expr.Eval(n, ctx, trace)
	if err != nil {
		return f.Fail(ExitFailure, "evaluation failed", err)
	}

	result := EvalResult{
		Expression: expr.Write(n, expr.WriteOptions{Strings: format}),
		Value:      expr.Native(v),
		Type:       typeName(v),
	}
	if trace != nil {
		result.Trace = trace.Lines
	}

	if f.JSON() {
		return f.Success(result)
	}

	writeTrace(f.Writer, result.Trace)
	fmt.Fprintln(f.Writer, expr.FormatValue(v, format))
	return nil
}

func typeName(v expr.Value) string {
	switch v.(type) {
	case expr.Bool:
		return "bool"
	case expr.Number:
		return "number"
	case expr.Text:
		return "text"
	default:
		return "unknown"
	}
}

func writeTrace(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
