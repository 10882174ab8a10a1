package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/loader"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Deck   string
	Vars   []string
	Indent int
}

// TreeDump is the JSON payload for an expression dump.
type TreeDump struct {
	Expression  string `json:"expression"`
	Tree        string `json:"tree"`
	Specificity int    `json:"specificity"`
}

// DeckDump is the JSON payload for a deck dump.
type DeckDump struct {
	Path      string         `json:"path"`
	Context   map[string]any `json:"context"`
	Storylets []StoryletDump `json:"storylets"`
}

// StoryletDump describes one storylet as loaded.
type StoryletDump struct {
	ID        string `json:"id"`
	Redraw    string `json:"redraw"`
	Priority  string `json:"priority"`
	Condition string `json:"condition,omitempty"`
	OnDrawn   int    `json:"update_on_drawn,omitempty"`
	OnPlayed  int    `json:"update_on_played,omitempty"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump [expression]",
		Short: "Show an expression tree or a loaded deck",
		Long: `Print the parsed tree of an expression, one node per line, or with --deck
print a deck file's initialized context and its storylets as compiled.

Examples:
  storydeck dump "gold > 5 and not cursed"
  storydeck dump --deck barks.yaml --var street_wealth=2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Deck, "deck", "", "deck file to dump instead of an expression")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "context value as name=value (repeatable)")
	cmd.Flags().IntVar(&opts.Indent, "indent", 0, "starting indentation level of the tree")

	return cmd
}

func runDump(opts *DumpOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	switch {
	case opts.Deck != "" && len(args) > 0:
		err := errors.New("pass an expression or --deck, not both")
		_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	case opts.Deck != "":
		return dumpDeck(opts, f)
	case len(args) == 1:
		return dumpExpression(opts, args[0], f)
	default:
		err := errors.New("an expression or --deck is required")
		_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}
}

func dumpExpression(opts *DumpOptions, text string, f *OutputFormatter) error {
	n, err := expr.Parse(text)
	if err != nil {
		return f.Fail(ExitFailure, "parse failed", err)
	}

	tree := expr.Dump(n, max(opts.Indent, 0))
	if f.JSON() {
		return f.Success(TreeDump{
			Expression:  expr.Write(n, expr.WriteOptions{}),
			Tree:        tree,
			Specificity: expr.Specificity(n),
		})
	}

	fmt.Fprint(f.Writer, tree)
	return nil
}

func dumpDeck(opts *DumpOptions, f *OutputFormatter) error {
	ctx, err := contextFromVars(opts.Vars)
	if err != nil {
		_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	d, err := loader.NewDeck(opts.Deck, ctx, loader.Options{})
	if err != nil {
		return f.Fail(ExitFailure, "failed to load deck", err)
	}

	dump := DeckDump{
		Path:      opts.Deck,
		Context:   d.Context().Values(),
		Storylets: describeStorylets(d),
	}

	if f.JSON() {
		return f.Success(dump)
	}

	fmt.Fprintln(f.Writer, "context:")
	for _, line := range strings.Split(strings.TrimRight(d.Context().Dump(), "\n"), "\n") {
		if line != "" {
			fmt.Fprintf(f.Writer, "  %s\n", line)
		}
	}

	fmt.Fprintln(f.Writer, "storylets:")
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for _, s := range dump.Storylets {
		fmt.Fprintf(tw, "  %s\tredraw=%s\tpriority=%s", s.ID, s.Redraw, s.Priority)
		if s.Condition != "" {
			fmt.Fprintf(tw, "\twhen %s", s.Condition)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func describeStorylets(d *deck.Deck) []StoryletDump {
	out := make([]StoryletDump, 0, d.Len())
	for _, s := range d.Storylets() {
		sd := StoryletDump{
			ID:       s.ID,
			Redraw:   s.Redraw.String(),
			Priority: s.Priority.String(),
			OnDrawn:  len(s.UpdateOnDrawn),
			OnPlayed: len(s.UpdateOnPlayed),
		}
		if s.Condition != nil {
			sd.Condition = expr.Write(s.Condition, expr.WriteOptions{})
		}
		out = append(out, sd)
	}
	return out
}
