package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/journal"
	"github.com/roach88/storydeck/internal/loader"
	"github.com/roach88/storydeck/internal/storylet"
)

// DrawOptions holds flags for the draw command.
type DrawOptions struct {
	*RootOptions
	Vars        []string
	Seed        uint64
	Count       int
	Play        bool
	Specificity bool
	Journal     string
	ShowContext bool

	// SessionGenerator overrides journal session ids (for testing).
	SessionGenerator journal.SessionGenerator
}

// DrawResult is the JSON payload of the draw command.
type DrawResult struct {
	Deck    string          `json:"deck"`
	Seed    *uint64         `json:"seed,omitempty"`
	Drawn   []DrawnStorylet `json:"drawn"`
	Tick    int64           `json:"tick"`
	Context map[string]any  `json:"context,omitempty"`
	Session string          `json:"session,omitempty"`
	Counts  map[string]int  `json:"counts,omitempty"`
}

// DrawnStorylet is one storylet of the hand.
type DrawnStorylet struct {
	ID      string `json:"id"`
	Content any    `json:"content,omitempty"`
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(rootOpts *RootOptions) *cobra.Command {
	return newDrawCommand(&DrawOptions{RootOptions: rootOpts})
}

func newDrawCommand(opts *DrawOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw <deck-file>",
		Short: "Draw a hand from a deck",
		Long: `Load a deck, reshuffle it and draw a hand, reshuffling again whenever the
pile runs out. With --play each drawn storylet is also played.

With --journal every reshuffle, draw and play is appended to a SQLite
journal, together with the seed, so the run can be audited and repeated.

Examples:
  storydeck draw barks.yaml --count 5 --seed 42
  storydeck draw streets.jsonc --var street_wealth=2 --play --journal runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "host context value as name=value (repeatable)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "shuffle seed (random when unset)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of storylets to draw")
	cmd.Flags().BoolVar(&opts.Play, "play", false, "play each drawn storylet")
	cmd.Flags().BoolVar(&opts.Specificity, "specificity", false, "weight priorities by condition specificity")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "append events to this SQLite journal")
	cmd.Flags().BoolVar(&opts.ShowContext, "context", false, "print the context after drawing")

	return cmd
}

func runDraw(opts *DrawOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	if opts.Count < 1 {
		_ = f.Error(ErrCodeBadArgument, "--count must be at least 1", nil)
		return NewExitError(ExitCommandError, "invalid --count")
	}

	ctx, err := contextFromVars(opts.Vars)
	if err != nil {
		_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	var seed *uint64
	deckOpts := []deck.Option{
		deck.WithSpecificity(opts.Specificity),
		deck.WithLogger(logger),
	}
	if cmd.Flags().Changed("seed") {
		seed = &opts.Seed
		deckOpts = append(deckOpts, deck.WithSeed(opts.Seed))
	}

	var session *journal.Session
	var j *journal.Journal
	if opts.Journal != "" {
		jopts := []journal.Option{journal.WithLogger(logger)}
		if opts.SessionGenerator != nil {
			jopts = append(jopts, journal.WithSessionGenerator(opts.SessionGenerator))
		}
		j, err = journal.Open(opts.Journal, jopts...)
		if err != nil {
			_ = f.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()

		session, err = j.BeginSession(commandContext(cmd), filepath.Base(path), seed)
		if err != nil {
			_ = f.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to begin journal session", err)
		}
		deckOpts = append(deckOpts, deck.WithObserver(session))
		f.VerboseLog("Journal session %s", session.ID())
	}

	d, err := loader.NewDeck(path, ctx, loader.Options{Reshuffle: true}, deckOpts...)
	if err != nil {
		return f.Fail(ExitFailure, "failed to load deck", err)
	}

	var hand []*storylet.Storylet
	if opts.Play {
		hand, err = d.DrawAndPlay(opts.Count, true)
	} else {
		hand, err = d.DrawHand(opts.Count, true)
	}
	if err != nil {
		return f.Fail(ExitFailure, "draw failed", err)
	}

	result := DrawResult{
		Deck:  path,
		Seed:  seed,
		Drawn: make([]DrawnStorylet, 0, len(hand)),
		Tick:  d.Tick(),
	}
	for _, s := range hand {
		result.Drawn = append(result.Drawn, DrawnStorylet{ID: s.ID, Content: s.Content})
	}
	if opts.ShowContext {
		result.Context = d.Context().Values()
	}

	if session != nil {
		if err := session.Err(); err != nil {
			_ = f.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitFailure, "journal write failed", err)
		}
		result.Session = session.ID()
		result.Counts, err = j.DrawCounts(commandContext(cmd), session.ID())
		if err != nil {
			_ = f.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to read journal", err)
		}
	}

	if f.JSON() {
		return f.Success(result)
	}

	if len(result.Drawn) == 0 {
		fmt.Fprintln(f.Writer, "(no eligible storylets)")
	}
	for i, s := range result.Drawn {
		fmt.Fprintf(f.Writer, "%d. %s\n", i+1, s.ID)
		if opts.Verbose && s.Content != nil {
			fmt.Fprintf(f.Writer, "   %v\n", s.Content)
		}
	}
	if opts.ShowContext {
		fmt.Fprintln(f.Writer, d.Context().Dump())
	}
	if result.Session != "" {
		fmt.Fprintf(f.Writer, "session %s\n", result.Session)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
