package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storydeck/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Session string
}

// SessionSummary is one session in the journal listing.
type SessionSummary struct {
	ID        string    `json:"id"`
	Deck      string    `json:"deck"`
	Seed      *uint64   `json:"seed,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Events    int       `json:"events"`
}

// SessionEvent is one journaled event of a session.
type SessionEvent struct {
	Seq      int64    `json:"seq"`
	Type     string   `json:"type"`
	Tick     int64    `json:"tick"`
	Storylet string   `json:"storylet,omitempty"`
	Pile     []string `json:"pile,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// SessionDetail is the JSON payload for journal --session.
type SessionDetail struct {
	Session string         `json:"session"`
	Events  []SessionEvent `json:"events"`
	Counts  map[string]int `json:"counts"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <journal-db>",
		Short: "Inspect a draw journal",
		Long: `List the sessions recorded in a draw journal, or with --session print one
session's events and how often each storylet was drawn.

Examples:
  storydeck journal runs.db
  storydeck journal runs.db --session 0190a5c4-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "print the events of this session")

	return cmd
}

func runJournal(opts *JournalOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	// Open creates missing databases.
	if _, err := os.Stat(path); err != nil {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("journal not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(path, journal.WithLogger(opts.logger(cmd.ErrOrStderr())))
	if err != nil {
		_ = f.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	if opts.Session != "" {
		return showSession(opts, j, cmd, f)
	}
	return listSessions(j, cmd, f)
}

func listSessions(j *journal.Journal, cmd *cobra.Command, f *OutputFormatter) error {
	sessions, err := j.Sessions(commandContext(cmd))
	if err != nil {
		_ = f.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:        s.ID,
			Deck:      s.Deck,
			Seed:      s.Seed,
			StartedAt: s.StartedAt,
			Events:    s.Events,
		})
	}

	if f.JSON() {
		return f.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(f.Writer, "No sessions.")
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tDECK\tSEED\tSTARTED\tEVENTS")
	for _, s := range summaries {
		seed := "-"
		if s.Seed != nil {
			seed = fmt.Sprint(*s.Seed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Deck, seed, s.StartedAt.Format(time.RFC3339), s.Events)
	}
	return tw.Flush()
}

func showSession(opts *JournalOptions, j *journal.Journal, cmd *cobra.Command, f *OutputFormatter) error {
	ctx := commandContext(cmd)

	records, err := j.Events(ctx, opts.Session)
	if err != nil {
		_ = f.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if len(records) == 0 {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("no events for session %q", opts.Session), nil)
		return NewExitError(ExitFailure, "session not found")
	}

	counts, err := j.DrawCounts(ctx, opts.Session)
	if err != nil {
		_ = f.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	detail := SessionDetail{
		Session: opts.Session,
		Events:  make([]SessionEvent, 0, len(records)),
		Counts:  counts,
	}
	for _, r := range records {
		detail.Events = append(detail.Events, SessionEvent{
			Seq:      r.Seq,
			Type:     r.Type,
			Tick:     r.Tick,
			Storylet: r.StoryletID,
			Pile:     r.Pile,
			Error:    r.Error,
		})
	}

	if f.JSON() {
		return f.Success(detail)
	}

	for _, e := range detail.Events {
		line := fmt.Sprintf("[%d] tick %d %s", e.Seq, e.Tick, e.Type)
		switch {
		case e.Storylet != "":
			line += " " + e.Storylet
		case len(e.Pile) > 0:
			line += " [" + strings.Join(e.Pile, " ") + "]"
		}
		if e.Error != "" {
			line += ": " + e.Error
		}
		fmt.Fprintln(f.Writer, line)
	}

	if len(counts) > 0 {
		fmt.Fprintln(f.Writer, "draws:")
		tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
		for _, id := range sortedKeys(counts) {
			fmt.Fprintf(tw, "  %s\t%d\n", id, counts[id])
		}
		return tw.Flush()
	}
	return nil
}
