package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/storylet"
	"github.com/roach88/storydeck/internal/testutil"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestJournal(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_PragmasAndVersion(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	var mode string
	require.NoError(t, j.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, j.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	version, err := j.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path, WithSessionGenerator(testutil.NewFixedSessionGenerator("s1")))
	require.NoError(t, err)
	_, err = j.BeginSession(ctx, "barks", nil)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
}

func TestOpen_InMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	sessions, err := j.Sessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestBeginSession_DefaultIDIsUUIDv7(t *testing.T) {
	j := openTestJournal(t)
	s, err := j.BeginSession(context.Background(), "barks", nil)
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, byte('7'), s.ID()[14], "version nibble")
}

func TestBeginSession_DuplicateID(t *testing.T) {
	j := openTestJournal(t, WithSessionGenerator(testutil.NewFixedSessionGenerator("same")))
	ctx := context.Background()

	_, err := j.BeginSession(ctx, "a", nil)
	require.NoError(t, err)
	_, err = j.BeginSession(ctx, "b", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin session")
}

func TestSession_RecordsDeckEvents(t *testing.T) {
	clock := testutil.NewStepClock(epoch, time.Second)
	j := openTestJournal(t,
		WithNow(clock.Now),
		WithSessionGenerator(testutil.NewFixedSessionGenerator("run-1")),
	)
	ctx := context.Background()

	seed := uint64(42)
	session, err := j.BeginSession(ctx, "tavern", &seed)
	require.NoError(t, err)

	d := deck.New(env.Env{"coins": 0}, deck.WithSeed(seed), deck.WithObserver(session))
	inn := storylet.New("inn")
	inn.UpdateOnPlayed = []env.Update{env.MustUpdate("coins", "coins + 1")}
	require.NoError(t, d.Add(inn))

	_, err = d.DrawAndPlay(1, true)
	require.NoError(t, err)
	d.Reset()
	require.NoError(t, session.Err())

	records, err := j.Events(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 5)

	types := make([]string, len(records))
	for i, r := range records {
		types[i] = r.Type
		assert.Equal(t, int64(i+1), r.Seq)
	}
	assert.Equal(t, []string{"reshuffle_started", "reshuffle_finished", "drawn", "played", "reset"}, types)

	finished := records[1]
	assert.Equal(t, []string{"inn"}, finished.Pile)
	assert.Equal(t, 1, finished.Eligible)
	assert.Equal(t, 1, finished.Buckets)

	drawn := records[2]
	assert.Equal(t, "inn", drawn.StoryletID)
	assert.Equal(t, int64(1), drawn.Tick)
	assert.Equal(t, []string{}, drawn.Pile)
	assert.True(t, epoch.Add(4*time.Second).Equal(drawn.RecordedAt), "one clock tick per row after the session")

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "tavern", sessions[0].Deck)
	require.NotNil(t, sessions[0].Seed)
	assert.Equal(t, seed, *sessions[0].Seed)
	assert.True(t, epoch.Add(time.Second).Equal(sessions[0].StartedAt))
	assert.Equal(t, 5, sessions[0].Events)
}

func TestSession_RecordsAbandonedReshuffle(t *testing.T) {
	j := openTestJournal(t, WithSessionGenerator(testutil.NewFixedSessionGenerator("run-err")))
	ctx := context.Background()

	session, err := j.BeginSession(ctx, "broken", nil)
	require.NoError(t, err)

	d := deck.New(nil, deck.WithObserver(session))
	s := storylet.New("ghost")
	require.NoError(t, s.SetCondition("missing_flag"))
	require.NoError(t, d.Add(s))
	require.Error(t, d.Reshuffle(nil, nil))

	records, err := j.Events(ctx, "run-err")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "reshuffle_abandoned", records[1].Type)
	assert.Contains(t, records[1].Error, "UNDEFINED_VARIABLE")
}

func TestSession_WriteFailureIsKept(t *testing.T) {
	j := openTestJournal(t, WithSessionGenerator(testutil.NewFixedSessionGenerator("run-x")))
	ctx, cancel := context.WithCancel(context.Background())

	session, err := j.BeginSession(ctx, "x", nil)
	require.NoError(t, err)
	cancel()

	session.Observe(deck.Event{Type: deck.EventReset})
	session.Observe(deck.Event{Type: deck.EventReset})
	require.Error(t, session.Err())
	assert.True(t, errors.Is(session.Err(), context.Canceled))
}

func TestDrawCounts(t *testing.T) {
	j := openTestJournal(t, WithSessionGenerator(testutil.NewFixedSessionGenerator("counts")))
	ctx := context.Background()

	session, err := j.BeginSession(ctx, "barks", nil)
	require.NoError(t, err)

	d := deck.New(nil, deck.WithSeed(9), deck.WithObserver(session))
	require.NoError(t, d.Add(storylet.New("a")))
	require.NoError(t, d.Add(storylet.New("b")))

	_, err = d.DrawHand(6, true)
	require.NoError(t, err)

	counts, err := j.DrawCounts(ctx, "counts")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "b": 3}, counts)

	counts, err = j.DrawCounts(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, counts)
}
