package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/storydeck/internal/deck"
)

// Session journals the events of one deck. It implements deck.Observer;
// register it with deck.WithObserver.
//
// Thread-safety: Observe and Err are safe for concurrent use, though a deck
// only ever calls Observe from the goroutine driving it.
type Session struct {
	j   *Journal
	ctx context.Context
	id  string

	mu  sync.Mutex
	seq int64
	err error
}

// BeginSession starts a session for the named deck. seed is recorded when
// non-nil so a run can be reproduced with the same deck.WithSeed value.
//
// ctx is used for every write the session makes.
func (j *Journal) BeginSession(ctx context.Context, deckName string, seed *uint64) (*Session, error) {
	id := j.sessions.Generate()

	var seedCol sql.NullInt64
	if seed != nil {
		seedCol = sql.NullInt64{Int64: int64(*seed), Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, deck, seed, started_at)
		VALUES (?, ?, ?, ?)
	`, id, deckName, seedCol, formatTime(j.now()))
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	j.logger.Debug("journal session started", "event", "session_started", "session", id, "deck", deckName)
	return &Session{j: j, ctx: ctx, id: id}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Observe implements deck.Observer. A failed write is logged and kept for
// Err; later events are still attempted.
func (s *Session) Observe(e deck.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if err := s.record(s.seq, e); err != nil {
		if s.err == nil {
			s.err = err
		}
		s.j.logger.Error("journal write failed",
			"event", "journal_write_failed",
			"session", s.id,
			"seq", s.seq,
			"error", err,
		)
	}
}

// Err returns the first write error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) record(seq int64, e deck.Event) error {
	pile := e.PileIDs
	if pile == nil {
		pile = []string{}
	}
	pileJSON, err := json.Marshal(pile)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	var storyletID, errText sql.NullString
	if e.StoryletID != "" {
		storyletID = sql.NullString{String: e.StoryletID, Valid: true}
	}
	if e.Err != nil {
		errText = sql.NullString{String: e.Err.Error(), Valid: true}
	}

	_, err = s.j.db.ExecContext(s.ctx, `
		INSERT INTO events
		(session_id, seq, type, tick, storylet_id, async, eligible, buckets, pile, error, duration_us, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.id,
		seq,
		e.Type.String(),
		e.Tick,
		storyletID,
		e.Async,
		e.Eligible,
		e.Buckets,
		string(pileJSON),
		errText,
		e.Duration.Microseconds(),
		formatTime(s.j.now()),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
