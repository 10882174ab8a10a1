package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SessionInfo summarizes one journaled session.
type SessionInfo struct {
	ID        string
	Deck      string
	Seed      *uint64
	StartedAt time.Time
	Events    int
}

// Record is one journaled deck event.
type Record struct {
	SessionID  string
	Seq        int64
	Type       string
	Tick       int64
	StoryletID string
	Async      bool
	Eligible   int
	Buckets    int
	Pile       []string
	Error      string
	Duration   time.Duration
	RecordedAt time.Time
}

// Sessions lists every session, oldest first.
// Returns an empty slice (not nil) for an empty journal.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.deck, s.seed, s.started_at, COUNT(e.seq)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var (
			info    SessionInfo
			seed    sql.NullInt64
			started string
		)
		if err := rows.Scan(&info.ID, &info.Deck, &seed, &started, &info.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if seed.Valid {
			v := uint64(seed.Int64)
			info.Seed = &v
		}
		if info.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Events returns a session's events in the order they happened.
// Returns an empty slice (not nil) if the session has none.
func (j *Journal) Events(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, type, tick, storylet_id, async, eligible, buckets, pile, error, duration_us, recorded_at
		FROM events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r          Record
			storyletID sql.NullString
			errText    sql.NullString
			pileJSON   string
			durationUS int64
			recorded   string
		)
		if err := rows.Scan(&r.SessionID, &r.Seq, &r.Type, &r.Tick, &storyletID, &r.Async,
			&r.Eligible, &r.Buckets, &pileJSON, &errText, &durationUS, &recorded); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.StoryletID = storyletID.String
		r.Error = errText.String
		r.Duration = time.Duration(durationUS) * time.Microsecond
		if err := json.Unmarshal([]byte(pileJSON), &r.Pile); err != nil {
			return nil, fmt.Errorf("decode pile for seq %d: %w", r.Seq, err)
		}
		if r.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// DrawCounts returns how many times each storylet was drawn in a session.
func (j *Journal) DrawCounts(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT storylet_id, COUNT(*)
		FROM events
		WHERE session_id = ? AND type = 'drawn'
		GROUP BY storylet_id
		ORDER BY storylet_id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query draw counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan draw count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draw counts: %w", err)
	}
	return counts, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
