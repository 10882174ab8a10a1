package deck

import "time"

// EventType distinguishes deck notifications.
type EventType int

const (
	// EventReshuffleStarted is sent when a synchronous or incremental pass begins.
	EventReshuffleStarted EventType = iota + 1
	// EventReshuffleFinished is sent after the pile is rebuilt.
	EventReshuffleFinished
	// EventReshuffleAbandoned is sent when a condition or priority fails mid-pass.
	EventReshuffleAbandoned
	// EventDrawn is sent after a storylet leaves the pile.
	EventDrawn
	// EventPlayed is sent after a storylet is played.
	EventPlayed
	// EventReset is sent after Reset rewinds the tick and redraw state.
	EventReset
	// EventDrawEmpty is sent when Draw advances the tick on an empty pile.
	EventDrawEmpty
	// EventDrawFailed is sent when a storylet left the pile but its
	// UpdateOnDrawn failed.
	EventDrawFailed
)

// String returns the snake_case name used in logs and the journal.
func (t EventType) String() string {
	switch t {
	case EventReshuffleStarted:
		return "reshuffle_started"
	case EventReshuffleFinished:
		return "reshuffle_finished"
	case EventReshuffleAbandoned:
		return "reshuffle_abandoned"
	case EventDrawn:
		return "drawn"
	case EventPlayed:
		return "played"
	case EventReset:
		return "reset"
	case EventDrawEmpty:
		return "draw_empty"
	case EventDrawFailed:
		return "draw_failed"
	default:
		return "unknown"
	}
}

// Event describes one deck transition. Fields not relevant to Type are zero.
type Event struct {
	Type EventType
	Tick int64

	// StoryletID is set for EventDrawn, EventDrawFailed and EventPlayed.
	StoryletID string

	// Async is set for reshuffle events driven by Advance.
	Async bool

	// Eligible is the number of storylets placed in the pile (finished) or
	// the number of candidates (started).
	Eligible int

	// Buckets is the number of distinct priority keys (finished).
	Buckets int

	// PileIDs is the rebuilt pile in draw order (finished).
	PileIDs []string

	// Duration is the wall time from start to finish or abandon.
	Duration time.Duration

	// Err is the failure that abandoned a reshuffle or failed a draw.
	Err error
}

// Observer receives deck events synchronously, on the goroutine driving
// the deck. Observers must not call back into the deck.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) {
	f(e)
}
