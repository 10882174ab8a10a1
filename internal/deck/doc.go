// Package deck schedules storylets: it owns the storylet set, the shared
// context and the draw pile.
//
// ARCHITECTURE:
//
// Reshuffle:
// A reshuffle walks the storylets in insertion order and keeps those whose
// redraw policy, filter and condition allow them. Kept storylets are
// bucketed by current priority. Buckets are appended to the pile highest
// first, each shuffled with the deck's random source.
//
// Incremental Reshuffle:
// ReshuffleAsync starts the same pass but examines only a chunk of
// storylets per Update (or Advance) call. While it is outstanding every
// call that reads or rebuilds the pile fails with ErrCodeReshuffleInProgress.
// With the same seed and context a chunked pass produces the same pile as a
// synchronous one.
//
// Ticks:
// Draw and Play each advance a logical Clock by one. Redraw cooldowns are
// counted in ticks, never wall-clock time.
//
// Errors:
// A condition or priority evaluation error abandons the pass. The deck goes
// back to idle with an empty pile and the done callback is not called.
//
// The deck is single-goroutine: callers serialize access. Observers are
// called synchronously, in registration order.
package deck
