// Package journal keeps an append-only SQLite audit of deck sessions.
//
// A Session is a deck.Observer: every reshuffle, draw, play and reset the
// deck reports becomes one row, numbered by a per-session sequence. The
// journal is write-and-inspect only; a deck is never rebuilt from it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Events must belong to a session
//
// Queries order by seq, never by the recorded wall-clock time.
package journal
