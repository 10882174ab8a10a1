// Package storylet defines the schedulable unit of a deck.
//
// A Storylet carries an id, opaque content, a compiled eligibility
// condition, a literal or compiled priority, context updates applied when
// it is drawn or played, and a redraw policy:
//
//	RedrawAlways  eligible on every reshuffle
//	RedrawNever   one-shot; consumed after the first draw or play
//	N > 0         eligible again N ticks after the last draw or play
//
// Storylets are built from a Config with FromConfig, which compiles every
// expression exactly once.
package storylet
