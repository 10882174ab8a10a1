// Package harness runs scripted scenarios against a deck file.
//
// A scenario loads one deck, drives it through a list of operations with a
// fixed seed, and checks both per-step expectations and final assertions.
// Every deck event is journaled to an in-memory SQLite journal and read
// back as the run's trace, which can be compared against a golden file.
//
// # Scenario Format
//
//	name: tavern_evening
//	description: "What this scenario validates"
//	deck: ../decks/tavern.yaml     # relative to the scenario file
//	seed: 7
//	specificity: false
//	chunk_size: 1                  # per-Update budget for async steps
//	trace: true                    # record evaluation lines
//	context:                       # host values, set before loading
//	  purse: 80
//	functions:                     # host function stubs
//	  stall_open: { arity: 1, true_for: [fish] }
//	  is_night: { arity: 0, returns: true }
//	steps:
//	  - action: reshuffle
//	    tag: food                  # only storylets tagged "food"
//	    expect: { pile: [fishmonger] }
//	  - action: draw_hand
//	    count: 2
//	    reshuffle: true
//	    expect: { drawn: [ale, ale] }
//	  - action: draw
//	    expect: { error: RESHUFFLE_IN_PROGRESS }
//	assertions:
//	  - type: drawn_count
//	    storylet: ale
//	    count: 2
//
// # Step Actions
//
//   - reshuffle, reshuffle_async, update: rebuild the pile
//   - draw, draw_hand, draw_and_play, play: consume it
//   - reset: rewind the tick and redraw state
//   - set: overwrite context values
//
// # Assertion Types
//
//   - drawn_count: a storylet was drawn exactly N times
//   - drawn_order: first draws happen in the listed order
//   - never_drawn: a storylet was never drawn
//   - context_value: a final context value
//   - final_tick: the deck's final tick
package harness
