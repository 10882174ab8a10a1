// Package env provides the evaluation context shared by a deck's storylets.
//
// An Env maps names to scalars and host functions and satisfies
// expr.Context. Init adds new keys (a deck document's "context" block);
// Update rewrites existing keys (a storylet's updateOnDrawn/updateOnPlayed).
// Updates are compiled once into ordered []Update values so application
// order is deterministic.
package env
