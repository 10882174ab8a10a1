// Package loader reads deck documents into a deck.
//
// A document is a packet: an object with optional context, defaults and
// storylets fields. Storylets entries are either storylets (objects with an
// id) or nested packets. Context entries are initialized into the deck's
// context in document order; defaults are merged under every storylet of
// the packet and of packets nested below it.
//
//	context:
//	  gold: 5
//	defaults:
//	  redraw: 3
//	storylets:
//	  - id: market
//	    condition: gold > 2
//	    priority: gold / 2
//	    updateOnDrawn:
//	      gold: gold - 1
//
// YAML files are decoded through yaml.v3 nodes so key order survives.
// JSON, JSON with // comments, and CUE files are compiled with CUE, which
// means CUE definitions can constrain a deck's shape. Keys and ids are
// normalized to NFC.
//
// Watcher reloads deck files as they change on disk.
package loader
