package deck

import (
	"log/slog"
	"math/rand/v2"
)

// DefaultChunkSize is how many storylets Update examines per call.
const DefaultChunkSize = 10

// Option configures a Deck.
type Option func(*Deck)

// WithSpecificity turns specificity weighting on or off. When on, a
// storylet's bucket key is priority*100 plus its condition's specificity,
// so more constrained conditions sort first within a priority tier.
//
// Default: off
func WithSpecificity(on bool) Option {
	return func(d *Deck) {
		d.specificity = on
	}
}

// WithChunkSize sets how many storylets Update examines per call.
// Values below 1 are ignored.
//
// Default: 10 (DefaultChunkSize)
func WithChunkSize(n int) Option {
	return func(d *Deck) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithRand sets the random source used to shuffle priority buckets.
// Use a seeded source for reproducible piles.
//
// Default: a PCG source seeded from the runtime's random generator
func WithRand(r *rand.Rand) Option {
	return func(d *Deck) {
		if r != nil {
			d.rng = r
		}
	}
}

// WithSeed is shorthand for WithRand with a PCG source seeded by seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithLogger sets the structured logger.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(d *Deck) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(d *Deck) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}
