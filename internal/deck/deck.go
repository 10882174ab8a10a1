package deck

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/storylet"
)

// Filter is an optional caller predicate applied during a reshuffle, before
// the storylet's own condition.
type Filter func(*storylet.Storylet) bool

// Deck owns a storylet set, the shared context and the draw pile.
//
// Thread-safety model:
//   - Deck has no internal locking; callers serialize every method call
//   - An incremental reshuffle is cooperative: the caller drives it with
//     Update or Advance until InProgress reports false
//
// INVARIANTS:
//   - Storylet ids are unique
//   - At most one reshuffle is active
//   - The context is only mutated by Draw and Play, never during a pass
type Deck struct {
	storylets map[string]*storylet.Storylet
	order     []*storylet.Storylet // Insertion order; reshuffles walk this
	ctx       env.Env
	clock     *Clock
	pile      []*storylet.Storylet
	state     *reshuffleState

	specificity bool
	chunkSize   int
	rng         *rand.Rand
	logger      *slog.Logger
	observers   []Observer
}

// New creates an empty deck evaluating against ctx. A nil ctx gets a fresh
// env.Env.
func New(ctx env.Env, opts ...Option) *Deck {
	if ctx == nil {
		ctx = env.New()
	}

	d := &Deck{
		storylets: make(map[string]*storylet.Storylet),
		ctx:       ctx,
		clock:     NewClock(),
		chunkSize: DefaultChunkSize,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Add inserts a storylet. Ids must be unique.
func (d *Deck) Add(s *storylet.Storylet) error {
	if _, exists := d.storylets[s.ID]; exists {
		return duplicateError(s.ID)
	}
	d.storylets[s.ID] = s
	d.order = append(d.order, s)
	return nil
}

// Get returns the storylet with the given id, or nil.
func (d *Deck) Get(id string) *storylet.Storylet {
	return d.storylets[id]
}

// Storylets returns every storylet in insertion order.
func (d *Deck) Storylets() []*storylet.Storylet {
	out := make([]*storylet.Storylet, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of storylets in the deck.
func (d *Deck) Len() int {
	return len(d.order)
}

// Context returns the shared evaluation context.
func (d *Deck) Context() env.Env {
	return d.ctx
}

// Tick returns the current draw/play tick.
func (d *Deck) Tick() int64 {
	return d.clock.Current()
}

// Specificity reports whether specificity weighting is on.
func (d *Deck) Specificity() bool {
	return d.specificity
}

// ChunkSize returns how many storylets Update examines per call.
func (d *Deck) ChunkSize() int {
	return d.chunkSize
}

// Reset rewinds the tick to 0 and clears every storylet's redraw state.
// The pile is left as is.
func (d *Deck) Reset() {
	d.clock.Reset()
	for _, s := range d.order {
		s.Reset()
	}
	d.logger.Debug("deck reset", "event", EventReset.String(), "storylets", len(d.order))
	d.notify(Event{Type: EventReset})
}

// Draw advances the tick, then pops the front of the pile, applies its
// UpdateOnDrawn and records the draw. It returns (nil, nil) when the pile is
// empty; the tick still advances and observers see EventDrawEmpty.
//
// If an update fails the storylet has already left the pile but is not
// marked drawn; observers see EventDrawFailed.
func (d *Deck) Draw() (*storylet.Storylet, error) {
	if d.InProgress() {
		return nil, inProgressError("Draw")
	}

	tick := d.clock.Next()

	if len(d.pile) == 0 {
		d.logger.Debug("draw from empty pile", "event", EventDrawEmpty.String(), "tick", tick)
		d.notify(Event{Type: EventDrawEmpty, Tick: tick})
		return nil, nil
	}

	s := d.pile[0]
	d.pile[0] = nil
	d.pile = d.pile[1:]

	if len(s.UpdateOnDrawn) > 0 {
		if err := d.ctx.Update(s.UpdateOnDrawn, nil); err != nil {
			d.logger.Warn("draw update failed", "event", EventDrawFailed.String(), "storylet", s.ID, "tick", tick, "error", err)
			d.notify(Event{Type: EventDrawFailed, Tick: tick, StoryletID: s.ID, Err: err})
			return nil, fmt.Errorf("draw %s: %w", s.ID, err)
		}
	}
	s.Drawn(tick)

	d.logger.Debug("storylet drawn", "event", EventDrawn.String(), "storylet", s.ID, "tick", tick)
	d.notify(Event{Type: EventDrawn, Tick: tick, StoryletID: s.ID})
	return s, nil
}

// Play advances the tick, applies the storylet's UpdateOnPlayed and
// re-arms its redraw cooldown.
func (d *Deck) Play(s *storylet.Storylet) error {
	if d.InProgress() {
		return inProgressError("Play")
	}
	if d.storylets[s.ID] != s {
		return unknownError(s.ID)
	}

	tick := d.clock.Next()

	s.Played(tick)
	if len(s.UpdateOnPlayed) > 0 {
		if err := d.ctx.Update(s.UpdateOnPlayed, nil); err != nil {
			return fmt.Errorf("play %s: %w", s.ID, err)
		}
	}

	d.logger.Debug("storylet played", "event", EventPlayed.String(), "storylet", s.ID, "tick", tick)
	d.notify(Event{Type: EventPlayed, Tick: tick, StoryletID: s.ID})
	return nil
}

// DrawHand draws up to n storylets. When the pile runs out and
// reshuffleIfNeeded is set, it runs a synchronous unfiltered reshuffle and
// keeps going; it stops early if the pile is still empty.
func (d *Deck) DrawHand(n int, reshuffleIfNeeded bool) ([]*storylet.Storylet, error) {
	if d.InProgress() {
		return nil, inProgressError("DrawHand")
	}

	var hand []*storylet.Storylet
	for range n {
		if len(d.pile) == 0 {
			if !reshuffleIfNeeded {
				break
			}
			if err := d.Reshuffle(nil, nil); err != nil {
				return hand, err
			}
		}

		s, err := d.Draw()
		if err != nil {
			return hand, err
		}
		if s == nil {
			break
		}
		hand = append(hand, s)
	}
	return hand, nil
}

// DrawAndPlay draws a hand as DrawHand does, then plays each storylet in
// draw order.
func (d *Deck) DrawAndPlay(n int, reshuffleIfNeeded bool) ([]*storylet.Storylet, error) {
	hand, err := d.DrawHand(n, reshuffleIfNeeded)
	if err != nil {
		return hand, err
	}
	for _, s := range hand {
		if err := d.Play(s); err != nil {
			return hand, err
		}
	}
	return hand, nil
}

// Pile returns a copy of the draw pile, front first.
func (d *Deck) Pile() ([]*storylet.Storylet, error) {
	if d.InProgress() {
		return nil, inProgressError("Pile")
	}
	out := make([]*storylet.Storylet, len(d.pile))
	copy(out, d.pile)
	return out, nil
}

// PileSize returns the number of storylets left in the pile.
func (d *Deck) PileSize() int {
	return len(d.pile)
}

// DumpDrawPile returns the pile's ids joined with commas, front first.
func (d *Deck) DumpDrawPile() (string, error) {
	if d.InProgress() {
		return "", inProgressError("DumpDrawPile")
	}
	return strings.Join(pileIDs(d.pile), ","), nil
}

func (d *Deck) notify(e Event) {
	for _, o := range d.observers {
		o.Observe(e)
	}
}

func pileIDs(pile []*storylet.Storylet) []string {
	ids := make([]string, len(pile))
	for i, s := range pile {
		ids[i] = s.ID
	}
	return ids
}
