package deck

import (
	"cmp"
	"slices"
	"time"

	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/storylet"
)

// reshuffleState is the resumable cursor of a reshuffle pass. A nil state
// on the deck means Idle; non-nil means Running.
type reshuffleState struct {
	filter  Filter
	trace   *expr.Trace
	buckets map[float64][]*storylet.Storylet
	pending *pendingQueue
	done    func()
	async   bool
	started time.Time
}

// InProgress reports whether an incremental reshuffle is outstanding.
func (d *Deck) InProgress() bool {
	return d.state != nil
}

// Reshuffle rebuilds the pile synchronously.
//
// Each storylet is included if it can be drawn at the current tick, passes
// filter (when non-nil) and its condition holds. Included storylets are
// bucketed by current priority; buckets are appended highest first, each
// shuffled. trace, when non-nil, receives the evaluation steps.
//
// A condition or priority error abandons the pass, leaving the pile empty.
func (d *Deck) Reshuffle(filter Filter, trace *expr.Trace) error {
	if d.InProgress() {
		return inProgressError("Reshuffle")
	}

	d.prepare(filter, trace, nil, false)
	if err := d.processChunk(d.state.pending.Len()); err != nil {
		return err
	}
	d.finalize()
	return nil
}

// ReshuffleAsync starts an incremental reshuffle. Drive it with Update or
// Advance; done (may be nil) runs exactly once when the pile is ready.
//
// Until then Draw, Play, Reshuffle, Pile and DumpDrawPile fail with
// ErrCodeReshuffleInProgress.
func (d *Deck) ReshuffleAsync(done func(), filter Filter, trace *expr.Trace) error {
	if d.InProgress() {
		return inProgressError("ReshuffleAsync")
	}

	d.prepare(filter, trace, done, true)
	return nil
}

// Update advances an incremental reshuffle by the deck's chunk size.
// It reports whether the deck is idle afterwards.
func (d *Deck) Update() (bool, error) {
	return d.Advance(d.chunkSize)
}

// Advance examines up to budget pending storylets (at least one) and
// finalizes the pile once none remain. It reports whether the deck is idle
// afterwards; calling it on an idle deck is a no-op returning true.
//
// An evaluation error abandons the reshuffle: the deck returns to idle with
// an empty pile and done is never called.
func (d *Deck) Advance(budget int) (bool, error) {
	if !d.InProgress() {
		return true, nil
	}

	if err := d.processChunk(max(budget, 1)); err != nil {
		return true, err
	}
	if d.state.pending.Len() > 0 {
		return false, nil
	}

	d.finalize()
	return true, nil
}

// Pending returns how many storylets an incremental reshuffle has yet to
// examine, or 0 when idle.
func (d *Deck) Pending() int {
	if d.state == nil {
		return 0
	}
	return d.state.pending.Len()
}

func (d *Deck) prepare(filter Filter, trace *expr.Trace, done func(), async bool) {
	d.pile = nil
	d.state = &reshuffleState{
		filter:  filter,
		trace:   trace,
		buckets: make(map[float64][]*storylet.Storylet),
		pending: newPendingQueue(d.order),
		done:    done,
		async:   async,
		started: time.Now(),
	}

	d.logger.Debug("reshuffle started",
		"event", EventReshuffleStarted.String(),
		"storylets", len(d.order),
		"tick", d.clock.Current(),
		"async", async,
	)
	d.notify(Event{
		Type:     EventReshuffleStarted,
		Tick:     d.clock.Current(),
		Async:    async,
		Eligible: len(d.order),
	})
}

// processChunk examines up to n pending storylets, bucketing the eligible
// ones. On error the reshuffle is abandoned.
func (d *Deck) processChunk(n int) error {
	st := d.state
	tick := d.clock.Current()

	for range n {
		s, ok := st.pending.Pop()
		if !ok {
			break
		}

		if !s.CanDraw(tick) {
			continue
		}
		if st.filter != nil && !st.filter(s) {
			continue
		}

		ok, err := s.CheckCondition(d.ctx, st.trace)
		if err != nil {
			d.abandon(err)
			return err
		}
		if !ok {
			continue
		}

		priority, err := s.CurrentPriority(d.ctx, d.specificity, st.trace)
		if err != nil {
			d.abandon(err)
			return err
		}

		st.buckets[priority] = append(st.buckets[priority], s)
	}
	return nil
}

// finalize appends the buckets to the pile, highest priority first, each
// shuffled, then returns the deck to idle and runs the done callback.
func (d *Deck) finalize() {
	st := d.state

	keys := make([]float64, 0, len(st.buckets))
	for k := range st.buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b float64) int {
		return cmp.Compare(b, a)
	})

	var pile []*storylet.Storylet
	for _, k := range keys {
		bucket := st.buckets[k]
		shuffle(d.rng.IntN, bucket)
		pile = append(pile, bucket...)
	}
	d.pile = pile
	d.state = nil

	ids := pileIDs(pile)
	d.logger.Debug("reshuffle finished",
		"event", EventReshuffleFinished.String(),
		"eligible", len(pile),
		"buckets", len(keys),
		"async", st.async,
	)
	d.notify(Event{
		Type:     EventReshuffleFinished,
		Tick:     d.clock.Current(),
		Async:    st.async,
		Eligible: len(pile),
		Buckets:  len(keys),
		PileIDs:  ids,
		Duration: time.Since(st.started),
	})

	if st.done != nil {
		st.done()
	}
}

func (d *Deck) abandon(err error) {
	st := d.state
	d.state = nil
	d.pile = nil

	d.logger.Warn("reshuffle abandoned",
		"event", EventReshuffleAbandoned.String(),
		"error", err,
		"async", st.async,
	)
	d.notify(Event{
		Type:     EventReshuffleAbandoned,
		Tick:     d.clock.Current(),
		Async:    st.async,
		Duration: time.Since(st.started),
		Err:      err,
	})
}

// shuffle is an in-place Fisher-Yates shuffle; intN(k) returns a value in [0, k).
func shuffle[T any](intN func(int) int, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := intN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
