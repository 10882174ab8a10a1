package deck

import "github.com/roach88/storydeck/internal/storylet"

// pendingQueue is the FIFO of storylets a reshuffle has yet to examine.
// It is only touched from the goroutine driving the deck.
type pendingQueue struct {
	items []*storylet.Storylet
}

// newPendingQueue copies items so later deck changes don't affect the pass.
func newPendingQueue(items []*storylet.Storylet) *pendingQueue {
	q := &pendingQueue{items: make([]*storylet.Storylet, len(items))}
	copy(q.items, items)
	return q
}

// Pop removes and returns the front storylet.
// Returns (nil, false) if the queue is empty.
func (q *pendingQueue) Pop() (*storylet.Storylet, bool) {
	if len(q.items) == 0 {
		return nil, false
	}

	s := q.items[0]

	// Nil out the slot so the backing array doesn't pin the storylet.
	q.items[0] = nil

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return s, true
}

// Len returns the number of storylets left to examine.
func (q *pendingQueue) Len() int {
	return len(q.items)
}
