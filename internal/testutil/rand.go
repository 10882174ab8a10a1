package testutil

import (
	"math/rand/v2"
	"sync"

	"github.com/roach88/storydeck/internal/expr"
)

// SeededRand returns a PCG source seeded from seed. Two calls with the same
// seed produce the same sequence.
func SeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// CountingFunc is an expr.Function that records every call and returns a
// fixed result.
//
// Thread-safety: Calls and Args are safe for concurrent use.
type CountingFunc struct {
	mu     sync.Mutex
	arity  int
	result any
	calls  [][]expr.Value
}

// NewCountingFunc creates a function of the given arity returning result.
func NewCountingFunc(arity int, result any) *CountingFunc {
	return &CountingFunc{arity: arity, result: result}
}

// Arity implements expr.Function.
func (f *CountingFunc) Arity() int {
	return f.arity
}

// Call implements expr.Function.
func (f *CountingFunc) Call(args []expr.Value) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]expr.Value(nil), args...))
	return f.result, nil
}

// Calls returns how many times the function was invoked.
func (f *CountingFunc) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Args returns the arguments of the i-th call.
func (f *CountingFunc) Args(i int) []expr.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}
