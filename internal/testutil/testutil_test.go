package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/storydeck/internal/expr"
)

func TestStepClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewStepClock(start, time.Second)

	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, start.Add(2*time.Second), c.Now())
	assert.Equal(t, int64(2), c.Calls())

	c.Reset()
	assert.Equal(t, start.Add(time.Second), c.Now())
}

func TestFixedSessionGenerator(t *testing.T) {
	g := NewFixedSessionGenerator("s-1")
	assert.Equal(t, "s-1", g.Generate())
	assert.Equal(t, "s-1", g.Generate())

	assert.Equal(t, "test-session-default", NewFixedSessionGenerator("").Generate())
}

func TestSeededRand_Reproducible(t *testing.T) {
	a := SeededRand(42)
	b := SeededRand(42)
	for range 10 {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestCountingFunc(t *testing.T) {
	f := NewCountingFunc(1, true)
	var _ expr.Function = f

	ctx := expr.MapContext{"seen": f}
	v, err := expr.Eval(expr.MustParse("seen('x')"), ctx, nil)
	assert.NoError(t, err)
	assert.Equal(t, expr.Bool(true), v)
	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, []expr.Value{expr.Text("x")}, f.Args(0))
}
