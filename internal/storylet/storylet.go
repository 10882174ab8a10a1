package storylet

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/expr"
)

// SpecificityScale multiplies the base priority when specificity weighting
// is on, leaving room for the condition's specificity score below it.
const SpecificityScale = 100

// Priority is either a literal number or a compiled expression.
type Priority struct {
	Value float64
	Expr  expr.Node
}

// LiteralPriority returns a fixed priority.
func LiteralPriority(v float64) Priority {
	return Priority{Value: v}
}

// ParsePriority accepts a Go number (literal) or expression text.
func ParsePriority(raw any) (Priority, error) {
	switch v := raw.(type) {
	case nil:
		return Priority{}, nil
	case bool:
		return Priority{}, &Error{
			Code:    ErrCodeInvalidPriority,
			Field:   "priority",
			Message: fmt.Sprintf("priority must be a number or expression, got %v", v),
		}
	case string:
		n, err := expr.Parse(v)
		if err != nil {
			return Priority{}, invalidExpression("", "priority", err)
		}
		return Priority{Expr: n}, nil
	default:
		val, ok := expr.ValueOf(raw)
		if !ok {
			return Priority{}, &Error{
				Code:    ErrCodeInvalidPriority,
				Field:   "priority",
				Message: fmt.Sprintf("priority must be a number or expression, got %T", raw),
			}
		}
		n, err := expr.ToNumber(val)
		if err != nil {
			return Priority{}, &Error{Code: ErrCodeInvalidPriority, Field: "priority", Message: "priority must be numeric", Err: err}
		}
		if math.IsNaN(n) {
			return Priority{}, &Error{Code: ErrCodeInvalidPriority, Field: "priority", Message: "priority must not be NaN"}
		}
		return Priority{Value: n}, nil
	}
}

// IsExpr reports whether the priority must be evaluated.
func (p Priority) IsExpr() bool {
	return p.Expr != nil
}

// String renders the literal value or the written expression.
func (p Priority) String() string {
	if p.Expr != nil {
		return expr.Write(p.Expr, expr.WriteOptions{})
	}
	return expr.FormatValue(expr.Number(p.Value), expr.SingleQuote)
}

// Storylet is one schedulable unit of content.
//
// Condition and Priority are compiled once, at construction. The only
// mutable state is the redraw bookkeeping, changed by Drawn, Played and
// Reset.
type Storylet struct {
	ID      string
	Content any
	Redraw  Redraw

	// Condition gates eligibility; nil means always eligible.
	Condition expr.Node

	Priority Priority

	// UpdateOnDrawn and UpdateOnPlayed are applied to the deck context, in
	// order, when the storylet is drawn or played.
	UpdateOnDrawn  []env.Update
	UpdateOnPlayed []env.Update

	// nextDraw is the first tick at which the storylet may be drawn again.
	// -1 marks a consumed one-shot.
	nextDraw int64
}

// New returns an always-redrawable storylet with priority 0 and no condition.
func New(id string) *Storylet {
	return &Storylet{ID: id}
}

// SetCondition compiles text and stores it as the condition. Empty text
// clears the condition.
func (s *Storylet) SetCondition(text string) error {
	n, err := expr.Compile(text)
	if err != nil {
		return invalidExpression(s.ID, "condition", err)
	}
	s.Condition = n
	return nil
}

// SetPriority stores a literal number or compiles expression text.
func (s *Storylet) SetPriority(raw any) error {
	p, err := ParsePriority(raw)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.ID = s.ID
		}
		return err
	}
	s.Priority = p
	return nil
}

// NextDraw returns the first tick at which the storylet is eligible again,
// or -1 for a consumed one-shot.
func (s *Storylet) NextDraw() int64 {
	return s.nextDraw
}

// Consumed reports whether a one-shot has been drawn or played.
func (s *Storylet) Consumed() bool {
	return s.Redraw == RedrawNever && s.nextDraw < 0
}

// CanDraw reports whether the redraw policy allows drawing at tick.
func (s *Storylet) CanDraw(tick int64) bool {
	if s.Consumed() {
		return false
	}
	if s.Redraw == RedrawAlways {
		return true
	}
	return tick >= s.nextDraw
}

// Drawn records a draw at tick.
func (s *Storylet) Drawn(tick int64) {
	s.arm(tick)
}

// Played records a play at tick. It re-arms the cooldown the same way a
// draw does.
func (s *Storylet) Played(tick int64) {
	s.arm(tick)
}

func (s *Storylet) arm(tick int64) {
	if s.Redraw == RedrawNever {
		s.nextDraw = -1
		return
	}
	s.nextDraw = tick + int64(s.Redraw)
}

// Reset returns the storylet to its never-drawn state.
func (s *Storylet) Reset() {
	s.nextDraw = 0
}

// CheckCondition evaluates the condition against ctx. A storylet without a
// condition is always eligible.
func (s *Storylet) CheckCondition(ctx expr.Context, trace *expr.Trace) (bool, error) {
	if s.Condition == nil {
		return true, nil
	}
	trace.Add("Evaluating condition for %s", s.ID)
	ok, err := expr.EvalBool(s.Condition, ctx, trace)
	if err != nil {
		return false, fmt.Errorf("condition for %s: %w", s.ID, err)
	}
	return ok, nil
}

// CurrentPriority returns the literal priority or evaluates the priority
// expression. With specificity on, the base is multiplied by
// SpecificityScale and the condition's specificity is added.
func (s *Storylet) CurrentPriority(ctx expr.Context, specificity bool, trace *expr.Trace) (float64, error) {
	p := s.Priority.Value
	if s.Priority.Expr != nil {
		trace.Add("Evaluating priority for %s", s.ID)
		n, err := expr.EvalNumber(s.Priority.Expr, ctx, trace)
		if err != nil {
			return 0, fmt.Errorf("priority for %s: %w", s.ID, err)
		}
		if math.IsNaN(n) {
			return 0, &Error{
				Code:    ErrCodeInvalidPriority,
				ID:      s.ID,
				Field:   "priority",
				Message: "priority evaluated to NaN",
			}
		}
		p = n
	}

	if specificity {
		p = p*SpecificityScale + float64(expr.Specificity(s.Condition))
	}
	return p, nil
}

// String returns the storylet id.
func (s *Storylet) String() string {
	return s.ID
}
