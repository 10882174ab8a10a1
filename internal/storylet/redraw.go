package storylet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Redraw is a storylet's recurrence policy: RedrawAlways, RedrawNever
// (one-shot) or a positive cooldown counted in draws.
type Redraw int

const (
	// RedrawAlways keeps the storylet eligible on every reshuffle.
	RedrawAlways Redraw = 0

	// RedrawNever makes the storylet a one-shot: once drawn or played it is
	// consumed until Reset.
	RedrawNever Redraw = -1
)

// String renders the policy the way deck documents spell it.
func (r Redraw) String() string {
	switch r {
	case RedrawAlways:
		return "always"
	case RedrawNever:
		return "never"
	default:
		return strconv.Itoa(int(r))
	}
}

// ParseRedraw accepts "always", "never", an integer or integral float
// (JSON numbers), or a string holding an integer.
func ParseRedraw(raw any) (Redraw, error) {
	switch v := raw.(type) {
	case nil:
		return RedrawAlways, nil
	case Redraw:
		return checkRedraw(int64(v), raw)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "always":
			return RedrawAlways, nil
		case "never":
			return RedrawNever, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, redrawError(raw)
		}
		return checkRedraw(n, raw)
	case int:
		return checkRedraw(int64(v), raw)
	case int32:
		return checkRedraw(int64(v), raw)
	case int64:
		return checkRedraw(v, raw)
	case uint64:
		if v > math.MaxInt32 {
			return 0, redrawError(raw)
		}
		return checkRedraw(int64(v), raw)
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, redrawError(raw)
		}
		return checkRedraw(int64(v), raw)
	default:
		return 0, redrawError(raw)
	}
}

func checkRedraw(n int64, raw any) (Redraw, error) {
	if n < int64(RedrawNever) || n > math.MaxInt32 {
		return 0, redrawError(raw)
	}
	return Redraw(n), nil
}

func redrawError(raw any) *Error {
	return &Error{
		Code:    ErrCodeInvalidRedraw,
		Field:   "redraw",
		Message: fmt.Sprintf("redraw must be \"always\", \"never\" or a non-negative integer, got %v", raw),
	}
}
