package expr

import (
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface over the three runtime value kinds.
// Only Bool, Number and Text implement it.
type Value interface {
	value() // Sealed
}

// Bool is a boolean runtime value.
type Bool bool

func (Bool) value() {}

// Number is a numeric runtime value. All arithmetic is float64.
type Number float64

func (Number) value() {}

// Text is a string runtime value.
type Text string

func (Text) value() {}

// ToBool coerces v to a boolean.
//
//   - Bool passes through
//   - Number is true iff non-zero
//   - Text is true iff it equals "true" (any case) or "1"
func ToBool(v Value) (bool, error) {
	switch val := v.(type) {
	case Bool:
		return bool(val), nil
	case Number:
		return val != 0, nil
	case Text:
		return strings.EqualFold(string(val), "true") || val == "1", nil
	default:
		return false, newError(ErrCodeTypeMismatch, "expecting bool, but got %s", FormatValue(v, SingleQuote))
	}
}

// ToNumber coerces v to a float64.
//
//   - Bool is 1 or 0
//   - Number passes through
//   - Text must parse as a float
func ToNumber(v Value) (float64, error) {
	switch val := v.(type) {
	case Bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case Number:
		return float64(val), nil
	case Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil {
			return 0, newError(ErrCodeTypeMismatch, "expecting number, but got %s", FormatValue(v, SingleQuote))
		}
		return f, nil
	default:
		return 0, newError(ErrCodeTypeMismatch, "expecting number, but got %v", v)
	}
}

// ToText coerces v to a string. It never fails for the three value kinds.
func ToText(v Value) (string, error) {
	switch val := v.(type) {
	case Text:
		return string(val), nil
	case Bool:
		return formatBool(bool(val)), nil
	case Number:
		return formatNumber(float64(val)), nil
	default:
		return "", newError(ErrCodeTypeMismatch, "expecting string, but got %v", v)
	}
}

// MatchType coerces other into the dynamic type of reference.
// Equality operators use it so that "x == 5" compares using x's own type.
func MatchType(reference, other Value) (Value, error) {
	switch reference.(type) {
	case Bool:
		b, err := ToBool(other)
		return Bool(b), err
	case Number:
		n, err := ToNumber(other)
		return Number(n), err
	case Text:
		s, err := ToText(other)
		return Text(s), err
	default:
		return nil, newError(ErrCodeTypeMismatch, "unrecognised type for %v", reference)
	}
}

// ValueOf converts a Go scalar into a Value.
// Accepts Value, bool, string and every integer and float kind.
// The second result is false for anything else (including nil).
func ValueOf(v any) (Value, bool) {
	switch val := v.(type) {
	case Value:
		return val, val != nil
	case bool:
		return Bool(val), true
	case string:
		return Text(val), true
	case float64:
		return Number(val), true
	case float32:
		return Number(val), true
	case int:
		return Number(val), true
	case int8:
		return Number(val), true
	case int16:
		return Number(val), true
	case int32:
		return Number(val), true
	case int64:
		return Number(val), true
	case uint:
		return Number(val), true
	case uint8:
		return Number(val), true
	case uint16:
		return Number(val), true
	case uint32:
		return Number(val), true
	case uint64:
		return Number(val), true
	default:
		return nil, false
	}
}

// Native converts a Value back to a plain Go value (bool, float64 or string).
func Native(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case Text:
		return string(val)
	default:
		return nil
	}
}

// FormatValue renders a value the way the writer renders literals.
func FormatValue(v Value, format StringFormat) string {
	switch val := v.(type) {
	case Bool:
		return formatBool(bool(val))
	case Number:
		return formatNumber(float64(val))
	case Text:
		return formatString(string(val), format)
	default:
		return "<invalid>"
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatNumber prints integral values without a fractional part.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
