package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/storydeck/internal/expr"
)

// AssertionError is returned when an assertion fails.
// It includes the drawn sequence to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		switch {
		case event.Storylet != "":
			fmt.Fprintf(&buf, "  [%d] tick %d %s %s\n", event.Seq, event.Tick, event.Type, event.Storylet)
		case len(event.Pile) > 0:
			fmt.Fprintf(&buf, "  [%d] tick %d %s %v\n", event.Seq, event.Tick, event.Type, event.Pile)
		default:
			fmt.Fprintf(&buf, "  [%d] tick %d %s\n", event.Seq, event.Tick, event.Type)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks each assertion against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertDrawnCount:
		return assertDrawnCount(result.Trace, a)
	case AssertDrawnOrder:
		return assertDrawnOrder(result.Trace, a)
	case AssertNeverDrawn:
		return assertNeverDrawn(result.Trace, a)
	case AssertContextValue:
		return assertContextValue(result, a)
	case AssertFinalTick:
		return assertFinalTick(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func drawnIDs(trace []TraceEvent) []string {
	var ids []string
	for _, e := range trace {
		if e.Type == "drawn" {
			ids = append(ids, e.Storylet)
		}
	}
	return ids
}

// assertDrawnCount checks that a storylet was drawn exactly Count times.
func assertDrawnCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, id := range drawnIDs(trace) {
		if id == a.Storylet {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertDrawnCount,
		Expected: fmt.Sprintf("%s drawn %d times", a.Storylet, a.Count),
		Actual:   fmt.Sprintf("drawn %d times", count),
		Trace:    trace,
	}
}

// assertDrawnOrder checks that the first draws of the listed storylets
// happen in the listed order. Other draws may come in between.
func assertDrawnOrder(trace []TraceEvent, a Assertion) error {
	drawn := drawnIDs(trace)

	positions := make([]int, len(a.Storylets))
	for i, id := range a.Storylets {
		positions[i] = slices.Index(drawn, id)
		if positions[i] < 0 {
			return &AssertionError{
				Type:     AssertDrawnOrder,
				Expected: fmt.Sprintf("%s drawn", id),
				Actual:   "never drawn",
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(positions); i++ {
		if positions[i] < positions[i-1] {
			return &AssertionError{
				Type:     AssertDrawnOrder,
				Expected: fmt.Sprintf("order %v", a.Storylets),
				Actual:   fmt.Sprintf("%s drawn before %s", a.Storylets[i], a.Storylets[i-1]),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertNeverDrawn(trace []TraceEvent, a Assertion) error {
	if !slices.Contains(drawnIDs(trace), a.Storylet) {
		return nil
	}
	return &AssertionError{
		Type:     AssertNeverDrawn,
		Expected: fmt.Sprintf("%s never drawn", a.Storylet),
		Actual:   "drawn",
		Trace:    trace,
	}
}

// assertContextValue compares a final context value. Numbers compare by
// value regardless of their Go type.
func assertContextValue(result *Result, a Assertion) error {
	actual, ok := result.Context[a.Key]
	if !ok {
		return &AssertionError{
			Type:     AssertContextValue,
			Expected: fmt.Sprintf("%s = %v", a.Key, a.Value),
			Actual:   "key not in context",
			Trace:    result.Trace,
		}
	}

	if valuesEqual(a.Value, actual) {
		return nil
	}
	return &AssertionError{
		Type:     AssertContextValue,
		Expected: fmt.Sprintf("%s = %v", a.Key, a.Value),
		Actual:   fmt.Sprintf("%s = %v", a.Key, actual),
		Trace:    result.Trace,
	}
}

func assertFinalTick(result *Result, a Assertion) error {
	if result.Tick == int64(a.Count) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalTick,
		Expected: fmt.Sprintf("tick %d", a.Count),
		Actual:   fmt.Sprintf("tick %d", result.Tick),
		Trace:    result.Trace,
	}
}

func valuesEqual(expected, actual any) bool {
	ev, eok := expr.ValueOf(expected)
	av, aok := expr.ValueOf(actual)
	if eok && aok {
		return expr.Native(ev) == expr.Native(av)
	}
	return reflect.DeepEqual(expected, actual)
}
