package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Context resolves names to scalar values or host functions during
// evaluation. A nil value with ok == true is treated as missing.
//
// env.Env is the standard implementation.
type Context interface {
	Lookup(name string) (any, bool)
}

// Variadic is the Arity of a function that accepts any argument count.
const Variadic = -1

// Function is a host callable exposed to expressions. Arity declares the
// accepted argument count (or Variadic) and is checked before Call.
//
// Call must return a bool, string, expr.Value or Go numeric; anything else
// fails evaluation with ErrCodeInvalidReturnType.
type Function interface {
	Arity() int
	Call(args []Value) (any, error)
}

// Func adapts a plain Go function to Function.
type Func struct {
	arity int
	fn    func(args []Value) (any, error)
}

// NewFunc returns a Function with the given arity.
func NewFunc(arity int, fn func(args []Value) (any, error)) *Func {
	return &Func{arity: arity, fn: fn}
}

// Arity implements Function.
func (f *Func) Arity() int { return f.arity }

// Call implements Function.
func (f *Func) Call(args []Value) (any, error) { return f.fn(args) }

// MapContext is a minimal Context over a plain map.
type MapContext map[string]any

// Lookup implements Context.
func (m MapContext) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Trace collects one line per evaluation step. A nil *Trace discards
// everything, so callers that don't want a trace pass nil.
type Trace struct {
	// Format controls how string values are rendered in lines.
	Format StringFormat

	Lines []string
}

// NewTrace returns an empty trace rendering strings single-quoted.
func NewTrace() *Trace {
	return &Trace{}
}

// Add appends a formatted line. Safe to call on a nil receiver.
func (t *Trace) Add(format string, args ...any) {
	if t == nil {
		return
	}
	t.Lines = append(t.Lines, fmt.Sprintf(format, args...))
}

// String joins the collected lines with newlines.
func (t *Trace) String() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Lines, "\n")
}

func (t *Trace) enabled() bool {
	return t != nil
}

func (t *Trace) format(v Value) string {
	return FormatValue(v, t.Format)
}

// Eval evaluates n against ctx. trace may be nil.
//
// Operands are evaluated left then right. "or", "and" and "*" short-circuit
// on their left operand; every other operator evaluates all operands.
func Eval(n Node, ctx Context, trace *Trace) (Value, error) {
	switch v := n.(type) {
	case *Boolean:
		if trace.enabled() {
			trace.Add("Boolean: %s", formatBool(v.Value))
		}
		return Bool(v.Value), nil

	case *NumberLit:
		if trace.enabled() {
			trace.Add("Number: %s", formatNumber(v.Value))
		}
		return Number(v.Value), nil

	case *String:
		if trace.enabled() {
			trace.Add("String: %s", formatString(v.Value, trace.Format))
		}
		return Text(v.Value), nil

	case *Variable:
		return evalVariable(v, ctx, trace)

	case *Call:
		return evalCall(v, ctx, trace)

	case *Binary:
		return evalBinary(v, ctx, trace)

	case *Unary:
		return evalUnary(v, ctx, trace)

	case nil:
		return nil, newError(ErrCodeSyntax, "cannot evaluate empty expression")

	default:
		return nil, newError(ErrCodeSyntax, "unknown node type %T", n)
	}
}

// EvalBool evaluates n and coerces the result to a boolean. A nil node is
// true, matching a storylet without a condition.
func EvalBool(n Node, ctx Context, trace *Trace) (bool, error) {
	if n == nil {
		return true, nil
	}
	v, err := Eval(n, ctx, trace)
	if err != nil {
		return false, err
	}
	return ToBool(v)
}

// EvalNumber evaluates n and coerces the result to a float64.
func EvalNumber(n Node, ctx Context, trace *Trace) (float64, error) {
	v, err := Eval(n, ctx, trace)
	if err != nil {
		return 0, err
	}
	return ToNumber(v)
}

func lookup(ctx Context, name string) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Lookup(name)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func evalVariable(v *Variable, ctx Context, trace *Trace) (Value, error) {
	raw, ok := lookup(ctx, v.Name)
	if !ok {
		err := newError(ErrCodeUndefinedVariable, "variable '%s' not found in context", v.Name)
		err.Name = v.Name
		return nil, err
	}

	val, ok := ValueOf(raw)
	if !ok {
		err := newError(ErrCodeInvalidVariableType, "variable '%s' must be bool, string or numeric, got %T", v.Name, raw)
		err.Name = v.Name
		return nil, err
	}

	if trace.enabled() {
		trace.Add("Fetching variable: %s -> %s", v.Name, trace.format(val))
	}
	return val, nil
}

func evalCall(c *Call, ctx Context, trace *Trace) (Value, error) {
	raw, ok := lookup(ctx, c.Name)
	fn, isFunc := raw.(Function)
	if !ok || !isFunc {
		err := newError(ErrCodeUndefinedFunction, "function '%s' not found in context", c.Name)
		err.Name = c.Name
		return nil, err
	}

	args := make([]Value, 0, len(c.Args))
	for _, argNode := range c.Args {
		arg, err := Eval(argNode, ctx, trace)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if arity := fn.Arity(); arity != Variadic && arity != len(args) {
		err := newError(ErrCodeArgumentMismatch, "function '%s' does not support the provided arguments (%s)",
			c.Name, formatArgs(args, SingleQuote))
		err.Name = c.Name
		return nil, err
	}

	out, callErr := fn.Call(args)
	if callErr != nil {
		return nil, hostError(c.Name, callErr)
	}

	result, ok := ValueOf(out)
	if !ok {
		err := newError(ErrCodeInvalidReturnType, "function '%s' must return bool, string or numeric, got %T", c.Name, out)
		err.Name = c.Name
		return nil, err
	}

	if trace.enabled() {
		trace.Add("Called function: %s(%s) = %s", c.Name, formatArgs(args, trace.Format), trace.format(result))
	}
	return result, nil
}

// hostError passes expression errors raised inside a host function through
// unchanged and wraps anything else.
func hostError(name string, err error) error {
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	return fmt.Errorf("function '%s': %w", name, err)
}

func formatArgs(args []Value, format StringFormat) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatValue(a, format)
	}
	return strings.Join(parts, ", ")
}

func evalBinary(b *Binary, ctx Context, trace *Trace) (Value, error) {
	left, err := Eval(b.Left, ctx, trace)
	if err != nil {
		return nil, err
	}

	short, result, err := shortCircuit(b.Op, left)
	if err != nil {
		return nil, err
	}
	if short {
		if trace.enabled() {
			trace.Add("Evaluated: %s %s (ignore) = %s", trace.format(left), b.Op.Symbol(), trace.format(result))
		}
		return result, nil
	}

	right, err := Eval(b.Right, ctx, trace)
	if err != nil {
		return nil, err
	}

	result, err = applyBinary(b.Op, left, right)
	if err != nil {
		return nil, err
	}

	if trace.enabled() {
		trace.Add("Evaluated: %s %s %s = %s", trace.format(left), b.Op.Symbol(), trace.format(right), trace.format(result))
	}
	return result, nil
}

// shortCircuit decides from the left operand alone whether the right
// operand can be skipped.
func shortCircuit(op Op, left Value) (bool, Value, error) {
	switch op {
	case OpOr:
		l, err := ToBool(left)
		if err != nil {
			return false, nil, err
		}
		if l {
			return true, Bool(true), nil
		}
	case OpAnd:
		l, err := ToBool(left)
		if err != nil {
			return false, nil, err
		}
		if !l {
			return true, Bool(false), nil
		}
	case OpMultiply:
		l, err := ToNumber(left)
		if err != nil {
			return false, nil, err
		}
		if l == 0 {
			return true, Number(0), nil
		}
	}
	return false, nil, nil
}

func applyBinary(op Op, left, right Value) (Value, error) {
	switch op {
	case OpOr, OpAnd:
		l, err := ToBool(left)
		if err != nil {
			return nil, err
		}
		r, err := ToBool(right)
		if err != nil {
			return nil, err
		}
		if op == OpOr {
			return Bool(l || r), nil
		}
		return Bool(l && r), nil

	case OpEquals, OpNotEquals:
		matched, err := MatchType(left, right)
		if err != nil {
			return nil, err
		}
		eq := left == matched
		if op == OpNotEquals {
			eq = !eq
		}
		return Bool(eq), nil
	}

	l, err := ToNumber(left)
	if err != nil {
		return nil, err
	}
	r, err := ToNumber(right)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpPlus:
		return Number(l + r), nil
	case OpMinus:
		return Number(l - r), nil
	case OpMultiply:
		return Number(l * r), nil
	case OpDivide:
		if r == 0 {
			return nil, newError(ErrCodeDivisionByZero, "division by zero")
		}
		return Number(l / r), nil
	case OpGreaterThan:
		return Bool(l > r), nil
	case OpLessThan:
		return Bool(l < r), nil
	case OpGreaterThanEquals:
		return Bool(l >= r), nil
	case OpLessThanEquals:
		return Bool(l <= r), nil
	default:
		return nil, newError(ErrCodeSyntax, "unknown binary operator %d", op)
	}
}

func evalUnary(u *Unary, ctx Context, trace *Trace) (Value, error) {
	operand, err := Eval(u.Operand, ctx, trace)
	if err != nil {
		return nil, err
	}

	var result Value
	switch u.Op {
	case OpNegative:
		n, err := ToNumber(operand)
		if err != nil {
			return nil, err
		}
		result = Number(-n)
	case OpNot:
		b, err := ToBool(operand)
		if err != nil {
			return nil, err
		}
		result = Bool(!b)
	default:
		return nil, newError(ErrCodeSyntax, "unknown unary operator %d", u.Op)
	}

	if trace.enabled() {
		trace.Add("Evaluated: %s %s = %s", u.Op.Symbol(), trace.format(operand), trace.format(result))
	}
	return result, nil
}
