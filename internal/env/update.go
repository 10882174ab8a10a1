package env

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/storydeck/internal/expr"
)

// Update is one compiled assignment "Name = expression".
//
// Bool and numeric sources become literals and are never parsed; string
// sources are expressions, so a text value must be quoted inside the string
// ("'north'"). Exactly one of Literal and Expr is set.
type Update struct {
	Name    string
	Literal expr.Value
	Expr    expr.Node
	Source  string
}

// NewUpdate compiles raw into an Update for name.
func NewUpdate(name string, raw any) (Update, error) {
	switch v := raw.(type) {
	case string:
		n, err := expr.Parse(v)
		if err != nil {
			return Update{}, fmt.Errorf("%s: %w", name, err)
		}
		return Update{Name: name, Expr: n, Source: v}, nil
	default:
		val, ok := expr.ValueOf(raw)
		if !ok {
			return Update{}, &Error{
				Code:    ErrCodeInvalidValue,
				Key:     name,
				Message: fmt.Sprintf("value for '%s' must be bool, number or expression text, got %T", name, raw),
			}
		}
		return Update{Name: name, Literal: val, Source: expr.FormatValue(val, expr.SingleQuote)}, nil
	}
}

// MustUpdate is like NewUpdate but panics on error.
func MustUpdate(name string, raw any) Update {
	u, err := NewUpdate(name, raw)
	if err != nil {
		panic(err)
	}
	return u
}

// UpdatesFromMap compiles every entry of m in key order.
func UpdatesFromMap(m map[string]any) ([]Update, error) {
	updates := make([]Update, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		u, err := NewUpdate(k, m[k])
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// Eval computes the update's value against ctx as a plain Go scalar.
func (u Update) Eval(ctx expr.Context, trace *expr.Trace) (any, error) {
	if u.Expr == nil {
		return expr.Native(u.Literal), nil
	}
	v, err := expr.Eval(u.Expr, ctx, trace)
	if err != nil {
		return nil, err
	}
	return expr.Native(v), nil
}

// String renders the assignment.
func (u Update) String() string {
	return u.Name + " = " + u.Source
}
