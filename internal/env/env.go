package env

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/storydeck/internal/expr"
)

// Env is the evaluation context shared by every storylet in a deck.
//
// Entries are scalars (bool, Go numerics, string, expr.Value) or
// expr.Function values. Values written by Init and Update are stored as
// plain bool, float64 or string.
type Env map[string]any

// New returns an empty Env.
func New() Env {
	return make(Env)
}

// Lookup implements expr.Context.
func (e Env) Lookup(name string) (any, bool) {
	v, ok := e[name]
	return v, ok
}

// Set stores a value directly, creating or replacing the key.
func (e Env) Set(name string, value any) {
	e[name] = value
}

// Func registers a host function with a declared arity (or expr.Variadic).
func (e Env) Func(name string, arity int, fn func(args []expr.Value) (any, error)) {
	e[name] = expr.NewFunc(arity, fn)
}

// Has reports whether name is present.
func (e Env) Has(name string) bool {
	_, ok := e[name]
	return ok
}

// Clone returns a shallow copy. Functions are shared.
func (e Env) Clone() Env {
	return maps.Clone(e)
}

// Init evaluates each update in order and adds the result as a new key.
// A key that already exists fails with ErrCodeKeyConflict before its
// expression is evaluated. Updates applied before a failure remain.
func (e Env) Init(updates []Update, trace *expr.Trace) error {
	for _, u := range updates {
		trace.Add("InitContext: Evaluating %s = %s", u.Name, u.Source)
		if e.Has(u.Name) {
			return keyConflict(u.Name)
		}
		v, err := u.Eval(e, trace)
		if err != nil {
			return fmt.Errorf("init %s: %w", u.Name, err)
		}
		e[u.Name] = v
	}
	return nil
}

// Update evaluates each update in order and overwrites an existing key.
// Later updates see the results of earlier ones. A missing key fails with
// ErrCodeUndefinedKey before its expression is evaluated.
func (e Env) Update(updates []Update, trace *expr.Trace) error {
	for _, u := range updates {
		trace.Add("UpdateContext: Evaluating %s = %s", u.Name, u.Source)
		if !e.Has(u.Name) {
			return undefinedKey(u.Name)
		}
		v, err := u.Eval(e, trace)
		if err != nil {
			return fmt.Errorf("update %s: %w", u.Name, err)
		}
		e[u.Name] = v
	}
	return nil
}

// Values returns the scalar entries as plain Go values, skipping functions
// and anything that isn't a scalar.
func (e Env) Values() map[string]any {
	out := make(map[string]any, len(e))
	for k, raw := range e {
		if v, ok := expr.ValueOf(raw); ok {
			out[k] = expr.Native(v)
		}
	}
	return out
}

// Dump renders every entry as "name = value", one per line in key order.
// Functions print as <function>.
func (e Env) Dump() string {
	lines := make([]string, 0, len(e))
	for _, k := range slices.Sorted(maps.Keys(e)) {
		switch raw := e[k].(type) {
		case expr.Function:
			lines = append(lines, k+" = <function>")
		default:
			v, ok := expr.ValueOf(raw)
			if !ok {
				continue
			}
			s, _ := expr.ToText(v)
			lines = append(lines, k+" = "+s)
		}
	}
	return strings.Join(lines, "\n")
}
