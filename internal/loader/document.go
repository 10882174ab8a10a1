package loader

import "golang.org/x/text/unicode/norm"

// Field is one key/value pair of a document object.
type Field struct {
	Key   string
	Value any
}

// Object is a decoded document mapping with its keys in source order.
//
// Values are nil, bool, int64, float64, string, Object or []any. Order
// matters: context entries are initialized top to bottom and may refer to
// earlier ones.
type Object []Field

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Merge returns a copy of o in which each field of over replaces the field
// with the same key, or is appended if o has none. Neither input is
// modified.
func (o Object) Merge(over Object) Object {
	out := make(Object, len(o), len(o)+len(over))
	copy(out, o)
	for _, f := range over {
		replaced := false
		for i := range out {
			if out[i].Key == f.Key {
				out[i].Value = f.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

// Keys returns the keys in source order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// Plain converts a document value to plain Go values: objects become
// map[string]any and lists []any.
func Plain(v any) any {
	switch val := v.(type) {
	case Object:
		m := make(map[string]any, len(val))
		for _, f := range val {
			m[f.Key] = Plain(f.Value)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}

// normalizeKey puts keys and ids in NFC so that visually identical
// identifiers compare equal.
func normalizeKey(s string) string {
	return norm.NFC.String(s)
}
