package loader

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Decode parses a deck document into an Object. filename is used only in
// error positions.
//
// A document whose top level is a list is read as a packet with only a
// storylets field. An empty document decodes to an empty Object.
func Decode(data []byte, format Format, filename string) (Object, error) {
	var (
		v   any
		err error
	)
	switch format {
	case FormatYAML:
		v, err = decodeYAML(data)
	case FormatJSON, FormatCUE:
		v, err = decodeCUE(data, filename)
	default:
		return nil, &Error{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("cannot decode %s documents", format),
		}
	}
	if err != nil {
		return nil, err
	}

	switch doc := v.(type) {
	case nil:
		return Object{}, nil
	case Object:
		return doc, nil
	case []any:
		return Object{{Key: "storylets", Value: doc}}, nil
	default:
		return nil, invalidDocument("", "document must be an object or a list, got %s", kindOf(v))
	}
}

func decodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &Error{Code: ErrCodeParse, Message: "invalid YAML", Err: err}
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	return yamlValue(root.Content[0], "")
}

func yamlValue(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias, path)

	case yaml.MappingNode:
		obj := make(Object, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, invalidDocument(path, "line %d: mapping keys must be scalars", k.Line)
			}
			key := normalizeKey(k.Value)
			if seen[key] {
				return nil, invalidDocument(joinKey(path, key), "line %d: duplicate key", k.Line)
			}
			seen[key] = true

			val, err := yamlValue(v, joinKey(path, key))
			if err != nil {
				return nil, err
			}
			obj = append(obj, Field{Key: key, Value: val})
		}
		return obj, nil

	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			val, err := yamlValue(item, joinIndex(path, i))
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil

	case yaml.ScalarNode:
		return yamlScalar(n, path)

	default:
		return nil, invalidDocument(path, "line %d: unsupported YAML node", n.Line)
	}
}

func yamlScalar(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!str", "!!timestamp", "!!binary":
		return n.Value, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, &Error{
			Code:    ErrCodeParse,
			Path:    path,
			Message: fmt.Sprintf("line %d: invalid scalar", n.Line),
			Err:     err,
		}
	}

	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		return float64(val), nil
	default:
		return v, nil
	}
}

func decodeCUE(data []byte, filename string) (any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return cueValue(v, "")
}

func cueValue(v cue.Value, path string) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil

	case cue.BoolKind:
		b, err := v.Bool()
		return b, cueFieldError(err, path)

	case cue.IntKind:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		return f, cueFieldError(err, path)

	case cue.FloatKind:
		f, err := v.Float64()
		return f, cueFieldError(err, path)

	case cue.StringKind:
		s, err := v.String()
		return s, cueFieldError(err, path)

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, cueFieldError(err, path)
		}
		var obj Object
		for iter.Next() {
			key := normalizeKey(iter.Label())
			val, err := cueValue(iter.Value(), joinKey(path, key))
			if err != nil {
				return nil, err
			}
			obj = append(obj, Field{Key: key, Value: val})
		}
		if obj == nil {
			obj = Object{}
		}
		return obj, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, cueFieldError(err, path)
		}
		list := []any{}
		for i := 0; iter.Next(); i++ {
			val, err := cueValue(iter.Value(), joinIndex(path, i))
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		return list, nil

	default:
		return nil, &Error{
			Code:    ErrCodeInvalidDocument,
			Path:    path,
			Message: fmt.Sprintf("unsupported value kind %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: ErrCodeParse, Message: err.Error()}
	}

	first := errs[0]
	le := &Error{Code: ErrCodeParse, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func cueFieldError(err error, path string) error {
	if err == nil {
		return nil
	}
	le, _ := formatCUEError(err).(*Error)
	le.Path = path
	return le
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func joinIndex(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case Object:
		return "object"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}
