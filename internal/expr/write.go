package expr

import (
	"fmt"
	"strings"
)

// StringFormat selects how string literals are quoted when written.
// It never affects parsing.
type StringFormat int

const (
	// SingleQuote renders 'text'. It is the zero value.
	SingleQuote StringFormat = iota
	// EscapedSingleQuote renders \'text\' for embedding in quoted source.
	EscapedSingleQuote
	// DoubleQuote renders "text".
	DoubleQuote
	// EscapedDoubleQuote renders \"text\" for embedding in JSON strings.
	EscapedDoubleQuote
)

// ParseStringFormat maps a name ("single", "escaped-single", "double",
// "escaped-double") to a StringFormat.
func ParseStringFormat(name string) (StringFormat, error) {
	switch strings.ToLower(name) {
	case "", "single":
		return SingleQuote, nil
	case "escaped-single":
		return EscapedSingleQuote, nil
	case "double":
		return DoubleQuote, nil
	case "escaped-double":
		return EscapedDoubleQuote, nil
	default:
		return SingleQuote, fmt.Errorf("unknown string format %q", name)
	}
}

// WriteOptions configures Write. The zero value writes single-quoted strings.
type WriteOptions struct {
	Strings StringFormat
}

// Write renders n back to expression source.
//
// A child is parenthesized when its precedence is lower than its parent's.
// The right operand of a binary node is also parenthesized when it is a
// binary node from the same grammar tier, since the parser associates to
// the left and would otherwise rebuild a different tree.
func Write(n Node, opts WriteOptions) string {
	var b strings.Builder
	write(&b, n, opts)
	return b.String()
}

func write(b *strings.Builder, n Node, opts WriteOptions) {
	switch v := n.(type) {
	case *Boolean:
		b.WriteString(formatBool(v.Value))

	case *NumberLit:
		b.WriteString(formatNumber(v.Value))

	case *String:
		b.WriteString(formatString(v.Value, opts.Strings))

	case *Variable:
		b.WriteString(v.Name)

	case *Call:
		b.WriteString(v.Name)
		b.WriteByte('(')
		for i, arg := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, arg, opts)
		}
		b.WriteByte(')')

	case *Binary:
		prec := Precedence(v)
		writeChild(b, v.Left, Precedence(v.Left) < prec, opts)
		b.WriteByte(' ')
		b.WriteString(v.Op.Symbol())
		b.WriteByte(' ')
		writeChild(b, v.Right, Precedence(v.Right) < prec || sameTier(v, v.Right), opts)

	case *Unary:
		b.WriteString(v.Op.Symbol())
		b.WriteByte(' ')
		writeChild(b, v.Operand, Precedence(v.Operand) < PrecedenceUnary, opts)
	}
}

func writeChild(b *strings.Builder, n Node, paren bool, opts WriteOptions) {
	if paren {
		b.WriteByte('(')
	}
	write(b, n, opts)
	if paren {
		b.WriteByte(')')
	}
}

// sameTier reports whether child is a binary node parsed by the same
// routine as parent.
func sameTier(parent *Binary, child Node) bool {
	c, ok := child.(*Binary)
	return ok && ops[c.Op].tier == ops[parent.Op].tier
}

func formatString(s string, format StringFormat) string {
	// Literals have no escapes, so a text holding the selected quote is
	// written with the other one. Parsed text never holds both.
	switch format {
	case SingleQuote:
		if strings.Contains(s, "'") {
			format = DoubleQuote
		}
	case DoubleQuote:
		if strings.Contains(s, `"`) {
			format = SingleQuote
		}
	case EscapedSingleQuote:
		if strings.Contains(s, "'") {
			format = EscapedDoubleQuote
		}
	case EscapedDoubleQuote:
		if strings.Contains(s, `"`) {
			format = EscapedSingleQuote
		}
	}

	switch format {
	case EscapedSingleQuote:
		return `\'` + s + `\'`
	case DoubleQuote:
		return `"` + s + `"`
	case EscapedDoubleQuote:
		return `\"` + s + `\"`
	default:
		return "'" + s + "'"
	}
}
