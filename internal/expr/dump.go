package expr

import "strings"

// Dump renders the tree one node per line, children indented two spaces
// deeper than their parent. Intended for diagnostics only.
//
//	And
//	  GreaterThan
//	    Variable(gold)
//	    Number(5)
//	  Boolean(true)
func Dump(n Node, indent int) string {
	var b strings.Builder
	dump(&b, n, indent)
	return b.String()
}

func dump(b *strings.Builder, n Node, indent int) {
	b.WriteString(strings.Repeat("  ", indent))

	switch v := n.(type) {
	case *Boolean:
		b.WriteString("Boolean(" + formatBool(v.Value) + ")\n")

	case *NumberLit:
		b.WriteString("Number(" + formatNumber(v.Value) + ")\n")

	case *String:
		b.WriteString("String(" + formatString(v.Value, SingleQuote) + ")\n")

	case *Variable:
		b.WriteString("Variable(" + v.Name + ")\n")

	case *Call:
		b.WriteString("FunctionCall(" + v.Name + ")\n")
		for _, arg := range v.Args {
			dump(b, arg, indent+1)
		}

	case *Binary:
		b.WriteString(v.Op.Name() + "\n")
		dump(b, v.Left, indent+1)
		dump(b, v.Right, indent+1)

	case *Unary:
		b.WriteString(v.Op.Name() + "\n")
		dump(b, v.Operand, indent+1)

	default:
		b.WriteString("<nil>\n")
	}
}
