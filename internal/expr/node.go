package expr

// Node is a sealed interface over the expression tree variants.
//
// The variant set is closed: Boolean, NumberLit, String, Variable, Call,
// Binary and Unary. Evaluation, writing and dumping dispatch with a type
// switch over these types. Trees are immutable once parsed and no node is
// shared between two parents.
type Node interface {
	node() // Sealed
}

// Boolean is a boolean literal.
type Boolean struct {
	Value bool
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// String is a string literal. Value holds the text without quotes.
type String struct {
	Value string
}

// Variable is a reference to a context entry.
type Variable struct {
	Name string
}

// Call is a host function call. Args are full expressions, evaluated
// left to right.
type Call struct {
	Name string
	Args []Node
}

// Binary is a two-operand operator node.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

// Unary is a prefix operator node (OpNegative or OpNot).
type Unary struct {
	Op      Op
	Operand Node
}

func (*Boolean) node()   {}
func (*NumberLit) node() {}
func (*String) node()    {}
func (*Variable) node()  {}
func (*Call) node()      {}
func (*Binary) node()    {}
func (*Unary) node()     {}

// Op identifies a binary or unary operator.
type Op int

const (
	OpOr Op = iota + 1
	OpAnd
	OpEquals
	OpNotEquals
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	OpGreaterThan
	OpLessThan
	OpGreaterThanEquals
	OpLessThanEquals

	OpNegative
	OpNot
)

// Precedence constants. They only drive parenthesization when writing;
// parse order comes from the grammar.
const (
	PrecedenceOr         = 40
	PrecedenceAnd        = 50
	PrecedenceComparison = 60
	PrecedenceAdditive   = 70
	PrecedenceMultiply   = 80
	PrecedenceDivide     = 85
	PrecedenceUnary      = 90
	PrecedenceLeaf       = 100
)

type opInfo struct {
	name       string
	symbol     string
	precedence int
	tier       int
}

// Grammar tiers, lowest first. Operators of one tier share a parse routine.
const (
	tierOr = iota + 1
	tierAnd
	tierComparison
	tierAdditive
	tierMultiplicative
	tierUnary
)

var ops = map[Op]opInfo{
	OpOr:                {"Or", "or", PrecedenceOr, tierOr},
	OpAnd:               {"And", "and", PrecedenceAnd, tierAnd},
	OpEquals:            {"Equals", "==", PrecedenceComparison, tierComparison},
	OpNotEquals:         {"NotEquals", "!=", PrecedenceComparison, tierComparison},
	OpGreaterThan:       {"GreaterThan", ">", PrecedenceComparison, tierComparison},
	OpLessThan:          {"LessThan", "<", PrecedenceComparison, tierComparison},
	OpGreaterThanEquals: {"GreaterThanEquals", ">=", PrecedenceComparison, tierComparison},
	OpLessThanEquals:    {"LessThanEquals", "<=", PrecedenceComparison, tierComparison},
	OpPlus:              {"Plus", "+", PrecedenceAdditive, tierAdditive},
	OpMinus:             {"Minus", "-", PrecedenceAdditive, tierAdditive},
	OpMultiply:          {"Multiply", "*", PrecedenceMultiply, tierMultiplicative},
	OpDivide:            {"Divide", "/", PrecedenceDivide, tierMultiplicative},
	OpNegative:          {"Negative", "-", PrecedenceUnary, tierUnary},
	OpNot:               {"Not", "not", PrecedenceUnary, tierUnary},
}

// Name returns the variant name used by Dump, e.g. "GreaterThanEquals".
func (o Op) Name() string {
	if info, ok := ops[o]; ok {
		return info.name
	}
	return "Unknown"
}

// Symbol returns the canonical source symbol written for the operator.
func (o Op) Symbol() string {
	if info, ok := ops[o]; ok {
		return info.symbol
	}
	return "?"
}

// String implements fmt.Stringer.
func (o Op) String() string {
	return o.Symbol()
}

// IsUnary reports whether o is a prefix operator.
func (o Op) IsUnary() bool {
	return o == OpNegative || o == OpNot
}

// Precedence returns the fixed writer precedence of a node's variant.
func Precedence(n Node) int {
	switch v := n.(type) {
	case *Binary:
		return ops[v.Op].precedence
	case *Unary:
		return PrecedenceUnary
	default:
		return PrecedenceLeaf
	}
}

// Specificity scores how constrained a condition is: one point for every
// and/or junction and one for every variable or function reference.
// Literals score zero. A nil node (no condition) scores zero.
func Specificity(n Node) int {
	switch v := n.(type) {
	case *Variable:
		return 1
	case *Call:
		score := 1
		for _, arg := range v.Args {
			score += Specificity(arg)
		}
		return score
	case *Binary:
		score := Specificity(v.Left) + Specificity(v.Right)
		if v.Op == OpAnd || v.Op == OpOr {
			score++
		}
		return score
	case *Unary:
		return Specificity(v.Operand)
	default:
		return 0
	}
}

// Variables returns the distinct variable names referenced by n in
// first-appearance order.
func Variables(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	walk(n, func(node Node) {
		if v, ok := node.(*Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	})
	return names
}

// Functions returns the distinct function names called by n in
// first-appearance order.
func Functions(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	walk(n, func(node Node) {
		if c, ok := node.(*Call); ok && !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	})
	return names
}

// walk visits n and its descendants depth-first, parents before children.
func walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	switch v := n.(type) {
	case *Call:
		for _, arg := range v.Args {
			walk(arg, visit)
		}
	case *Binary:
		walk(v.Left, visit)
		walk(v.Right, visit)
	case *Unary:
		walk(v.Operand, visit)
	}
}
