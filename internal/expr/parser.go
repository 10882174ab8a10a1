package expr

import (
	"strconv"
)

// Parse tokenizes and parses text into an expression tree.
func Parse(text string) (Node, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// Compile parses text once into a tree suitable for storing on a storylet.
// Empty (or all-whitespace) text yields a nil Node, meaning "no expression".
func Compile(text string) (Node, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return ParseTokens(tokens)
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(text string) Node {
	n, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseTokens builds a tree from a token sequence. The whole sequence must
// be consumed.
func ParseTokens(tokens []Token) (Node, error) {
	p := &parser{tokens: tokens}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, syntaxError(p.pos, "unexpected token %q at index %d", p.tokens[p.pos].Text, p.pos)
	}
	return n, nil
}

// parser is a recursive-descent parser with one routine per grammar tier.
type parser struct {
	tokens []Token
	pos    int
}

// peekOp returns the operator text at the cursor, or "" when the cursor is
// past the end or not on an operator token.
func (p *parser) peekOp() string {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].Kind != TokenOperator {
		return ""
	}
	return p.tokens[p.pos].Text
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peekOp() {
		case "or", "||":
			p.pos++
			right, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: OpOr, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peekOp() {
		case "and", "&&":
			p.pos++
			right, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: OpAnd, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

var comparisonOps = map[string]Op{
	"==": OpEquals,
	"=":  OpEquals,
	"!=": OpNotEquals,
	">":  OpGreaterThan,
	"<":  OpLessThan,
	">=": OpGreaterThanEquals,
	"<=": OpLessThanEquals,
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.peekOp()]
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.peekOp() {
		case "+":
			op = OpPlus
		case "-":
			op = OpMinus
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op Op
		switch p.peekOp() {
		case "*":
			op = OpMultiply
		case "/":
			op = OpDivide
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	var op Op
	switch p.peekOp() {
	case "not", "!":
		op = OpNot
	case "-":
		op = OpNegative
	default:
		return p.parsePrimary()
	}
	p.pos++
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: op, Operand: operand}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	if p.pos >= len(p.tokens) {
		return nil, syntaxError(p.pos, "unexpected end of expression at index %d", p.pos)
	}

	tok := p.tokens[p.pos]
	switch tok.Kind {
	case TokenBoolean:
		p.pos++
		return &Boolean{Value: tok.Text == "true" || tok.Text == "True"}, nil

	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, syntaxError(p.pos, "invalid number %q at index %d", tok.Text, p.pos)
		}
		p.pos++
		return &NumberLit{Value: f}, nil

	case TokenString:
		p.pos++
		return &String{Value: tok.Text[1 : len(tok.Text)-1]}, nil

	case TokenIdentifier:
		p.pos++
		if p.peekOp() == "(" {
			return p.parseCall(tok.Text)
		}
		return &Variable{Name: tok.Text}, nil

	case TokenOperator:
		if tok.Text == "(" {
			start := p.pos
			p.pos++
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if p.peekOp() != ")" {
				return nil, p.missingClose(start)
			}
			p.pos++
			return inner, nil
		}
	}

	return nil, syntaxError(p.pos, "unexpected token %q at index %d", tok.Text, p.pos)
}

// parseCall parses "(args)" after a function name. The cursor is on "(".
func (p *parser) parseCall(name string) (Node, error) {
	start := p.pos
	p.pos++

	call := &Call{Name: name}
	if p.peekOp() == ")" {
		p.pos++
		return call, nil
	}

	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		switch p.peekOp() {
		case ",":
			p.pos++
		case ")":
			p.pos++
			return call, nil
		default:
			return nil, p.missingClose(start)
		}
	}
}

// missingClose reports a "(" at index open that was never closed.
func (p *parser) missingClose(open int) *Error {
	if p.pos >= len(p.tokens) {
		return syntaxError(p.pos, "missing ')' for '(' at index %d", open)
	}
	return syntaxError(p.pos, "expected ')' for '(' at index %d, got %q at index %d", open, p.tokens[p.pos].Text, p.pos)
}
