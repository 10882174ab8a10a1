package expr

import (
	"slices"
	"strings"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	// TokenOperator is an operator, keyword or punctuation symbol.
	TokenOperator TokenKind = iota + 1
	// TokenIdentifier is a variable or function name.
	TokenIdentifier
	// TokenNumber is an integer or floating literal.
	TokenNumber
	// TokenString is a quoted string literal, quotes included.
	TokenString
	// TokenBoolean is true, false, True or False.
	TokenBoolean
)

// String returns the kind name used in diagnostics.
func (k TokenKind) String() string {
	switch k {
	case TokenOperator:
		return "operator"
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Token is one lexical unit. Tokens carry no position; parser errors cite
// the token index instead.
type Token struct {
	Kind TokenKind
	Text string
}

// keywords are the word forms of the logical operators.
var keywords = map[string]bool{
	"and": true,
	"or":  true,
	"not": true,
}

var booleans = map[string]bool{
	"true":  true,
	"false": true,
	"True":  true,
	"False": true,
}

// twoCharOps are tried before single characters so ">=" never lexes as ">" "=".
var twoCharOps = []string{">=", "<=", "==", "!=", "&&", "||"}

const singleCharOps = "=!><(),+-/*"

// Tokenize splits an expression into tokens, discarding whitespace.
// It fails with an ErrCodeLex error naming the byte offset where no
// alternative matches.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	pos := 0

	for pos < len(text) {
		ch := text[pos]

		if isSpace(ch) {
			pos++
			continue
		}

		if pos+1 < len(text) {
			pair := text[pos : pos+2]
			if slices.Contains(twoCharOps, pair) {
				tokens = append(tokens, Token{Kind: TokenOperator, Text: pair})
				pos += 2
				continue
			}
		}

		if strings.IndexByte(singleCharOps, ch) >= 0 {
			tokens = append(tokens, Token{Kind: TokenOperator, Text: string(ch)})
			pos++
			continue
		}

		switch {
		case isIdentStart(ch):
			start := pos
			for pos < len(text) && isIdentChar(text[pos]) {
				pos++
			}
			word := text[start:pos]
			tokens = append(tokens, Token{Kind: classifyWord(word), Text: word})

		case isDigit(ch):
			end, ok := scanNumber(text, pos)
			if !ok {
				return nil, lexError(pos, text[pos:])
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: text[pos:end]})
			pos = end

		case ch == '"' || ch == '\'':
			n := strings.IndexByte(text[pos+1:], ch)
			if n < 0 {
				return nil, lexError(pos, text[pos:])
			}
			end := pos + 1 + n
			tokens = append(tokens, Token{Kind: TokenString, Text: text[pos : end+1]})
			pos = end + 1

		default:
			return nil, lexError(pos, text[pos:])
		}
	}

	return tokens, nil
}

// scanNumber reads digits with an optional ".digits" fraction starting at
// pos. The literal must not run straight into an identifier character.
func scanNumber(text string, pos int) (int, bool) {
	end := pos
	for end < len(text) && isDigit(text[end]) {
		end++
	}
	if end+1 < len(text) && text[end] == '.' && isDigit(text[end+1]) {
		end++
		for end < len(text) && isDigit(text[end]) {
			end++
		}
	}
	if end < len(text) && isIdentStart(text[end]) {
		return end, false
	}
	return end, true
}

func classifyWord(word string) TokenKind {
	if keywords[word] {
		return TokenOperator
	}
	if booleans[word] {
		return TokenBoolean
	}
	return TokenIdentifier
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
