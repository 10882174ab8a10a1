package expr

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes expression errors.
type ErrorCode string

const (
	// ErrCodeLex indicates no token matches at a position in the source text.
	ErrCodeLex ErrorCode = "LEX_ERROR"

	// ErrCodeSyntax indicates the parser met an unexpected or missing token.
	ErrCodeSyntax ErrorCode = "SYNTAX_ERROR"

	// ErrCodeTypeMismatch indicates a coercion could not produce the required type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeDivisionByZero indicates a right operand of "/" coerced to 0.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeUndefinedVariable indicates a variable is absent (or nil) in the context.
	ErrCodeUndefinedVariable ErrorCode = "UNDEFINED_VARIABLE"

	// ErrCodeUndefinedFunction indicates a called name is absent or not callable.
	ErrCodeUndefinedFunction ErrorCode = "UNDEFINED_FUNCTION"

	// ErrCodeInvalidVariableType indicates a context value is not bool, number or text.
	ErrCodeInvalidVariableType ErrorCode = "INVALID_VARIABLE_TYPE"

	// ErrCodeInvalidReturnType indicates a host function returned a non-scalar.
	ErrCodeInvalidReturnType ErrorCode = "INVALID_RETURN_TYPE"

	// ErrCodeArgumentMismatch indicates a host function rejected the argument count.
	ErrCodeArgumentMismatch ErrorCode = "ARGUMENT_MISMATCH"
)

// Error is the single error type produced by tokenizing, parsing and
// evaluating expressions.
//
// Position is the byte offset for lex errors and the token index for syntax
// errors; it is -1 when not applicable. Name carries the variable or
// function name for lookup and call errors.
type Error struct {
	Code     ErrorCode
	Message  string
	Name     string
	Position int

	// Err is the underlying cause, e.g. an error returned by a host function.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err (or anything it wraps) is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

func lexError(pos int, rest string) *Error {
	return &Error{
		Code:     ErrCodeLex,
		Message:  fmt.Sprintf("unrecognized token at position %d: %q", pos, rest),
		Position: pos,
	}
}

func syntaxError(index int, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeSyntax,
		Message:  fmt.Sprintf(format, args...),
		Position: index,
	}
}
