package storylet

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes storylet construction errors.
type ErrorCode string

const (
	// ErrCodeMissingID indicates a config without an id.
	ErrCodeMissingID ErrorCode = "MISSING_ID"

	// ErrCodeInvalidRedraw indicates a redraw value that is not "always", "never" or an integer >= 0.
	ErrCodeInvalidRedraw ErrorCode = "INVALID_REDRAW"

	// ErrCodeInvalidPriority indicates a priority that is neither a number nor expression text.
	ErrCodeInvalidPriority ErrorCode = "INVALID_PRIORITY"

	// ErrCodeInvalidExpression indicates a condition, priority or update failed to compile.
	ErrCodeInvalidExpression ErrorCode = "INVALID_EXPRESSION"
)

// Error reports a storylet that could not be built from its config.
type Error struct {
	Code ErrorCode

	// ID is the storylet id, empty for ErrCodeMissingID.
	ID string

	// Field names the offending config field ("redraw", "condition", ...).
	Field string

	Message string

	// Err is the underlying cause, typically an *expr.Error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ID != "" {
		msg = fmt.Sprintf("%s (storylet=%s)", msg, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err (or anything it wraps) is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func invalidExpression(id, field string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidExpression,
		ID:      id,
		Field:   field,
		Message: fmt.Sprintf("cannot compile %s", field),
		Err:     err,
	}
}
