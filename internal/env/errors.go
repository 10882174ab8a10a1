package env

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes context errors.
type ErrorCode string

const (
	// ErrCodeKeyConflict indicates Init was asked to create a key that already exists.
	ErrCodeKeyConflict ErrorCode = "CONTEXT_KEY_CONFLICT"

	// ErrCodeUndefinedKey indicates Update was asked to change a key that doesn't exist.
	ErrCodeUndefinedKey ErrorCode = "UNDEFINED_CONTEXT_KEY"

	// ErrCodeInvalidValue indicates an update value is neither a literal nor expression text.
	ErrCodeInvalidValue ErrorCode = "INVALID_CONTEXT_VALUE"
)

// Error reports a failed context initialization or update.
type Error struct {
	Code    ErrorCode
	Key     string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err (or anything it wraps) is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

func keyConflict(key string) *Error {
	return &Error{
		Code:    ErrCodeKeyConflict,
		Key:     key,
		Message: fmt.Sprintf("trying to initialise property '%s' in context when it already exists", key),
	}
}

func undefinedKey(key string) *Error {
	return &Error{
		Code:    ErrCodeUndefinedKey,
		Key:     key,
		Message: fmt.Sprintf("context var '%s' undefined", key),
	}
}
