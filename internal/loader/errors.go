package loader

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// ErrorCode categorizes loader errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates a file extension or format name the
	// loader doesn't read.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// ErrCodeParse indicates the document is not valid YAML, JSON or CUE.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeInvalidDocument indicates a well-formed document with the wrong
	// shape: a packet that isn't an object, an item that is neither a
	// storylet nor a packet, and so on.
	ErrCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"

	// ErrCodeInvalidContext indicates a packet's context block could not be
	// initialized.
	ErrCodeInvalidContext ErrorCode = "INVALID_CONTEXT"

	// ErrCodeInvalidStorylet indicates a storylet could not be built or added
	// to the deck.
	ErrCodeInvalidStorylet ErrorCode = "INVALID_STORYLET"
)

// Error is returned by Decode and the Load functions.
type Error struct {
	Code    ErrorCode
	Message string

	// Path locates the offending element, e.g. "storylets[2].defaults".
	Path string

	// Pos is the CUE source position, when known.
	Pos token.Pos

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err (or anything it wraps) is a loader *Error with
// the given code.
func IsCode(err error, code ErrorCode) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

func invalidDocument(path, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidDocument,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}
