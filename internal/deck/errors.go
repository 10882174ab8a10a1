package deck

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes deck errors.
type ErrorCode string

const (
	// ErrCodeDuplicateStorylet indicates Add was given an id already in the deck.
	ErrCodeDuplicateStorylet ErrorCode = "DUPLICATE_STORYLET"

	// ErrCodeReshuffleInProgress indicates a call that reads or rebuilds the
	// pile was made while an incremental reshuffle is outstanding.
	ErrCodeReshuffleInProgress ErrorCode = "RESHUFFLE_IN_PROGRESS"

	// ErrCodeUnknownStorylet indicates Play was given a storylet the deck doesn't own.
	ErrCodeUnknownStorylet ErrorCode = "UNKNOWN_STORYLET"
)

// Error is returned by Deck operations.
type Error struct {
	Code    ErrorCode
	Message string

	// StoryletID identifies the storylet involved, if any.
	StoryletID string

	// Op names the rejected operation for ErrCodeReshuffleInProgress.
	Op string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StoryletID != "" {
		return fmt.Sprintf("%s: %s (storylet=%s)", e.Code, e.Message, e.StoryletID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err (or anything it wraps) is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsReshuffleInProgress returns true if the error rejected a call during an
// incremental reshuffle. Uses errors.As to handle wrapped errors.
func IsReshuffleInProgress(err error) bool {
	return IsCode(err, ErrCodeReshuffleInProgress)
}

// IsDuplicateStorylet returns true if the error is an id collision on Add.
func IsDuplicateStorylet(err error) bool {
	return IsCode(err, ErrCodeDuplicateStorylet)
}

func duplicateError(id string) *Error {
	return &Error{
		Code:       ErrCodeDuplicateStorylet,
		Message:    "storylet with this id already exists in the deck",
		StoryletID: id,
	}
}

func inProgressError(op string) *Error {
	return &Error{
		Code:    ErrCodeReshuffleInProgress,
		Message: fmt.Sprintf("async reshuffle in progress, can't call %s", op),
		Op:      op,
	}
}

func unknownError(id string) *Error {
	return &Error{
		Code:       ErrCodeUnknownStorylet,
		Message:    "storylet is not part of this deck",
		StoryletID: id,
	}
}
