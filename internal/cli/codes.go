package cli

import (
	"errors"
	"io/fs"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/loader"
	"github.com/roach88/storydeck/internal/storylet"
)

// CLI error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No deck or scenario files found
	ErrCodeBadArgument = "E004" // Malformed flag or argument
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeExprSyntax = "E010" // Expression failed to tokenize or parse
	ErrCodeExprEval   = "E011" // Expression failed to evaluate

	ErrCodeDeckParse     = "E020" // Deck document is not valid YAML/JSON/CUE
	ErrCodeDeckShape     = "E021" // Deck document has the wrong structure
	ErrCodeDeckContext   = "E022" // Context block failed to initialize
	ErrCodeDeckStorylet  = "E023" // Storylet definition rejected
	ErrCodeDeckFormat    = "E024" // Unsupported file format
	ErrCodeDeckRuntime   = "E025" // Reshuffle, draw or play failed
	ErrCodeDeckDuplicate = "E026" // Storylet id used twice

	ErrCodeJournal = "E030" // Journal could not be opened, written or read

	ErrCodeScenarioFailed = "E040" // One or more scenarios failed
)

// CodeFor maps an error from any storydeck package to a CLI code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ErrCodeGeneric
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case loader.IsCode(err, loader.ErrCodeParse):
		return ErrCodeDeckParse
	case loader.IsCode(err, loader.ErrCodeInvalidDocument):
		return ErrCodeDeckShape
	case loader.IsCode(err, loader.ErrCodeInvalidContext):
		return ErrCodeDeckContext
	case loader.IsCode(err, loader.ErrCodeUnsupportedFormat):
		return ErrCodeDeckFormat
	case deck.IsDuplicateStorylet(err):
		return ErrCodeDeckDuplicate
	case loader.IsCode(err, loader.ErrCodeInvalidStorylet):
		return ErrCodeDeckStorylet
	case deck.IsReshuffleInProgress(err), deck.IsCode(err, deck.ErrCodeUnknownStorylet):
		return ErrCodeDeckRuntime
	case isStoryletError(err):
		return ErrCodeDeckStorylet
	case expr.IsCode(err, expr.ErrCodeLex), expr.IsCode(err, expr.ErrCodeSyntax):
		return ErrCodeExprSyntax
	case isExprError(err), isEnvError(err):
		return ErrCodeExprEval
	default:
		return ErrCodeGeneric
	}
}

func isStoryletError(err error) bool {
	var se *storylet.Error
	return errors.As(err, &se)
}

func isExprError(err error) bool {
	var ee *expr.Error
	return errors.As(err, &ee)
}

func isEnvError(err error) bool {
	var ee *env.Error
	return errors.As(err, &ee)
}
