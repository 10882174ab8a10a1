package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a deck document syntax.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatJSON // JSON, and JSON with // comments
	FormatCUE
)

// String returns the format's name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatCUE:
		return "cue"
	default:
		return "unknown"
	}
}

// Extensions lists the file extensions the loader reads.
var Extensions = []string{".yaml", ".yml", ".json", ".jsonc", ".cue"}

// FormatFor picks the format from path's extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonc":
		return FormatJSON
	case ".cue":
		return FormatCUE
	default:
		return FormatUnknown
	}
}

// ParseFormat resolves a format name as accepted on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "cue":
		return FormatCUE, nil
	default:
		return FormatUnknown, &Error{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unknown document format %q", name),
		}
	}
}
