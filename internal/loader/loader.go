package loader

import (
	"fmt"
	"os"
	"strconv"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/storylet"
)

// Options controls how a document is read into a deck.
type Options struct {
	// Reshuffle runs a synchronous, unfiltered reshuffle once every storylet
	// has been added.
	Reshuffle bool

	// Trace, when non-nil, receives context initialization steps and one
	// "Added storylet 'id'" line per storylet.
	Trace *expr.Trace
}

// Read adds a decoded packet to d: its context is initialized into the
// deck's context, then its storylets and nested packets are added in order.
//
// A packet's defaults apply to the storylets in that packet and in packets
// nested below it; sibling packets never see each other's defaults. The
// deck keeps whatever was added before an error.
func Read(d *deck.Deck, doc Object, opts Options) error {
	if err := readPacket(d, doc, nil, "", opts.Trace); err != nil {
		return err
	}
	if opts.Reshuffle {
		return d.Reshuffle(nil, opts.Trace)
	}
	return nil
}

// Load decodes data and reads it into d.
func Load(d *deck.Deck, data []byte, format Format, filename string, opts Options) error {
	doc, err := Decode(data, format, filename)
	if err != nil {
		return err
	}
	return Read(d, doc, opts)
}

// LoadFile reads the document at path into d. The format is picked from
// the file extension.
func LoadFile(d *deck.Deck, path string, opts Options) error {
	format := FormatFor(path)
	if format == FormatUnknown {
		return &Error{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unsupported deck file extension: %s", path),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read deck file: %w", err)
	}
	return Load(d, data, format, path, opts)
}

// NewDeck creates a deck over ctx and loads the file at path into it.
func NewDeck(path string, ctx env.Env, opts Options, deckOpts ...deck.Option) (*deck.Deck, error) {
	d := deck.New(ctx, deckOpts...)
	if err := LoadFile(d, path, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// isPacket reports whether a storylets-list item is a nested packet rather
// than a storylet.
func isPacket(item Object) bool {
	return item.Has("storylets") || item.Has("defaults") || item.Has("context")
}

func readPacket(d *deck.Deck, packet Object, inherited Object, path string, trace *expr.Trace) error {
	if raw, ok := packet.Get("context"); ok {
		if err := initContext(d.Context(), raw, joinKey(path, "context"), trace); err != nil {
			return err
		}
	}

	defaults := inherited
	if raw, ok := packet.Get("defaults"); ok {
		own, ok := raw.(Object)
		if !ok {
			return invalidDocument(joinKey(path, "defaults"), "defaults must be an object, got %s", kindOf(raw))
		}
		defaults = inherited.Merge(own)
	}

	raw, ok := packet.Get("storylets")
	if !ok {
		return nil
	}
	listPath := joinKey(path, "storylets")
	items, ok := raw.([]any)
	if !ok {
		return invalidDocument(listPath, "storylets must be a list, got %s", kindOf(raw))
	}

	for i, entry := range items {
		itemPath := joinIndex(listPath, i)
		item, ok := entry.(Object)
		if !ok {
			return invalidDocument(itemPath, "expected a storylet or packet object, got %s", kindOf(entry))
		}

		if isPacket(item) {
			if err := readPacket(d, item, defaults, itemPath, trace); err != nil {
				return err
			}
			continue
		}

		if !item.Has("id") {
			return invalidDocument(itemPath, "item is neither a storylet nor a packet")
		}

		if err := addStorylet(d, defaults.Merge(item), itemPath, trace); err != nil {
			return err
		}
	}
	return nil
}

func initContext(ctx env.Env, raw any, path string, trace *expr.Trace) error {
	obj, ok := raw.(Object)
	if !ok {
		return invalidDocument(path, "context must be an object, got %s", kindOf(raw))
	}

	updates, err := assignments(obj, path)
	if err != nil {
		return err
	}
	compiled := make([]env.Update, 0, len(updates))
	for _, a := range updates {
		u, err := env.NewUpdate(a.Name, a.Value)
		if err != nil {
			return &Error{Code: ErrCodeInvalidContext, Path: joinKey(path, a.Name), Message: "invalid context value", Err: err}
		}
		compiled = append(compiled, u)
	}

	if err := ctx.Init(compiled, trace); err != nil {
		return &Error{Code: ErrCodeInvalidContext, Path: path, Message: "context initialization failed", Err: err}
	}
	return nil
}

func addStorylet(d *deck.Deck, fields Object, path string, trace *expr.Trace) error {
	cfg, err := configFrom(fields, path)
	if err != nil {
		return err
	}

	s, err := storylet.FromConfig(cfg)
	if err != nil {
		return &Error{Code: ErrCodeInvalidStorylet, Path: path, Message: "cannot build storylet", Err: err}
	}
	if err := d.Add(s); err != nil {
		return &Error{Code: ErrCodeInvalidStorylet, Path: path, Message: "cannot add storylet", Err: err}
	}

	trace.Add("Added storylet '%s'", s.ID)
	return nil
}

// configFrom maps a storylet object, defaults already merged in, onto the
// construction record. Unknown keys are ignored.
func configFrom(fields Object, path string) (storylet.Config, error) {
	var cfg storylet.Config

	for _, f := range fields {
		fieldPath := joinKey(path, f.Key)
		switch f.Key {
		case "id":
			id, ok := f.Value.(string)
			if !ok {
				return cfg, invalidStorylet(fieldPath, "id must be a string, got %s", kindOf(f.Value))
			}
			cfg.ID = normalizeKey(id)

		case "redraw":
			cfg.Redraw = f.Value

		case "condition":
			switch v := f.Value.(type) {
			case nil:
				cfg.Condition = ""
			case string:
				cfg.Condition = v
			case bool:
				cfg.Condition = strconv.FormatBool(v)
			default:
				return cfg, invalidStorylet(fieldPath, "condition must be expression text, got %s", kindOf(f.Value))
			}

		case "priority":
			cfg.Priority = f.Value

		case "updateOnDrawn", "updateOnPlayed":
			obj, ok := f.Value.(Object)
			if !ok {
				return cfg, invalidStorylet(fieldPath, "%s must be an object, got %s", f.Key, kindOf(f.Value))
			}
			list, err := assignments(obj, fieldPath)
			if err != nil {
				return cfg, err
			}
			if f.Key == "updateOnDrawn" {
				cfg.UpdateOnDrawn = list
			} else {
				cfg.UpdateOnPlayed = list
			}

		case "content":
			cfg.Content = Plain(f.Value)
		}
	}
	return cfg, nil
}

func assignments(obj Object, path string) ([]storylet.Assignment, error) {
	out := make([]storylet.Assignment, 0, len(obj))
	for _, f := range obj {
		switch f.Value.(type) {
		case bool, int64, float64, string:
		default:
			return nil, invalidDocument(joinKey(path, f.Key), "value must be a bool, number or expression, got %s", kindOf(f.Value))
		}
		out = append(out, storylet.Assignment{Name: f.Key, Value: f.Value})
	}
	return out, nil
}

func invalidStorylet(path, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidStorylet,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}
