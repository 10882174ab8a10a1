package storylet

import (
	"errors"
	"strings"

	"github.com/roach88/storydeck/internal/env"
)

// Assignment is one uncompiled "name = value" pair from a deck document.
// Value is a bool, a number, or expression text.
type Assignment struct {
	Name  string
	Value any
}

// Config is the fully resolved construction record for one storylet, after
// any document defaults have been merged in.
type Config struct {
	ID string

	// Redraw is "always", "never", an integer, or nil for always.
	Redraw any

	// Condition is expression text; empty means no condition.
	Condition string

	// Priority is a number, expression text, or nil for 0.
	Priority any

	UpdateOnDrawn  []Assignment
	UpdateOnPlayed []Assignment

	Content any
}

// FromConfig builds a storylet, compiling every expression once.
func FromConfig(cfg Config) (*Storylet, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, &Error{
			Code:    ErrCodeMissingID,
			Field:   "id",
			Message: "storylet has no id",
		}
	}

	s := New(cfg.ID)
	s.Content = cfg.Content

	redraw, err := ParseRedraw(cfg.Redraw)
	if err != nil {
		return nil, withID(err, cfg.ID)
	}
	s.Redraw = redraw

	if err := s.SetCondition(cfg.Condition); err != nil {
		return nil, err
	}
	if err := s.SetPriority(cfg.Priority); err != nil {
		return nil, err
	}

	if s.UpdateOnDrawn, err = compileUpdates(cfg.ID, "updateOnDrawn", cfg.UpdateOnDrawn); err != nil {
		return nil, err
	}
	if s.UpdateOnPlayed, err = compileUpdates(cfg.ID, "updateOnPlayed", cfg.UpdateOnPlayed); err != nil {
		return nil, err
	}

	return s, nil
}

func compileUpdates(id, field string, assignments []Assignment) ([]env.Update, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	updates := make([]env.Update, 0, len(assignments))
	for _, a := range assignments {
		u, err := env.NewUpdate(a.Name, a.Value)
		if err != nil {
			return nil, invalidExpression(id, field+"."+a.Name, err)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func withID(err error, id string) error {
	var se *Error
	if errors.As(err, &se) {
		se.ID = id
	}
	return err
}
