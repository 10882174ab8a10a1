package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run against one deck file: host context, a list of
// deck operations with per-step expectations, and final assertions.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Deck is the deck document to load. LoadScenario resolves it relative
	// to the scenario file.
	Deck string `yaml:"deck"`

	// Seed drives the shuffle within priority buckets.
	Seed uint64 `yaml:"seed"`

	Specificity bool `yaml:"specificity,omitempty"`

	// ChunkSize is the per-Update budget for reshuffle_async steps.
	// 0 keeps the deck default.
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// Trace records expression evaluation lines from loading and from
	// reshuffle steps.
	Trace bool `yaml:"trace,omitempty"`

	// Context holds host values set before the deck document is read.
	Context map[string]any `yaml:"context,omitempty"`

	// Functions registers stub host functions by name.
	Functions map[string]FunctionStub `yaml:"functions,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FunctionStub is a host function with a canned answer. With TrueFor set
// the function returns whether its first argument is listed; otherwise it
// returns Returns.
type FunctionStub struct {
	Arity   int      `yaml:"arity"`
	Returns any      `yaml:"returns,omitempty"`
	TrueFor []string `yaml:"true_for,omitempty"`
}

// Step is one deck operation.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Count is the hand size for draw_hand and draw_and_play, and the number
	// of Update calls for reshuffle_async and update (0 runs to completion).
	Count int `yaml:"count,omitempty"`

	// Reshuffle lets draw_hand and draw_and_play refill an empty pile.
	Reshuffle bool `yaml:"reshuffle,omitempty"`

	// Storylet names the storylet for play.
	Storylet string `yaml:"storylet,omitempty"`

	// Tag restricts reshuffle and reshuffle_async to storylets whose
	// content lists the tag under "tags".
	Tag string `yaml:"tag,omitempty"`

	// Set holds context values for the set action.
	Set map[string]any `yaml:"set,omitempty"`

	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect is checked right after its step runs.
type StepExpect struct {
	// Drawn is the ids drawn by this step, in order.
	Drawn []string `yaml:"drawn,omitempty"`

	// Pile is the pile after this step, front first. An explicit empty list
	// expects an empty pile.
	Pile []string `yaml:"pile,omitempty"`

	// Error is an error code the step must fail with.
	Error string `yaml:"error,omitempty"`

	// Idle is the expected InProgress negation after the step.
	Idle *bool `yaml:"idle,omitempty"`
}

// Step actions.
const (
	ActionReshuffle      = "reshuffle"
	ActionReshuffleAsync = "reshuffle_async"
	ActionUpdate         = "update"
	ActionDraw           = "draw"
	ActionDrawHand       = "draw_hand"
	ActionDrawAndPlay    = "draw_and_play"
	ActionPlay           = "play"
	ActionReset          = "reset"
	ActionSet            = "set"
)

// Assertion validates the run as a whole.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Storylet is used by drawn_count and never_drawn.
	Storylet string `yaml:"storylet,omitempty"`

	// Storylets is the expected first-draw order for drawn_order.
	Storylets []string `yaml:"storylets,omitempty"`

	// Count is the expected number for drawn_count and final_tick.
	Count int `yaml:"count,omitempty"`

	// Key and Value are used by context_value.
	Key   string `yaml:"key,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertDrawnCount   = "drawn_count"
	AssertDrawnOrder   = "drawn_order"
	AssertNeverDrawn   = "never_drawn"
	AssertContextValue = "context_value"
	AssertFinalTick    = "final_tick"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and a relative deck path is resolved against the scenario's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Deck != "" && !filepath.IsAbs(scenario.Deck) {
		scenario.Deck = filepath.Join(filepath.Dir(path), scenario.Deck)
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. The deck path is left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Deck == "" {
		return fmt.Errorf("deck is required")
	}
	if s.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be non-negative, got %d", s.ChunkSize)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for name, fn := range s.Functions {
		if fn.Arity < 0 {
			return fmt.Errorf("functions.%s: arity must be non-negative", name)
		}
		if fn.TrueFor != nil && fn.Arity < 1 {
			return fmt.Errorf("functions.%s: true_for needs at least one argument", name)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	if step.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", step.Count)
	}

	switch step.Action {
	case ActionReshuffle, ActionReshuffleAsync, ActionUpdate, ActionDraw, ActionReset:
		return nil
	case ActionDrawHand, ActionDrawAndPlay:
		if step.Count == 0 {
			return fmt.Errorf("%s requires count", step.Action)
		}
	case ActionPlay:
		if step.Storylet == "" {
			return fmt.Errorf("play requires storylet")
		}
	case ActionSet:
		if len(step.Set) == 0 {
			return fmt.Errorf("set requires at least one value")
		}
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertDrawnCount, AssertNeverDrawn:
		if a.Storylet == "" {
			return fmt.Errorf("%s requires storylet", a.Type)
		}
	case AssertDrawnOrder:
		if len(a.Storylets) < 2 {
			return fmt.Errorf("drawn_order requires at least 2 storylets")
		}
	case AssertContextValue:
		if a.Key == "" {
			return fmt.Errorf("context_value requires key")
		}
	case AssertFinalTick:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
