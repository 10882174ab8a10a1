package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/roach88/storydeck/internal/deck"
	"github.com/roach88/storydeck/internal/env"
	"github.com/roach88/storydeck/internal/expr"
	"github.com/roach88/storydeck/internal/journal"
	"github.com/roach88/storydeck/internal/loader"
	"github.com/roach88/storydeck/internal/storylet"
	"github.com/roach88/storydeck/internal/testutil"
)

// scenarioEpoch anchors the journal clock so recorded rows are reproducible.
var scenarioEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness drives one deck through a scenario's steps.
type Harness struct {
	deck   *deck.Deck
	trace  *expr.Trace
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal with a fixed session
// id and a stepping clock, so the trace is reproducible for a given seed.
//
// Execution flow:
//  1. Open the journal and begin a session
//  2. Build the host context and load the deck
//  3. Execute steps, checking each step's expectations
//  4. Read the trace back from the journal
//  5. Evaluate assertions
//
// An error is returned only when the run itself could not happen (the deck
// failed to load, the journal failed); failed expectations land in
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with deck and journal logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	j, err := journal.Open(":memory:",
		journal.WithSessionGenerator(testutil.NewFixedSessionGenerator(scenario.Name)),
		journal.WithNow(testutil.NewStepClock(scenarioEpoch, time.Millisecond).Now),
		journal.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	seed := scenario.Seed
	session, err := j.BeginSession(ctx, scenario.Deck, &seed)
	if err != nil {
		return nil, fmt.Errorf("failed to begin session: %w", err)
	}

	hostCtx, err := buildContext(scenario)
	if err != nil {
		return nil, err
	}

	var trace *expr.Trace
	if scenario.Trace {
		trace = expr.NewTrace()
	}

	opts := []deck.Option{
		deck.WithSeed(seed),
		deck.WithSpecificity(scenario.Specificity),
		deck.WithObserver(session),
		deck.WithLogger(logger),
	}
	if scenario.ChunkSize > 0 {
		opts = append(opts, deck.WithChunkSize(scenario.ChunkSize))
	}

	d, err := loader.NewDeck(scenario.Deck, hostCtx, loader.Options{Trace: trace}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}

	h := &Harness{deck: d, trace: trace, logger: logger}
	result := NewResult()
	h.executeSteps(scenario.Steps, result)

	if err := session.Err(); err != nil {
		return nil, fmt.Errorf("journal write failed: %w", err)
	}

	records, err := j.Events(ctx, session.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	for _, r := range records {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:      r.Seq,
			Type:     r.Type,
			Tick:     r.Tick,
			Storylet: r.StoryletID,
			Pile:     r.Pile,
			Error:    r.Error,
		})
	}

	result.Context = d.Context().Values()
	result.Tick = d.Tick()
	if trace != nil {
		result.EvalTrace = trace.Lines
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// buildContext sets the scenario's host values and function stubs.
func buildContext(scenario *Scenario) (env.Env, error) {
	ctx := env.New()
	for _, k := range slices.Sorted(maps.Keys(scenario.Context)) {
		v := scenario.Context[k]
		if _, ok := expr.ValueOf(v); !ok {
			return nil, fmt.Errorf("context.%s: unsupported value %v (%T)", k, v, v)
		}
		ctx.Set(k, v)
	}
	for name, stub := range scenario.Functions {
		ctx.Func(name, stub.Arity, stub.call)
	}
	return ctx, nil
}

func (f FunctionStub) call(args []expr.Value) (any, error) {
	if f.TrueFor == nil {
		return f.Returns, nil
	}
	arg, err := expr.ToText(args[0])
	if err != nil {
		return nil, err
	}
	return slices.Contains(f.TrueFor, arg), nil
}

// executeSteps runs steps in order. An unexpected error stops the run.
func (h *Harness) executeSteps(steps []Step, result *Result) {
	for i, step := range steps {
		drawn, err := h.executeStep(step)

		h.logger.Debug("scenario step",
			"event", "step",
			"index", i,
			"action", step.Action,
			"drawn", drawn,
			"error", err,
		)

		if !h.checkStep(i, step, drawn, err, result) {
			return
		}
	}
}

func (h *Harness) executeStep(step Step) ([]string, error) {
	d := h.deck
	switch step.Action {
	case ActionReshuffle:
		return nil, d.Reshuffle(tagFilter(step.Tag), h.trace)

	case ActionReshuffleAsync:
		if err := d.ReshuffleAsync(nil, tagFilter(step.Tag), h.trace); err != nil {
			return nil, err
		}
		return nil, h.update(step.Count)

	case ActionUpdate:
		return nil, h.update(step.Count)

	case ActionDraw:
		s, err := d.Draw()
		if err != nil || s == nil {
			return nil, err
		}
		return []string{s.ID}, nil

	case ActionDrawHand:
		hand, err := d.DrawHand(step.Count, step.Reshuffle)
		return storyletIDs(hand), err

	case ActionDrawAndPlay:
		hand, err := d.DrawAndPlay(step.Count, step.Reshuffle)
		return storyletIDs(hand), err

	case ActionPlay:
		s := d.Get(step.Storylet)
		if s == nil {
			s = storylet.New(step.Storylet)
		}
		return nil, d.Play(s)

	case ActionReset:
		d.Reset()
		return nil, nil

	case ActionSet:
		for _, k := range slices.Sorted(maps.Keys(step.Set)) {
			v := step.Set[k]
			if _, ok := expr.ValueOf(v); !ok {
				return nil, fmt.Errorf("set %s: unsupported value %v (%T)", k, v, v)
			}
			d.Context().Set(k, v)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// update calls Update n times, or until idle when n is 0.
func (h *Harness) update(n int) error {
	for i := 0; n == 0 || i < n; i++ {
		idle, err := h.deck.Update()
		if err != nil {
			return err
		}
		if idle {
			return nil
		}
	}
	return nil
}

// checkStep compares a step's outcome with its expectations. It returns
// false when the run should stop.
func (h *Harness) checkStep(i int, step Step, drawn []string, err error, result *Result) bool {
	prefix := fmt.Sprintf("steps[%d] (%s)", i, step.Action)
	exp := step.Expect

	if err != nil {
		if exp == nil || exp.Error == "" {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
			return false
		}
		if !strings.Contains(err.Error(), exp.Error) {
			result.AddError(fmt.Sprintf("%s: expected error %s, got: %v", prefix, exp.Error, err))
		}
	} else if exp != nil && exp.Error != "" {
		result.AddError(fmt.Sprintf("%s: expected error %s, got none", prefix, exp.Error))
	}

	if exp == nil {
		return true
	}

	if exp.Drawn != nil && !slices.Equal(drawn, exp.Drawn) {
		result.AddError(fmt.Sprintf("%s: drawn mismatch: expected %v, got %v", prefix, exp.Drawn, drawn))
	}

	if exp.Pile != nil {
		pile, perr := h.deck.Pile()
		if perr != nil {
			result.AddError(fmt.Sprintf("%s: pile unavailable: %v", prefix, perr))
		} else if got := storyletIDs(pile); !slices.Equal(got, exp.Pile) {
			result.AddError(fmt.Sprintf("%s: pile mismatch: expected %v, got %v", prefix, exp.Pile, got))
		}
	}

	if exp.Idle != nil && *exp.Idle == h.deck.InProgress() {
		result.AddError(fmt.Sprintf("%s: expected idle=%t, got idle=%t", prefix, *exp.Idle, !h.deck.InProgress()))
	}

	return true
}

// tagFilter keeps storylets whose content lists tag under "tags". An empty
// tag means no filter.
func tagFilter(tag string) deck.Filter {
	if tag == "" {
		return nil
	}
	return func(s *storylet.Storylet) bool {
		content, ok := s.Content.(map[string]any)
		if !ok {
			return false
		}
		tags, ok := content["tags"].([]any)
		if !ok {
			return false
		}
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
		return false
	}
}

func storyletIDs(list []*storylet.Storylet) []string {
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}
