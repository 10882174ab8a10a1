package harness

// TraceEvent is one journaled deck event.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Type     string   `json:"type"`
	Tick     int64    `json:"tick"`
	Storylet string   `json:"storylet,omitempty"`
	Pile     []string `json:"pile,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the deck events read back from the run's journal.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Context is the final context, functions excluded.
	Context map[string]any `json:"context"`

	// Tick is the deck's final tick.
	Tick int64 `json:"tick"`

	// EvalTrace holds expression evaluation lines when the scenario asked
	// for them.
	EvalTrace []string `json:"eval_trace,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Context: make(map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Drawn returns the storylet ids of every drawn event, in order.
func (r *Result) Drawn() []string {
	return drawnIDs(r.Trace)
}
