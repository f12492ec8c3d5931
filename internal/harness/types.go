package harness

import "github.com/roach88/allot/internal/alloc"

// TraceEvent records one step of a scenario and the amounts it left behind.
// Values are kept as the text the scenario gave so traces never carry floats.
type TraceEvent struct {
	Seq     int64            `json:"seq"`
	Op      string           `json:"op"`
	Key     string           `json:"key,omitempty"`
	Value   string           `json:"value,omitempty"`
	Amounts map[string]int64 `json:"amounts"`
	Error   string           `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Config is the name of the split document the scenario ran against.
	Config string `json:"config"`

	// Trace holds the build event followed by one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Tree is the tree as the last step left it.
	Tree *alloc.Tree `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event stamped with seq.
func (r *Result) AddTrace(seq int64, op, key, value string, amounts map[string]int64, err error) {
	event := TraceEvent{
		Seq:     seq,
		Op:      op,
		Key:     key,
		Value:   value,
		Amounts: amounts,
	}
	if err != nil {
		event.Error = err.Error()
	}
	r.Trace = append(r.Trace, event)
}
