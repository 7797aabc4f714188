package harness

import (
	"github.com/roach88/myh2o/internal/recommend"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Phase     string              `json:"phase"` // "setup" or "flow"
	Step      int                 `json:"step"`
	Action    string              `json:"action"`
	At        string              `json:"at"`
	Outcome   string              `json:"outcome"`
	Seq       int64               `json:"seq"`
	Hydration recommend.Hydration `json:"hydration"`
	Notifier  []NotifierCall      `json:"notifier"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion holds.
	Pass bool `json:"pass"`

	// Trace contains every setup and flow step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state map used by final_state assertions.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	if ev.Notifier == nil {
		ev.Notifier = []NotifierCall{}
	}
	r.Trace = append(r.Trace, ev)
}
