package harness

import "github.com/roach88/qforge/internal/store"

// Trace event types.
const (
	EventCommand = "command"
	EventError   = "error"
)

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Step      string `json:"step,omitempty"`
	Type      string `json:"type"` // "command" or "error"
	Dialect   string `json:"dialect,omitempty"`
	Operation string `json:"operation,omitempty"`
	Text      string `json:"text,omitempty"`
	Args      []any  `json:"args,omitempty"`

	// Code and Message are set on error events.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	// Affected and Rows are set when the command was executed.
	Affected *int64      `json:"affected,omitempty"`
	Rows     []store.Row `json:"rows,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
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

// Commands returns the command events of the trace.
func (r *Result) Commands() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventCommand {
			out = append(out, e)
		}
	}
	return out
}
