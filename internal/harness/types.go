package harness

// TraceEvent records the observable outcome of one scenario step: the
// step that ran, the phase the session landed in, and the error code if
// the transition was rejected or the finalize failed.
type TraceEvent struct {
	Step      string `json:"step"`
	Phase     string `json:"phase"`
	ErrorCode string `json:"error_code,omitempty"`

	// TaskCount is the number of tasks in the preview after the step.
	TaskCount int `json:"task_count"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all expect clauses and assertions held.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
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

// AddTrace appends a step event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
