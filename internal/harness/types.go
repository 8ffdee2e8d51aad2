package harness

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists the steps in the order they ran.
	Trace []TraceEvent `json:"trace"`

	// List is the active list rendered in walking order after the last step.
	List string `json:"list"`

	// Errors holds every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`

	state *finalState
}

// TraceEvent records one step. Args and Outcome hold names and counts only,
// never generated ids or timestamps.
type TraceEvent struct {
	Seq     int            `json:"seq"`
	Op      string         `json:"op"`
	Args    map[string]any `json:"args,omitempty"`
	Outcome map[string]any `json:"outcome,omitempty"`
}

// NewResult creates a passing result with no trace.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

// record appends a trace event with the next sequence number.
func (r *Result) record(op string, args, outcome map[string]any) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     len(r.Trace) + 1,
		Op:      op,
		Args:    args,
		Outcome: outcome,
	})
}
