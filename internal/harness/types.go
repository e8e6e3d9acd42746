package harness

// Outcome codes that are not dialect diagnostics.
const (
	CodeOK         = "OK"
	CodeParseError = "PARSE_ERROR"
	CodeError      = "ERROR"
)

// TraceEvent is the outcome of one case.
type TraceEvent struct {
	Case    string `json:"case"`
	Op      string `json:"op"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Seq     int64  `json:"seq"`
}

// OK reports whether the case verified.
func (e TraceEvent) OK() bool { return e.Code == CodeOK }

// DialectSummary describes a dialect registered for a run.
type DialectSummary struct {
	Name     string   `json:"name"`
	Hash     string   `json:"hash"`
	Ops      int      `json:"ops"`
	Rejected []string `json:"rejected,omitempty"` // "op: CODE" per rejected op
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every case matched its expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the stored run.
	RunID string `json:"run_id"`

	Dialects []DialectSummary `json:"dialects"`

	// Trace holds one event per case, in case order.
	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Dialects: []DialectSummary{},
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// Failures returns the events that did not verify.
func (r *Result) Failures() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if !e.OK() {
			out = append(out, e)
		}
	}
	return out
}
