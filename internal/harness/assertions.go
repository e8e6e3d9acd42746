package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/store"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s assertion failed: %s (expected %v, got %v)", e.Type, e.Message, e.Expected, e.Actual)
}

// AssertionContext carries what assertions may inspect besides the trace.
type AssertionContext struct {
	Store    *store.Store
	Ctx      context.Context
	RunID    string
	Dialects []*dialect.Dialect
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertVerifiedCount:
		return assertVerifiedCount(result.Trace, a.Count)
	case AssertFailureCount:
		return assertFailureCount(result.Trace, a.Code, a.Count)
	case AssertSchemaRejected:
		return assertSchemaRejected(actx.Dialects, a.Op, a.Code)
	case AssertStoredRun:
		return assertStoredRun(actx, len(result.Trace), a.Count)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertVerifiedCount(trace []TraceEvent, want int) error {
	got := 0
	for _, e := range trace {
		if e.OK() {
			got++
		}
	}
	if got != want {
		return &AssertionError{Type: AssertVerifiedCount, Expected: want, Actual: got,
			Message: "number of verified cases"}
	}
	return nil
}

func assertFailureCount(trace []TraceEvent, code string, want int) error {
	got := 0
	for _, e := range trace {
		if !e.OK() && (code == "" || e.Code == code) {
			got++
		}
	}
	if got != want {
		msg := "number of failed cases"
		if code != "" {
			msg = fmt.Sprintf("number of cases failing with %s", code)
		}
		return &AssertionError{Type: AssertFailureCount, Expected: want, Actual: got, Message: msg}
	}
	return nil
}

func assertSchemaRejected(dialects []*dialect.Dialect, op, code string) error {
	for _, d := range dialects {
		for _, err := range d.Rejected() {
			var se *dialect.SchemaError
			if !errors.As(err, &se) || se.Dialect+"."+se.Schema != op {
				continue
			}
			if string(se.Code) != code {
				return &AssertionError{Type: AssertSchemaRejected, Expected: code, Actual: se.Code,
					Message: fmt.Sprintf("rejection code of %s", op)}
			}
			return nil
		}
	}
	return &AssertionError{Type: AssertSchemaRejected, Expected: code, Actual: "registered",
		Message: fmt.Sprintf("%s was not rejected", op)}
}

func assertStoredRun(actx *AssertionContext, cases, wantFailed int) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("stored_run requires a store")
	}
	run, err := actx.Store.ReadRun(actx.Ctx, actx.RunID)
	if err != nil {
		return fmt.Errorf("read run %s: %w", actx.RunID, err)
	}
	if len(run.Results) != cases {
		return &AssertionError{Type: AssertStoredRun, Expected: cases, Actual: len(run.Results),
			Message: "number of stored results"}
	}
	if got := run.Failed(); got != wantFailed {
		return &AssertionError{Type: AssertStoredRun, Expected: wantFailed, Actual: got,
			Message: "number of stored failures"}
	}
	return nil
}
