package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/compiler"
	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/ir"
	"github.com/roach88/dynir/internal/store"
	"github.com/roach88/dynir/internal/testutil"
)

// Options configures a run.
type Options struct {
	// Logger receives registration and per-case logs. Defaults to a no-op.
	Logger *zap.Logger

	// Formats are the custom formats declarations may name.
	Formats map[string]dialect.Format

	// Store records the run. A fresh in-memory store is used if nil.
	Store *store.Store

	// IDs generates the run ID. Defaults to fixed IDs from Scenario.RunID.
	IDs testutil.IDGenerator
}

// Harness executes one scenario.
type Harness struct {
	ctx    *dialect.Context
	store  *store.Store
	clock  *testutil.Clock
	ids    testutil.IDGenerator
	logger *zap.Logger
}

// Run executes scenario in a fresh in-memory store with default options.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, Options{})
}

// RunWithOptions executes scenario and returns the result.
//
// Execution flow:
//  1. Load and register the scenario's dialects
//  2. Catalogue each declaration in the store
//  3. Build and verify every case, comparing against its expect clause
//  4. Record the run and evaluate assertions
//
// Case outcomes never produce an error; the error return is reserved for
// scenarios that cannot be set up.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := opts.Store
	if st == nil {
		mem, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer mem.Close()
		st = mem
	}
	ids := opts.IDs
	if ids == nil {
		ids = testutil.NewFixedIDs(scenario.RunID)
	}

	h := &Harness{
		ctx:    dialect.NewContext(dialect.WithLogger(logger)),
		store:  st,
		clock:  testutil.NewClock(),
		ids:    ids,
		logger: logger.With(zap.String("scenario", scenario.Name)),
	}

	result := NewResult()
	decls, err := loadDecls(scenario)
	if err != nil {
		return nil, err
	}
	dialects, err := compiler.BuildAll(h.ctx, decls, compiler.Options{Formats: opts.Formats})
	if err != nil {
		return nil, fmt.Errorf("failed to register dialects: %w", err)
	}
	hashes, err := h.catalog(ctx, decls, dialects, result)
	if err != nil {
		return nil, err
	}

	h.executeCases(scenario, result)

	run, err := h.store.WriteRun(ctx, store.Run{
		ID:            h.ids.Generate(),
		Label:         scenario.Name,
		DialectHashes: hashes,
		Results:       runResults(result.Trace),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	result.RunID = run.ID

	actx := &AssertionContext{
		Store:    h.store,
		Ctx:      ctx,
		RunID:    run.ID,
		Dialects: dialects,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		zap.String("run_id", run.ID),
		zap.Int("cases", len(result.Trace)),
		zap.Int("failed", len(result.Failures())),
		zap.Bool("pass", result.Pass))
	return result, nil
}

// loadDecls compiles the scenario's declarations. They are not run
// through compiler.Validate: registration reports rejected ops itself and
// scenarios assert on those rejections.
func loadDecls(scenario *Scenario) ([]*compiler.DialectDecl, error) {
	var decls []*compiler.DialectDecl
	for _, path := range scenario.Dialects {
		ds, err := compiler.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		decls = append(decls, ds...)
	}
	if strings.TrimSpace(scenario.Source) != "" {
		ds, err := compiler.ParseText(scenario.Source, scenario.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inline source: %w", err)
		}
		decls = append(decls, ds...)
	}
	return decls, nil
}

// catalog writes every declaration to the store and records a summary.
func (h *Harness) catalog(ctx context.Context, decls []*compiler.DialectDecl, dialects []*dialect.Dialect, result *Result) ([]string, error) {
	hashes := make([]string, len(decls))
	for i, decl := range decls {
		rec, inserted, err := h.store.WriteDialect(ctx, decl)
		if err != nil {
			return nil, fmt.Errorf("failed to catalog dialect %s: %w", decl.Name, err)
		}
		hashes[i] = rec.Hash
		d := dialects[i]
		result.Dialects = append(result.Dialects, DialectSummary{
			Name:     d.Name(),
			Hash:     rec.Hash,
			Ops:      len(d.Ops()),
			Rejected: RejectedSummary(d),
		})
		h.logger.Debug("catalogued dialect",
			zap.String("dialect", decl.Name),
			zap.String("hash", rec.Hash),
			zap.Bool("inserted", inserted))
	}
	return hashes, nil
}

// RejectedSummary lists the ops d rejected as "dialect.op: CODE".
func RejectedSummary(d *dialect.Dialect) []string {
	var out []string
	for _, err := range d.Rejected() {
		var se *dialect.SchemaError
		if errors.As(err, &se) {
			out = append(out, se.Dialect+"."+se.Schema+": "+string(se.Code))
		}
	}
	return out
}

// executeCases builds and verifies each case in order.
func (h *Harness) executeCases(scenario *Scenario, result *Result) {
	for _, c := range scenario.Cases {
		build := &constructor{
			ctx: h.ctx,
			loc: ir.Location{File: scenario.Name + "/" + c.Name},
		}
		op, err := build.build(c.OpStep, newScope(nil))
		if err == nil {
			err = h.ctx.Verify(op)
		}
		code, message := Outcome(err)

		event := TraceEvent{
			Case:    c.Name,
			Op:      c.Op,
			Code:    code,
			Message: message,
			Seq:     h.clock.Next(),
		}
		result.AddTrace(event)

		if msg := checkExpect(c, event); msg != "" {
			result.AddError(msg)
		}
		h.logger.Debug("case verified",
			zap.String("case", c.Name),
			zap.String("op", c.Op),
			zap.String("code", code))
	}
}

// Outcome maps a build, parse or verification error to a code and
// message. A nil error is CodeOK.
func Outcome(err error) (code, message string) {
	if err == nil {
		return CodeOK, ""
	}
	var diag *dialect.Diagnostic
	var cerr *dialect.ConstraintError
	switch {
	case errors.As(err, &diag):
		return string(diag.Code), diag.Message
	case errors.As(err, &cerr):
		return string(cerr.Code), cerr.Error()
	case asm.IsParseError(err):
		return CodeParseError, err.Error()
	default:
		return CodeError, err.Error()
	}
}

func checkExpect(c Case, event TraceEvent) string {
	want := ExpectClause{Code: CodeOK}
	if c.Expect != nil {
		want = *c.Expect
	}
	if event.Code != want.Code {
		if event.Message != "" {
			return fmt.Sprintf("case %q: expected %s, got %s: %s", c.Name, want.Code, event.Code, event.Message)
		}
		return fmt.Sprintf("case %q: expected %s, got %s", c.Name, want.Code, event.Code)
	}
	if want.Message != "" && !strings.Contains(event.Message, want.Message) {
		return fmt.Sprintf("case %q: message %q does not contain %q", c.Name, event.Message, want.Message)
	}
	return ""
}

func runResults(trace []TraceEvent) []store.RunResult {
	out := make([]store.RunResult, len(trace))
	for i, e := range trace {
		res := store.RunResult{Case: e.Case, Op: e.Op}
		if !e.OK() {
			res.Code = e.Code
			res.Message = e.Message
		}
		out[i] = res
	}
	return out
}
