package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/ir"
	"github.com/roach88/dynir/internal/store"
	"github.com/roach88/dynir/internal/testutil"
)

const inlineScenario = `
name: inline
description: inline text declaration
run_id: run-inline
source: |
  Dialect calc {
    Op neg(AnyInteger) -> AnyInteger traits [SameOperandsAndResultType]
    Op const() -> AnyType {value: IntAttr}
  }
cases:
  - name: neg ok
    op: calc.neg
    operands: [si8]
    results: [si8]
  - name: const ok
    op: calc.const
    results: [i64]
    attrs: "{value = 42}"
  - name: neg wrong expectation
    op: calc.neg
    operands: [si8]
    results: [si8]
    expect: {code: OPERAND_TYPE}
`

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src), "")
	require.NoError(t, err)
	return s
}

func TestRun_ToyArith(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/toy_arith.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, testutil.DefaultRunID, result.RunID)
	require.Len(t, result.Trace, 13)
	assert.Len(t, result.Failures(), 10)

	require.Len(t, result.Dialects, 1)
	assert.Equal(t, "toy", result.Dialects[0].Name)
	assert.Len(t, result.Dialects[0].Hash, 64)
	assert.Equal(t, []string{
		"toy.pair: MISSING_SIZE_SPECIFIER",
		"toy.probe: UNKNOWN_TRAIT",
	}, result.Dialects[0].Rejected)
}

func TestRun_ToyControl(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/toy_control.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq, "seq of %s", e.Case)
	}
}

func TestRun_InlineSourceAndExpectMismatch(t *testing.T) {
	result, err := Run(mustParse(t, inlineScenario))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, "run-inline", result.RunID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `case "neg wrong expectation": expected OPERAND_TYPE, got OK`, result.Errors[0])
	assert.Empty(t, result.Failures())
}

func TestRun_MessageMismatch(t *testing.T) {
	s := mustParse(t, `
name: message
description: expect message is a substring check
source: "Dialect m { Op one(i32) -> () }"
cases:
  - name: wrong type
    op: m.one
    operands: [i64]
    expect: {code: OPERAND_TYPE, message: "must be f32"}
`)
	result, err := Run(s)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `does not contain "must be f32"`)
	assert.Equal(t, "operand #0 must be i32, got i64", result.Trace[0].Message)
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"parse error", "Dialect {", "failed to parse inline source"},
		{"duplicate dialect", "Dialect d {}\nDialect d {}", "failed to register dialects"},
		{"duplicate schema", "Dialect d { Op x() -> () Op x() -> () }", "failed to register dialects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{
				Name:        "setup",
				Description: "setup failure",
				Source:      tt.source,
				Cases:       []Case{{Name: "a", OpStep: OpStep{Op: "d.x"}}},
			}
			_, err := Run(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_RecordsRunInProvidedStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	s, err := LoadScenario("testdata/scenarios/toy_arith.yaml")
	require.NoError(t, err)

	ctx := context.Background()
	opts := Options{Store: st, IDs: testutil.RandomIDs{}}
	first, err := RunWithOptions(ctx, s, opts)
	require.NoError(t, err)
	second, err := RunWithOptions(ctx, s, opts)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	// The declaration is catalogued once and shared by both runs.
	dialects, err := st.ListDialects(ctx)
	require.NoError(t, err)
	require.Len(t, dialects, 1)
	assert.Equal(t, first.Dialects[0].Hash, dialects[0].Hash)

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.RunID, runs[0].ID)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(2), runs[1].Seq)

	stored, err := st.ReadRun(ctx, second.RunID)
	require.NoError(t, err)
	assert.Equal(t, "toy_arith", stored.Label)
	assert.Equal(t, []string{dialects[0].Hash}, stored.DialectHashes)
	require.Len(t, stored.Results, 13)
	assert.True(t, stored.Results[0].OK())
	assert.Equal(t, "OPERAND_TYPE", stored.Results[1].Code)
	assert.Equal(t, 10, stored.Failed())
}

// pointFormat prints pt instances as (x : y).
var pointFormat = dialect.Format{
	Parse: func(p *asm.Parser) ([]ir.Attr, error) {
		if _, err := p.Expect(asm.LParen); err != nil {
			return nil, err
		}
		x, err := p.ParseAttr()
		if err != nil {
			return nil, err
		}
		if _, err := p.Expect(asm.Colon); err != nil {
			return nil, err
		}
		y, err := p.ParseAttr()
		if err != nil {
			return nil, err
		}
		if _, err := p.Expect(asm.RParen); err != nil {
			return nil, err
		}
		return []ir.Attr{x, y}, nil
	},
	Print: func(p *asm.Printer, params []ir.Attr) {
		p.WriteString("(")
		p.PrintAttr(params[0])
		p.WriteString(" : ")
		p.PrintAttr(params[1])
		p.WriteString(")")
	},
}

func TestRun_CustomFormat(t *testing.T) {
	s := mustParse(t, `
name: formats
description: declarations may name caller-supplied formats
source: |
  Dialect geo {
    Type pt<x: IntAttr, y: IntAttr> format "point"
    Op origin() -> Kind<"geo.pt">
  }
cases:
  - name: custom syntax
    op: geo.origin
    results: ["!geo.pt(0 : 0)"]
  - name: default syntax
    op: geo.origin
    results: ["!geo.pt<0, 0>"]
    expect: {code: PARSE_ERROR}
  - name: bad coordinate
    op: geo.origin
    results: ["!geo.pt(0 : \"far\")"]
    expect: {code: CONSTRAINT_VIOLATION}
`)
	result, err := RunWithOptions(context.Background(), s, Options{
		Formats: map[string]dialect.Format{"point": pointFormat},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "point"`)
}

func TestRun_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	result, err := RunWithOptions(context.Background(), mustParse(t, inlineScenario), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, logs.FilterMessage("registered dialect").Len())
	assert.Equal(t, 3, logs.FilterMessage("case verified").Len())
	finished := logs.FilterMessage("scenario finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "inline", finished[0].ContextMap()["scenario"])
	assert.Equal(t, false, finished[0].ContextMap()["pass"])
}
