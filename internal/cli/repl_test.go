package cli

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/dialect"
)

// scriptedReader replays lines and then reports end.
type scriptedReader struct {
	lines   []string
	end     error
	history []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", r.end
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

func newTestREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	ctx, err := loadContext(&RootOptions{}, []string{calcDecl})
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return NewREPL(ctx, out, zap.NewNop()), out
}

func TestREPLEval(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"i32", "type: i32\n"},
		{"42", "attr: 42\n"},
		{`#calc.unit<"m">`, "attr: #calc.unit<\"m\">\n"},
		{":type !calc.vec<f32,4>", "type: !calc.vec<f32, 4>\n"},
		{":attr [1, 2]", "attr: [1, 2]\n"},
		{":type !calc.vec<f32>", "error ARITY: "},
		{"!!", "error PARSE_ERROR: "},
		{":dialects", "calc: 1 type(s), 1 attr(s), 2 op(s)\n"},
		{":ops calc", "Op add("},
		{":ops nope", "unknown dialect \"nope\"\n"},
		{":frobnicate", "unknown command :frobnicate (try :help)\n"},
		{":help", ":type <text>"},
		{":traits", "SameOperandsAndResultType SameTypeOperands"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, out := newTestREPL(t)
			assert.False(t, r.Eval(tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestREPLLoad(t *testing.T) {
	r, out := newTestREPL(t)

	assert.False(t, r.Eval(":load "+geoDecl))
	assert.Contains(t, out.String(), "loaded geo (1 op(s))")

	out.Reset()
	r.Eval("!geo.pt<1, 2>")
	assert.Equal(t, "type: !geo.pt<1, 2>\n", out.String())

	out.Reset()
	r.Eval(":load " + calcDecl)
	assert.Contains(t, out.String(), "error ")

	out.Reset()
	r.Eval(":load")
	assert.Equal(t, "usage: :load <path>\n", out.String())
}

func TestREPLLoop(t *testing.T) {
	r, out := newTestREPL(t)
	in := &scriptedReader{lines: []string{"i32", "  ", ":quit", "f32"}, end: io.EOF}

	require.NoError(t, r.Loop(in))
	assert.Equal(t, []string{"i32", ":quit"}, in.history)
	assert.Equal(t, "type: i32\n", out.String())
}

func TestREPLLoopEnds(t *testing.T) {
	for _, end := range []error{io.EOF, liner.ErrPromptAborted} {
		r, _ := newTestREPL(t)
		require.NoError(t, r.Loop(&scriptedReader{end: end}))
	}

	r, _ := newTestREPL(t)
	err := r.Loop(&scriptedReader{end: errors.New("tty gone")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tty gone")
}

func TestREPLEmptyContext(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewREPL(dialect.NewContext(), out, zap.NewNop())
	r.Eval(":dialects")
	assert.Equal(t, "no dialects loaded\n", out.String())
}
