package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynir/internal/ir"
)

func TestParseBuiltinTypes(t *testing.T) {
	tests := []struct {
		src      string
		expected ir.Type
	}{
		{"i32", ir.I32},
		{"si8", ir.IntegerType{Width: 8, Signedness: ir.Signed}},
		{"ui64", ir.IntegerType{Width: 64, Signedness: ir.Unsigned}},
		{"f16", ir.F16},
		{"index", ir.Index},
		{"none", ir.None},
		{"(i32, f32) -> i64", ir.NewFunctionType([]ir.Type{ir.I32, ir.F32}, []ir.Type{ir.I64})},
		{"() -> ()", ir.NewFunctionType([]ir.Type{}, []ir.Type{})},
		{"(i1) -> (i1, i1)", ir.NewFunctionType([]ir.Type{ir.I1}, []ir.Type{ir.I1, ir.I1})},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParseTypeString(tt.src, nil)
			require.NoError(t, err)
			assert.True(t, ir.TypesEqual(tt.expected, got), "got %s", TypeString(got))
		})
	}
}

func TestParseAttrs(t *testing.T) {
	tests := []struct {
		src      string
		expected ir.Attr
	}{
		{"42", ir.IntAttr(42)},
		{"-7", ir.IntAttr(-7)},
		{"2.5", ir.NewFloatAttr(2.5)},
		{`"hi\n"`, ir.StringAttr("hi\n")},
		{"true", ir.BoolAttr(true)},
		{"unit", ir.UnitAttr{}},
		{"@main", ir.SymbolRefAttr("main")},
		{`@"with space"`, ir.SymbolRefAttr("with space")},
		{"[1, [2], i32]", ir.ArrayAttr{ir.IntAttr(1), ir.ArrayAttr{ir.IntAttr(2)}, ir.TypeAttr{Type: ir.I32}}},
		{"[]", ir.ArrayAttr{}},
		{`{a = 1, "b c" = "x", flag}`, ir.DictAttr{"a": ir.IntAttr(1), "b c": ir.StringAttr("x"), "flag": ir.UnitAttr{}}},
		{"f64", ir.TypeAttr{Type: ir.F64}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParseAttrString(tt.src, nil)
			require.NoError(t, err)
			assert.True(t, ir.AttrsEqual(tt.expected, got), "got %s", AttrString(got))
		})
	}
}

func TestParseErrorsCarryLocation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		col  int
	}{
		{"not an attribute", "foo", "expected attribute", 1},
		{"unclosed list", "[1, 2", "expected ']'", 6},
		{"trailing input", "1 2", "expected end of input", 3},
		{"duplicate dict key", "{a, a}", `duplicate key "a"`, 5},
		{"dialect without table", "!toy.box", "no dialects available", 1},
		{"unqualified dialect name", "#box", "dialect-qualified", 2},
		{"missing arrow", "(i32) i32", "expected '->'", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAttrString(tt.src, nil)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Message, tt.msg)
			assert.Equal(t, 1, pe.Loc.Line)
			assert.Equal(t, tt.col, pe.Loc.Col)
		})
	}
}

func TestParseTypeRejectsUnknownName(t *testing.T) {
	_, err := ParseTypeString("foo", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "foo"`)

	_, err = ParseTypeString("i0", nil)
	require.Error(t, err)
}

func TestParseOptionalParamList(t *testing.T) {
	p := NewParser("<i32, 4> rest", "", nil)
	params, err := p.ParseOptionalParamList()
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.True(t, p.IsKeyword("rest"))

	p = NewParser("rest", "", nil)
	params, err = p.ParseOptionalParamList()
	require.NoError(t, err)
	assert.Empty(t, params)

	p = NewParser("<>", "", nil)
	params, err = p.ParseOptionalParamList()
	require.NoError(t, err)
	assert.Empty(t, params)
}

// stubTable resolves every dialect name to an opaque type/attribute.
type stubTable struct{}

func (stubTable) ParseDialectType(p *Parser, dialect, name string, loc ir.Location) (ir.Type, error) {
	params, err := p.ParseOptionalParamList()
	if err != nil {
		return nil, err
	}
	return ir.OpaqueType{Dialect: dialect, Name: name, Params: params}, nil
}

func (stubTable) ParseDialectAttr(p *Parser, dialect, name string, loc ir.Location) (ir.Attr, error) {
	return nil, p.Errorf(loc, "no attribute %s.%s", dialect, name)
}

func TestParseDialectTypeDelegates(t *testing.T) {
	got, err := ParseTypeString("!toy.box<!toy.box<i32>, 3>", stubTable{})
	require.NoError(t, err)

	outer, ok := got.(ir.OpaqueType)
	require.True(t, ok)
	assert.Equal(t, "toy", outer.Dialect)
	assert.Equal(t, "box", outer.Name)
	require.Len(t, outer.Params, 2)
	assert.Equal(t, "!toy.box<!toy.box<i32>, 3>", TypeString(got))

	_, err = ParseAttrString("#toy.pair", stubTable{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no attribute toy.pair")
}

func TestPrintParseRoundTrip(t *testing.T) {
	attrs := []ir.Attr{
		ir.IntAttr(-3),
		ir.NewFloatAttr(2),
		ir.NewFloatAttr(-0.125),
		ir.StringAttr("quote \" and \\"),
		ir.BoolAttr(false),
		ir.SymbolRefAttr("a b"),
		ir.ArrayAttr{ir.UnitAttr{}, ir.TypeAttr{Type: ir.NewFunctionType(nil, []ir.Type{ir.NewFunctionType(nil, nil)})}},
		ir.DictAttr{"z": ir.IntAttr(1), "key with space": ir.UnitAttr{}, "n": ir.DictAttr{}},
	}

	for _, a := range attrs {
		text := AttrString(a)
		t.Run(text, func(t *testing.T) {
			back, err := ParseAttrString(text, nil)
			require.NoError(t, err)
			assert.True(t, ir.AttrsEqual(a, back), "round trip changed %s into %s", text, AttrString(back))
		})
	}
}
