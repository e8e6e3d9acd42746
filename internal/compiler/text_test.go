package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
)

func TestParseTextToyDialect(t *testing.T) {
	decls, err := ParseText(toyText, "toy.dyn")
	require.NoError(t, err)
	require.Len(t, decls, 1)
	d := decls[0]

	assert.Equal(t, "toy", d.Name)
	assert.True(t, d.AllowUnknownTypes)
	assert.False(t, d.AllowUnknownOps)

	require.Len(t, d.Types, 1)
	assert.Equal(t, SchemaDecl{
		Name: "box",
		Params: []ParamDecl{
			{Name: "elem", Constraint: "TypeAttrOf<AnyType>"},
			{Name: "size", Constraint: "IntAttr"},
		},
		Loc: ir.Location{File: "toy.dyn", Line: 4, Col: 3},
	}, d.Types[0])

	require.Len(t, d.Attrs, 1)
	assert.Equal(t, "pair", d.Attrs[0].Name)
	assert.Equal(t, "pair", d.Attrs[0].Format)

	require.Len(t, d.Ops, 4)
	add := d.Ops[0]
	assert.Equal(t, []string{"AnyInteger", "AnyInteger"}, add.Operands)
	assert.Equal(t, []string{"AnyInteger"}, add.Results)
	assert.Equal(t, []ParamDecl{{Name: "tag", Constraint: "OptionalAttr<StrAttr>"}}, add.Attrs)
	assert.Equal(t, []string{"SameOperandsAndResultType"}, add.Traits)
	assert.Equal(t, OpConfig{IsCommutative: true}, add.Config)
	assert.Equal(t, 6, add.Loc.Line)

	wrap := d.Ops[1]
	assert.Equal(t, []string{"!toy.box<i32, 4>"}, wrap.Operands)
	assert.Equal(t, []string{"Variadic<AnyType>"}, wrap.Results)

	br := d.Ops[2]
	assert.Empty(t, br.Operands)
	assert.Empty(t, br.Results)
	assert.Equal(t, []string{"Any"}, br.Successors)
	assert.True(t, br.Config.IsTerminator)

	scope := d.Ops[3]
	assert.Equal(t, []string{"Sized<1>"}, scope.Regions)
	assert.True(t, scope.Config.IsIsolatedFromAbove)
}

func TestParseTextMultipleDialects(t *testing.T) {
	decls, err := ParseText(`
Dialect a { Type t }
Dialect b attributes {allow_unknown_ops = true} {}
`, "")
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "a", decls[0].Name)
	assert.Equal(t, []ParamDecl{}, decls[0].Types[0].Params)
	assert.Equal(t, "b", decls[1].Name)
	assert.True(t, decls[1].AllowUnknownOps)
	assert.Empty(t, decls[1].Ops)
}

func TestParseTextNormalizesConstraints(t *testing.T) {
	decls, err := ParseText(`Dialect n {
  Op f(AnyOf<Integer<32>,Float<32>>, Variadic< Index >) -> ((i32) -> i32) {k: ArrayOf<IntAttr>, m: 42}
      traits [NOperands< 2 >]
}`, "")
	require.NoError(t, err)
	op := decls[0].Ops[0]
	assert.Equal(t, []string{"AnyOf<Integer<32>, Float<32>>", "Variadic<Index>"}, op.Operands)
	assert.Equal(t, []string{"(i32) -> i32"}, op.Results)
	assert.Equal(t, []ParamDecl{
		{Name: "k", Constraint: "ArrayOf<IntAttr>"},
		{Name: "m", Constraint: "42"},
	}, op.Attrs)
	assert.Equal(t, []string{"NOperands<2>"}, op.Traits)
}

func TestParseTextRoundTrip(t *testing.T) {
	decls, err := ParseText(toyText, "toy.dyn")
	require.NoError(t, err)
	d := decls[0]

	again, err := ParseText(d.Text(), "")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, withoutLocs(d), withoutLocs(again[0]))

	h1, err := d.Hash()
	require.NoError(t, err)
	h2, err := again[0].Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestParseTextFunctionTypeResultRoundTrip(t *testing.T) {
	decls, err := ParseText(`Dialect n { Op f() -> ((i32) -> i32) }`, "")
	require.NoError(t, err)
	require.Equal(t, []string{"(i32) -> i32"}, decls[0].Ops[0].Results)

	again, err := ParseText(decls[0].Text(), "")
	require.NoError(t, err)
	assert.Equal(t, decls[0].Ops[0].Results, again[0].Ops[0].Results)
}

func TestParseTextErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown type constraint", `Dialect toy { Op add(Bogus) -> () }`, `expected type constraint, found "Bogus"`},
		{"missing arrow", `Dialect toy { Op add(AnyType) }`, "expected '->'"},
		{"unknown item", `Dialect toy { Region r }`, "expected '}'"},
		{"non-bool config", `Dialect toy { Op br() -> () config {is_terminator = 1} }`, "is_terminator must be true or false"},
		{"unknown config key", `Dialect toy { Op br() -> () config {is_pure = true} }`, `unknown key "is_pure"`},
		{"unknown dialect attribute", `Dialect toy attributes {strict = true} {}`, `unknown key "strict"`},
		{"dialect attr literal", `Dialect toy { Op c() -> () {v: #toy.pair<1, 2>} }`, `AttrKind<"toy.pair">`},
		{"missing keyword", `Type box`, "expected 'Dialect'"},
		{"unterminated", `Dialect toy { Type box`, "expected '}'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(tt.src, "bad.dyn")
			require.Error(t, err)
			assert.True(t, asm.IsParseError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
