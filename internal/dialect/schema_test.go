package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

func TestGetCheckedArity(t *testing.T) {
	toy := newToy(t)
	loc := ir.Location{File: "in.ir", Line: 3, Col: 7}

	for _, params := range [][]ir.Attr{
		nil,
		{ir.TypeAttr{Type: ir.I32}},
		{ir.TypeAttr{Type: ir.I32}, ir.IntAttr(1), ir.IntAttr(2)},
	} {
		_, err := toy.box.GetChecked(loc, params...)
		require.Error(t, err)
		assert.True(t, IsArityError(err))

		var ce *ConstraintError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 2, ce.Expected)
		assert.Equal(t, len(params), ce.Got)
		assert.Contains(t, err.Error(), "in.ir:3:7")
	}
	assert.Equal(t, 0, toy.ctx.Store().Len())
}

func TestGetCheckedConstraintViolation(t *testing.T) {
	toy := newToy(t)

	_, err := toy.box.GetChecked(ir.UnknownLoc, ir.TypeAttr{Type: ir.I32}, ir.StringAttr("four"))
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))

	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Position)
	assert.Equal(t, "size", ce.Name)
	assert.Equal(t, "IntAttr", ce.Reason)
	assert.Equal(t, "toy.box", ce.Schema)

	// The first failing position wins.
	_, err = toy.box.GetChecked(ir.UnknownLoc, ir.IntAttr(1), ir.StringAttr("four"))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.Position)
}

func TestGetPanicsOnViolation(t *testing.T) {
	toy := newToy(t)
	assert.Panics(t, func() { toy.box.Get(ir.IntAttr(1)) })
}

func TestDefaultFormatRoundTrip(t *testing.T) {
	toy := newToy(t)

	inst := toy.box.Get(ir.TypeAttr{Type: ir.NewFunctionType([]ir.Type{ir.I1}, nil)}, ir.IntAttr(-3))
	text := toy.box.Print(inst)
	assert.Equal(t, "box<(i1) -> (), -3>", text)

	back, err := toy.box.Parse(text)
	require.NoError(t, err)
	assert.Same(t, inst, back)

	full := asm.TypeString(inst)
	assert.Equal(t, "!toy.box<(i1) -> (), -3>", full)
	parsed, err := toy.ctx.ParseType(full)
	require.NoError(t, err)
	assert.Same(t, inst, parsed)
}

func TestNestedInstanceRoundTrip(t *testing.T) {
	toy := newToy(t)
	inner := toy.box.Get(ir.TypeAttr{Type: ir.I8}, ir.IntAttr(1))
	outer := toy.box.Get(ir.TypeAttr{Type: inner}, ir.IntAttr(2))

	text := asm.TypeString(outer)
	assert.Equal(t, "!toy.box<!toy.box<i8, 1>, 2>", text)
	parsed, err := toy.ctx.ParseType(text)
	require.NoError(t, err)
	assert.Same(t, outer, parsed)
}

func TestCustomFormatRoundTrip(t *testing.T) {
	toy := newToy(t)
	assert.True(t, toy.pair.HasFormat())

	inst := toy.pair.Get(ir.IntAttr(1), ir.StringAttr("x"))
	assert.Equal(t, `pair(1 : "x")`, toy.pair.Print(inst))
	assert.Equal(t, `#toy.pair(1 : "x")`, asm.AttrString(inst))

	back, err := toy.ctx.ParseAttr(`#toy.pair(1 : "x")`)
	require.NoError(t, err)
	assert.Same(t, inst, back)

	_, err = toy.pair.Parse("pair<1, 2>")
	require.Error(t, err)
	assert.True(t, asm.IsParseError(err))
}

func TestParseReportsConstraintErrors(t *testing.T) {
	toy := newToy(t)

	_, err := toy.ctx.ParseType("!toy.box<i32>")
	assert.True(t, IsArityError(err))

	_, err = toy.ctx.ParseType(`!toy.box<i32, "x">`)
	assert.True(t, IsConstraintViolation(err))

	_, err = toy.ctx.ParseType("!toy.crate<i32>")
	assert.ErrorContains(t, err, `dialect "toy" has no type "crate"`)

	_, err = toy.ctx.ParseType("!nope.box")
	assert.ErrorContains(t, err, `unregistered dialect "nope"`)

	_, err = toy.ctx.ParseAttr("#toy.box")
	assert.ErrorContains(t, err, `dialect "toy" has no attribute "box"`)
}

func TestInconsistentFormat(t *testing.T) {
	ctx := NewContext()
	b := ctx.NewBuilder("fmt")

	_, err := b.AddType("half", nil, WithFormat(func(p *asm.Parser) ([]ir.Attr, error) { return nil, nil }, nil))
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeInconsistentFormat, se.Code)
	assert.True(t, IsMalformedSchema(err))

	_, err = b.Build()
	assert.Error(t, err)
}

func TestWithFormatBothNilIsDefault(t *testing.T) {
	ctx := NewContext()
	b := ctx.NewBuilder("fmt")
	s, err := b.AddType("plain", nil, WithFormat(nil, nil))
	require.NoError(t, err)
	assert.False(t, s.HasFormat())
}

func TestParamSpecString(t *testing.T) {
	spec := ParamSpec{
		{Name: "elem", Pred: constraint.TypeAttrOf(constraint.AnyType)},
		{Name: "n", Pred: constraint.IntAttr},
	}
	assert.Equal(t, "<elem: TypeAttrOf<AnyType>, n: IntAttr>", spec.String())
	assert.Equal(t, "", ParamSpec{}.String())
}
