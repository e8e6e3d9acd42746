package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/ir"
)

func buildToy(t *testing.T) (*dialect.Context, *dialect.Dialect) {
	t.Helper()
	decls, err := ParseText(toyText, "toy.dyn")
	require.NoError(t, err)
	ctx := dialect.NewContext()
	d, err := Build(ctx, decls[0], toyOptions)
	require.NoError(t, err)
	return ctx, d
}

func TestBuildRegistersSchemas(t *testing.T) {
	ctx, d := buildToy(t)

	assert.True(t, d.AllowUnknownTypes())
	box, ok := d.Type("box")
	require.True(t, ok)
	assert.Equal(t, "<elem: TypeAttrOf<AnyType>, size: IntAttr>", box.Params().String())

	pair, ok := d.Attr("pair")
	require.True(t, ok)
	assert.True(t, pair.HasFormat())

	add, ok := d.Op("add")
	require.True(t, ok)
	require.Len(t, add.TraitRefs(), 1)
	assert.Equal(t, "SameOperandsAndResultType", add.TraitRefs()[0].Name)
	assert.Empty(t, d.Rejected())

	registered, ok := ctx.Dialect("toy")
	require.True(t, ok)
	assert.Same(t, d, registered)
}

func TestBuildCustomFormatRoundTrip(t *testing.T) {
	ctx, _ := buildToy(t)

	a, err := ctx.ParseAttr("#toy.pair(1 : \"x\")")
	require.NoError(t, err)
	assert.Equal(t, `#toy.pair(1 : "x")`, asm.AttrString(a))
}

func TestBuildResolvesOwnTypesInConstraints(t *testing.T) {
	ctx, _ := buildToy(t)

	good, err := ctx.ParseType("!toy.box<i32, 4>")
	require.NoError(t, err)
	bad, err := ctx.ParseType("!toy.box<i64, 4>")
	require.NoError(t, err)

	ok := ir.NewOperation(ir.OperationState{
		Name:        "toy.wrap",
		Operands:    []*ir.Value{ir.NewValue(good)},
		ResultTypes: []ir.Type{ir.IndexType{}, good},
	})
	require.NoError(t, ctx.Verify(ok))

	wrong := ir.NewOperation(ir.OperationState{
		Name:     "toy.wrap",
		Operands: []*ir.Value{ir.NewValue(bad)},
	})
	err = ctx.Verify(wrong)
	require.Error(t, err)
	assert.True(t, dialect.IsDiagnostic(err, dialect.DiagOperandType))
}

func TestBuildFromCUE(t *testing.T) {
	decls, err := CompileCUE(toyCUE, "toy.cue")
	require.NoError(t, err)

	ctx := dialect.NewContext()
	ds, err := BuildAll(ctx, decls, toyOptions)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Len(t, ds[0].Ops(), 4)
}

func TestBuildUnknownFormat(t *testing.T) {
	decls, err := ParseText(toyText, "toy.dyn")
	require.NoError(t, err)

	_, err = Build(dialect.NewContext(), decls[0], Options{})
	require.Error(t, err)
	assert.True(t, dialect.IsMalformedSchema(err))
	assert.Contains(t, err.Error(), `unknown format "pair"`)
}

func TestBuildRejectsOnlyBadOps(t *testing.T) {
	decls, err := ParseText(`Dialect t {
  Op ok(AnyType) -> ()
  Op ghost(AnyType) -> () traits [NoSuchTrait]
  Op concat(Variadic<AnyType>, Variadic<AnyType>) -> ()
  Op both(Variadic<AnyType>, Variadic<AnyType>) -> () traits [SameVariadicOperandSizes, SizedOperandSegments]
}`, "")
	require.NoError(t, err)

	d, err := Build(dialect.NewContext(), decls[0], Options{})
	require.NoError(t, err)

	_, ok := d.Op("ok")
	assert.True(t, ok)
	for _, name := range []string{"ghost", "concat", "both"} {
		_, ok := d.Op(name)
		assert.False(t, ok, name)
	}
	rejected := d.Rejected()
	require.Len(t, rejected, 3)
	assert.True(t, dialect.IsUnknownTrait(rejected[0]))
	assert.True(t, dialect.IsMissingSizeSpecifier(rejected[1]))
	assert.True(t, dialect.IsTraitConflict(rejected[2]))
}

func TestBuildAbortsOnMalformedDeclaration(t *testing.T) {
	decls, err := ParseText(`Dialect t {
  Type x
  Op x() -> ()
}`, "")
	require.NoError(t, err)

	_, err = Build(dialect.NewContext(), decls[0], Options{})
	require.Error(t, err)
	assert.True(t, dialect.IsDuplicateName(err))
}

func TestBuildDuplicateDialect(t *testing.T) {
	decls, err := ParseText(`Dialect t { Type x }`, "")
	require.NoError(t, err)

	ctx := dialect.NewContext()
	_, err = Build(ctx, decls[0], Options{})
	require.NoError(t, err)
	_, err = Build(ctx, decls[0], Options{})
	require.Error(t, err)
	assert.True(t, dialect.IsDuplicateName(err))
}

func TestBuildUnresolvedTypeInConstraint(t *testing.T) {
	decls, err := ParseText(`Dialect t { Op f(!other.thing) -> () }`, "")
	require.NoError(t, err)

	_, err = Build(dialect.NewContext(), decls[0], Options{})
	require.Error(t, err)
	assert.True(t, dialect.IsMalformedSchema(err))
	assert.Contains(t, err.Error(), `unregistered dialect "other"`)
}

func TestBuildTraitArguments(t *testing.T) {
	decls, err := ParseText(`Dialect t { Op pair(AnyType, AnyType) -> () traits [NOperands<2>] }`, "")
	require.NoError(t, err)

	ctx := dialect.NewContext()
	_, err = Build(ctx, decls[0], Options{})
	require.NoError(t, err)

	op := ir.NewOperation(ir.OperationState{
		Name:     "t.pair",
		Operands: []*ir.Value{ir.NewValue(ir.IndexType{}), ir.NewValue(ir.IndexType{})},
	})
	assert.NoError(t, ctx.Verify(op))
}
