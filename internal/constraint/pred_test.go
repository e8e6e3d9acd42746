package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/dynir/internal/ir"
)

func TestZeroPredAcceptsEverything(t *testing.T) {
	var p TypePred
	assert.True(t, p.IsZero())
	assert.True(t, p.Check(ir.I32))
	assert.Equal(t, "<any>", p.String())
}

func TestCombinators(t *testing.T) {
	intOrIndex := Or(AnyInteger, Index)
	assert.Equal(t, "AnyOf<AnyInteger, Index>", intOrIndex.String())
	assert.True(t, intOrIndex.Check(ir.I8))
	assert.True(t, intOrIndex.Check(ir.Index))
	assert.False(t, intOrIndex.Check(ir.F32))

	wide := And(AnyInteger, Not(Integer(1)))
	assert.Equal(t, "AllOf<AnyInteger, Not<Integer<1>>>", wide.String())
	assert.True(t, wide.Check(ir.I64))
	assert.False(t, wide.Check(ir.I1))
	assert.False(t, wide.Check(ir.F64))
}

func TestBuiltinTypePreds(t *testing.T) {
	fn := ir.NewFunctionType([]ir.Type{ir.I32}, nil)
	tests := []struct {
		pred   TypePred
		accept []ir.Type
		reject []ir.Type
	}{
		{AnyType, []ir.Type{ir.I1, ir.None, fn}, []ir.Type{nil}},
		{AnyInteger, []ir.Type{ir.I1, ir.IntegerType{Width: 7, Signedness: ir.Unsigned}}, []ir.Type{ir.F32, ir.Index}},
		{AnyFloat, []ir.Type{ir.F16, ir.F64}, []ir.Type{ir.I32}},
		{Index, []ir.Type{ir.Index}, []ir.Type{ir.I64}},
		{AnyFunction, []ir.Type{fn}, []ir.Type{ir.I32}},
		{Integer(32), []ir.Type{ir.I32, ir.IntegerType{Width: 32, Signedness: ir.Signed}}, []ir.Type{ir.I64}},
		{Float(16), []ir.Type{ir.F16}, []ir.Type{ir.F32}},
		{TypeIs(fn), []ir.Type{ir.NewFunctionType([]ir.Type{ir.I32}, []ir.Type{})}, []ir.Type{ir.I32}},
		{TypeKind("toy.box"), []ir.Type{ir.OpaqueType{Dialect: "toy", Name: "box"}}, []ir.Type{ir.OpaqueType{Dialect: "toy", Name: "bag"}}},
	}

	for _, tt := range tests {
		t.Run(tt.pred.String(), func(t *testing.T) {
			for _, ty := range tt.accept {
				assert.True(t, tt.pred.Check(ty), "should accept %v", ty)
			}
			for _, ty := range tt.reject {
				assert.False(t, tt.pred.Check(ty), "should reject %v", ty)
			}
		})
	}
}

func TestBuiltinAttrPreds(t *testing.T) {
	assert.True(t, IntAttr.Check(ir.IntAttr(3)))
	assert.False(t, IntAttr.Check(ir.NewFloatAttr(3)))
	assert.True(t, StrAttr.Check(ir.StringAttr("x")))
	assert.True(t, UnitAttr.Check(ir.UnitAttr{}))
	assert.True(t, SymbolAttr.Check(ir.SymbolRefAttr("f")))
	assert.False(t, AnyAttr.Check(nil))

	ints := ArrayOf(IntAttr)
	assert.True(t, ints.Check(ir.NewIntArrayAttr(1, 2)))
	assert.True(t, ints.Check(ir.ArrayAttr{}))
	assert.False(t, ints.Check(ir.ArrayAttr{ir.IntAttr(1), ir.StringAttr("2")}))
	assert.False(t, ints.Check(ir.IntAttr(1)))

	intType := TypeAttrOf(AnyInteger)
	assert.True(t, intType.Check(ir.TypeAttr{Type: ir.I16}))
	assert.False(t, intType.Check(ir.TypeAttr{Type: ir.F16}))
	assert.False(t, intType.Check(ir.IntAttr(16)))

	lit := AttrIs(ir.StringAttr("add"))
	assert.Equal(t, `"add"`, lit.String())
	assert.True(t, lit.Check(ir.StringAttr("add")))
	assert.False(t, lit.Check(ir.StringAttr("sub")))
}

func TestLookup(t *testing.T) {
	p, ok := LookupType("AnyFloat")
	assert.True(t, ok)
	assert.Equal(t, "AnyFloat", p.String())

	_, ok = LookupType("AnyAttr")
	assert.False(t, ok)

	a, ok := LookupAttr("DictAttr")
	assert.True(t, ok)
	assert.True(t, a.Check(ir.DictAttr{}))
}
