package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperationResults(t *testing.T) {
	a := NewValue(I32)
	op := NewOperation(OperationState{
		Name:        "toy.add",
		Operands:    []*Value{a, a},
		ResultTypes: []Type{I32},
	})

	require.Len(t, op.Results, 1)
	assert.Same(t, op, op.Results[0].DefiningOp())
	assert.Equal(t, []Type{I32, I32}, op.OperandTypes())
	assert.Equal(t, []Type{I32}, op.ResultTypes())
	assert.Equal(t, "toy", op.DialectName())
	assert.NotNil(t, op.Attrs, "attrs default to an empty dict")
}

func TestDialectNameWithoutPrefix(t *testing.T) {
	op := NewOperation(OperationState{Name: "orphan"})
	assert.Equal(t, "", op.DialectName())
}

func TestNestingAndDefinitions(t *testing.T) {
	outerVal := NewValue(I32)
	inner := NewBlock(I64)
	region := NewRegion(inner)
	parent := NewOperation(OperationState{Name: "toy.scope", Regions: []*Region{region}})

	child := NewOperation(OperationState{Name: "toy.use", Operands: []*Value{inner.Args[0], outerVal}})
	inner.Append(child)

	assert.Same(t, parent, region.ParentOp())
	assert.Same(t, region, inner.ParentRegion())
	assert.True(t, parent.IsAncestorOf(child))
	assert.False(t, child.IsAncestorOf(parent))

	assert.True(t, IsDefinedWithin(inner.Args[0], parent))
	assert.False(t, IsDefinedWithin(outerVal, parent))
	assert.Same(t, inner, child.Block())
}

func TestIsDefinedWithinNestedRegions(t *testing.T) {
	deep := NewBlock(I8)
	mid := NewOperation(OperationState{Name: "toy.mid", Regions: []*Region{NewRegion(deep)}})
	top := NewBlock()
	top.Append(mid)
	root := NewOperation(OperationState{Name: "toy.root", Regions: []*Region{NewRegion(top)}})

	assert.True(t, IsDefinedWithin(deep.Args[0], root))
	assert.True(t, IsDefinedWithin(deep.Args[0], mid))
	assert.False(t, IsDefinedWithin(deep.Args[0], NewOperation(OperationState{Name: "toy.other"})))

	// Free values and values of detached blocks are never within.
	assert.False(t, IsDefinedWithin(NewValue(I8), root))
	assert.False(t, IsDefinedWithin(NewBlock(I8).Args[0], root))
}

func TestWalkPreOrder(t *testing.T) {
	b := NewBlock()
	parent := NewOperation(OperationState{Name: "toy.scope", Regions: []*Region{NewRegion(b)}})
	b.Append(NewOperation(OperationState{Name: "toy.a"}))
	b.Append(NewOperation(OperationState{Name: "toy.b"}))

	var names []string
	parent.Walk(func(op *Operation) { names = append(names, op.Name) })
	assert.Equal(t, []string{"toy.scope", "toy.a", "toy.b"}, names)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "<unknown>", UnknownLoc.String())
	assert.Equal(t, "a.dmc", Location{File: "a.dmc"}.String())
	assert.Equal(t, "a.dmc:3:7", Location{File: "a.dmc", Line: 3, Col: 7}.String())
	assert.Equal(t, "3:7", Location{Line: 3, Col: 7}.String())
}
