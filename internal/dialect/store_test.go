package dialect

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

func TestUniquingReturnsSameInstance(t *testing.T) {
	toy := newToy(t)

	a, err := toy.box.GetChecked(ir.UnknownLoc, ir.TypeAttr{Type: ir.I32}, ir.IntAttr(4))
	require.NoError(t, err)
	b, err := toy.box.GetChecked(ir.UnknownLoc, ir.TypeAttr{Type: ir.I32}, ir.IntAttr(4))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, a.ID().IsValid())

	c := toy.box.Get(ir.TypeAttr{Type: ir.I32}, ir.IntAttr(5))
	assert.NotSame(t, a, c)
	assert.NotEqual(t, a.ID(), c.ID())
	assert.Equal(t, 2, toy.ctx.Store().Len())
}

func TestUniquingIsStructural(t *testing.T) {
	toy := newToy(t)

	// Nested dynamic parameters and exact decimals compare structurally.
	inner := toy.box.Get(ir.TypeAttr{Type: ir.F32}, ir.IntAttr(2))
	first := toy.pair.Get(ir.TypeAttr{Type: inner}, ir.NewFloatAttr(1.5))
	again, err := ir.NewFloatAttrFromString("1.50")
	require.NoError(t, err)
	second := toy.pair.Get(ir.TypeAttr{Type: toy.box.Get(ir.TypeAttr{Type: ir.F32}, ir.IntAttr(2))}, again)
	assert.Same(t, first, second)
}

func TestTypesAndAttrsDoNotCollide(t *testing.T) {
	ctx := NewContext()
	b := ctx.NewBuilder("k")
	ty, err := b.AddType("t", nil)
	require.NoError(t, err)
	at, err := b.AddAttr("a", nil)
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)

	ty.Get()
	at.Get()
	assert.Equal(t, 2, ctx.Store().Len())
}

func TestStoreCopiesParams(t *testing.T) {
	toy := newToy(t)
	params := []ir.Attr{ir.TypeAttr{Type: ir.I8}, ir.IntAttr(1)}
	inst := toy.box.Get(params...)
	params[1] = ir.IntAttr(99)
	assert.Equal(t, ir.IntAttr(1), inst.Params()[1])
}

func TestStoreConcurrentInterning(t *testing.T) {
	toy := newToy(t)

	const workers = 16
	results := make([]*ir.DynamicType, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = toy.box.Get(ir.TypeAttr{Type: ir.I64}, ir.IntAttr(8))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, toy.ctx.Store().Len())
}

func TestUniquingKeepsDistinctStrings(t *testing.T) {
	toy := newToy(t)

	pairs := []struct {
		name string
		a, b ir.StringAttr
	}{
		{"invalid utf-8", "\xff", "\xfe"},
		{"composed and decomposed", "\u00e9", "e\u0301"},
	}
	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			first := toy.pair.Get(tt.a, ir.IntAttr(0))
			second := toy.pair.Get(tt.b, ir.IntAttr(0))
			assert.NotSame(t, first, second)
			assert.Equal(t, tt.a, first.Params()[0])
			assert.Equal(t, tt.b, second.Params()[0])
			assert.Same(t, second, toy.pair.Get(tt.b, ir.IntAttr(0)))
		})
	}
}

func TestRebuiltDialectGetsFreshInstances(t *testing.T) {
	ctx := NewContext()
	params := ParamSpec{
		{Name: "first", Pred: constraint.AnyAttr},
		{Name: "second", Pred: constraint.AnyAttr},
	}

	failed := ctx.NewBuilder("toy")
	stale, err := failed.AddAttr("pair", params)
	require.NoError(t, err)
	stale.Get(ir.IntAttr(1), ir.IntAttr(2))
	_, err = failed.AddType("pair", nil)
	require.Error(t, err)
	_, err = failed.Build()
	require.Error(t, err)

	b := ctx.NewBuilder("toy")
	pair, err := b.AddAttr("pair", params, pairFormat())
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)

	inst := pair.Get(ir.IntAttr(1), ir.IntAttr(2))
	assert.Same(t, pair, inst.Def())

	text := asm.AttrString(inst)
	assert.Equal(t, "#toy.pair(1 : 2)", text)
	back, err := ctx.ParseAttr(text)
	require.NoError(t, err)
	assert.Same(t, inst, back)
}
