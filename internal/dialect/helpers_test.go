package dialect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

// pairFormat prints pair parameters as (first : second).
func pairFormat() SchemaOption {
	return WithFormat(
		func(p *asm.Parser) ([]ir.Attr, error) {
			if _, err := p.Expect(asm.LParen); err != nil {
				return nil, err
			}
			first, err := p.ParseAttr()
			if err != nil {
				return nil, err
			}
			if _, err := p.Expect(asm.Colon); err != nil {
				return nil, err
			}
			second, err := p.ParseAttr()
			if err != nil {
				return nil, err
			}
			if _, err := p.Expect(asm.RParen); err != nil {
				return nil, err
			}
			return []ir.Attr{first, second}, nil
		},
		func(p *asm.Printer, params []ir.Attr) {
			p.WriteString("(")
			p.PrintAttr(params[0])
			p.WriteString(" : ")
			p.PrintAttr(params[1])
			p.WriteString(")")
		},
	)
}

type toyDialect struct {
	ctx  *Context
	d    *Dialect
	box  *TypeSchema
	pair *AttrSchema
}

// newToy builds a small dialect with one type, one custom-format
// attribute and a few ops.
func newToy(t *testing.T, opts ...Option) toyDialect {
	t.Helper()
	ctx := NewContext(opts...)
	b := ctx.NewBuilder("toy")

	box, err := b.AddType("box", ParamSpec{
		{Name: "elem", Pred: constraint.TypeAttrOf(constraint.AnyType)},
		{Name: "size", Pred: constraint.IntAttr},
	})
	require.NoError(t, err)

	pair, err := b.AddAttr("pair", ParamSpec{
		{Name: "first", Pred: constraint.AnyAttr},
		{Name: "second", Pred: constraint.AnyAttr},
	}, pairFormat())
	require.NoError(t, err)

	_, err = b.AddOp(OpSpec{
		Name: "add",
		Signature: constraint.OpType{
			Operands: []constraint.ValueConstraint{constraint.Value(constraint.AnyInteger), constraint.Value(constraint.AnyInteger)},
			Results:  []constraint.ValueConstraint{constraint.Value(constraint.AnyInteger)},
		},
		Attrs:  []constraint.AttrConstraint{{Name: "tag", Pred: constraint.StrAttr, Optional: true}},
		Traits: Traits("SameOperandsAndResultType"),
		Flags:  Flags{IsCommutative: true},
	})
	require.NoError(t, err)

	_, err = b.AddOp(OpSpec{
		Name: "const",
		Signature: constraint.OpType{
			Results: []constraint.ValueConstraint{constraint.Value(constraint.AnyType)},
		},
		Attrs: []constraint.AttrConstraint{{Name: "value", Pred: constraint.AnyAttr}},
	})
	require.NoError(t, err)

	_, err = b.AddOp(OpSpec{
		Name:       "br",
		Successors: constraint.OpSuccessor{constraint.AnySuccessor},
		Flags:      Flags{IsTerminator: true},
	})
	require.NoError(t, err)

	_, err = b.AddOp(OpSpec{
		Name:    "func",
		Regions: constraint.OpRegion{constraint.SizedRegion(1)},
		Flags:   Flags{IsIsolatedFromAbove: true},
	})
	require.NoError(t, err)

	d, err := b.Build()
	require.NoError(t, err)
	return toyDialect{ctx: ctx, d: d, box: box, pair: pair}
}

func values(types ...ir.Type) []*ir.Value {
	vals := make([]*ir.Value, len(types))
	for i, ty := range types {
		vals[i] = ir.NewValue(ty)
	}
	return vals
}

func repeat(t ir.Type, n int) []ir.Type {
	out := make([]ir.Type, n)
	for i := range out {
		out[i] = t
	}
	return out
}
