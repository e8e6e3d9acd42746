package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/dynir/internal/ir"
)

func TestPrintTypes(t *testing.T) {
	assert.Equal(t, "i32", TypeString(ir.I32))
	assert.Equal(t, "si16", TypeString(ir.IntegerType{Width: 16, Signedness: ir.Signed}))
	assert.Equal(t, "(i32, index) -> f32", TypeString(ir.NewFunctionType([]ir.Type{ir.I32, ir.Index}, []ir.Type{ir.F32})))
	assert.Equal(t, "() -> ()", TypeString(ir.NewFunctionType(nil, nil)))
	assert.Equal(t, "() -> (() -> i1)", TypeString(ir.NewFunctionType(nil, []ir.Type{ir.NewFunctionType(nil, []ir.Type{ir.I1})})))
	assert.Equal(t, "!toy.thing<1>", TypeString(ir.OpaqueType{Dialect: "toy", Name: "thing", Params: []ir.Attr{ir.IntAttr(1)}}))
}

func TestPrintAttrs(t *testing.T) {
	assert.Equal(t, "2.0", AttrString(ir.NewFloatAttr(2)))
	assert.Equal(t, "{a = 1, b}", AttrString(ir.DictAttr{"b": ir.UnitAttr{}, "a": ir.IntAttr(1)}))
	assert.Equal(t, `[@main, @"x y"]`, AttrString(ir.ArrayAttr{ir.SymbolRefAttr("main"), ir.SymbolRefAttr("x y")}))
	assert.Equal(t, "i64", AttrString(ir.TypeAttr{Type: ir.I64}))
}

type customDef struct{}

func (customDef) DialectName() string { return "toy" }
func (customDef) Name() string        { return "pair" }
func (customDef) PrintBody(p *Printer, params []ir.Attr) {
	p.WriteString("(")
	p.PrintAttr(params[0])
	p.WriteString(" | ")
	p.PrintAttr(params[1])
	p.WriteString(")")
}

type plainDef struct{}

func (plainDef) DialectName() string { return "toy" }
func (plainDef) Name() string        { return "box" }

func TestPrintDynamicUsesBodyPrinter(t *testing.T) {
	custom := ir.NewDynamicAttr(customDef{}, []ir.Attr{ir.IntAttr(1), ir.IntAttr(2)}, 1)
	assert.Equal(t, "#toy.pair(1 | 2)", AttrString(custom))

	plain := ir.NewDynamicType(plainDef{}, []ir.Attr{ir.TypeAttr{Type: ir.I8}}, 2)
	assert.Equal(t, "!toy.box<i8>", TypeString(plain))

	empty := ir.NewDynamicType(plainDef{}, nil, 3)
	assert.Equal(t, "!toy.box", TypeString(empty))
}
