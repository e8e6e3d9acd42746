package compiler

import (
	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/ir"
)

const toyText = `
// toy dialect
Dialect toy attributes {allow_unknown_types = true} {
  Type box<elem: TypeAttrOf<AnyType>, size: IntAttr>
  Attr pair<first: AnyAttr, second: AnyAttr> format "pair"
  Op add(AnyInteger, AnyInteger) -> AnyInteger {tag: OptionalAttr<StrAttr>}
      traits [SameOperandsAndResultType] config {is_commutative = true}
  Op wrap(!toy.box<i32, 4>) -> (Variadic<AnyType>)
  Op br() -> () successors [Any] config {is_terminator = true}
  Op scope() -> () regions [Sized<1>] config {is_isolated_from_above = true}
}
`

const toyCUE = `
dialect: toy: {
	allow_unknown_types: true
	types: box: params: {elem: "TypeAttrOf<AnyType>", size: "IntAttr"}
	attrs: pair: {
		params: {first: "AnyAttr", second: "AnyAttr"}
		format: "pair"
	}
	ops: {
		add: {
			operands: ["AnyInteger", "AnyInteger"]
			results: ["AnyInteger"]
			attrs: tag: "OptionalAttr<StrAttr>"
			traits: ["SameOperandsAndResultType"]
			config: is_commutative: true
		}
		wrap: {
			operands: ["!toy.box<i32,4>"]
			results: ["Variadic< AnyType >"]
		}
		br: {
			successors: ["Any"]
			config: is_terminator: true
		}
		scope: {
			regions: ["Sized<1>"]
			config: is_isolated_from_above: true
		}
	}
}
`

// pairFormat prints pair instances as (first : second).
var pairFormat = dialect.Format{
	Parse: func(p *asm.Parser) ([]ir.Attr, error) {
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
	Print: func(p *asm.Printer, params []ir.Attr) {
		p.WriteString("(")
		p.PrintAttr(params[0])
		p.WriteString(" : ")
		p.PrintAttr(params[1])
		p.WriteString(")")
	},
}

var toyOptions = Options{Formats: map[string]dialect.Format{"pair": pairFormat}}

// withoutLocs returns a copy of d with source locations cleared, for
// comparing declarations from different surfaces.
func withoutLocs(d *DialectDecl) *DialectDecl {
	out := *d
	out.Types = append([]SchemaDecl(nil), d.Types...)
	out.Attrs = append([]SchemaDecl(nil), d.Attrs...)
	out.Ops = append([]OpDecl(nil), d.Ops...)
	for i := range out.Types {
		out.Types[i].Loc = ir.Location{}
	}
	for i := range out.Attrs {
		out.Attrs[i].Loc = ir.Location{}
	}
	for i := range out.Ops {
		out.Ops[i].Loc = ir.Location{}
	}
	return &out
}
