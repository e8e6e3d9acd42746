package asm

import (
	"strconv"
	"strings"

	"github.com/roach88/dynir/internal/ir"
)

// BodyPrinter is implemented by schemas that print their own instance body
// (everything after the qualified name).
type BodyPrinter interface {
	PrintBody(p *Printer, params []ir.Attr)
}

// Printer renders types and attributes in the form Parser accepts.
type Printer struct {
	sb strings.Builder
}

// NewPrinter creates an empty printer.
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns everything printed so far.
func (p *Printer) String() string {
	return p.sb.String()
}

// WriteString appends raw text.
func (p *Printer) WriteString(s string) {
	p.sb.WriteString(s)
}

// PrintType appends the textual form of t.
func (p *Printer) PrintType(t ir.Type) {
	switch ty := t.(type) {
	case ir.IntegerType:
		switch ty.Signedness {
		case ir.Signed:
			p.sb.WriteString("si")
		case ir.Unsigned:
			p.sb.WriteString("ui")
		default:
			p.sb.WriteString("i")
		}
		p.sb.WriteString(strconv.Itoa(ty.Width))
	case ir.FloatType:
		p.sb.WriteString("f" + strconv.Itoa(ty.Width))
	case ir.IndexType:
		p.sb.WriteString("index")
	case ir.NoneType:
		p.sb.WriteString("none")
	case ir.FunctionType:
		p.printTypeList(ty.Inputs)
		p.sb.WriteString(" -> ")
		if len(ty.Results) == 1 {
			if _, nested := ty.Results[0].(ir.FunctionType); !nested {
				p.PrintType(ty.Results[0])
				return
			}
		}
		p.printTypeList(ty.Results)
	case ir.OpaqueType:
		p.sb.WriteString("!" + ty.Dialect + "." + ty.Name)
		p.PrintParamList(ty.Params)
	case *ir.DynamicType:
		p.sb.WriteString("!" + ir.QualifiedName(ty.Def()))
		p.printBody(ty.Def(), ty.Params())
	case nil:
		p.sb.WriteString("<<null type>>")
	default:
		p.sb.WriteString("<<unknown type>>")
	}
}

// PrintAttr appends the textual form of a.
func (p *Printer) PrintAttr(a ir.Attr) {
	switch at := a.(type) {
	case ir.UnitAttr:
		p.sb.WriteString("unit")
	case ir.BoolAttr:
		p.sb.WriteString(strconv.FormatBool(bool(at)))
	case ir.IntAttr:
		p.sb.WriteString(strconv.FormatInt(int64(at), 10))
	case ir.FloatAttr:
		s := at.Value.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		p.sb.WriteString(s)
	case ir.StringAttr:
		p.sb.WriteString(strconv.Quote(string(at)))
	case ir.SymbolRefAttr:
		p.sb.WriteString("@")
		p.printKey(string(at))
	case ir.ArrayAttr:
		p.sb.WriteString("[")
		for i, elem := range at {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.PrintAttr(elem)
		}
		p.sb.WriteString("]")
	case ir.DictAttr:
		p.PrintAttrDict(at)
	case ir.TypeAttr:
		p.PrintType(at.Type)
	case *ir.DynamicAttr:
		p.sb.WriteString("#" + ir.QualifiedName(at.Def()))
		p.printBody(at.Def(), at.Params())
	case nil:
		p.sb.WriteString("<<null attribute>>")
	default:
		p.sb.WriteString("<<unknown attribute>>")
	}
}

// PrintAttrDict appends {k = v, ...} in RFC 8785 key order. Unit values
// print as bare keys.
func (p *Printer) PrintAttrDict(d ir.DictAttr) {
	p.sb.WriteString("{")
	for i, k := range d.SortedKeys() {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.printKey(k)
		if _, unit := d[k].(ir.UnitAttr); unit {
			continue
		}
		p.sb.WriteString(" = ")
		p.PrintAttr(d[k])
	}
	p.sb.WriteString("}")
}

// PrintParamList appends <p1, p2, ...>, or nothing for no parameters.
func (p *Printer) PrintParamList(params []ir.Attr) {
	if len(params) == 0 {
		return
	}
	p.sb.WriteString("<")
	for i, a := range params {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.PrintAttr(a)
	}
	p.sb.WriteString(">")
}

func (p *Printer) printBody(def ir.Definition, params []ir.Attr) {
	if bp, ok := def.(BodyPrinter); ok {
		bp.PrintBody(p, params)
		return
	}
	p.PrintParamList(params)
}

func (p *Printer) printTypeList(types []ir.Type) {
	p.sb.WriteString("(")
	for i, t := range types {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.PrintType(t)
	}
	p.sb.WriteString(")")
}

func (p *Printer) printKey(k string) {
	if IsBareIdent(k) {
		p.sb.WriteString(k)
		return
	}
	p.sb.WriteString(strconv.Quote(k))
}

// TypeString returns the textual form of t.
func TypeString(t ir.Type) string {
	p := NewPrinter()
	p.PrintType(t)
	return p.String()
}

// AttrString returns the textual form of a.
func AttrString(a ir.Attr) string {
	p := NewPrinter()
	p.PrintAttr(a)
	return p.String()
}
