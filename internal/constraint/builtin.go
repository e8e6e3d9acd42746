package constraint

import (
	"strconv"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
)

// Builtin type predicates.
var (
	AnyType = New("AnyType", func(t ir.Type) bool { return t != nil })

	AnyInteger = New("AnyInteger", func(t ir.Type) bool {
		_, ok := t.(ir.IntegerType)
		return ok
	})

	AnyFloat = New("AnyFloat", func(t ir.Type) bool {
		_, ok := t.(ir.FloatType)
		return ok
	})

	Index = New("Index", func(t ir.Type) bool {
		_, ok := t.(ir.IndexType)
		return ok
	})

	AnyFunction = New("AnyFunction", func(t ir.Type) bool {
		_, ok := t.(ir.FunctionType)
		return ok
	})
)

// Integer accepts integer types of the given width, any signedness.
func Integer(width int) TypePred {
	return New("Integer<"+strconv.Itoa(width)+">", func(t ir.Type) bool {
		it, ok := t.(ir.IntegerType)
		return ok && it.Width == width
	})
}

// Float accepts float types of the given width.
func Float(width int) TypePred {
	return New("Float<"+strconv.Itoa(width)+">", func(t ir.Type) bool {
		ft, ok := t.(ir.FloatType)
		return ok && ft.Width == width
	})
}

// TypeIs accepts exactly want.
func TypeIs(want ir.Type) TypePred {
	return New(asm.TypeString(want), func(t ir.Type) bool { return ir.TypesEqual(want, t) })
}

// TypeKind accepts any instance of the dialect type named by qualified
// ("dialect.name"), including opaque types of unregistered schemas.
func TypeKind(qualified string) TypePred {
	return New("Kind<"+strconv.Quote(qualified)+">", func(t ir.Type) bool {
		switch ty := t.(type) {
		case *ir.DynamicType:
			return ir.QualifiedName(ty.Def()) == qualified
		case ir.OpaqueType:
			return ty.Dialect+"."+ty.Name == qualified
		}
		return false
	})
}

// Builtin attribute predicates.
var (
	AnyAttr = New("AnyAttr", func(a ir.Attr) bool { return a != nil })

	IntAttr    = attrOfKind[ir.IntAttr]("IntAttr")
	BoolAttr   = attrOfKind[ir.BoolAttr]("BoolAttr")
	StrAttr    = attrOfKind[ir.StringAttr]("StrAttr")
	FloatAttr  = attrOfKind[ir.FloatAttr]("FloatAttr")
	UnitAttr   = attrOfKind[ir.UnitAttr]("UnitAttr")
	ArrayAttr  = attrOfKind[ir.ArrayAttr]("ArrayAttr")
	DictAttr   = attrOfKind[ir.DictAttr]("DictAttr")
	SymbolAttr = attrOfKind[ir.SymbolRefAttr]("SymbolAttr")
	TypeAttr   = attrOfKind[ir.TypeAttr]("TypeAttr")
)

func attrOfKind[A ir.Attr](name string) AttrPred {
	return New(name, func(a ir.Attr) bool {
		_, ok := a.(A)
		return ok
	})
}

// ArrayOf accepts arrays whose every element satisfies elem.
func ArrayOf(elem AttrPred) AttrPred {
	return New("ArrayOf<"+elem.String()+">", func(a ir.Attr) bool {
		arr, ok := a.(ir.ArrayAttr)
		if !ok {
			return false
		}
		for _, e := range arr {
			if !elem.Check(e) {
				return false
			}
		}
		return true
	})
}

// TypeAttrOf accepts type attributes whose type satisfies tp.
func TypeAttrOf(tp TypePred) AttrPred {
	return New("TypeAttrOf<"+tp.String()+">", func(a ir.Attr) bool {
		ta, ok := a.(ir.TypeAttr)
		return ok && tp.Check(ta.Type)
	})
}

// liftType is TypeAttrOf with the inner description, used where a type
// constraint is written in parameter position.
func liftType(tp TypePred) AttrPred {
	return New(tp.String(), TypeAttrOf(tp).fn)
}

// AttrIs accepts attributes structurally equal to want.
func AttrIs(want ir.Attr) AttrPred {
	return New(asm.AttrString(want), func(a ir.Attr) bool { return ir.AttrsEqual(want, a) })
}

// AttrKind accepts any instance of the dialect attribute named by
// qualified.
func AttrKind(qualified string) AttrPred {
	return New("AttrKind<"+strconv.Quote(qualified)+">", func(a ir.Attr) bool {
		da, ok := a.(*ir.DynamicAttr)
		return ok && ir.QualifiedName(da.Def()) == qualified
	})
}

var typeNames = map[string]TypePred{
	"AnyType":     AnyType,
	"AnyInteger":  AnyInteger,
	"AnyFloat":    AnyFloat,
	"Index":       Index,
	"AnyFunction": AnyFunction,
}

var attrNames = map[string]AttrPred{
	"AnyAttr":    AnyAttr,
	"IntAttr":    IntAttr,
	"BoolAttr":   BoolAttr,
	"StrAttr":    StrAttr,
	"FloatAttr":  FloatAttr,
	"UnitAttr":   UnitAttr,
	"ArrayAttr":  ArrayAttr,
	"DictAttr":   DictAttr,
	"SymbolAttr": SymbolAttr,
	"TypeAttr":   TypeAttr,
}

// LookupType returns the named builtin type predicate.
func LookupType(name string) (TypePred, bool) {
	p, ok := typeNames[name]
	return p, ok
}

// LookupAttr returns the named builtin attribute predicate.
func LookupAttr(name string) (AttrPred, bool) {
	p, ok := attrNames[name]
	return p, ok
}
