package ir

// TypesEqual reports whether two types are structurally equal.
// Dynamic types compare by identity, which is structural equality for
// instances interned in the same store.
func TypesEqual(a, b Type) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case IntegerType:
		y, ok := b.(IntegerType)
		return ok && x == y
	case FloatType:
		y, ok := b.(FloatType)
		return ok && x == y
	case IndexType:
		_, ok := b.(IndexType)
		return ok
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case FunctionType:
		y, ok := b.(FunctionType)
		return ok && typeListsEqual(x.Inputs, y.Inputs) && typeListsEqual(x.Results, y.Results)
	case OpaqueType:
		y, ok := b.(OpaqueType)
		return ok && x.Dialect == y.Dialect && x.Name == y.Name && AttrListsEqual(x.Params, y.Params)
	case *DynamicType:
		y, ok := b.(*DynamicType)
		return ok && x == y
	default:
		return false
	}
}

// AttrsEqual reports whether two attributes are structurally equal.
func AttrsEqual(a, b Attr) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case UnitAttr:
		_, ok := b.(UnitAttr)
		return ok
	case BoolAttr:
		y, ok := b.(BoolAttr)
		return ok && x == y
	case IntAttr:
		y, ok := b.(IntAttr)
		return ok && x == y
	case FloatAttr:
		y, ok := b.(FloatAttr)
		return ok && x.Value.Equal(y.Value)
	case StringAttr:
		y, ok := b.(StringAttr)
		return ok && x == y
	case SymbolRefAttr:
		y, ok := b.(SymbolRefAttr)
		return ok && x == y
	case ArrayAttr:
		y, ok := b.(ArrayAttr)
		return ok && AttrListsEqual(x, y)
	case DictAttr:
		y, ok := b.(DictAttr)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, found := y[k]
			if !found || !AttrsEqual(v, w) {
				return false
			}
		}
		return true
	case TypeAttr:
		y, ok := b.(TypeAttr)
		return ok && TypesEqual(x.Type, y.Type)
	case *DynamicAttr:
		y, ok := b.(*DynamicAttr)
		return ok && x == y
	default:
		return false
	}
}

// AttrListsEqual compares two attribute lists element-wise.
func AttrListsEqual(a, b []Attr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !AttrsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func typeListsEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
