package ir

import (
	"slices"
	"unicode/utf16"

	"github.com/shopspring/decimal"
)

// Attr is a sealed interface representing immutable attribute values.
// Only the attribute kinds declared in this package implement it.
type Attr interface {
	irAttr() // Sealed - only these types implement it
}

// UnitAttr is the valueless attribute; its presence is the information.
type UnitAttr struct{}

func (UnitAttr) irAttr() {}

// BoolAttr represents a boolean attribute.
type BoolAttr bool

func (BoolAttr) irAttr() {}

// IntAttr represents an integer attribute.
// Always int64; width is a property of the constraint, not the value.
type IntAttr int64

func (IntAttr) irAttr() {}

// FloatAttr represents a floating point attribute as an exact decimal.
// Decimals keep structural equality and print/parse round trips lossless.
type FloatAttr struct {
	Value decimal.Decimal
}

func (FloatAttr) irAttr() {}

// StringAttr represents a string attribute.
type StringAttr string

func (StringAttr) irAttr() {}

// SymbolRefAttr references a symbol by name (printed as @name).
type SymbolRefAttr string

func (SymbolRefAttr) irAttr() {}

// ArrayAttr represents an ordered list of attributes.
type ArrayAttr []Attr

func (ArrayAttr) irAttr() {}

// DictAttr maps names to attributes.
// Use SortedKeys() for deterministic iteration.
type DictAttr map[string]Attr

func (DictAttr) irAttr() {}

// TypeAttr wraps a type so it can be used where attributes are expected,
// most commonly as a dynamic type parameter.
type TypeAttr struct {
	Type Type
}

func (TypeAttr) irAttr() {}

// NewFloatAttr creates a FloatAttr from a float64.
// Prefer NewFloatAttrFromString when the textual value is available.
func NewFloatAttr(f float64) FloatAttr {
	return FloatAttr{Value: decimal.NewFromFloat(f)}
}

// NewFloatAttrFromString parses an exact decimal literal.
func NewFloatAttrFromString(s string) (FloatAttr, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return FloatAttr{}, err
	}
	return FloatAttr{Value: d}, nil
}

// NewArrayAttr creates an ArrayAttr from values.
func NewArrayAttr(vals ...Attr) ArrayAttr {
	return ArrayAttr(vals)
}

// NewIntArrayAttr creates an ArrayAttr of IntAttr elements.
func NewIntArrayAttr(vals ...int64) ArrayAttr {
	arr := make(ArrayAttr, len(vals))
	for i, v := range vals {
		arr[i] = IntAttr(v)
	}
	return arr
}

// NamedAttr is a key-value pair for ordered DictAttr construction.
type NamedAttr struct {
	Name  string
	Value Attr
}

// N is a shorthand for NamedAttr.
// Example: NewDictAttr(N("lhs", IntAttr(1)), N("rhs", IntAttr(2)))
func N(name string, value Attr) NamedAttr {
	return NamedAttr{Name: name, Value: value}
}

// NewDictAttr creates a DictAttr from named attributes.
func NewDictAttr(attrs ...NamedAttr) DictAttr {
	dict := make(DictAttr, len(attrs))
	for _, a := range attrs {
		dict[a.Name] = a.Value
	}
	return dict
}

// Get returns the attribute stored under name, if any.
func (d DictAttr) Get(name string) (Attr, bool) {
	a, ok := d[name]
	return a, ok
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (d DictAttr) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
