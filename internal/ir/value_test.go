package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Attr = UnitAttr{}
	var _ Attr = BoolAttr(true)
	var _ Attr = IntAttr(42)
	var _ Attr = NewFloatAttr(1.5)
	var _ Attr = StringAttr("x")
	var _ Attr = SymbolRefAttr("main")
	var _ Attr = ArrayAttr{IntAttr(1)}
	var _ Attr = DictAttr{"k": IntAttr(1)}
	var _ Attr = TypeAttr{Type: I32}
	var _ Attr = &DynamicAttr{}
}

func TestTypeSealed(t *testing.T) {
	var _ Type = IntegerType{Width: 32}
	var _ Type = FloatType{Width: 64}
	var _ Type = IndexType{}
	var _ Type = NoneType{}
	var _ Type = FunctionType{}
	var _ Type = OpaqueType{}
	var _ Type = &DynamicType{}
}

func TestDictAttrSortedKeysRFC8785Order(t *testing.T) {
	d := DictAttr{
		"a":  IntAttr(1),
		"A":  IntAttr(2),
		"aa": IntAttr(3),
		"aA": IntAttr(4),
		"Aa": IntAttr(5),
		"AA": IntAttr(6),
	}

	// 'A' = 65 sorts before 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, d.SortedKeys())
}

func TestDictAttrSortedKeysSurrogates(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800 ...) which sorts
	// before U+FFFD in UTF-16 but after it in UTF-8.
	d := DictAttr{"\U00010000": UnitAttr{}, "\uFFFD": UnitAttr{}}
	assert.Equal(t, []string{"\U00010000", "\uFFFD"}, d.SortedKeys())
}

func TestNewDictAttr(t *testing.T) {
	d := NewDictAttr(N("lhs", IntAttr(1)), N("rhs", StringAttr("x")))
	require.Len(t, d, 2)

	v, ok := d.Get("rhs")
	require.True(t, ok)
	assert.Equal(t, StringAttr("x"), v)

	_, ok = d.Get("missing")
	assert.False(t, ok)
}

func TestFloatAttrFromString(t *testing.T) {
	f, err := NewFloatAttrFromString("2.50")
	require.NoError(t, err)
	assert.True(t, AttrsEqual(f, NewFloatAttr(2.5)), "2.50 and 2.5 are the same decimal")

	_, err = NewFloatAttrFromString("two")
	assert.Error(t, err)
}

func TestAttrsEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Attr
		equal bool
	}{
		{"same int", IntAttr(1), IntAttr(1), true},
		{"different int", IntAttr(1), IntAttr(2), false},
		{"int vs bool", IntAttr(1), BoolAttr(true), false},
		{"string vs symbol", StringAttr("f"), SymbolRefAttr("f"), false},
		{"nested arrays", ArrayAttr{ArrayAttr{IntAttr(1)}}, ArrayAttr{ArrayAttr{IntAttr(1)}}, true},
		{"array length", ArrayAttr{IntAttr(1)}, ArrayAttr{IntAttr(1), IntAttr(1)}, false},
		{"dicts", DictAttr{"a": IntAttr(1)}, DictAttr{"a": IntAttr(1)}, true},
		{"dict keys", DictAttr{"a": IntAttr(1)}, DictAttr{"b": IntAttr(1)}, false},
		{"type attrs", TypeAttr{Type: I32}, TypeAttr{Type: NewIntegerType(32)}, true},
		{"type attr widths", TypeAttr{Type: I32}, TypeAttr{Type: I64}, false},
		{"unit", UnitAttr{}, UnitAttr{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, AttrsEqual(tt.a, tt.b))
			assert.Equal(t, tt.equal, AttrsEqual(tt.b, tt.a), "equality must be symmetric")
		})
	}
}

func TestTypesEqual(t *testing.T) {
	fn1 := NewFunctionType([]Type{I32, F32}, []Type{I64})
	fn2 := NewFunctionType([]Type{I32, F32}, []Type{I64})
	fn3 := NewFunctionType([]Type{I32}, []Type{I64})

	assert.True(t, TypesEqual(fn1, fn2))
	assert.False(t, TypesEqual(fn1, fn3))
	assert.False(t, TypesEqual(I32, IntegerType{Width: 32, Signedness: Signed}))
	assert.True(t, TypesEqual(Index, IndexType{}))
	assert.False(t, TypesEqual(Index, None))

	def := testDef{"toy", "box"}
	d1 := NewDynamicType(def, []Attr{TypeAttr{Type: I32}}, 1)
	d2 := NewDynamicType(def, []Attr{TypeAttr{Type: I32}}, 2)
	assert.True(t, TypesEqual(d1, d1))
	assert.False(t, TypesEqual(d1, d2), "dynamic types compare by identity")
}

type testDef struct{ dialect, name string }

func (d testDef) DialectName() string { return d.dialect }
func (d testDef) Name() string        { return d.name }
