package ir

// Type is a sealed interface over IR types.
// Builtin types are plain values; dynamic types are interned pointers.
type Type interface {
	irType() // Sealed - only types in this package implement it
}

// Signedness distinguishes the three integer flavours.
type Signedness int

const (
	Signless Signedness = iota
	Signed
	Unsigned
)

// IntegerType is a fixed-width integer type: i32, si8, ui64.
type IntegerType struct {
	Width      int
	Signedness Signedness
}

func (IntegerType) irType() {}

// FloatType is an IEEE float type of width 16, 32 or 64.
type FloatType struct {
	Width int
}

func (FloatType) irType() {}

// IndexType is the target-sized index type.
type IndexType struct{}

func (IndexType) irType() {}

// NoneType is the unit type.
type NoneType struct{}

func (NoneType) irType() {}

// FunctionType maps input types to result types.
type FunctionType struct {
	Inputs  []Type
	Results []Type
}

func (FunctionType) irType() {}

// OpaqueType stands in for a type of a dialect that allows unknown types.
// Params are kept verbatim so the type prints back as it was read.
type OpaqueType struct {
	Dialect string
	Name    string
	Params  []Attr
}

func (OpaqueType) irType() {}

// Commonly used builtin types.
var (
	I1    Type = IntegerType{Width: 1}
	I8    Type = IntegerType{Width: 8}
	I16   Type = IntegerType{Width: 16}
	I32   Type = IntegerType{Width: 32}
	I64   Type = IntegerType{Width: 64}
	F16   Type = FloatType{Width: 16}
	F32   Type = FloatType{Width: 32}
	F64   Type = FloatType{Width: 64}
	Index Type = IndexType{}
	None  Type = NoneType{}
)

// NewIntegerType creates a signless integer type of the given width.
func NewIntegerType(width int) IntegerType {
	return IntegerType{Width: width}
}

// NewFunctionType creates a function type.
func NewFunctionType(inputs, results []Type) FunctionType {
	return FunctionType{Inputs: inputs, Results: results}
}
