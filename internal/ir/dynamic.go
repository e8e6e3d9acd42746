package ir

import "fmt"

// InstanceID numbers interned dynamic instances within one uniquing store.
// Zero is the sentinel for "not interned".
type InstanceID uint32

// NoInstanceID is the zero sentinel.
const NoInstanceID InstanceID = 0

// IsValid returns true if the ID is valid (non-zero).
func (id InstanceID) IsValid() bool { return id != NoInstanceID }

// Definition is the schema side of a dynamic instance. Instances only hold
// a non-owning reference to it; the dialect owns the schema.
type Definition interface {
	DialectName() string
	Name() string
}

// QualifiedName returns "dialect.name" for a definition.
func QualifiedName(def Definition) string {
	return def.DialectName() + "." + def.Name()
}

// DynamicType is a concrete instance of a runtime-declared type schema.
// Instances are created only through a uniquing store; two structurally
// equal instances of the same store are the same pointer.
type DynamicType struct {
	def    Definition
	params []Attr
	id     InstanceID
}

func (*DynamicType) irType() {}

// NewDynamicType creates a dynamic type instance.
// Only uniquing stores should call this; everyone else asks a schema.
func NewDynamicType(def Definition, params []Attr, id InstanceID) *DynamicType {
	return &DynamicType{def: def, params: params, id: id}
}

// Def returns the schema the instance conforms to.
func (t *DynamicType) Def() Definition { return t.def }

// Params returns the instance parameters in declared order.
// The slice is shared with the store and must not be modified.
func (t *DynamicType) Params() []Attr { return t.params }

// ID returns the store-assigned instance number.
func (t *DynamicType) ID() InstanceID { return t.id }

func (t *DynamicType) String() string {
	return fmt.Sprintf("!%s#%d", QualifiedName(t.def), t.id)
}

// DynamicAttr is a concrete instance of a runtime-declared attribute schema.
type DynamicAttr struct {
	def    Definition
	params []Attr
	id     InstanceID
}

func (*DynamicAttr) irAttr() {}

// NewDynamicAttr creates a dynamic attribute instance.
// Only uniquing stores should call this.
func NewDynamicAttr(def Definition, params []Attr, id InstanceID) *DynamicAttr {
	return &DynamicAttr{def: def, params: params, id: id}
}

// Def returns the schema the instance conforms to.
func (a *DynamicAttr) Def() Definition { return a.def }

// Params returns the instance parameters in declared order.
// The slice is shared with the store and must not be modified.
func (a *DynamicAttr) Params() []Attr { return a.params }

// ID returns the store-assigned instance number.
func (a *DynamicAttr) ID() InstanceID { return a.id }

func (a *DynamicAttr) String() string {
	return fmt.Sprintf("#%s#%d", QualifiedName(a.def), a.id)
}
