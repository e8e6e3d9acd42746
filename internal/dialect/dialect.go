package dialect

import (
	"strings"
)

// Dialect is the immutable set of schemas owned by one namespace. It is
// produced by Builder.Build and safe for concurrent use.
type Dialect struct {
	ctx  *Context
	name string

	allowUnknownOps   bool
	allowUnknownTypes bool

	types map[string]*TypeSchema
	attrs map[string]*AttrSchema
	ops   map[string]*OpSchema

	// declaration order, for printing and listing
	typeOrder []*TypeSchema
	attrOrder []*AttrSchema
	opOrder   []*OpSchema

	rejected []error
}

// Name returns the dialect namespace.
func (d *Dialect) Name() string { return d.name }

// Context returns the context the dialect is registered with.
func (d *Dialect) Context() *Context { return d.ctx }

// AllowUnknownOps reports whether ops without a schema pass verification.
func (d *Dialect) AllowUnknownOps() bool { return d.allowUnknownOps }

// AllowUnknownTypes reports whether unregistered type names parse as
// opaque types.
func (d *Dialect) AllowUnknownTypes() bool { return d.allowUnknownTypes }

// Type looks up a type schema by unqualified name.
func (d *Dialect) Type(name string) (*TypeSchema, bool) {
	s, ok := d.types[name]
	return s, ok
}

// Attr looks up an attribute schema by unqualified name.
func (d *Dialect) Attr(name string) (*AttrSchema, bool) {
	s, ok := d.attrs[name]
	return s, ok
}

// Op looks up an op schema by unqualified ("add") or full ("toy.add")
// name.
func (d *Dialect) Op(name string) (*OpSchema, bool) {
	if rest, ok := strings.CutPrefix(name, d.name+"."); ok {
		name = rest
	}
	s, ok := d.ops[name]
	return s, ok
}

// Types returns the type schemas in declaration order.
func (d *Dialect) Types() []*TypeSchema { return d.typeOrder }

// Attrs returns the attribute schemas in declaration order.
func (d *Dialect) Attrs() []*AttrSchema { return d.attrOrder }

// Ops returns the op schemas in declaration order.
func (d *Dialect) Ops() []*OpSchema { return d.opOrder }

// Rejected returns the op-scoped registration errors (trait conflicts,
// unknown traits) for ops that were left out of the dialect.
func (d *Dialect) Rejected() []error { return d.rejected }
