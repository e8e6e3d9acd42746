package ir

import (
	"fmt"
	"strings"
)

// Location is a source position used to key diagnostics.
type Location struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// UnknownLoc is the location of things that came from nowhere in particular.
var UnknownLoc = Location{}

// IsValid reports whether the location carries a line number.
func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	if !l.IsValid() {
		if l.File != "" {
			return l.File
		}
		return "<unknown>"
	}
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Value is an SSA value: an operation result or a block argument.
type Value struct {
	Type Type

	op    *Operation // defining op for results
	block *Block     // owning block for arguments
	index int
}

// NewValue creates a free value: one with no defining op or block, e.g. a
// function argument supplied by an enclosing framework. Free values count
// as defined outside every op.
func NewValue(t Type) *Value {
	return &Value{Type: t}
}

// DefiningOp returns the op producing this value, or nil for block
// arguments and free values.
func (v *Value) DefiningOp() *Operation { return v.op }

// ParentBlock returns the block in which the value is defined, or nil if the
// value is free-standing or its defining op is not attached to a block.
func (v *Value) ParentBlock() *Block {
	if v.block != nil {
		return v.block
	}
	if v.op != nil {
		return v.op.block
	}
	return nil
}

// Index returns the result or argument number.
func (v *Value) Index() int { return v.index }

// Operation is a generic operation node.
// Verification never mutates an operation.
type Operation struct {
	Name       string
	Loc        Location
	Operands   []*Value
	Results    []*Value
	Attrs      DictAttr
	Regions    []*Region
	Successors []*Block

	block *Block
}

// OperationState collects everything needed to create an operation.
type OperationState struct {
	Name        string
	Loc         Location
	Operands    []*Value
	ResultTypes []Type
	Attrs       DictAttr
	Regions     []*Region
	Successors  []*Block
}

// NewOperation creates an operation and its result values.
func NewOperation(st OperationState) *Operation {
	op := &Operation{
		Name:       st.Name,
		Loc:        st.Loc,
		Operands:   st.Operands,
		Attrs:      st.Attrs,
		Regions:    st.Regions,
		Successors: st.Successors,
	}
	if op.Attrs == nil {
		op.Attrs = DictAttr{}
	}
	op.Results = make([]*Value, len(st.ResultTypes))
	for i, t := range st.ResultTypes {
		op.Results[i] = &Value{Type: t, op: op, index: i}
	}
	for _, r := range op.Regions {
		r.parent = op
	}
	return op
}

// Block returns the block containing the op, or nil if detached.
func (op *Operation) Block() *Block { return op.block }

// DialectName returns the namespace prefix of the op name ("toy" for "toy.add").
func (op *Operation) DialectName() string {
	name, _, found := strings.Cut(op.Name, ".")
	if !found {
		return ""
	}
	return name
}

// OperandTypes returns the types of all operands in order.
func (op *Operation) OperandTypes() []Type {
	return valueTypes(op.Operands)
}

// ResultTypes returns the types of all results in order.
func (op *Operation) ResultTypes() []Type {
	return valueTypes(op.Results)
}

// Walk visits op and every op nested in its regions, pre-order.
func (op *Operation) Walk(fn func(*Operation)) {
	fn(op)
	for _, r := range op.Regions {
		for _, b := range r.Blocks {
			for _, nested := range b.Ops {
				nested.Walk(fn)
			}
		}
	}
}

// IsAncestorOf reports whether other is nested (at any depth) inside op.
func (op *Operation) IsAncestorOf(other *Operation) bool {
	for cur := other.parentOp(); cur != nil; cur = cur.parentOp() {
		if cur == op {
			return true
		}
	}
	return false
}

func (op *Operation) parentOp() *Operation {
	if op.block == nil || op.block.parent == nil {
		return nil
	}
	return op.block.parent.parent
}

func valueTypes(vals []*Value) []Type {
	types := make([]Type, len(vals))
	for i, v := range vals {
		types[i] = v.Type
	}
	return types
}

// Region is an ordered list of blocks owned by an operation.
type Region struct {
	Blocks []*Block

	parent *Operation
}

// NewRegion creates a region holding the given blocks.
func NewRegion(blocks ...*Block) *Region {
	r := &Region{Blocks: blocks}
	for _, b := range blocks {
		b.parent = r
	}
	return r
}

// ParentOp returns the op owning the region.
func (r *Region) ParentOp() *Operation { return r.parent }

// Block is a list of operations with typed arguments.
type Block struct {
	Args []*Value
	Ops  []*Operation

	parent *Region
}

// NewBlock creates a block with arguments of the given types.
func NewBlock(argTypes ...Type) *Block {
	b := &Block{}
	b.Args = make([]*Value, len(argTypes))
	for i, t := range argTypes {
		b.Args[i] = &Value{Type: t, block: b, index: i}
	}
	return b
}

// Append adds op at the end of the block.
func (b *Block) Append(op *Operation) {
	op.block = b
	b.Ops = append(b.Ops, op)
}

// ParentRegion returns the region containing the block.
func (b *Block) ParentRegion() *Region { return b.parent }

// IsDefinedWithin reports whether v is defined in a block nested (at any
// depth) inside op's regions. Free values and values of detached blocks
// are never within.
func IsDefinedWithin(v *Value, op *Operation) bool {
	b := v.ParentBlock()
	if b == nil || b.ParentRegion() == nil {
		return false
	}
	owner := b.ParentRegion().ParentOp()
	return owner != nil && (owner == op || op.IsAncestorOf(owner))
}
