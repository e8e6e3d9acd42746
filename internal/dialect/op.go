package dialect

import (
	"fmt"
	"strings"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
	"github.com/roach88/dynir/internal/trait"
)

// Flags are the boolean op properties. All default to false.
type Flags struct {
	IsTerminator        bool
	IsCommutative       bool
	IsIsolatedFromAbove bool
}

// TraitRef names a trait and its arguments as written in a declaration.
type TraitRef struct {
	Name string
	Args []ir.Attr
}

func (r TraitRef) String() string {
	if len(r.Args) == 0 {
		return r.Name
	}
	p := asm.NewPrinter()
	p.WriteString(r.Name)
	p.PrintParamList(r.Args)
	return p.String()
}

// Traits is a convenience for argument-less trait references.
func Traits(names ...string) []TraitRef {
	refs := make([]TraitRef, len(names))
	for i, n := range names {
		refs[i] = TraitRef{Name: n}
	}
	return refs
}

// OpSpec declares an operation schema.
type OpSpec struct {
	Name       string
	Signature  constraint.OpType
	Attrs      []constraint.AttrConstraint
	Regions    constraint.OpRegion
	Successors constraint.OpSuccessor
	Traits     []TraitRef
	Flags      Flags
}

// OpSchema is a registered operation kind. Trait names are resolved to
// Trait values at registration and never looked up again.
type OpSchema struct {
	dialect *Dialect
	spec    OpSpec
	traits  []trait.Trait
	sizers  map[trait.Side]trait.SizeSpecifier
}

// Name returns the unqualified op name.
func (s *OpSchema) Name() string { return s.spec.Name }

// FullName returns "dialect.name", the name ops carry.
func (s *OpSchema) FullName() string { return s.dialect.name + "." + s.spec.Name }

// Dialect returns the owning dialect.
func (s *OpSchema) Dialect() *Dialect { return s.dialect }

// Signature returns the operand/result constraints.
func (s *OpSchema) Signature() constraint.OpType { return s.spec.Signature }

// Attrs returns the attribute constraints in declared order.
func (s *OpSchema) Attrs() []constraint.AttrConstraint { return s.spec.Attrs }

// Regions returns the region constraints.
func (s *OpSchema) Regions() constraint.OpRegion { return s.spec.Regions }

// Successors returns the successor constraints.
func (s *OpSchema) Successors() constraint.OpSuccessor { return s.spec.Successors }

// Flags returns the op flags.
func (s *OpSchema) Flags() Flags { return s.spec.Flags }

// TraitRefs returns the traits as declared.
func (s *OpSchema) TraitRefs() []TraitRef { return s.spec.Traits }

func (s *OpSchema) String() string {
	var sb strings.Builder
	sb.WriteString("Op " + s.spec.Name + "(")
	sb.WriteString(joinStrings(s.spec.Signature.Operands))
	sb.WriteString(") -> (")
	sb.WriteString(joinStrings(s.spec.Signature.Results))
	sb.WriteString(")")
	return sb.String()
}

func joinStrings[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ", ")
}

// Verify checks op against the schema. Checks run in a fixed order
// (operands, results, attributes, regions, successors, flags, then
// traits in declaration order) and the first failure is returned as a
// *Diagnostic. Verify never mutates op.
func (s *OpSchema) Verify(op *ir.Operation) error {
	if err := s.verifyValues(op, trait.Operands); err != nil {
		return err
	}
	if err := s.verifyValues(op, trait.Results); err != nil {
		return err
	}
	if err := s.verifyAttrs(op); err != nil {
		return err
	}
	if err := s.verifyRegions(op); err != nil {
		return err
	}
	if !s.spec.Successors.Accepts(len(op.Successors)) {
		return s.diag(op, DiagSuccessorCount, "",
			"requires %s successors, got %d", s.spec.Successors.Expected(), len(op.Successors))
	}
	if err := s.verifyFlags(op); err != nil {
		return err
	}
	for _, t := range s.traits {
		if err := t.Verify(op); err != nil {
			return s.diag(op, DiagTraitFailed, t.Name(), "failed to verify trait %s: %v", t.Name(), err)
		}
	}
	return nil
}

func (s *OpSchema) verifyValues(op *ir.Operation, side trait.Side) error {
	groups, values := s.spec.Signature.Operands, op.Operands
	countCode, typeCode := DiagOperandCount, DiagOperandType
	if side == trait.Results {
		groups, values = s.spec.Signature.Results, op.Results
		countCode, typeCode = DiagResultCount, DiagResultType
	}

	sizes, err := trait.GroupSizes(op, side, groups, s.sizers[side])
	if err != nil {
		return s.diag(op, countCode, "", "%v", err)
	}
	idx := 0
	for g, size := range sizes {
		for k := 0; k < size; k++ {
			v := values[idx]
			if !groups[g].Pred.Check(v.Type) {
				return s.diag(op, typeCode, "", "%s #%d must be %s, got %s",
					side, idx, groups[g].Pred, asm.TypeString(v.Type))
			}
			idx++
		}
	}
	return nil
}

func (s *OpSchema) verifyAttrs(op *ir.Operation) error {
	for _, c := range s.spec.Attrs {
		v, ok := op.Attrs.Get(c.Name)
		if !ok {
			if c.Optional {
				continue
			}
			return s.diag(op, DiagAttributeConstraint, c.Name, "requires attribute '%s'", c.Name)
		}
		if !c.Pred.Check(v) {
			return s.diag(op, DiagAttributeConstraint, c.Name,
				"attribute '%s' must be %s, got %s", c.Name, c.Pred, asm.AttrString(v))
		}
	}
	return nil
}

func (s *OpSchema) verifyRegions(op *ir.Operation) error {
	regions := s.spec.Regions
	if !regions.Accepts(len(op.Regions)) {
		return s.diag(op, DiagRegionCount, "", "requires %s regions, got %d", regions.Expected(), len(op.Regions))
	}
	for i, r := range op.Regions {
		if c := regions.At(i); !c.Check(r) {
			return s.diag(op, DiagRegionConstraint, "", "region #%d must be %s, got %d blocks", i, c, len(r.Blocks))
		}
	}
	return nil
}

func (s *OpSchema) verifyFlags(op *ir.Operation) error {
	if s.spec.Flags.IsTerminator {
		if b := op.Block(); b != nil && b.Ops[len(b.Ops)-1] != op {
			return s.diag(op, DiagTerminator, "", "is a terminator and must be the last operation in its block")
		}
	}
	if s.spec.Flags.IsIsolatedFromAbove {
		var leak *ir.Value
		op.Walk(func(nested *ir.Operation) {
			if leak != nil || nested == op {
				return
			}
			for _, v := range nested.Operands {
				if !ir.IsDefinedWithin(v, op) {
					leak = v
					return
				}
			}
		})
		if leak != nil {
			return s.diag(op, DiagIsolation, "",
				"is isolated from above but its body uses %s of type %s defined outside it",
				describeValue(leak), asm.TypeString(leak.Type))
		}
	}
	return nil
}

// describeValue names where v comes from for diagnostics.
func describeValue(v *ir.Value) string {
	switch {
	case v.DefiningOp() != nil:
		return fmt.Sprintf("result #%d of '%s'", v.Index(), v.DefiningOp().Name)
	case v.ParentBlock() != nil:
		return fmt.Sprintf("block argument #%d", v.Index())
	default:
		return "a free value"
	}
}

func (s *OpSchema) diag(op *ir.Operation, code DiagnosticCode, subject, format string, args ...any) error {
	return &Diagnostic{
		Code:    code,
		Op:      op.Name,
		Loc:     op.Loc,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
	}
}
