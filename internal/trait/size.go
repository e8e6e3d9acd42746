package trait

import (
	"fmt"

	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

// Side selects operands or results.
type Side int

const (
	Operands Side = iota
	Results
)

func (s Side) String() string {
	if s == Results {
		return "result"
	}
	return "operand"
}

// Size specifier trait names.
const (
	SameVariadicOperandSizes = "SameVariadicOperandSizes"
	SameVariadicResultSizes  = "SameVariadicResultSizes"
	SizedOperandSegments     = "SizedOperandSegments"
	SizedResultSegments      = "SizedResultSegments"

	// SameVariadicSizes and SizedSegments apply to both sides.
	SameVariadicSizes = "SameVariadicSizes"
	SizedSegments     = "SizedSegments"
)

// Segment size attribute names read by the segment traits.
const (
	OperandSegmentSizesAttr = "operand_segment_sizes"
	ResultSegmentSizesAttr  = "result_segment_sizes"
)

// SizeSpecifier decides how many values each variadic group binds.
type SizeSpecifier interface {
	Trait
	GroupSizes(op *ir.Operation, side Side, groups []constraint.ValueConstraint) ([]int, error)
}

// SizeGroup is one row of the exclusivity table: when RequiredWhen holds
// for a signature, exactly one trait from Exclusive must be attached;
// attaching more than one is always a conflict.
type SizeGroup struct {
	Side         Side
	RequiredWhen func(sig constraint.OpType) bool
	Exclusive    []string
}

// SizeSpecifierGroups is the declarative exclusivity table checked at
// operation schema registration.
var SizeSpecifierGroups = []SizeGroup{
	{
		Side:         Operands,
		RequiredWhen: func(sig constraint.OpType) bool { return sig.VariadicOperands() > 1 },
		Exclusive:    []string{SameVariadicOperandSizes, SizedOperandSegments, SameVariadicSizes, SizedSegments},
	},
	{
		Side:         Results,
		RequiredWhen: func(sig constraint.OpType) bool { return sig.VariadicResults() > 1 },
		Exclusive:    []string{SameVariadicResultSizes, SizedResultSegments, SameVariadicSizes, SizedSegments},
	},
}

// SpecifierError reports a size specifier rule violation for one side.
// Conflicting is empty when the specifier is missing.
type SpecifierError struct {
	Side        Side
	Conflicting []string
}

func (e *SpecifierError) Error() string {
	if e.Missing() {
		return fmt.Sprintf("more than one variadic %s group requires one of the size specifier traits", e.Side)
	}
	return fmt.Sprintf("conflicting %s size specifier traits %v", e.Side, e.Conflicting)
}

// Missing reports whether the error is a missing rather than a
// conflicting specifier.
func (e *SpecifierError) Missing() bool {
	return len(e.Conflicting) == 0
}

// SelectSizeSpecifiers applies SizeSpecifierGroups to a signature and the
// trait names attached to it. It returns the selected trait name per side
// (absent when none is attached) or the first rule violation.
func SelectSizeSpecifiers(sig constraint.OpType, names []string) (map[Side]string, error) {
	attached := make(map[string]bool, len(names))
	for _, n := range names {
		attached[n] = true
	}
	selected := make(map[Side]string)
	for _, group := range SizeSpecifierGroups {
		var present []string
		for _, n := range group.Exclusive {
			if attached[n] {
				present = append(present, n)
			}
		}
		switch {
		case len(present) > 1:
			return nil, &SpecifierError{Side: group.Side, Conflicting: present}
		case len(present) == 1:
			selected[group.Side] = present[0]
		case group.RequiredWhen(sig):
			return nil, &SpecifierError{Side: group.Side}
		}
	}
	return selected, nil
}

// GroupSizes splits total values among groups. A nil or unneeded
// specifier falls back to the direct split, which binds one value per
// non-variadic group and the remainder to the single variadic group.
func GroupSizes(op *ir.Operation, side Side, groups []constraint.ValueConstraint, spec SizeSpecifier) ([]int, error) {
	if constraint.CountVariadic(groups) > 1 {
		if spec == nil {
			return nil, fmt.Errorf("%d variadic %s groups without a size specifier", constraint.CountVariadic(groups), side)
		}
		return spec.GroupSizes(op, side, groups)
	}
	return directSizes(sideCount(op, side), side, groups)
}

func directSizes(total int, side Side, groups []constraint.ValueConstraint) ([]int, error) {
	fixed := len(groups) - constraint.CountVariadic(groups)
	sizes := make([]int, len(groups))
	if constraint.CountVariadic(groups) == 0 {
		if total != len(groups) {
			return nil, fmt.Errorf("expected %d %ss, got %d", len(groups), side, total)
		}
		for i := range sizes {
			sizes[i] = 1
		}
		return sizes, nil
	}
	if total < fixed {
		return nil, fmt.Errorf("expected at least %d %ss, got %d", fixed, side, total)
	}
	for i, g := range groups {
		sizes[i] = 1
		if g.Variadic {
			sizes[i] = total - fixed
		}
	}
	return sizes, nil
}

func sideCount(op *ir.Operation, side Side) int {
	if side == Results {
		return len(op.Results)
	}
	return len(op.Operands)
}

// sameSizes splits the variadic remainder evenly.
type sameSizes struct {
	name  string
	sides []Side
	sig   constraint.OpType
}

func (t *sameSizes) Name() string { return t.name }

func (t *sameSizes) GroupSizes(op *ir.Operation, side Side, groups []constraint.ValueConstraint) ([]int, error) {
	total := sideCount(op, side)
	nvar := constraint.CountVariadic(groups)
	fixed := len(groups) - nvar
	if nvar == 0 {
		return directSizes(total, side, groups)
	}
	rest := total - fixed
	if rest < 0 {
		return nil, fmt.Errorf("expected at least %d %ss, got %d", fixed, side, total)
	}
	if rest%nvar != 0 {
		return nil, fmt.Errorf("%d variadic %ss cannot be split evenly among %d groups", rest, side, nvar)
	}
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = 1
		if g.Variadic {
			sizes[i] = rest / nvar
		}
	}
	return sizes, nil
}

func (t *sameSizes) Verify(op *ir.Operation) error {
	return verifySides(t, t.sides, t.sig, op)
}

// segmentSizes reads explicit group sizes from an attribute.
type segmentSizes struct {
	name  string
	sides []Side
	sig   constraint.OpType
}

func (t *segmentSizes) Name() string { return t.name }

func (t *segmentSizes) GroupSizes(op *ir.Operation, side Side, groups []constraint.ValueConstraint) ([]int, error) {
	attrName := OperandSegmentSizesAttr
	if side == Results {
		attrName = ResultSegmentSizesAttr
	}
	raw, ok := op.Attrs.Get(attrName)
	if !ok {
		return nil, fmt.Errorf("missing %s attribute", attrName)
	}
	arr, ok := raw.(ir.ArrayAttr)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of integers", attrName)
	}
	if len(arr) != len(groups) {
		return nil, fmt.Errorf("%s has %d entries, expected %d", attrName, len(arr), len(groups))
	}
	sizes := make([]int, len(arr))
	sum := 0
	for i, a := range arr {
		n, ok := a.(ir.IntAttr)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%s entry %d must be a non-negative integer", attrName, i)
		}
		if !groups[i].Variadic && n != 1 {
			return nil, fmt.Errorf("%s entry %d is %d, but %s group %d is not variadic", attrName, i, n, side, i)
		}
		sizes[i] = int(n)
		sum += int(n)
	}
	if total := sideCount(op, side); sum != total {
		return nil, fmt.Errorf("%s sums to %d, but op has %d %ss", attrName, sum, total, side)
	}
	return sizes, nil
}

func (t *segmentSizes) Verify(op *ir.Operation) error {
	return verifySides(t, t.sides, t.sig, op)
}

func verifySides(spec SizeSpecifier, sides []Side, sig constraint.OpType, op *ir.Operation) error {
	for _, side := range sides {
		groups := sig.Operands
		if side == Results {
			groups = sig.Results
		}
		if constraint.CountVariadic(groups) <= 1 {
			continue
		}
		if _, err := spec.GroupSizes(op, side, groups); err != nil {
			return err
		}
	}
	return nil
}

func sizeFactory(name string, sides []Side, segments bool) Factory {
	return func(cfg Config) (Trait, error) {
		if len(cfg.Args) != 0 {
			return nil, fmt.Errorf("trait %s takes no arguments, got %d", name, len(cfg.Args))
		}
		if segments {
			return &segmentSizes{name: name, sides: sides, sig: cfg.Signature}, nil
		}
		return &sameSizes{name: name, sides: sides, sig: cfg.Signature}, nil
	}
}
