package constraint

import (
	"strconv"

	"github.com/roach88/dynir/internal/ir"
)

// ValueConstraint constrains one operand or result position. A variadic
// constraint binds a run of zero or more values.
type ValueConstraint struct {
	Pred     TypePred
	Variadic bool
}

// Value constrains exactly one value.
func Value(p TypePred) ValueConstraint {
	return ValueConstraint{Pred: p}
}

// Variadic constrains a run of values, each satisfying p.
func Variadic(p TypePred) ValueConstraint {
	return ValueConstraint{Pred: p, Variadic: true}
}

func (c ValueConstraint) String() string {
	if c.Variadic {
		return "Variadic<" + c.Pred.String() + ">"
	}
	return c.Pred.String()
}

// CountVariadic returns how many constraints in cs are variadic.
func CountVariadic(cs []ValueConstraint) int {
	n := 0
	for _, c := range cs {
		if c.Variadic {
			n++
		}
	}
	return n
}

// OpType is the function type of an operation: ordered operand and
// result constraints.
type OpType struct {
	Operands []ValueConstraint
	Results  []ValueConstraint
}

// VariadicOperands returns the number of variadic operand groups.
func (t OpType) VariadicOperands() int { return CountVariadic(t.Operands) }

// VariadicResults returns the number of variadic result groups.
func (t OpType) VariadicResults() int { return CountVariadic(t.Results) }

// AttrConstraint constrains the named entry of an op's attribute
// dictionary.
type AttrConstraint struct {
	Name     string
	Pred     AttrPred
	Optional bool
}

func (c AttrConstraint) String() string {
	if c.Optional {
		return c.Name + ": OptionalAttr<" + c.Pred.String() + ">"
	}
	return c.Name + ": " + c.Pred.String()
}

// RegionConstraint constrains one region position. Blocks < 0 accepts
// any number of blocks.
type RegionConstraint struct {
	Blocks   int
	Variadic bool
}

// AnyRegion accepts any single region.
var AnyRegion = RegionConstraint{Blocks: -1}

// SizedRegion accepts a region with exactly n blocks.
func SizedRegion(n int) RegionConstraint {
	return RegionConstraint{Blocks: n}
}

// VariadicRegion turns c into a trailing run of zero or more regions.
func VariadicRegion(c RegionConstraint) RegionConstraint {
	c.Variadic = true
	return c
}

// Check reports whether r satisfies the block-count constraint.
func (c RegionConstraint) Check(r *ir.Region) bool {
	return c.Blocks < 0 || (r != nil && len(r.Blocks) == c.Blocks)
}

func (c RegionConstraint) String() string {
	s := "Any"
	if c.Blocks >= 0 {
		s = "Sized<" + strconv.Itoa(c.Blocks) + ">"
	}
	if c.Variadic {
		return "Variadic<" + s + ">"
	}
	return s
}

// OpRegion lists the region constraints of an op. Only the last entry
// may be variadic.
type OpRegion []RegionConstraint

// Accepts reports whether an op with n regions matches the list length.
func (r OpRegion) Accepts(n int) bool {
	return acceptsCount(len(r), r.trailingVariadic(), n)
}

// At returns the constraint governing region i. Regions past the end
// are governed by the trailing variadic constraint.
func (r OpRegion) At(i int) RegionConstraint {
	if i >= len(r) {
		return r[len(r)-1]
	}
	return r[i]
}

// Expected renders the accepted region count for diagnostics.
func (r OpRegion) Expected() string {
	return expectedCount(len(r), r.trailingVariadic())
}

func (r OpRegion) trailingVariadic() bool {
	return len(r) > 0 && r[len(r)-1].Variadic
}

// SuccessorConstraint constrains one successor position.
type SuccessorConstraint struct {
	Variadic bool
}

// AnySuccessor accepts any single successor block.
var AnySuccessor = SuccessorConstraint{}

// VariadicSuccessor accepts a trailing run of successors.
var VariadicSuccessor = SuccessorConstraint{Variadic: true}

func (c SuccessorConstraint) String() string {
	if c.Variadic {
		return "Variadic<Any>"
	}
	return "Any"
}

// OpSuccessor lists the successor constraints of an op.
type OpSuccessor []SuccessorConstraint

// Accepts reports whether an op with n successors matches.
func (s OpSuccessor) Accepts(n int) bool {
	return acceptsCount(len(s), len(s) > 0 && s[len(s)-1].Variadic, n)
}

// Expected renders the accepted successor count for diagnostics.
func (s OpSuccessor) Expected() string {
	return expectedCount(len(s), len(s) > 0 && s[len(s)-1].Variadic)
}

func expectedCount(declared int, variadic bool) string {
	if variadic {
		return "at least " + strconv.Itoa(declared-1)
	}
	return strconv.Itoa(declared)
}

func acceptsCount(declared int, variadic bool, n int) bool {
	if variadic {
		return n >= declared-1
	}
	return n == declared
}
