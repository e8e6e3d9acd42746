package trait

import (
	"fmt"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
)

func builtins() map[string]Factory {
	both := []Side{Operands, Results}
	return map[string]Factory{
		SameVariadicOperandSizes: sizeFactory(SameVariadicOperandSizes, []Side{Operands}, false),
		SameVariadicResultSizes:  sizeFactory(SameVariadicResultSizes, []Side{Results}, false),
		SameVariadicSizes:        sizeFactory(SameVariadicSizes, both, false),
		SizedOperandSegments:     sizeFactory(SizedOperandSegments, []Side{Operands}, true),
		SizedResultSegments:      sizeFactory(SizedResultSegments, []Side{Results}, true),
		SizedSegments:            sizeFactory(SizedSegments, both, true),

		"SameOperandsAndResultType": Simple(Func("SameOperandsAndResultType", verifySameOperandsAndResultType)),
		"SameTypeOperands":          Simple(Func("SameTypeOperands", verifySameTypeOperands)),
		"ZeroOperands":              Simple(countTrait("ZeroOperands", "operands", 0, operandCount)),
		"ZeroResults":               Simple(countTrait("ZeroResults", "results", 0, resultCount)),
		"OneResult":                 Simple(countTrait("OneResult", "results", 1, resultCount)),
		"ZeroRegions":               Simple(countTrait("ZeroRegions", "regions", 0, regionCount)),
		"ZeroSuccessors":            Simple(countTrait("ZeroSuccessors", "successors", 0, successorCount)),

		"NOperands": countFactory("NOperands", "operands", operandCount),
		"NResults":  countFactory("NResults", "results", resultCount),
		"NRegions":  countFactory("NRegions", "regions", regionCount),
	}
}

func operandCount(op *ir.Operation) int   { return len(op.Operands) }
func resultCount(op *ir.Operation) int    { return len(op.Results) }
func regionCount(op *ir.Operation) int    { return len(op.Regions) }
func successorCount(op *ir.Operation) int { return len(op.Successors) }

func countTrait(name, what string, want int, count func(*ir.Operation) int) Trait {
	return Func(name, func(op *ir.Operation) error {
		if got := count(op); got != want {
			return fmt.Errorf("requires %d %s, got %d", want, what, got)
		}
		return nil
	})
}

// countFactory builds parametrised count traits such as NOperands<2>.
func countFactory(name, what string, count func(*ir.Operation) int) Factory {
	return func(cfg Config) (Trait, error) {
		if len(cfg.Args) != 1 {
			return nil, fmt.Errorf("trait %s takes one integer argument, got %d", name, len(cfg.Args))
		}
		n, ok := cfg.Args[0].(ir.IntAttr)
		if !ok || n < 0 {
			return nil, fmt.Errorf("trait %s argument must be a non-negative integer, got %s", name, asm.AttrString(cfg.Args[0]))
		}
		return countTrait(name, what, int(n), count), nil
	}
}

func verifySameTypeOperands(op *ir.Operation) error {
	types := op.OperandTypes()
	for i := 1; i < len(types); i++ {
		if !ir.TypesEqual(types[0], types[i]) {
			return fmt.Errorf("requires all operands to have the same type, operand #%d is %s but operand #0 is %s",
				i, asm.TypeString(types[i]), asm.TypeString(types[0]))
		}
	}
	return nil
}

func verifySameOperandsAndResultType(op *ir.Operation) error {
	if err := verifySameTypeOperands(op); err != nil {
		return err
	}
	var want ir.Type
	switch {
	case len(op.Operands) > 0:
		want = op.Operands[0].Type
	case len(op.Results) > 0:
		want = op.Results[0].Type
	default:
		return nil
	}
	for i, r := range op.Results {
		if !ir.TypesEqual(want, r.Type) {
			return fmt.Errorf("requires the same type for all operands and results, result #%d is %s, expected %s",
				i, asm.TypeString(r.Type), asm.TypeString(want))
		}
	}
	return nil
}
