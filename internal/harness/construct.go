package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/dynir/internal/dialect"
	"github.com/roach88/dynir/internal/ir"
)

// scope maps value references to values. Each block opens a child scope.
type scope struct {
	parent *scope
	values map[string]*ir.Value
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, values: make(map[string]*ir.Value)}
}

func (s *scope) lookup(ref string) (*ir.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.values[ref]; ok {
			return v, true
		}
	}
	return nil, false
}

// define registers op's results under %id and %id#N.
func (s *scope) define(id string, op *ir.Operation) {
	if id == "" {
		return
	}
	for i, v := range op.Results {
		ref := "%" + id + "#" + strconv.Itoa(i)
		s.values[ref] = v
		if i == 0 {
			s.values["%"+id] = v
		}
	}
}

// constructor turns op steps into operations, resolving type and
// attribute text against the context's dialects.
type constructor struct {
	ctx *dialect.Context
	loc ir.Location
}

func (c *constructor) build(step OpStep, sc *scope) (*ir.Operation, error) {
	operands := make([]*ir.Value, len(step.Operands))
	for i, src := range step.Operands {
		v, err := c.value(src, sc)
		if err != nil {
			return nil, fmt.Errorf("%s: operand #%d: %w", step.Op, i, err)
		}
		operands[i] = v
	}

	results := make([]ir.Type, len(step.Results))
	for i, src := range step.Results {
		t, err := c.ctx.ParseType(src)
		if err != nil {
			return nil, fmt.Errorf("%s: result #%d: %w", step.Op, i, err)
		}
		results[i] = t
	}

	var attrs ir.DictAttr
	if strings.TrimSpace(step.Attrs) != "" {
		a, err := c.ctx.ParseAttr(step.Attrs)
		if err != nil {
			return nil, fmt.Errorf("%s: attrs: %w", step.Op, err)
		}
		dict, ok := a.(ir.DictAttr)
		if !ok {
			return nil, fmt.Errorf("%s: attrs must be a dictionary, got %T", step.Op, a)
		}
		attrs = dict
	}

	regions := make([]*ir.Region, len(step.Regions))
	for i, rs := range step.Regions {
		r, err := c.region(rs, sc)
		if err != nil {
			return nil, fmt.Errorf("%s: region #%d: %w", step.Op, i, err)
		}
		regions[i] = r
	}

	successors := make([]*ir.Block, step.Successors)
	for i := range successors {
		successors[i] = ir.NewBlock()
	}

	return ir.NewOperation(ir.OperationState{
		Name:        step.Op,
		Loc:         c.loc,
		Operands:    operands,
		ResultTypes: results,
		Attrs:       attrs,
		Regions:     regions,
		Successors:  successors,
	}), nil
}

func (c *constructor) region(rs RegionStep, sc *scope) (*ir.Region, error) {
	blocks := make([]*ir.Block, len(rs.Blocks))
	for i, bs := range rs.Blocks {
		argTypes := make([]ir.Type, len(bs.Args))
		for j, src := range bs.Args {
			t, err := c.ctx.ParseType(src)
			if err != nil {
				return nil, fmt.Errorf("block #%d: arg #%d: %w", i, j, err)
			}
			argTypes[j] = t
		}
		b := ir.NewBlock(argTypes...)
		inner := newScope(sc)
		for j, arg := range b.Args {
			inner.values["%arg"+strconv.Itoa(j)] = arg
		}
		for _, step := range bs.Ops {
			op, err := c.build(step, inner)
			if err != nil {
				return nil, fmt.Errorf("block #%d: %w", i, err)
			}
			b.Append(op)
			inner.define(step.ID, op)
		}
		blocks[i] = b
	}
	return ir.NewRegion(blocks...), nil
}

// value resolves a reference or creates a free value of the given type.
func (c *constructor) value(src string, sc *scope) (*ir.Value, error) {
	if strings.HasPrefix(src, "%") {
		v, ok := sc.lookup(src)
		if !ok {
			return nil, fmt.Errorf("undefined value %s", src)
		}
		return v, nil
	}
	t, err := c.ctx.ParseType(src)
	if err != nil {
		return nil, err
	}
	return ir.NewValue(t), nil
}
