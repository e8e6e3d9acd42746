package dialect

import (
	"strings"

	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

// Param is one named, positional construction parameter.
type Param struct {
	Name string
	Pred constraint.AttrPred
}

// ParamSpec is the ordered parameter list of a type or attribute schema.
type ParamSpec []Param

// Validate checks params against s: arity first, then each
// position in order. The first failure is returned.
func (s ParamSpec) Validate(schema string, loc ir.Location, params []ir.Attr) error {
	if len(params) != len(s) {
		return &ConstraintError{
			Code:     ErrCodeArity,
			Schema:   schema,
			Loc:      loc,
			Expected: len(s),
			Got:      len(params),
		}
	}
	for i, p := range s {
		if !p.Pred.Check(params[i]) {
			return &ConstraintError{
				Code:     ErrCodeConstraintViolation,
				Schema:   schema,
				Loc:      loc,
				Position: i,
				Name:     p.Name,
				Reason:   p.Pred.String(),
			}
		}
	}
	return nil
}

func (s ParamSpec) String() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.Name + ": " + p.Pred.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
