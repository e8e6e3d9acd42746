package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/trait"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedDecl = "E100" // unsupported value for validation

	// Naming errors (E101-E104)
	ErrInvalidDialectName = "E101" // empty, not an identifier, or contains '.'
	ErrDuplicateName      = "E102" // name reused across types, attrs and ops
	ErrInvalidSchemaName  = "E103" // schema name is not a plain identifier
	ErrDuplicateEntry     = "E104" // duplicate parameter or attribute name

	// Constraint errors (E105-E106)
	ErrInvalidConstraint = "E105" // constraint text does not parse
	ErrVariadicNotLast   = "E106" // variadic region/successor before the end

	// Trait errors (E107-E109)
	ErrInvalidTraitRef    = "E107" // trait reference does not parse
	ErrDuplicateTrait     = "E108" // trait attached twice to one op
	ErrSizeSpecifierRules = "E109" // size specifier conflict or omission
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a declaration without building it.
// Returns all errors found (does not fail-fast).
// Trait names are not resolved here because the registry belongs to the
// context; Build reports UNKNOWN_TRAIT.
func Validate(v any) []ValidationError {
	switch d := v.(type) {
	case *DialectDecl:
		return validateDialect(d)
	case DialectDecl:
		return validateDialect(&d)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported declaration type: %T", v),
			Code:    ErrUnsupportedDecl,
		}}
	}
}

func validateDialect(d *DialectDecl) []ValidationError {
	var errs []ValidationError

	// E101: dialect name
	if !isPlainIdent(d.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("dialect name %q must be an identifier without '.'", d.Name),
			Code:    ErrInvalidDialectName,
		})
	}

	names := make(map[string]string)
	claim := func(kind, field, name string, line int) {
		// E103: schema name
		if !isPlainIdent(name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("%s name %q must be an identifier without '.'", kind, name),
				Code:    ErrInvalidSchemaName,
				Line:    line,
			})
		}
		// E102: one namespace per dialect
		if prev, ok := names[name]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("%s name %q already declared as %s", kind, name, prev),
				Code:    ErrDuplicateName,
				Line:    line,
			})
			return
		}
		names[name] = kind
	}

	for i, s := range d.Types {
		field := fmt.Sprintf("types[%d]", i)
		claim("type", field, s.Name, s.Loc.Line)
		errs = append(errs, validateEntries(field+".params", s.Params, s.Loc.Line, parseAttrText)...)
	}
	for i, s := range d.Attrs {
		field := fmt.Sprintf("attrs[%d]", i)
		claim("attr", field, s.Name, s.Loc.Line)
		errs = append(errs, validateEntries(field+".params", s.Params, s.Loc.Line, parseAttrText)...)
	}
	for i, op := range d.Ops {
		field := fmt.Sprintf("ops[%d]", i)
		claim("op", field, op.Name, op.Loc.Line)
		errs = append(errs, validateOp(field, op)...)
	}
	return errs
}

// validateEntries checks a named constraint list for duplicate names and
// constraint syntax.
func validateEntries(field string, entries []ParamDecl, line int, parse func(*asm.Parser) (string, error)) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(entries))
	for j, e := range entries {
		path := fmt.Sprintf("%s[%d]", field, j)
		// E104: duplicate entry
		if e.Name == "" || seen[e.Name] {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("entry name %q is empty or repeated", e.Name),
				Code:    ErrDuplicateEntry,
				Line:    line,
			})
		}
		seen[e.Name] = true
		// E105: constraint syntax
		if _, err := normalize(e.Constraint, parse); err != nil {
			errs = append(errs, constraintError(path, e.Constraint, err, line))
		}
	}
	return errs
}

func validateOp(field string, op OpDecl) []ValidationError {
	var errs []ValidationError
	line := op.Loc.Line

	var sig constraint.OpType
	for _, list := range []struct {
		name string
		srcs []string
		dst  *[]constraint.ValueConstraint
	}{
		{"operands", op.Operands, &sig.Operands},
		{"results", op.Results, &sig.Results},
	} {
		for j, src := range list.srcs {
			c, err := parseDeclared(src, declSymbols{}, constraint.ParseValue)
			if err != nil {
				errs = append(errs, constraintError(fmt.Sprintf("%s.%s[%d]", field, list.name, j), src, err, line))
				continue
			}
			*list.dst = append(*list.dst, c)
		}
	}

	errs = append(errs, validateEntries(field+".attrs", op.Attrs, line, parseAttrEntryText)...)

	// E106: only the last region or successor may be variadic
	for _, list := range []struct {
		name  string
		srcs  []string
		parse func(*asm.Parser) (string, error)
	}{
		{"regions", op.Regions, parseRegionText},
		{"successors", op.Successors, parseSuccessorText},
	} {
		for j, src := range list.srcs {
			path := fmt.Sprintf("%s.%s[%d]", field, list.name, j)
			text, err := normalize(src, list.parse)
			if err != nil {
				errs = append(errs, constraintError(path, src, err, line))
				continue
			}
			if strings.HasPrefix(text, "Variadic<") && j != len(list.srcs)-1 {
				errs = append(errs, ValidationError{
					Field:   path,
					Message: fmt.Sprintf("only the last %s constraint may be variadic", strings.TrimSuffix(list.name, "s")),
					Code:    ErrVariadicNotLast,
					Line:    line,
				})
			}
		}
	}

	var traitNames []string
	seen := make(map[string]bool, len(op.Traits))
	for j, src := range op.Traits {
		path := fmt.Sprintf("%s.traits[%d]", field, j)
		ref, err := parseDeclared(src, declSymbols{}, parseTraitRef)
		if err != nil {
			// E107: malformed trait reference
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("invalid trait reference %q: %v", src, err),
				Code:    ErrInvalidTraitRef,
				Line:    line,
			})
			continue
		}
		// E108: duplicate trait
		if seen[ref.Name] {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("trait %s attached twice", ref.Name),
				Code:    ErrDuplicateTrait,
				Line:    line,
			})
		}
		seen[ref.Name] = true
		traitNames = append(traitNames, ref.Name)
	}

	// E109: size specifier table, only meaningful with a complete signature
	if len(sig.Operands) == len(op.Operands) && len(sig.Results) == len(op.Results) {
		if _, err := trait.SelectSizeSpecifiers(sig, traitNames); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".traits",
				Message: err.Error(),
				Code:    ErrSizeSpecifierRules,
				Line:    line,
			})
		}
	}
	return errs
}

func constraintError(path, src string, err error, line int) ValidationError {
	return ValidationError{
		Field:   path,
		Message: fmt.Sprintf("invalid constraint %q: %v", src, err),
		Code:    ErrInvalidConstraint,
		Line:    line,
	}
}

func isPlainIdent(s string) bool {
	return asm.IsBareIdent(s) && !strings.Contains(s, ".")
}
