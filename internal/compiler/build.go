package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/dialect"
)

// Options configures Build.
type Options struct {
	// Formats maps the format names used in declarations to custom
	// parse/print hooks.
	Formats map[string]dialect.Format
}

// Build registers decl with ctx. Constraint text is resolved against the
// dialect under construction first, so ops may use the dialect's own
// types. Ops rejected for trait errors are left out and reported through
// Dialect.Rejected; any other failure aborts the build.
func Build(ctx *dialect.Context, decl *DialectDecl, opts Options) (*dialect.Dialect, error) {
	b := ctx.NewBuilder(decl.Name).
		SetAllowUnknownOps(decl.AllowUnknownOps).
		SetAllowUnknownTypes(decl.AllowUnknownTypes)
	syms := b.Symbols()

	for _, s := range decl.Types {
		params, schemaOpts, err := schemaParts(decl.Name, s, syms, opts)
		if err != nil {
			return nil, err
		}
		if _, err := b.AddType(s.Name, params, schemaOpts...); err != nil {
			return nil, err
		}
	}
	for _, s := range decl.Attrs {
		params, schemaOpts, err := schemaParts(decl.Name, s, syms, opts)
		if err != nil {
			return nil, err
		}
		if _, err := b.AddAttr(s.Name, params, schemaOpts...); err != nil {
			return nil, err
		}
	}
	for _, op := range decl.Ops {
		spec, err := opSpec(decl.Name, op, syms)
		if err != nil {
			return nil, err
		}
		if _, err := b.AddOp(spec); err != nil && !isOpScoped(err) {
			return nil, err
		}
	}
	return b.Build()
}

// BuildAll builds decls in order and stops at the first failure.
func BuildAll(ctx *dialect.Context, decls []*DialectDecl, opts Options) ([]*dialect.Dialect, error) {
	out := make([]*dialect.Dialect, 0, len(decls))
	for _, decl := range decls {
		d, err := Build(ctx, decl, opts)
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

// isOpScoped reports whether err rejected only the op being added.
func isOpScoped(err error) bool {
	var se *dialect.SchemaError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case dialect.ErrCodeTraitConflict, dialect.ErrCodeMissingSizeSpecifier,
		dialect.ErrCodeUnknownTrait, dialect.ErrCodeInvalidTrait:
		return true
	}
	return false
}

func schemaParts(dialectName string, s SchemaDecl, syms asm.SymbolTable, opts Options) (dialect.ParamSpec, []dialect.SchemaOption, error) {
	params := make(dialect.ParamSpec, len(s.Params))
	for i, pd := range s.Params {
		pred, err := parseDeclared(pd.Constraint, syms, constraint.ParseAttr)
		if err != nil {
			return nil, nil, declError(dialectName, s.Name, "parameter %s: %v", pd.Name, err)
		}
		params[i] = dialect.Param{Name: pd.Name, Pred: pred}
	}
	if s.Format == "" {
		return params, nil, nil
	}
	f, ok := opts.Formats[s.Format]
	if !ok {
		return nil, nil, declError(dialectName, s.Name, "unknown format %q", s.Format)
	}
	return params, []dialect.SchemaOption{dialect.WithFormat(f.Parse, f.Print)}, nil
}

func opSpec(dialectName string, op OpDecl, syms asm.SymbolTable) (dialect.OpSpec, error) {
	spec := dialect.OpSpec{
		Name: op.Name,
		Flags: dialect.Flags{
			IsTerminator:        op.Config.IsTerminator,
			IsCommutative:       op.Config.IsCommutative,
			IsIsolatedFromAbove: op.Config.IsIsolatedFromAbove,
		},
	}
	var err error
	if spec.Signature.Operands, err = parseAll(op.Operands, syms, constraint.ParseValue); err != nil {
		return spec, declError(dialectName, op.Name, "operands: %v", err)
	}
	if spec.Signature.Results, err = parseAll(op.Results, syms, constraint.ParseValue); err != nil {
		return spec, declError(dialectName, op.Name, "results: %v", err)
	}
	for _, a := range op.Attrs {
		pred, optional, err := parseAttrEntry(a.Constraint, syms)
		if err != nil {
			return spec, declError(dialectName, op.Name, "attribute %s: %v", a.Name, err)
		}
		spec.Attrs = append(spec.Attrs, constraint.AttrConstraint{Name: a.Name, Pred: pred, Optional: optional})
	}
	if spec.Regions, err = parseAll(op.Regions, syms, constraint.ParseRegion); err != nil {
		return spec, declError(dialectName, op.Name, "regions: %v", err)
	}
	if spec.Successors, err = parseAll(op.Successors, syms, constraint.ParseSuccessor); err != nil {
		return spec, declError(dialectName, op.Name, "successors: %v", err)
	}
	if spec.Traits, err = parseAll(op.Traits, syms, parseTraitRef); err != nil {
		return spec, declError(dialectName, op.Name, "traits: %v", err)
	}
	return spec, nil
}

func parseAttrEntry(src string, syms asm.SymbolTable) (constraint.AttrPred, bool, error) {
	var optional bool
	pred, err := parseDeclared(src, syms, func(p *asm.Parser) (constraint.AttrPred, error) {
		pred, opt, err := constraint.ParseAttrEntry(p)
		optional = opt
		return pred, err
	})
	return pred, optional, err
}

// parseDeclared parses all of src with parse.
func parseDeclared[T any](src string, syms asm.SymbolTable, parse func(*asm.Parser) (T, error)) (T, error) {
	var zero T
	p := asm.NewParser(src, "", syms)
	v, err := parse(p)
	if err != nil {
		return zero, err
	}
	if err := p.ExpectEOF(); err != nil {
		return zero, err
	}
	return v, nil
}

func parseAll[T any](srcs []string, syms asm.SymbolTable, parse func(*asm.Parser) (T, error)) ([]T, error) {
	out := make([]T, len(srcs))
	for i, src := range srcs {
		v, err := parseDeclared(src, syms, parse)
		if err != nil {
			return nil, fmt.Errorf("#%d %q: %w", i, src, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseTraitRef parses Name or Name<arg, ...>.
func parseTraitRef(p *asm.Parser) (dialect.TraitRef, error) {
	name, err := p.ParseIdent()
	if err != nil {
		return dialect.TraitRef{}, err
	}
	args, err := p.ParseOptionalParamList()
	if err != nil {
		return dialect.TraitRef{}, err
	}
	if len(args) == 0 {
		args = nil
	}
	return dialect.TraitRef{Name: name, Args: args}, nil
}

func declError(dialectName, schema, format string, args ...any) error {
	return &dialect.SchemaError{
		Code:    dialect.ErrCodeMalformedSchema,
		Dialect: dialectName,
		Schema:  schema,
		Message: fmt.Sprintf(format, args...),
	}
}
