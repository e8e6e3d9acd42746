package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
)

// CompileCUE compiles CUE source and returns one declaration per field of
// the top-level dialect struct, in source order.
//
//	dialect: toy: {
//		allow_unknown_types: true
//		types: box: params: {elem: "TypeAttrOf<AnyType>", size: "IntAttr"}
//		ops: add: {
//			operands: ["AnyInteger", "AnyInteger"]
//			results: ["AnyInteger"]
//			traits: ["SameOperandsAndResultType"]
//			config: is_commutative: true
//		}
//	}
func CompileCUE(src, filename string) ([]*DialectDecl, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	root := v.LookupPath(cue.ParsePath("dialect"))
	if !root.Exists() {
		return nil, &CompileError{Field: "dialect", Message: "no dialect declarations found", Pos: v.Pos()}
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var decls []*DialectDecl
	for iter.Next() {
		d, err := CompileDialect(iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// CompileDialect parses a CUE value into a DialectDecl. The value is the
// dialect struct itself; its label is the dialect name:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	decl, err := CompileDialect(v.LookupPath(cue.ParsePath("dialect.toy")))
//
// Constraint strings are parsed and stored in printed form, so a CUE
// declaration and the equivalent text declaration hash the same.
func CompileDialect(v cue.Value) (*DialectDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &DialectDecl{Types: []SchemaDecl{}, Attrs: []SchemaDecl{}, Ops: []OpDecl{}}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		d.Name = labels[len(labels)-1].String()
	}

	for _, key := range []string{KeyAllowUnknownOps, KeyAllowUnknownTypes} {
		b, err := optionalBool(v, key)
		if err != nil {
			return nil, err
		}
		d.set(key, b)
	}
	if err := checkKeys(v, "dialect."+d.Name, KeyAllowUnknownOps, KeyAllowUnknownTypes, "types", "attrs", "ops"); err != nil {
		return nil, err
	}

	var err error
	if d.Types, err = compileSchemas(v, "types"); err != nil {
		return nil, err
	}
	if d.Attrs, err = compileSchemas(v, "attrs"); err != nil {
		return nil, err
	}
	if d.Ops, err = compileOps(v); err != nil {
		return nil, err
	}
	return d, nil
}

func compileSchemas(v cue.Value, field string) ([]SchemaDecl, error) {
	out := []SchemaDecl{}
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return out, nil
	}
	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		sv := iter.Value()
		path := field + "." + name
		if err := checkKeys(sv, path, "params", "format"); err != nil {
			return nil, err
		}

		s := SchemaDecl{Name: name, Loc: location(sv.Pos())}
		if s.Params, err = compileEntries(sv.LookupPath(cue.ParsePath("params")), path+".params", parseAttrText); err != nil {
			return nil, err
		}
		if fv := sv.LookupPath(cue.ParsePath("format")); fv.Exists() {
			if s.Format, err = fv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func compileOps(v cue.Value) ([]OpDecl, error) {
	out := []OpDecl{}
	val := v.LookupPath(cue.ParsePath("ops"))
	if !val.Exists() {
		return out, nil
	}
	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		ov := iter.Value()
		path := "ops." + name
		if err := checkKeys(ov, path, "operands", "results", "attrs", "regions", "successors", "traits", "config"); err != nil {
			return nil, err
		}

		op := OpDecl{Name: name, Loc: location(ov.Pos())}
		lists := []struct {
			field     string
			dst       *[]string
			parse func(*asm.Parser) (string, error)
		}{
			{"operands", &op.Operands, parseValueText},
			{"results", &op.Results, parseValueText},
			{"regions", &op.Regions, parseRegionText},
			{"successors", &op.Successors, parseSuccessorText},
			{"traits", &op.Traits, parseTraitText},
		}
		for _, l := range lists {
			if *l.dst, err = compileList(ov.LookupPath(cue.ParsePath(l.field)), path+"."+l.field, l.parse); err != nil {
				return nil, err
			}
		}
		if op.Attrs, err = compileEntries(ov.LookupPath(cue.ParsePath("attrs")), path+".attrs", parseAttrEntryText); err != nil {
			return nil, err
		}

		cv := ov.LookupPath(cue.ParsePath("config"))
		if cv.Exists() {
			if err := checkKeys(cv, path+".config", KeyIsTerminator, KeyIsCommutative, KeyIsIsolatedFromAbove); err != nil {
				return nil, err
			}
			for _, key := range []string{KeyIsTerminator, KeyIsCommutative, KeyIsIsolatedFromAbove} {
				b, err := optionalBool(cv, key)
				if err != nil {
					return nil, err
				}
				op.Config.set(key, b)
			}
		}
		out = append(out, op)
	}
	return out, nil
}

// compileList reads an optional list of constraint strings.
func compileList(v cue.Value, path string, parse func(*asm.Parser) (string, error)) ([]string, error) {
	out := []string{}
	if !v.Exists() {
		return out, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		s, err := constraintString(iter.Value(), fmt.Sprintf("%s[%d]", path, i), parse)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// compileEntries reads an optional struct of name: "constraint" fields.
func compileEntries(v cue.Value, path string, parse func(*asm.Parser) (string, error)) ([]ParamDecl, error) {
	out := []ParamDecl{}
	if !v.Exists() {
		return out, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := constraintString(iter.Value(), path+"."+iter.Label(), parse)
		if err != nil {
			return nil, err
		}
		out = append(out, ParamDecl{Name: iter.Label(), Constraint: s})
	}
	return out, nil
}

func constraintString(v cue.Value, path string, parse func(*asm.Parser) (string, error)) (string, error) {
	src, err := v.String()
	if err != nil {
		return "", &CompileError{Field: path, Message: "constraint must be a string", Pos: v.Pos()}
	}
	s, err := normalize(src, parse)
	if err != nil {
		return "", &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// optionalBool reads a boolean field that defaults to false. Non-boolean
// values are errors rather than being coerced.
func optionalBool(v cue.Value, key string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(key))
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, &CompileError{Field: key, Message: "must be true or false", Pos: bv.Pos()}
	}
	return b, nil
}

// checkKeys rejects fields outside allowed.
func checkKeys(v cue.Value, path string, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		known := false
		for _, a := range allowed {
			if iter.Label() == a {
				known = true
				break
			}
		}
		if !known {
			return &CompileError{
				Field:   path + "." + iter.Label(),
				Message: "unknown field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func location(pos token.Pos) ir.Location {
	if !pos.IsValid() {
		return ir.Location{}
	}
	return ir.Location{File: pos.Filename(), Line: pos.Line(), Col: pos.Column()}
}

// normalize parses src completely with parse and returns the printed
// form.
func normalize(src string, parse func(*asm.Parser) (string, error)) (string, error) {
	p := asm.NewParser(src, "", declSymbols{})
	out, err := parse(p)
	if err != nil {
		return "", err
	}
	if err := p.ExpectEOF(); err != nil {
		return "", err
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
