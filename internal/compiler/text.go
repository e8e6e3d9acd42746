package compiler

import (
	"fmt"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

// ParseText parses every Dialect block in src.
//
//	Dialect toy attributes {allow_unknown_types = true} {
//	  Type box<elem: AnyType, size: IntAttr>
//	  Attr pair<first: AnyAttr, second: AnyAttr> format "pair"
//	  Op add(AnyInteger, AnyInteger) -> AnyInteger {tag: OptionalAttr<StrAttr>}
//	      traits [SameOperandsAndResultType] config {is_commutative = true}
//	}
//
// Constraint expressions are checked for syntax and stored in their
// printed form. Dialect types inside constraints are kept symbolic and
// resolved by Build; dialect attribute literals are rejected here, use
// AttrKind<"d.a"> instead.
func ParseText(src, file string) ([]*DialectDecl, error) {
	p := asm.NewParser(src, file, declSymbols{})
	var decls []*DialectDecl
	for !p.Is(asm.EOF) {
		d, err := parseDialect(p)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if err := p.ExpectEOF(); err != nil {
		return nil, err
	}
	return decls, nil
}

func parseDialect(p *asm.Parser) (*DialectDecl, error) {
	if err := p.ExpectKeyword("Dialect"); err != nil {
		return nil, err
	}
	name, err := p.ParseIdent()
	if err != nil {
		return nil, err
	}
	d := &DialectDecl{Name: name, Types: []SchemaDecl{}, Attrs: []SchemaDecl{}, Ops: []OpDecl{}}
	if p.AcceptKeyword("attributes") {
		if err := parseFlags(p, d.set); err != nil {
			return nil, err
		}
	}
	if _, err := p.Expect(asm.LBrace); err != nil {
		return nil, err
	}
	for !p.Accept(asm.RBrace) {
		loc := p.Loc()
		switch {
		case p.AcceptKeyword("Type"):
			s, err := parseSchema(p, loc)
			if err != nil {
				return nil, err
			}
			d.Types = append(d.Types, s)
		case p.AcceptKeyword("Attr"):
			s, err := parseSchema(p, loc)
			if err != nil {
				return nil, err
			}
			d.Attrs = append(d.Attrs, s)
		case p.AcceptKeyword("Op"):
			op, err := parseOp(p, loc)
			if err != nil {
				return nil, err
			}
			d.Ops = append(d.Ops, op)
		default:
			if _, err := p.Expect(asm.RBrace); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// parseFlags parses a dictionary whose values must all be booleans and
// whose keys must be accepted by set.
func parseFlags(p *asm.Parser, set func(string, bool) bool) error {
	loc := p.Loc()
	dict, err := p.ParseAttrDict()
	if err != nil {
		return err
	}
	for _, k := range dict.SortedKeys() {
		b, ok := dict[k].(ir.BoolAttr)
		if !ok {
			return p.Errorf(loc, "%s must be true or false, got %s", k, asm.AttrString(dict[k]))
		}
		if !set(k, bool(b)) {
			return p.Errorf(loc, "unknown key %q", k)
		}
	}
	return nil
}

func parseSchema(p *asm.Parser, loc ir.Location) (SchemaDecl, error) {
	name, err := p.ParseIdent()
	if err != nil {
		return SchemaDecl{}, err
	}
	s := SchemaDecl{Name: name, Params: []ParamDecl{}, Loc: loc}
	if p.Accept(asm.LAngle) {
		s.Params, err = parseEntries(p, asm.RAngle, parseAttrText)
		if err != nil {
			return SchemaDecl{}, err
		}
	}
	if p.AcceptKeyword("format") {
		if s.Format, err = p.ParseString(); err != nil {
			return SchemaDecl{}, err
		}
	}
	return s, nil
}

// parseEntries parses "name: constraint, ..." up to and including close.
func parseEntries(p *asm.Parser, close asm.Kind, parse func(*asm.Parser) (string, error)) ([]ParamDecl, error) {
	entries := []ParamDecl{}
	if p.Accept(close) {
		return entries, nil
	}
	for {
		name, err := p.ParseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.Expect(asm.Colon); err != nil {
			return nil, err
		}
		c, err := parse(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ParamDecl{Name: name, Constraint: c})
		if !p.Accept(asm.Comma) {
			break
		}
	}
	if _, err := p.Expect(close); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseOp(p *asm.Parser, loc ir.Location) (OpDecl, error) {
	name, err := p.ParseIdent()
	if err != nil {
		return OpDecl{}, err
	}
	op := OpDecl{
		Name:       name,
		Attrs:      []ParamDecl{},
		Regions:    []string{},
		Successors: []string{},
		Traits:     []string{},
		Loc:        loc,
	}
	if _, err := p.Expect(asm.LParen); err != nil {
		return OpDecl{}, err
	}
	if op.Operands, err = parseList(p, asm.RParen, parseValueText); err != nil {
		return OpDecl{}, err
	}
	if _, err := p.Expect(asm.Arrow); err != nil {
		return OpDecl{}, err
	}
	if p.Accept(asm.LParen) {
		op.Results, err = parseList(p, asm.RParen, parseValueText)
	} else {
		var r string
		r, err = parseValueText(p)
		op.Results = []string{r}
	}
	if err != nil {
		return OpDecl{}, err
	}

	if p.Accept(asm.LBrace) {
		if op.Attrs, err = parseEntries(p, asm.RBrace, parseAttrEntryText); err != nil {
			return OpDecl{}, err
		}
	}
	if p.AcceptKeyword("regions") {
		if op.Regions, err = parseBracketed(p, parseRegionText); err != nil {
			return OpDecl{}, err
		}
	}
	if p.AcceptKeyword("successors") {
		if op.Successors, err = parseBracketed(p, parseSuccessorText); err != nil {
			return OpDecl{}, err
		}
	}
	if p.AcceptKeyword("traits") {
		if op.Traits, err = parseBracketed(p, parseTraitText); err != nil {
			return OpDecl{}, err
		}
	}
	if p.AcceptKeyword("config") {
		if err := parseFlags(p, op.Config.set); err != nil {
			return OpDecl{}, err
		}
	}
	return op, nil
}

// The parse*Text helpers parse one constraint and return its printed
// form, which is what declarations store.

func parseValueText(p *asm.Parser) (string, error) {
	c, err := constraint.ParseValue(p)
	return c.String(), err
}

func parseAttrText(p *asm.Parser) (string, error) {
	c, err := constraint.ParseAttr(p)
	return c.String(), err
}

func parseAttrEntryText(p *asm.Parser) (string, error) {
	pred, optional, err := constraint.ParseAttrEntry(p)
	if optional {
		return "OptionalAttr<" + pred.String() + ">", err
	}
	return pred.String(), err
}

func parseRegionText(p *asm.Parser) (string, error) {
	c, err := constraint.ParseRegion(p)
	return c.String(), err
}

func parseSuccessorText(p *asm.Parser) (string, error) {
	c, err := constraint.ParseSuccessor(p)
	return c.String(), err
}

func parseBracketed(p *asm.Parser, parse func(*asm.Parser) (string, error)) ([]string, error) {
	if _, err := p.Expect(asm.LBracket); err != nil {
		return nil, err
	}
	return parseList(p, asm.RBracket, parse)
}

// parseList parses a comma-separated list up to and including close.
func parseList(p *asm.Parser, close asm.Kind, parse func(*asm.Parser) (string, error)) ([]string, error) {
	out := []string{}
	if p.Accept(close) {
		return out, nil
	}
	for {
		s, err := parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if !p.Accept(asm.Comma) {
			break
		}
	}
	if _, err := p.Expect(close); err != nil {
		return nil, err
	}
	return out, nil
}

// parseTraitText parses Name or Name<args> and returns its printed form.
func parseTraitText(p *asm.Parser) (string, error) {
	ref, err := parseTraitRef(p)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

// declSymbols resolves dialect types symbolically so constraints can be
// parsed before any dialect is registered.
type declSymbols struct{}

func (declSymbols) ParseDialectType(p *asm.Parser, dialect, name string, _ ir.Location) (ir.Type, error) {
	params, err := p.ParseOptionalParamList()
	if err != nil {
		return nil, err
	}
	return ir.OpaqueType{Dialect: dialect, Name: name, Params: params}, nil
}

func (declSymbols) ParseDialectAttr(p *asm.Parser, dialect, name string, loc ir.Location) (ir.Attr, error) {
	return nil, p.Errorf(loc, "dialect attribute #%s.%s cannot appear in a declaration, use %s", dialect, name,
		fmt.Sprintf("AttrKind<%q>", dialect+"."+name))
}
