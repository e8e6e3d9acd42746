package constraint

import (
	"github.com/roach88/dynir/internal/asm"
)

// ParseType parses a type constraint expression: a builtin name, a
// parametric form (Integer<32>, Kind<"toy.box">, AnyOf<...>, AllOf<...>,
// Not<...>) or a concrete type, which must match exactly.
func ParseType(p *asm.Parser) (TypePred, error) {
	tok := p.Token()
	if tok.Kind == asm.Ident {
		switch tok.Text {
		case "Integer", "Float":
			p.Next()
			width, err := parseIntArg(p)
			if err != nil {
				return TypePred{}, err
			}
			if width <= 0 {
				return TypePred{}, p.Errorf(tok.Loc, "%s width must be positive", tok.Text)
			}
			if tok.Text == "Integer" {
				return Integer(int(width)), nil
			}
			return Float(int(width)), nil
		case "Kind":
			p.Next()
			name, err := parseStringArg(p)
			if err != nil {
				return TypePred{}, err
			}
			return TypeKind(name), nil
		case "AnyOf", "AllOf":
			p.Next()
			args, err := parseArgs(p, ParseType)
			if err != nil {
				return TypePred{}, err
			}
			if tok.Text == "AnyOf" {
				return Or(args...), nil
			}
			return And(args...), nil
		case "Not":
			p.Next()
			arg, err := parseSingleArg(p, ParseType)
			if err != nil {
				return TypePred{}, err
			}
			return Not(arg), nil
		}
		if pred, ok := typeNames[tok.Text]; ok {
			p.Next()
			return pred, nil
		}
	}
	if p.IsTypeStart() {
		t, err := p.ParseType()
		if err != nil {
			return TypePred{}, err
		}
		return TypeIs(t), nil
	}
	return TypePred{}, p.Errorf(tok.Loc, "expected type constraint, found %q", tok.Text)
}

// ParseValue parses an operand or result constraint, which may be
// wrapped in Variadic<...>.
func ParseValue(p *asm.Parser) (ValueConstraint, error) {
	if p.AcceptKeyword("Variadic") {
		pred, err := parseSingleArg(p, ParseType)
		if err != nil {
			return ValueConstraint{}, err
		}
		return Variadic(pred), nil
	}
	pred, err := ParseType(p)
	if err != nil {
		return ValueConstraint{}, err
	}
	return Value(pred), nil
}

// ParseAttr parses an attribute constraint expression. Type constraints
// are accepted too and match type attributes.
func ParseAttr(p *asm.Parser) (AttrPred, error) {
	tok := p.Token()
	if tok.Kind == asm.Ident {
		switch tok.Text {
		case "ArrayOf":
			p.Next()
			elem, err := parseSingleArg(p, ParseAttr)
			if err != nil {
				return AttrPred{}, err
			}
			return ArrayOf(elem), nil
		case "TypeAttrOf":
			p.Next()
			tp, err := parseSingleArg(p, ParseType)
			if err != nil {
				return AttrPred{}, err
			}
			return TypeAttrOf(tp), nil
		case "AttrKind":
			p.Next()
			name, err := parseStringArg(p)
			if err != nil {
				return AttrPred{}, err
			}
			return AttrKind(name), nil
		case "AnyOf", "AllOf":
			p.Next()
			args, err := parseArgs(p, ParseAttr)
			if err != nil {
				return AttrPred{}, err
			}
			if tok.Text == "AnyOf" {
				return Or(args...), nil
			}
			return And(args...), nil
		case "Not":
			p.Next()
			arg, err := parseSingleArg(p, ParseAttr)
			if err != nil {
				return AttrPred{}, err
			}
			return Not(arg), nil
		case "Integer", "Float", "Kind":
			tp, err := ParseType(p)
			if err != nil {
				return AttrPred{}, err
			}
			return liftType(tp), nil
		}
		if pred, ok := attrNames[tok.Text]; ok {
			p.Next()
			return pred, nil
		}
		if tp, ok := typeNames[tok.Text]; ok {
			p.Next()
			return liftType(tp), nil
		}
	}
	a, err := p.ParseAttr()
	if err != nil {
		return AttrPred{}, err
	}
	return AttrIs(a), nil
}

// ParseAttrEntry parses an attribute constraint that may be wrapped in
// OptionalAttr<...>.
func ParseAttrEntry(p *asm.Parser) (pred AttrPred, optional bool, err error) {
	if p.AcceptKeyword("OptionalAttr") {
		pred, err = parseSingleArg(p, ParseAttr)
		return pred, true, err
	}
	pred, err = ParseAttr(p)
	return pred, false, err
}

// ParseRegion parses Any, Sized<n> or Variadic<...> of either.
func ParseRegion(p *asm.Parser) (RegionConstraint, error) {
	if p.AcceptKeyword("Variadic") {
		inner, err := parseSingleArg(p, parseSingleRegion)
		if err != nil {
			return RegionConstraint{}, err
		}
		return VariadicRegion(inner), nil
	}
	return parseSingleRegion(p)
}

func parseSingleRegion(p *asm.Parser) (RegionConstraint, error) {
	loc := p.Loc()
	switch {
	case p.AcceptKeyword("Any"):
		return AnyRegion, nil
	case p.AcceptKeyword("Sized"):
		n, err := parseIntArg(p)
		if err != nil {
			return RegionConstraint{}, err
		}
		if n < 0 {
			return RegionConstraint{}, p.Errorf(loc, "region size must not be negative")
		}
		return SizedRegion(int(n)), nil
	}
	return RegionConstraint{}, p.Errorf(loc, "expected region constraint (Any, Sized<n>, Variadic<...>)")
}

// ParseSuccessor parses Any or Variadic<Any>.
func ParseSuccessor(p *asm.Parser) (SuccessorConstraint, error) {
	loc := p.Loc()
	if p.AcceptKeyword("Variadic") {
		if _, err := p.Expect(asm.LAngle); err != nil {
			return SuccessorConstraint{}, err
		}
		if err := p.ExpectKeyword("Any"); err != nil {
			return SuccessorConstraint{}, err
		}
		if _, err := p.Expect(asm.RAngle); err != nil {
			return SuccessorConstraint{}, err
		}
		return VariadicSuccessor, nil
	}
	if p.AcceptKeyword("Any") {
		return AnySuccessor, nil
	}
	return SuccessorConstraint{}, p.Errorf(loc, "expected successor constraint (Any, Variadic<Any>)")
}

func parseArgs[T any](p *asm.Parser, parse func(*asm.Parser) (T, error)) ([]T, error) {
	if _, err := p.Expect(asm.LAngle); err != nil {
		return nil, err
	}
	var args []T
	for {
		arg, err := parse(p)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.Accept(asm.Comma) {
			break
		}
	}
	if _, err := p.Expect(asm.RAngle); err != nil {
		return nil, err
	}
	return args, nil
}

func parseSingleArg[T any](p *asm.Parser, parse func(*asm.Parser) (T, error)) (T, error) {
	loc := p.Loc()
	args, err := parseArgs(p, parse)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(args) != 1 {
		var zero T
		return zero, p.Errorf(loc, "expected exactly one argument, found %d", len(args))
	}
	return args[0], nil
}

func parseIntArg(p *asm.Parser) (int64, error) {
	if _, err := p.Expect(asm.LAngle); err != nil {
		return 0, err
	}
	n, err := p.ParseInt()
	if err != nil {
		return 0, err
	}
	if _, err := p.Expect(asm.RAngle); err != nil {
		return 0, err
	}
	return n, nil
}

func parseStringArg(p *asm.Parser) (string, error) {
	if _, err := p.Expect(asm.LAngle); err != nil {
		return "", err
	}
	s, err := p.ParseString()
	if err != nil {
		return "", err
	}
	if _, err := p.Expect(asm.RAngle); err != nil {
		return "", err
	}
	return s, nil
}

// ParseTypeString parses src as exactly one type constraint.
func ParseTypeString(src string, syms asm.SymbolTable) (TypePred, error) {
	p := asm.NewParser(src, "", syms)
	pred, err := ParseType(p)
	if err != nil {
		return TypePred{}, err
	}
	if err := p.ExpectEOF(); err != nil {
		return TypePred{}, err
	}
	return pred, nil
}

// ParseAttrString parses src as exactly one attribute constraint.
func ParseAttrString(src string, syms asm.SymbolTable) (AttrPred, error) {
	p := asm.NewParser(src, "", syms)
	pred, err := ParseAttr(p)
	if err != nil {
		return AttrPred{}, err
	}
	if err := p.ExpectEOF(); err != nil {
		return AttrPred{}, err
	}
	return pred, nil
}
