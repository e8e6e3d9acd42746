package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/dynir/internal/ir"
)

// SymbolTable resolves dialect-qualified types (!d.name) and attributes
// (#d.name). The parser hands itself to the resolver, which consumes the
// schema-specific body (usually an optional <...> parameter list).
type SymbolTable interface {
	ParseDialectType(p *Parser, dialect, name string, loc ir.Location) (ir.Type, error)
	ParseDialectAttr(p *Parser, dialect, name string, loc ir.Location) (ir.Attr, error)
}

// Parser is a recursive-descent parser over the textual IR form.
// It keeps one token of lookahead; the first lexing error is sticky.
type Parser struct {
	lex  *Lexer
	tok  Token
	err  error
	syms SymbolTable
}

// NewParser creates a parser over src. syms may be nil, in which case
// dialect-qualified types and attributes are rejected.
func NewParser(src, file string, syms SymbolTable) *Parser {
	p := &Parser{lex: NewLexer(src, file), syms: syms}
	p.Next()
	return p
}

// Token returns the current lookahead token.
func (p *Parser) Token() Token { return p.tok }

// Loc returns the location of the current token.
func (p *Parser) Loc() ir.Location { return p.tok.Loc }

// Next consumes the current token and returns it.
func (p *Parser) Next() Token {
	cur := p.tok
	if p.err != nil {
		p.tok = Token{Kind: EOF, Loc: cur.Loc}
		return cur
	}
	tok, err := p.lex.Next()
	if err != nil {
		p.err = err
		tok = Token{Kind: EOF, Loc: cur.Loc}
	}
	p.tok = tok
	return cur
}

// Is reports whether the current token has the given kind.
func (p *Parser) Is(k Kind) bool { return p.tok.Kind == k }

// IsKeyword reports whether the current token is the identifier kw.
func (p *Parser) IsKeyword(kw string) bool {
	return p.tok.Kind == Ident && p.tok.Text == kw
}

// Accept consumes the current token if it has kind k.
func (p *Parser) Accept(k Kind) bool {
	if p.tok.Kind != k {
		return false
	}
	p.Next()
	return true
}

// AcceptKeyword consumes the current token if it is the identifier kw.
func (p *Parser) AcceptKeyword(kw string) bool {
	if !p.IsKeyword(kw) {
		return false
	}
	p.Next()
	return true
}

// Expect consumes a token of kind k or fails.
func (p *Parser) Expect(k Kind) (Token, error) {
	if err := p.lexErr(); err != nil {
		return Token{}, err
	}
	if p.tok.Kind != k {
		return Token{}, p.Errorf(p.tok.Loc, "expected %s, found %s", k, p.describe())
	}
	return p.Next(), nil
}

// ExpectKeyword consumes the identifier kw or fails.
func (p *Parser) ExpectKeyword(kw string) error {
	if err := p.lexErr(); err != nil {
		return err
	}
	if !p.IsKeyword(kw) {
		return p.Errorf(p.tok.Loc, "expected '%s', found %s", kw, p.describe())
	}
	p.Next()
	return nil
}

// ExpectEOF fails unless all input has been consumed.
func (p *Parser) ExpectEOF() error {
	_, err := p.Expect(EOF)
	return err
}

// ParseIdent parses a bare identifier.
func (p *Parser) ParseIdent() (string, error) {
	tok, err := p.Expect(Ident)
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

// ParseString parses a quoted string literal.
func (p *Parser) ParseString() (string, error) {
	tok, err := p.Expect(String)
	if err != nil {
		return "", err
	}
	s, err := strconv.Unquote(tok.Text)
	if err != nil {
		return "", p.Errorf(tok.Loc, "invalid string literal %s", tok.Text)
	}
	return s, nil
}

// ParseInt parses an integer literal.
func (p *Parser) ParseInt() (int64, error) {
	tok, err := p.Expect(Int)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return 0, p.Errorf(tok.Loc, "integer %s out of range", tok.Text)
	}
	return n, nil
}

// Errorf creates a *ParseError at loc.
func (p *Parser) Errorf(loc ir.Location, format string, args ...any) error {
	return &ParseError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) lexErr() error {
	return p.err
}

func (p *Parser) describe() string {
	switch p.tok.Kind {
	case EOF:
		return "end of input"
	case Ident, Int, Float, String:
		return fmt.Sprintf("%s %s", p.tok.Kind, p.tok.Text)
	default:
		return p.tok.Kind.String()
	}
}

var (
	intTypePattern   = regexp.MustCompile(`^(i|si|ui)([0-9]+)$`)
	floatTypePattern = regexp.MustCompile(`^f(16|32|64)$`)
)

// ParseType parses a builtin type, a function type or a dialect type.
func (p *Parser) ParseType() (ir.Type, error) {
	if err := p.lexErr(); err != nil {
		return nil, err
	}
	loc := p.tok.Loc
	switch p.tok.Kind {
	case LParen:
		return p.parseFunctionType()
	case Bang:
		p.Next()
		dialect, name, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		if p.syms == nil {
			return nil, p.Errorf(loc, "no dialects available to resolve !%s.%s", dialect, name)
		}
		return p.syms.ParseDialectType(p, dialect, name, loc)
	case Ident:
		if t, ok := builtinType(p.tok.Text); ok {
			p.Next()
			return t, nil
		}
		return nil, p.Errorf(loc, "unknown type %q", p.tok.Text)
	default:
		return nil, p.Errorf(loc, "expected type, found %s", p.describe())
	}
}

// IsTypeStart reports whether the current token can begin a type.
func (p *Parser) IsTypeStart() bool {
	switch p.tok.Kind {
	case LParen, Bang:
		return true
	case Ident:
		_, ok := builtinType(p.tok.Text)
		return ok
	}
	return false
}

func builtinType(name string) (ir.Type, bool) {
	switch name {
	case "index":
		return ir.IndexType{}, true
	case "none":
		return ir.NoneType{}, true
	}
	if m := intTypePattern.FindStringSubmatch(name); m != nil {
		width, err := strconv.Atoi(m[2])
		if err != nil || width == 0 {
			return nil, false
		}
		sign := ir.Signless
		switch m[1] {
		case "si":
			sign = ir.Signed
		case "ui":
			sign = ir.Unsigned
		}
		return ir.IntegerType{Width: width, Signedness: sign}, true
	}
	if m := floatTypePattern.FindStringSubmatch(name); m != nil {
		width, _ := strconv.Atoi(m[1])
		return ir.FloatType{Width: width}, true
	}
	return nil, false
}

func (p *Parser) parseFunctionType() (ir.Type, error) {
	inputs, err := p.ParseTypeList()
	if err != nil {
		return nil, err
	}
	if _, err := p.Expect(Arrow); err != nil {
		return nil, err
	}
	var results []ir.Type
	if p.Is(LParen) {
		results, err = p.ParseTypeList()
	} else {
		var t ir.Type
		t, err = p.ParseType()
		results = []ir.Type{t}
	}
	if err != nil {
		return nil, err
	}
	return ir.FunctionType{Inputs: inputs, Results: results}, nil
}

// ParseTypeList parses '(' (type (',' type)*)? ')'.
func (p *Parser) ParseTypeList() ([]ir.Type, error) {
	if _, err := p.Expect(LParen); err != nil {
		return nil, err
	}
	types := []ir.Type{}
	if p.Accept(RParen) {
		return types, nil
	}
	for {
		t, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		if !p.Accept(Comma) {
			break
		}
	}
	if _, err := p.Expect(RParen); err != nil {
		return nil, err
	}
	return types, nil
}

// parseQualifiedName splits "dialect.name" after a ! or # sigil.
func (p *Parser) parseQualifiedName() (string, string, error) {
	tok, err := p.Expect(Ident)
	if err != nil {
		return "", "", err
	}
	dialect, name, found := strings.Cut(tok.Text, ".")
	if !found || dialect == "" || name == "" {
		return "", "", p.Errorf(tok.Loc, "expected dialect-qualified name, found %q", tok.Text)
	}
	return dialect, name, nil
}

// ParseAttr parses any attribute: a literal, a list, a dictionary, a symbol
// reference, a dialect attribute, or a type used as an attribute.
func (p *Parser) ParseAttr() (ir.Attr, error) {
	if err := p.lexErr(); err != nil {
		return nil, err
	}
	loc := p.tok.Loc
	switch p.tok.Kind {
	case Int:
		n, err := p.ParseInt()
		if err != nil {
			return nil, err
		}
		return ir.IntAttr(n), nil
	case Float:
		tok := p.Next()
		f, err := ir.NewFloatAttrFromString(tok.Text)
		if err != nil {
			return nil, p.Errorf(tok.Loc, "invalid float literal %s", tok.Text)
		}
		return f, nil
	case String:
		s, err := p.ParseString()
		if err != nil {
			return nil, err
		}
		return ir.StringAttr(s), nil
	case LBracket:
		return p.parseArrayAttr()
	case LBrace:
		return p.ParseAttrDict()
	case At:
		p.Next()
		if p.Is(String) {
			s, err := p.ParseString()
			return ir.SymbolRefAttr(s), err
		}
		name, err := p.ParseIdent()
		if err != nil {
			return nil, err
		}
		return ir.SymbolRefAttr(name), nil
	case Hash:
		p.Next()
		dialect, name, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		if p.syms == nil {
			return nil, p.Errorf(loc, "no dialects available to resolve #%s.%s", dialect, name)
		}
		return p.syms.ParseDialectAttr(p, dialect, name, loc)
	case Ident:
		switch p.tok.Text {
		case "true":
			p.Next()
			return ir.BoolAttr(true), nil
		case "false":
			p.Next()
			return ir.BoolAttr(false), nil
		case "unit":
			p.Next()
			return ir.UnitAttr{}, nil
		}
	}
	if p.IsTypeStart() {
		t, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		return ir.TypeAttr{Type: t}, nil
	}
	return nil, p.Errorf(loc, "expected attribute, found %s", p.describe())
}

func (p *Parser) parseArrayAttr() (ir.Attr, error) {
	if _, err := p.Expect(LBracket); err != nil {
		return nil, err
	}
	arr := ir.ArrayAttr{}
	if p.Accept(RBracket) {
		return arr, nil
	}
	for {
		a, err := p.ParseAttr()
		if err != nil {
			return nil, err
		}
		arr = append(arr, a)
		if !p.Accept(Comma) {
			break
		}
	}
	if _, err := p.Expect(RBracket); err != nil {
		return nil, err
	}
	return arr, nil
}

// ParseAttrDict parses '{' (key ('=' attr)? (',' ...)*)? '}'.
// A key without a value maps to UnitAttr.
func (p *Parser) ParseAttrDict() (ir.DictAttr, error) {
	if _, err := p.Expect(LBrace); err != nil {
		return nil, err
	}
	dict := ir.DictAttr{}
	if p.Accept(RBrace) {
		return dict, nil
	}
	for {
		loc := p.tok.Loc
		var key string
		var err error
		if p.Is(String) {
			key, err = p.ParseString()
		} else {
			key, err = p.ParseIdent()
		}
		if err != nil {
			return nil, err
		}
		if _, dup := dict[key]; dup {
			return nil, p.Errorf(loc, "duplicate key %q in dictionary", key)
		}
		var val ir.Attr = ir.UnitAttr{}
		if p.Accept(Equal) {
			if val, err = p.ParseAttr(); err != nil {
				return nil, err
			}
		}
		dict[key] = val
		if !p.Accept(Comma) {
			break
		}
	}
	if _, err := p.Expect(RBrace); err != nil {
		return nil, err
	}
	return dict, nil
}

// ParseOptionalAttrDict parses a dictionary if one starts here.
func (p *Parser) ParseOptionalAttrDict() (ir.DictAttr, error) {
	if !p.Is(LBrace) {
		return ir.DictAttr{}, nil
	}
	return p.ParseAttrDict()
}

// ParseOptionalParamList parses an optional '<' attr (',' attr)* '>'
// parameter list. Absence yields an empty list.
func (p *Parser) ParseOptionalParamList() ([]ir.Attr, error) {
	params := []ir.Attr{}
	if !p.Accept(LAngle) {
		return params, nil
	}
	if p.Accept(RAngle) {
		return params, nil
	}
	for {
		a, err := p.ParseAttr()
		if err != nil {
			return nil, err
		}
		params = append(params, a)
		if !p.Accept(Comma) {
			break
		}
	}
	if _, err := p.Expect(RAngle); err != nil {
		return nil, err
	}
	return params, nil
}

// ParseTypeString parses src as exactly one type.
func ParseTypeString(src string, syms SymbolTable) (ir.Type, error) {
	p := NewParser(src, "", syms)
	t, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	if err := p.ExpectEOF(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseAttrString parses src as exactly one attribute.
func ParseAttrString(src string, syms SymbolTable) (ir.Attr, error) {
	p := NewParser(src, "", syms)
	a, err := p.ParseAttr()
	if err != nil {
		return nil, err
	}
	if err := p.ExpectEOF(); err != nil {
		return nil, err
	}
	return a, nil
}
