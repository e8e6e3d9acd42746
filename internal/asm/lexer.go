package asm

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/dynir/internal/ir"
)

// Kind categorizes tokens.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Float
	String
	LAngle   // <
	RAngle   // >
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	LBrace   // {
	RBrace   // }
	Comma    // ,
	Equal    // =
	Colon    // :
	Arrow    // ->
	Bang     // !
	Hash     // #
	At       // @
	Question // ?
)

var kindNames = map[Kind]string{
	EOF:      "end of input",
	Ident:    "identifier",
	Int:      "integer",
	Float:    "float",
	String:   "string",
	LAngle:   "'<'",
	RAngle:   "'>'",
	LParen:   "'('",
	RParen:   "')'",
	LBracket: "'['",
	RBracket: "']'",
	LBrace:   "'{'",
	RBrace:   "'}'",
	Comma:    "','",
	Equal:    "'='",
	Colon:    "':'",
	Arrow:    "'->'",
	Bang:     "'!'",
	Hash:     "'#'",
	At:       "'@'",
	Question: "'?'",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a lexed token with its position.
type Token struct {
	Kind Kind
	Text string // raw source text; for strings includes the quotes
	Loc  ir.Location
}

var punct = map[byte]Kind{
	'<': LAngle,
	'>': RAngle,
	'(': LParen,
	')': RParen,
	'[': LBracket,
	']': RBracket,
	'{': LBrace,
	'}': RBrace,
	',': Comma,
	'=': Equal,
	':': Colon,
	'!': Bang,
	'#': Hash,
	'@': At,
	'?': Question,
}

// Lexer splits textual IR into tokens. Line comments start with //.
type Lexer struct {
	src  string
	file string
	pos  int
	line int
	col  int
}

// NewLexer creates a lexer over src; file is used only for locations.
func NewLexer(src, file string) *Lexer {
	return &Lexer{src: src, file: file, line: 1, col: 1}
}

// Next returns the next token, or a *ParseError for malformed input.
func (l *Lexer) Next() (Token, error) {
	l.skipSpaceAndComments()
	loc := l.loc()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Loc: loc}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '-' && l.peekByte(1) == '>':
		l.advance(2)
		return Token{Kind: Arrow, Text: "->", Loc: loc}, nil
	case c == '"':
		return l.lexString(loc)
	case isDigit(c) || (c == '-' && isDigit(l.peekByte(1))):
		return l.lexNumber(loc), nil
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.advance(1)
		}
		return Token{Kind: Ident, Text: l.src[start:l.pos], Loc: loc}, nil
	}

	if k, ok := punct[c]; ok {
		l.advance(1)
		return Token{Kind: k, Text: string(c), Loc: loc}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return Token{}, &ParseError{Loc: loc, Message: fmt.Sprintf("unexpected character %q", r)}
}

func (l *Lexer) lexNumber(loc ir.Location) Token {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.advance(1)
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance(1)
	}
	kind := Int
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peekByte(1)) {
		kind = Float
		l.advance(1)
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance(1)
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		n := 1
		if s := l.peekByte(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peekByte(n)) {
			kind = Float
			l.advance(n)
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.advance(1)
			}
		}
	}
	return Token{Kind: kind, Text: l.src[start:l.pos], Loc: loc}
}

func (l *Lexer) lexString(loc ir.Location) (Token, error) {
	start := l.pos
	l.advance(1)
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.advance(2)
		case '\n':
			return Token{}, &ParseError{Loc: loc, Message: "unterminated string literal"}
		case '"':
			l.advance(1)
			return Token{Kind: String, Text: l.src[start:l.pos], Loc: loc}, nil
		default:
			l.advance(1)
		}
	}
	return Token{}, &ParseError{Loc: loc, Message: "unterminated string literal"}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '/' && l.peekByte(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		case unicode.IsSpace(rune(c)):
			l.advance(1)
		default:
			return
		}
	}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *Lexer) loc() ir.Location {
	return ir.Location{File: l.file, Line: l.line, Col: l.col}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '$'
}

// IsBareIdent reports whether s prints as an identifier without quoting.
func IsBareIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	return !strings.ContainsFunc(s[1:], func(r rune) bool {
		return r > unicode.MaxASCII || !isIdentPart(byte(r))
	})
}
