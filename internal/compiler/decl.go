package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/dynir/internal/ir"
)

// DialectDecl is a parsed dialect declaration.
type DialectDecl struct {
	Name              string       `json:"name"`
	AllowUnknownOps   bool         `json:"allow_unknown_ops"`
	AllowUnknownTypes bool         `json:"allow_unknown_types"`
	Types             []SchemaDecl `json:"types"`
	Attrs             []SchemaDecl `json:"attrs"`
	Ops               []OpDecl     `json:"ops"`
}

// ParamDecl is one named parameter with its attribute constraint.
type ParamDecl struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint"`
}

// SchemaDecl declares a type or attribute schema. Format names a custom
// parse/print pair supplied through Options.Formats.
type SchemaDecl struct {
	Name   string      `json:"name"`
	Params []ParamDecl `json:"params"`
	Format string      `json:"format,omitempty"`
	Loc    ir.Location `json:"-"`
}

// OpDecl declares an operation schema.
type OpDecl struct {
	Name       string      `json:"name"`
	Operands   []string    `json:"operands"`
	Results    []string    `json:"results"`
	Attrs      []ParamDecl `json:"attrs"`
	Regions    []string    `json:"regions"`
	Successors []string    `json:"successors"`
	Traits     []string    `json:"traits"`
	Config     OpConfig    `json:"config"`
	Loc        ir.Location `json:"-"`
}

// OpConfig holds the op flags. Declarations must give explicit booleans.
type OpConfig struct {
	IsTerminator        bool `json:"is_terminator"`
	IsCommutative       bool `json:"is_commutative"`
	IsIsolatedFromAbove bool `json:"is_isolated_from_above"`
}

// Config keys accepted by dialect and op declarations.
const (
	KeyAllowUnknownOps     = "allow_unknown_ops"
	KeyAllowUnknownTypes   = "allow_unknown_types"
	KeyIsTerminator        = "is_terminator"
	KeyIsCommutative       = "is_commutative"
	KeyIsIsolatedFromAbove = "is_isolated_from_above"
)

func (c *OpConfig) set(key string, v bool) bool {
	switch key {
	case KeyIsTerminator:
		c.IsTerminator = v
	case KeyIsCommutative:
		c.IsCommutative = v
	case KeyIsIsolatedFromAbove:
		c.IsIsolatedFromAbove = v
	default:
		return false
	}
	return true
}

func (d *DialectDecl) set(key string, v bool) bool {
	switch key {
	case KeyAllowUnknownOps:
		d.AllowUnknownOps = v
	case KeyAllowUnknownTypes:
		d.AllowUnknownTypes = v
	default:
		return false
	}
	return true
}

// Canonical returns the RFC 8785 encoding of the declaration. Two
// declarations with the same canonical form build identical dialects.
func (d *DialectDecl) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(d.canonicalMap())
}

// Hash returns the content hash of the declaration.
func (d *DialectDecl) Hash() (string, error) {
	b, err := d.Canonical()
	if err != nil {
		return "", err
	}
	return ir.DeclHash(b), nil
}

func (d *DialectDecl) canonicalMap() map[string]any {
	return map[string]any{
		"version":             ir.DeclVersion,
		"name":                d.Name,
		"allow_unknown_ops":   d.AllowUnknownOps,
		"allow_unknown_types": d.AllowUnknownTypes,
		"types":               schemaList(d.Types),
		"attrs":               schemaList(d.Attrs),
		"ops":                 opList(d.Ops),
	}
}

func schemaList(decls []SchemaDecl) []any {
	out := make([]any, len(decls))
	for i, s := range decls {
		out[i] = map[string]any{
			"name":   s.Name,
			"params": paramList(s.Params),
			"format": s.Format,
		}
	}
	return out
}

func paramList(params []ParamDecl) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = map[string]any{"name": p.Name, "constraint": p.Constraint}
	}
	return out
}

func opList(ops []OpDecl) []any {
	out := make([]any, len(ops))
	for i, op := range ops {
		out[i] = map[string]any{
			"name":       op.Name,
			"operands":   stringList(op.Operands),
			"results":    stringList(op.Results),
			"attrs":      paramList(op.Attrs),
			"regions":    stringList(op.Regions),
			"successors": stringList(op.Successors),
			"traits":     stringList(op.Traits),
			"config": map[string]any{
				KeyIsTerminator:        op.Config.IsTerminator,
				KeyIsCommutative:       op.Config.IsCommutative,
				KeyIsIsolatedFromAbove: op.Config.IsIsolatedFromAbove,
			},
		}
	}
	return out
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Text renders the declaration in the textual grammar. ParseText of the
// result yields an equal declaration.
func (d *DialectDecl) Text() string {
	var sb strings.Builder
	sb.WriteString("Dialect " + d.Name)
	var attrs []string
	if d.AllowUnknownOps {
		attrs = append(attrs, KeyAllowUnknownOps+" = true")
	}
	if d.AllowUnknownTypes {
		attrs = append(attrs, KeyAllowUnknownTypes+" = true")
	}
	if len(attrs) > 0 {
		sb.WriteString(" attributes {" + strings.Join(attrs, ", ") + "}")
	}
	sb.WriteString(" {\n")
	for _, s := range d.Types {
		sb.WriteString("  Type " + s.text() + "\n")
	}
	for _, s := range d.Attrs {
		sb.WriteString("  Attr " + s.text() + "\n")
	}
	for _, op := range d.Ops {
		sb.WriteString("  Op " + op.text() + "\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

func (s SchemaDecl) text() string {
	out := s.Name
	if len(s.Params) > 0 {
		out += "<" + joinParams(s.Params) + ">"
	}
	if s.Format != "" {
		out += " format " + strconv.Quote(s.Format)
	}
	return out
}

func (op OpDecl) text() string {
	var sb strings.Builder
	sb.WriteString(op.Name + "(" + strings.Join(op.Operands, ", ") + ") -> ")
	if len(op.Results) == 1 && !strings.HasPrefix(op.Results[0], "(") {
		sb.WriteString(op.Results[0])
	} else {
		sb.WriteString("(" + strings.Join(op.Results, ", ") + ")")
	}
	if len(op.Attrs) > 0 {
		sb.WriteString(" {" + joinParams(op.Attrs) + "}")
	}
	if len(op.Regions) > 0 {
		sb.WriteString(" regions [" + strings.Join(op.Regions, ", ") + "]")
	}
	if len(op.Successors) > 0 {
		sb.WriteString(" successors [" + strings.Join(op.Successors, ", ") + "]")
	}
	if len(op.Traits) > 0 {
		sb.WriteString(" traits [" + strings.Join(op.Traits, ", ") + "]")
	}
	var flags []string
	if op.Config.IsTerminator {
		flags = append(flags, KeyIsTerminator+" = true")
	}
	if op.Config.IsCommutative {
		flags = append(flags, KeyIsCommutative+" = true")
	}
	if op.Config.IsIsolatedFromAbove {
		flags = append(flags, KeyIsIsolatedFromAbove+" = true")
	}
	if len(flags) > 0 {
		sb.WriteString(" config {" + strings.Join(flags, ", ") + "}")
	}
	return sb.String()
}

func joinParams(params []ParamDecl) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ": " + p.Constraint
	}
	return strings.Join(parts, ", ")
}
