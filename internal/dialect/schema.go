package dialect

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
)

// ParseHook parses a custom instance body, everything after the schema
// name, and returns the instance parameters.
type ParseHook func(p *asm.Parser) ([]ir.Attr, error)

// PrintHook prints a custom instance body. It must produce text the
// matching ParseHook accepts.
type PrintHook func(p *asm.Printer, params []ir.Attr)

// Format is a custom textual syntax attached to a type or attribute
// schema. Both hooks are set or neither.
type Format struct {
	Parse ParseHook
	Print PrintHook
}

// SchemaOption configures a type or attribute schema at registration.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	parse    ParseHook
	print    PrintHook
	hasHooks bool
}

// WithFormat attaches custom parse and print hooks. Passing only one of
// them is rejected with INCONSISTENT_FORMAT.
func WithFormat(parse ParseHook, print PrintHook) SchemaOption {
	return func(c *schemaConfig) {
		c.parse = parse
		c.print = print
		c.hasHooks = true
	}
}

// schemaBase is shared by type and attribute schemas. It implements
// ir.Definition and asm.BodyPrinter.
type schemaBase struct {
	dialect *Dialect
	name    string
	params  ParamSpec
	format  *Format
}

func (s *schemaBase) DialectName() string { return s.dialect.name }

// Name returns the schema name without the dialect prefix.
func (s *schemaBase) Name() string { return s.name }

// Dialect returns the owning dialect.
func (s *schemaBase) Dialect() *Dialect { return s.dialect }

// Params returns the parameter specification.
func (s *schemaBase) Params() ParamSpec { return s.params }

// HasFormat reports whether custom parse/print hooks are attached.
func (s *schemaBase) HasFormat() bool { return s.format != nil }

func (s *schemaBase) qualified() string { return s.dialect.name + "." + s.name }

// PrintBody prints params with the custom hook or as <p1, p2, ...>.
func (s *schemaBase) PrintBody(p *asm.Printer, params []ir.Attr) {
	if s.format != nil {
		s.format.Print(p, params)
		return
	}
	p.PrintParamList(params)
}

func (s *schemaBase) parseBody(p *asm.Parser) ([]ir.Attr, error) {
	if s.format != nil {
		return s.format.Parse(p)
	}
	return p.ParseOptionalParamList()
}

// parseNamed parses "name body" from src, for the per-schema Parse entry
// points.
func (s *schemaBase) parseNamed(src string, syms asm.SymbolTable) (*asm.Parser, []ir.Attr, ir.Location, error) {
	p := asm.NewParser(src, "", syms)
	loc := p.Loc()
	if err := p.ExpectKeyword(s.name); err != nil {
		return nil, nil, loc, err
	}
	params, err := s.parseBody(p)
	if err != nil {
		return nil, nil, loc, err
	}
	return p, params, loc, nil
}

// TypeSchema is a runtime-declared type kind.
type TypeSchema struct {
	schemaBase
}

// GetChecked validates params and returns the unique instance.
// Diagnostics carry loc.
func (s *TypeSchema) GetChecked(loc ir.Location, params ...ir.Attr) (*ir.DynamicType, error) {
	if err := s.params.Validate(s.qualified(), loc, params); err != nil {
		return nil, err
	}
	t, created, err := s.dialect.ctx.store.InternType(s, params)
	if err != nil {
		return nil, fmt.Errorf("intern %s: %w", s.qualified(), err)
	}
	if created {
		s.dialect.ctx.logger.Debug("interned type",
			zap.String("schema", s.qualified()),
			zap.Uint32("id", uint32(t.ID())))
	}
	return t, nil
}

// Get is GetChecked for callers that already validated params. A
// violation here is a bug in the caller and panics.
func (s *TypeSchema) Get(params ...ir.Attr) *ir.DynamicType {
	t, err := s.GetChecked(ir.UnknownLoc, params...)
	if err != nil {
		panic(fmt.Sprintf("dialect: TypeSchema.Get: %v", err))
	}
	return t
}

// Parse parses "name<params>" (or the custom body) into an instance.
func (s *TypeSchema) Parse(src string) (*ir.DynamicType, error) {
	p, params, loc, err := s.parseNamed(src, s.dialect.ctx)
	if err != nil {
		return nil, err
	}
	if err := p.ExpectEOF(); err != nil {
		return nil, err
	}
	return s.GetChecked(loc, params...)
}

// Print renders an instance as Parse accepts it.
func (s *TypeSchema) Print(t *ir.DynamicType) string {
	p := asm.NewPrinter()
	p.WriteString(s.name)
	s.PrintBody(p, t.Params())
	return p.String()
}

func (s *TypeSchema) String() string {
	return "Type " + s.name + s.params.String()
}

// AttrSchema is a runtime-declared attribute kind.
type AttrSchema struct {
	schemaBase
}

// GetChecked validates params and returns the unique instance.
func (s *AttrSchema) GetChecked(loc ir.Location, params ...ir.Attr) (*ir.DynamicAttr, error) {
	if err := s.params.Validate(s.qualified(), loc, params); err != nil {
		return nil, err
	}
	a, created, err := s.dialect.ctx.store.InternAttr(s, params)
	if err != nil {
		return nil, fmt.Errorf("intern %s: %w", s.qualified(), err)
	}
	if created {
		s.dialect.ctx.logger.Debug("interned attribute",
			zap.String("schema", s.qualified()),
			zap.Uint32("id", uint32(a.ID())))
	}
	return a, nil
}

// Get panics if params violate the schema.
func (s *AttrSchema) Get(params ...ir.Attr) *ir.DynamicAttr {
	a, err := s.GetChecked(ir.UnknownLoc, params...)
	if err != nil {
		panic(fmt.Sprintf("dialect: AttrSchema.Get: %v", err))
	}
	return a
}

// Parse parses "name<params>" (or the custom body) into an instance.
func (s *AttrSchema) Parse(src string) (*ir.DynamicAttr, error) {
	p, params, loc, err := s.parseNamed(src, s.dialect.ctx)
	if err != nil {
		return nil, err
	}
	if err := p.ExpectEOF(); err != nil {
		return nil, err
	}
	return s.GetChecked(loc, params...)
}

// Print renders an instance as Parse accepts it.
func (s *AttrSchema) Print(a *ir.DynamicAttr) string {
	p := asm.NewPrinter()
	p.WriteString(s.name)
	s.PrintBody(p, a.Params())
	return p.String()
}

func (s *AttrSchema) String() string {
	return "Attr " + s.name + s.params.String()
}
