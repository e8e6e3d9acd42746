package dialect

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
	"github.com/roach88/dynir/internal/trait"
)

// ErrBuilderSpent is returned by Builder methods after Build.
var ErrBuilderSpent = errors.New("dialect builder already built")

// Builder is the write phase of a dialect. It is not safe for concurrent
// use. The first malformed declaration poisons the builder: later calls
// and Build return that error. Op-scoped trait errors only reject the op.
type Builder struct {
	d     *Dialect
	names map[string]string // name -> kind, one namespace per dialect
	err   error
	spent bool
}

// NewBuilder starts a dialect named name in c.
func (c *Context) NewBuilder(name string) *Builder {
	b := &Builder{
		d: &Dialect{
			ctx:   c,
			name:  name,
			types: make(map[string]*TypeSchema),
			attrs: make(map[string]*AttrSchema),
			ops:   make(map[string]*OpSchema),
		},
		names: make(map[string]string),
	}
	if !asm.IsBareIdent(name) || strings.Contains(name, ".") {
		b.err = &SchemaError{Code: ErrCodeMalformedSchema, Dialect: name, Message: "dialect name must be an identifier without '.'"}
	}
	return b
}

// SetAllowUnknownOps lets ops without a schema pass verification.
func (b *Builder) SetAllowUnknownOps(v bool) *Builder {
	b.d.allowUnknownOps = v
	return b
}

// SetAllowUnknownTypes lets unregistered type names parse as opaque types.
func (b *Builder) SetAllowUnknownTypes(v bool) *Builder {
	b.d.allowUnknownTypes = v
	return b
}

// AddType registers a type schema.
func (b *Builder) AddType(name string, params ParamSpec, opts ...SchemaOption) (*TypeSchema, error) {
	base, err := b.newSchema("type", name, params, opts)
	if err != nil {
		return nil, err
	}
	s := &TypeSchema{schemaBase: base}
	b.d.types[name] = s
	b.d.typeOrder = append(b.d.typeOrder, s)
	return s, nil
}

// AddAttr registers an attribute schema.
func (b *Builder) AddAttr(name string, params ParamSpec, opts ...SchemaOption) (*AttrSchema, error) {
	base, err := b.newSchema("attr", name, params, opts)
	if err != nil {
		return nil, err
	}
	s := &AttrSchema{schemaBase: base}
	b.d.attrs[name] = s
	b.d.attrOrder = append(b.d.attrOrder, s)
	return s, nil
}

func (b *Builder) newSchema(kind, name string, params ParamSpec, opts []SchemaOption) (schemaBase, error) {
	if err := b.claim(kind, name); err != nil {
		return schemaBase{}, err
	}
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p.Name == "" {
			return schemaBase{}, b.fail(ErrCodeMalformedSchema, name, "parameter #%d has no name", i)
		}
		if seen[p.Name] {
			return schemaBase{}, b.fail(ErrCodeMalformedSchema, name, "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}

	var cfg schemaConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	base := schemaBase{dialect: b.d, name: name, params: params}
	if cfg.hasHooks {
		if (cfg.parse == nil) != (cfg.print == nil) {
			return schemaBase{}, b.fail(ErrCodeInconsistentFormat, name, "custom parser and printer must be set together")
		}
		if cfg.parse != nil {
			base.format = &Format{Parse: cfg.parse, Print: cfg.print}
		}
	}
	b.names[name] = kind
	return base, nil
}

// AddOp registers an operation schema. Trait errors reject only this op;
// the builder stays usable.
func (b *Builder) AddOp(spec OpSpec) (*OpSchema, error) {
	if err := b.claim("op", spec.Name); err != nil {
		return nil, err
	}
	if err := b.checkOpShape(spec); err != nil {
		return nil, err
	}

	s := &OpSchema{dialect: b.d, spec: spec, sizers: make(map[trait.Side]trait.SizeSpecifier)}
	if err := b.resolveTraits(s); err != nil {
		b.d.rejected = append(b.d.rejected, err)
		b.d.ctx.logger.Warn("rejected op schema",
			zap.String("dialect", b.d.name),
			zap.String("op", spec.Name),
			zap.Error(err))
		return nil, err
	}

	b.names[spec.Name] = "op"
	b.d.ops[spec.Name] = s
	b.d.opOrder = append(b.d.opOrder, s)
	return s, nil
}

func (b *Builder) checkOpShape(spec OpSpec) error {
	for i, c := range spec.Signature.Operands {
		if c.Pred.IsZero() {
			return b.fail(ErrCodeMalformedSchema, spec.Name, "operand constraint #%d is empty", i)
		}
	}
	for i, c := range spec.Signature.Results {
		if c.Pred.IsZero() {
			return b.fail(ErrCodeMalformedSchema, spec.Name, "result constraint #%d is empty", i)
		}
	}
	seen := make(map[string]bool, len(spec.Attrs))
	for _, a := range spec.Attrs {
		if a.Name == "" || a.Pred.IsZero() {
			return b.fail(ErrCodeMalformedSchema, spec.Name, "attribute constraints need a name and a predicate")
		}
		if seen[a.Name] {
			return b.fail(ErrCodeMalformedSchema, spec.Name, "duplicate attribute constraint %q", a.Name)
		}
		seen[a.Name] = true
	}
	for i, r := range spec.Regions {
		if r.Variadic && i != len(spec.Regions)-1 {
			return b.fail(ErrCodeMalformedSchema, spec.Name, "only the last region constraint may be variadic")
		}
	}
	for i, r := range spec.Successors {
		if r.Variadic && i != len(spec.Successors)-1 {
			return b.fail(ErrCodeMalformedSchema, spec.Name, "only the last successor constraint may be variadic")
		}
	}
	return nil
}

// resolveTraits applies the size specifier table, then instantiates every
// trait in declaration order.
func (b *Builder) resolveTraits(s *OpSchema) error {
	names := make([]string, len(s.spec.Traits))
	seen := make(map[string]bool, len(names))
	for i, ref := range s.spec.Traits {
		if seen[ref.Name] {
			return b.opError(ErrCodeInvalidTrait, s.spec.Name, "trait %s attached twice", ref.Name)
		}
		seen[ref.Name] = true
		names[i] = ref.Name
	}

	for _, ref := range s.spec.Traits {
		if _, ok := b.d.ctx.traits.Lookup(ref.Name); !ok {
			return b.opError(ErrCodeUnknownTrait, s.spec.Name, "trait %q is not registered", ref.Name)
		}
	}

	selected, err := trait.SelectSizeSpecifiers(s.spec.Signature, names)
	if err != nil {
		var se *trait.SpecifierError
		if errors.As(err, &se) && se.Missing() {
			return b.opError(ErrCodeMissingSizeSpecifier, s.spec.Name, "%v", err)
		}
		return b.opError(ErrCodeTraitConflict, s.spec.Name, "%v", err)
	}

	for _, ref := range s.spec.Traits {
		factory, _ := b.d.ctx.traits.Lookup(ref.Name)
		t, err := factory(trait.Config{Args: ref.Args, Signature: s.spec.Signature})
		if err != nil {
			return b.opError(ErrCodeInvalidTrait, s.spec.Name, "%v", err)
		}
		s.traits = append(s.traits, t)
		for side, name := range selected {
			if name != ref.Name {
				continue
			}
			spec, ok := t.(trait.SizeSpecifier)
			if !ok {
				return b.opError(ErrCodeInvalidTrait, s.spec.Name, "trait %s does not specify group sizes", ref.Name)
			}
			s.sizers[side] = spec
		}
	}
	return nil
}

// claim checks the builder state and name uniqueness.
func (b *Builder) claim(kind, name string) error {
	if b.spent {
		return ErrBuilderSpent
	}
	if b.err != nil {
		return b.err
	}
	if !asm.IsBareIdent(name) {
		return b.fail(ErrCodeMalformedSchema, name, "%s name must be an identifier", kind)
	}
	if prev, exists := b.names[name]; exists {
		return b.fail(ErrCodeDuplicateName, name, "%s name already declared as %s", kind, prev)
	}
	return nil
}

// fail records a dialect-fatal error.
func (b *Builder) fail(code SchemaErrorCode, schema, format string, args ...any) error {
	err := &SchemaError{Code: code, Dialect: b.d.name, Schema: schema, Message: fmt.Sprintf(format, args...)}
	if b.err == nil {
		b.err = err
	}
	return err
}

func (b *Builder) opError(code SchemaErrorCode, schema, format string, args ...any) error {
	return &SchemaError{Code: code, Dialect: b.d.name, Schema: schema, Message: fmt.Sprintf(format, args...)}
}

// Build consumes the builder and registers the dialect with its context.
func (b *Builder) Build() (*Dialect, error) {
	if b.spent {
		return nil, ErrBuilderSpent
	}
	b.spent = true
	if b.err != nil {
		return nil, fmt.Errorf("build dialect %s: %w", b.d.name, b.err)
	}
	if err := b.d.ctx.register(b.d); err != nil {
		return nil, err
	}
	return b.d, nil
}

// Symbols returns a symbol table that resolves the dialect under
// construction before falling back to the registered dialects, so op
// constraints can name the dialect's own types and attributes.
func (b *Builder) Symbols() asm.SymbolTable {
	return builderSymbols{b: b}
}

type builderSymbols struct {
	b *Builder
}

func (s builderSymbols) ParseDialectType(p *asm.Parser, dialect, name string, loc ir.Location) (ir.Type, error) {
	if dialect == s.b.d.name {
		return parseTypeIn(p, s.b.d, name, loc)
	}
	return s.b.d.ctx.ParseDialectType(p, dialect, name, loc)
}

func (s builderSymbols) ParseDialectAttr(p *asm.Parser, dialect, name string, loc ir.Location) (ir.Attr, error) {
	if dialect == s.b.d.name {
		return parseAttrIn(p, s.b.d, name, loc)
	}
	return s.b.d.ctx.ParseDialectAttr(p, dialect, name, loc)
}
