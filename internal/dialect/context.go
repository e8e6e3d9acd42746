package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/dynir/internal/asm"
	"github.com/roach88/dynir/internal/ir"
	"github.com/roach88/dynir/internal/trait"
)

// Context owns the registered dialects, the trait registry and the
// uniquing store. It implements asm.SymbolTable.
type Context struct {
	logger *zap.Logger
	store  *Store
	traits *trait.Registry

	mu       sync.RWMutex
	dialects map[string]*Dialect
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithTraitRegistry replaces the default builtin registry, e.g. to share
// custom traits between contexts.
func WithTraitRegistry(r *trait.Registry) Option {
	return func(c *Context) {
		c.traits = r
	}
}

// WithStore replaces the uniquing store.
func WithStore(s *Store) Option {
	return func(c *Context) {
		c.store = s
	}
}

// NewContext creates an empty context.
func NewContext(opts ...Option) *Context {
	c := &Context{
		logger:   zap.NewNop(),
		store:    NewStore(),
		traits:   trait.NewRegistry(),
		dialects: make(map[string]*Dialect),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger returns the context logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Store returns the uniquing store.
func (c *Context) Store() *Store { return c.store }

// Traits returns the trait registry.
func (c *Context) Traits() *trait.Registry { return c.traits }

func (c *Context) register(d *Dialect) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.dialects[d.name]; exists {
		return &SchemaError{Code: ErrCodeDuplicateName, Dialect: d.name, Message: "dialect already registered"}
	}
	c.dialects[d.name] = d
	c.logger.Info("registered dialect",
		zap.String("dialect", d.name),
		zap.Int("types", len(d.typeOrder)),
		zap.Int("attrs", len(d.attrOrder)),
		zap.Int("ops", len(d.opOrder)),
		zap.Int("rejected", len(d.rejected)))
	return nil
}

// Dialect returns the registered dialect named name.
func (c *Context) Dialect(name string) (*Dialect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dialects[name]
	return d, ok
}

// Dialects returns all registered dialects sorted by name.
func (c *Context) Dialects() []*Dialect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Dialect, 0, len(c.dialects))
	for _, d := range c.dialects {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// LookupOp returns the schema for a full op name such as "toy.add".
func (c *Context) LookupOp(fullName string) (*OpSchema, bool) {
	d, ok := c.dialectOf(fullName)
	if !ok {
		return nil, false
	}
	return d.Op(fullName)
}

func (c *Context) dialectOf(fullName string) (*Dialect, bool) {
	name, _, found := strings.Cut(fullName, ".")
	if !found {
		return nil, false
	}
	return c.Dialect(name)
}

// ParseDialectType resolves !dialect.name for the asm parser.
func (c *Context) ParseDialectType(p *asm.Parser, dialect, name string, loc ir.Location) (ir.Type, error) {
	d, ok := c.Dialect(dialect)
	if !ok {
		return nil, p.Errorf(loc, "unregistered dialect %q", dialect)
	}
	return parseTypeIn(p, d, name, loc)
}

func parseTypeIn(p *asm.Parser, d *Dialect, name string, loc ir.Location) (ir.Type, error) {
	dialect := d.name
	s, ok := d.Type(name)
	if !ok {
		if !d.allowUnknownTypes {
			return nil, p.Errorf(loc, "dialect %q has no type %q", dialect, name)
		}
		params, err := p.ParseOptionalParamList()
		if err != nil {
			return nil, err
		}
		return ir.OpaqueType{Dialect: dialect, Name: name, Params: params}, nil
	}
	params, err := s.parseBody(p)
	if err != nil {
		return nil, err
	}
	return s.GetChecked(loc, params...)
}

// ParseDialectAttr resolves #dialect.name for the asm parser.
func (c *Context) ParseDialectAttr(p *asm.Parser, dialect, name string, loc ir.Location) (ir.Attr, error) {
	d, ok := c.Dialect(dialect)
	if !ok {
		return nil, p.Errorf(loc, "unregistered dialect %q", dialect)
	}
	return parseAttrIn(p, d, name, loc)
}

func parseAttrIn(p *asm.Parser, d *Dialect, name string, loc ir.Location) (ir.Attr, error) {
	s, ok := d.Attr(name)
	if !ok {
		return nil, p.Errorf(loc, "dialect %q has no attribute %q", d.name, name)
	}
	params, err := s.parseBody(p)
	if err != nil {
		return nil, err
	}
	return s.GetChecked(loc, params...)
}

// ParseType parses a complete type, builtin or dialect-qualified.
func (c *Context) ParseType(src string) (ir.Type, error) {
	return asm.ParseTypeString(src, c)
}

// ParseAttr parses a complete attribute.
func (c *Context) ParseAttr(src string) (ir.Attr, error) {
	return asm.ParseAttrString(src, c)
}

// Verify verifies op and every op nested in its regions, pre-order, and
// returns the first failure. Ops of a dialect that allows unknown ops
// are skipped when they have no schema; their bodies are still checked.
func (c *Context) Verify(op *ir.Operation) error {
	var first error
	op.Walk(func(nested *ir.Operation) {
		if first != nil {
			return
		}
		first = c.verifyOne(nested)
	})
	if first != nil {
		c.logger.Debug("verification failed", zap.String("op", op.Name), zap.Error(first))
	}
	return first
}

func (c *Context) verifyOne(op *ir.Operation) error {
	d, ok := c.dialectOf(op.Name)
	if !ok {
		return &Diagnostic{Code: DiagUnregisteredOp, Op: op.Name, Loc: op.Loc,
			Message: fmt.Sprintf("belongs to unregistered dialect %q", op.DialectName())}
	}
	s, ok := d.Op(op.Name)
	if !ok {
		if d.allowUnknownOps {
			return nil
		}
		return &Diagnostic{Code: DiagUnregisteredOp, Op: op.Name, Loc: op.Loc,
			Message: fmt.Sprintf("is not registered in dialect %q", d.name)}
	}
	return s.Verify(op)
}
