package trait

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/dynir/internal/constraint"
	"github.com/roach88/dynir/internal/ir"
)

// Trait is a named verifier attached to an operation schema.
type Trait interface {
	Name() string
	Verify(op *ir.Operation) error
}

// Config is what a factory receives when a schema references a trait.
type Config struct {
	// Args are the trait's parameters (NOperands<2> has Args [2]).
	Args []ir.Attr

	// Signature is the function type of the op the trait attaches to.
	Signature constraint.OpType
}

// Factory instantiates a trait for one operation schema.
type Factory func(cfg Config) (Trait, error)

// ErrDuplicateTrait is returned by Register for an already-bound name.
var ErrDuplicateTrait = errors.New("trait already registered")

// Registry is a name to factory table. It is read-mostly: registration
// normally happens before any dialect is built.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry holding the builtin traits.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for name, f := range builtins() {
		r.factories[name] = f
	}
	return r
}

// Register binds name to f.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register trait: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("register trait %q: %w", name, ErrDuplicateTrait)
	}
	r.factories[name] = f
	return nil
}

// Lookup returns the factory bound to name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns every registered trait name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func adapts a plain verification function into a Trait.
func Func(name string, verify func(op *ir.Operation) error) Trait {
	return funcTrait{name: name, verify: verify}
}

type funcTrait struct {
	name   string
	verify func(op *ir.Operation) error
}

func (t funcTrait) Name() string                  { return t.name }
func (t funcTrait) Verify(op *ir.Operation) error { return t.verify(op) }

// Simple wraps a Trait that takes no arguments into a Factory.
func Simple(t Trait) Factory {
	return func(cfg Config) (Trait, error) {
		if len(cfg.Args) != 0 {
			return nil, fmt.Errorf("trait %s takes no arguments, got %d", t.Name(), len(cfg.Args))
		}
		return t, nil
	}
}
