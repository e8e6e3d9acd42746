package dialect

import (
	"sync"

	"github.com/roach88/dynir/internal/ir"
)

type instance interface {
	Params() []ir.Attr
}

// table buckets instances by definition, then by ir.InstanceKey. A key
// can be shared by unequal parameter lists (string params are NFC
// normalised before hashing), so a hit is confirmed with
// ir.AttrListsEqual.
type table[T instance] map[ir.Definition]map[string][]T

func (t table[T]) lookup(def ir.Definition, key string, params []ir.Attr) (T, bool) {
	for _, inst := range t[def][key] {
		if ir.AttrListsEqual(inst.Params(), params) {
			return inst, true
		}
	}
	var zero T
	return zero, false
}

func (t table[T]) insert(def ir.Definition, key string, inst T) {
	byKey, ok := t[def]
	if !ok {
		byKey = make(map[string][]T)
		t[def] = byKey
	}
	byKey[key] = append(byKey[key], inst)
}

// Store interns dynamic type and attribute instances so structurally
// equal requests share one instance. It is the only dialect state written
// after the registration phase and is safe for concurrent use.
//
// Instances belong to the schema object that created them. A schema
// rebuilt under the same qualified name starts with no instances.
type Store struct {
	mu     sync.Mutex
	types  table[*ir.DynamicType]
	attrs  table[*ir.DynamicAttr]
	count  int
	nextID ir.InstanceID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		types: make(table[*ir.DynamicType]),
		attrs: make(table[*ir.DynamicAttr]),
	}
}

// InternType returns the canonical instance of def with params, creating
// it on first request. The bool is true if the instance was created.
func (s *Store) InternType(def ir.Definition, params []ir.Attr) (*ir.DynamicType, bool, error) {
	key, err := ir.InstanceKey(ir.DomainTypeInstance, def, params)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.types.lookup(def, key, params); ok {
		return t, false, nil
	}
	t := ir.NewDynamicType(def, cloneParams(params), s.allocID())
	s.types.insert(def, key, t)
	return t, true, nil
}

// InternAttr is InternType for attributes.
func (s *Store) InternAttr(def ir.Definition, params []ir.Attr) (*ir.DynamicAttr, bool, error) {
	key, err := ir.InstanceKey(ir.DomainAttrInstance, def, params)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attrs.lookup(def, key, params); ok {
		return a, false, nil
	}
	a := ir.NewDynamicAttr(def, cloneParams(params), s.allocID())
	s.attrs.insert(def, key, a)
	return a, true, nil
}

// Len returns the number of interned instances.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// allocID must be called with mu held.
func (s *Store) allocID() ir.InstanceID {
	s.count++
	s.nextID++
	return s.nextID
}

func cloneParams(params []ir.Attr) []ir.Attr {
	out := make([]ir.Attr, len(params))
	copy(out, params)
	return out
}
