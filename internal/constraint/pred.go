package constraint

import (
	"strings"

	"github.com/roach88/dynir/internal/ir"
)

// Pred is a pure check over values of type T with a human-readable
// description. The zero Pred accepts everything.
type Pred[T any] struct {
	desc string
	fn   func(T) bool
}

// TypePred constrains types.
type TypePred = Pred[ir.Type]

// AttrPred constrains attributes.
type AttrPred = Pred[ir.Attr]

// New creates a predicate.
func New[T any](desc string, fn func(T) bool) Pred[T] {
	return Pred[T]{desc: desc, fn: fn}
}

// Check reports whether v satisfies the predicate.
func (p Pred[T]) Check(v T) bool {
	if p.fn == nil {
		return true
	}
	return p.fn(v)
}

func (p Pred[T]) String() string {
	if p.desc == "" {
		return "<any>"
	}
	return p.desc
}

// IsZero reports whether p was never initialised.
func (p Pred[T]) IsZero() bool {
	return p.fn == nil && p.desc == ""
}

// And accepts values accepted by every p.
func And[T any](ps ...Pred[T]) Pred[T] {
	return New(combine("AllOf", ps), func(v T) bool {
		for _, p := range ps {
			if !p.Check(v) {
				return false
			}
		}
		return true
	})
}

// Or accepts values accepted by at least one p.
func Or[T any](ps ...Pred[T]) Pred[T] {
	return New(combine("AnyOf", ps), func(v T) bool {
		for _, p := range ps {
			if p.Check(v) {
				return true
			}
		}
		return false
	})
}

// Not inverts p.
func Not[T any](p Pred[T]) Pred[T] {
	return New("Not<"+p.String()+">", func(v T) bool { return !p.Check(v) })
}

func combine[T any](name string, ps []Pred[T]) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}
