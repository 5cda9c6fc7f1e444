// Package env implements the evaluator's variable scope: an immutable,
// parent-chained binding environment.
package env

import (
	"errors"
	"fmt"
)

// ErrNotDefined is returned by Resolve when no binding, in this
// environment or any of its ancestors, matches the requested name.
var ErrNotDefined = errors.New("variable not defined")

// Env is an immutable mapping from name to value. Binding a new name
// never mutates the receiver: Bind returns a new Env that shadows its
// parent for that name only. This makes an Env cheap to share across
// sibling evaluations of the same expression.
type Env[T any] struct {
	parent *Env[T]
	name   string
	value  T
	bound  bool
}

// Empty returns an environment with no bindings and no parent.
func Empty[T any]() *Env[T] {
	return &Env[T]{}
}

// Bind returns a new environment that resolves name to value, falling
// back to e for every other name.
func (e *Env[T]) Bind(name string, value T) *Env[T] {
	return &Env[T]{
		parent: e,
		name:   name,
		value:  value,
		bound:  true,
	}
}

// Resolve looks up name in e, then in e's ancestors, innermost first.
func (e *Env[T]) Resolve(name string) (T, error) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.bound && cur.name == name {
			return cur.value, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s: %w", name, ErrNotDefined)
}
