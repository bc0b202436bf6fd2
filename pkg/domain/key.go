package domain

import (
	"fmt"
	"reflect"
)

// KeyID is the comparable, type-erased identity behind a Key.
// Two keys are equal when both their Go type and qualifier match.
type KeyID struct {
	Type      reflect.Type
	Qualifier string
}

// String renders the identity as "type" or "type(qualifier)".
func (id KeyID) String() string {
	name := "<nil>"
	if id.Type != nil {
		name = id.Type.String()
	}
	if id.Qualifier == "" {
		return name
	}
	return fmt.Sprintf("%s(%s)", name, id.Qualifier)
}

// ID lets a bare KeyID be used wherever a key is expected.
func (id KeyID) ID() KeyID {
	return id
}

// Identified is implemented by every Key, regardless of its type parameter.
type Identified interface {
	ID() KeyID
}

// Key is a typed identity token. It addresses values stored in a
// CommandContext and mappers stored in a mapper registry.
type Key[T any] struct {
	id KeyID
}

// NewKey creates a key for values of type T. The qualifier distinguishes
// several keys of the same type (e.g. two string arguments); it may be empty.
func NewKey[T any](qualifier string) Key[T] {
	return Key[T]{id: KeyID{Type: reflect.TypeFor[T](), Qualifier: qualifier}}
}

// ID returns the erased identity of the key.
func (k Key[T]) ID() KeyID {
	return k.id
}

// Qualifier returns the key qualifier.
func (k Key[T]) Qualifier() string {
	return k.id.Qualifier
}

func (k Key[T]) String() string {
	return k.id.String()
}
