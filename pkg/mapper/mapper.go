package mapper

import (
	"reflect"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// Mapper converts input text into a typed value.
//
// Map reads as much of the line as it needs from the reader. Suggest lists
// completion candidates for a partially typed value; it must not read or
// mutate anything but its arguments.
type Mapper[T any] interface {
	Map(cc *domain.CommandContext, r *input.Reader) (T, error)
	Suggest(cc *domain.CommandContext, partial string) []string
}

// Funcs adapts plain functions to a Mapper. A nil SuggestFunc suggests nothing.
type Funcs[T any] struct {
	MapFunc     func(cc *domain.CommandContext, r *input.Reader) (T, error)
	SuggestFunc func(cc *domain.CommandContext, partial string) []string
}

func (f Funcs[T]) Map(cc *domain.CommandContext, r *input.Reader) (T, error) {
	return f.MapFunc(cc, r)
}

func (f Funcs[T]) Suggest(cc *domain.CommandContext, partial string) []string {
	if f.SuggestFunc == nil {
		return nil
	}
	return f.SuggestFunc(cc, partial)
}

// Erased is the type-erased form stored in a Registry.
type Erased interface {
	MapAny(cc *domain.CommandContext, r *input.Reader) (any, error)
	Suggest(cc *domain.CommandContext, partial string) []string
	// Type is the Go type of the produced values.
	Type() reflect.Type
}

// Erase wraps a typed mapper.
func Erase[T any](m Mapper[T]) Erased {
	return erased[T]{m: m}
}

type erased[T any] struct {
	m Mapper[T]
}

func (e erased[T]) MapAny(cc *domain.CommandContext, r *input.Reader) (any, error) {
	v, err := e.m.Map(cc, r)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e erased[T]) Suggest(cc *domain.CommandContext, partial string) []string {
	return e.m.Suggest(cc, partial)
}

func (e erased[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

// FilterPrefix keeps the candidates starting with partial, ignoring case.
func FilterPrefix(candidates []string, partial string) []string {
	out := make([]string, 0, len(candidates))
	p := strings.ToLower(partial)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), p) {
			out = append(out, c)
		}
	}
	return out
}
