package mapper

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// Range rejects NaN and values outside [lo, hi].
func Range[T cmp.Ordered](m Mapper[T], lo, hi T) Mapper[T] {
	return Funcs[T]{
		MapFunc: func(cc *domain.CommandContext, r *input.Reader) (T, error) {
			v, err := m.Map(cc, r)
			if err != nil {
				return v, err
			}
			if v != v {
				var zero T
				return zero, fmt.Errorf("%v is not a number", v)
			}
			if v < lo || v > hi {
				var zero T
				return zero, fmt.Errorf("%v out of range [%v, %v]", v, lo, hi)
			}
			return v, nil
		},
		SuggestFunc: m.Suggest,
	}
}

// Regex rejects strings that do not match re.
func Regex(m Mapper[string], re *regexp.Regexp) Mapper[string] {
	return Funcs[string]{
		MapFunc: func(cc *domain.CommandContext, r *input.Reader) (string, error) {
			v, err := m.Map(cc, r)
			if err != nil {
				return v, err
			}
			if !re.MatchString(v) {
				return "", fmt.Errorf("does not match %s", re)
			}
			return v, nil
		},
		SuggestFunc: m.Suggest,
	}
}

// Lower lower-cases the produced string.
func Lower(m Mapper[string]) Mapper[string] {
	return Funcs[string]{
		MapFunc: func(cc *domain.CommandContext, r *input.Reader) (string, error) {
			v, err := m.Map(cc, r)
			return strings.ToLower(v), err
		},
		SuggestFunc: m.Suggest,
	}
}

// WithSuggestions replaces the suggestion source of m with a fixed list,
// filtered by the typed prefix.
func WithSuggestions[T any](m Mapper[T], candidates ...string) Mapper[T] {
	return Funcs[T]{
		MapFunc: m.Map,
		SuggestFunc: func(_ *domain.CommandContext, partial string) []string {
			return FilterPrefix(candidates, partial)
		},
	}
}
