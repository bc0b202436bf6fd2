package mapper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// Keys of the built-in mappers registered by RegisterDefaults.
var (
	StringKey   = domain.NewKey[string]("")
	QuotableKey = domain.NewKey[string]("quotable")
	GreedyKey   = domain.NewKey[string]("greedy")
	IntKey      = domain.NewKey[int]("")
	Int64Key    = domain.NewKey[int64]("")
	Float64Key  = domain.NewKey[float64]("")
	BoolKey     = domain.NewKey[bool]("")
	DurationKey = domain.NewKey[time.Duration]("")
)

// RegisterDefaults installs the built-in mappers under their default keys.
func RegisterDefaults(reg *Registry) {
	Register(reg, StringKey, String())
	Register(reg, QuotableKey, Quotable())
	Register(reg, GreedyKey, Greedy())
	Register(reg, IntKey, Int())
	Register(reg, Int64Key, Int64())
	Register(reg, Float64Key, Float64())
	Register(reg, BoolKey, Bool())
	Register(reg, DurationKey, Duration())
}

// String reads a single word.
func String() Mapper[string] {
	return Funcs[string]{MapFunc: func(_ *domain.CommandContext, r *input.Reader) (string, error) {
		return r.ReadWord()
	}}
}

// Quotable reads a quoted run or a single word.
func Quotable() Mapper[string] {
	return Funcs[string]{MapFunc: func(_ *domain.CommandContext, r *input.Reader) (string, error) {
		return r.ReadQuotable()
	}}
}

// Greedy reads the rest of the line.
func Greedy() Mapper[string] {
	return Funcs[string]{MapFunc: func(_ *domain.CommandContext, r *input.Reader) (string, error) {
		return r.ReadRemaining()
	}}
}

// Word reads one word and converts it with parse.
func Word[T any](parse func(string) (T, error)) Mapper[T] {
	return Funcs[T]{MapFunc: func(_ *domain.CommandContext, r *input.Reader) (T, error) {
		w, err := r.ReadWord()
		if err != nil {
			var zero T
			return zero, err
		}
		return parse(w)
	}}
}

func Int() Mapper[int] {
	return Word(func(s string) (int, error) {
		v, err := strconv.ParseInt(s, 10, strconv.IntSize)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %w", unwrapNum(err))
		}
		return int(v), nil
	})
}

func Int64() Mapper[int64] {
	return Word(func(s string) (int64, error) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %w", unwrapNum(err))
		}
		return v, nil
	})
}

func Float64() Mapper[float64] {
	return Word(func(s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %w", unwrapNum(err))
		}
		return v, nil
	})
}

var boolWords = map[string]bool{
	"true": true, "yes": true, "on": true, "1": true,
	"false": false, "no": false, "off": false, "0": false,
}

// Bool accepts true/false, yes/no, on/off and 1/0, ignoring case.
func Bool() Mapper[bool] {
	return Funcs[bool]{
		MapFunc: func(_ *domain.CommandContext, r *input.Reader) (bool, error) {
			w, err := r.ReadWord()
			if err != nil {
				return false, err
			}
			v, ok := boolWords[strings.ToLower(w)]
			if !ok {
				return false, errors.New("not a boolean")
			}
			return v, nil
		},
		SuggestFunc: func(_ *domain.CommandContext, partial string) []string {
			return FilterPrefix([]string{"true", "false"}, partial)
		},
	}
}

// Duration parses Go duration strings such as "90s" or "1h30m".
func Duration() Mapper[time.Duration] {
	return Word(time.ParseDuration)
}

// Choice accepts one of options, ignoring case, and returns the canonical
// spelling. It suggests the options matching the typed prefix.
func Choice(options ...string) Mapper[string] {
	return Funcs[string]{
		MapFunc: func(_ *domain.CommandContext, r *input.Reader) (string, error) {
			w, err := r.ReadWord()
			if err != nil {
				return "", err
			}
			for _, o := range options {
				if strings.EqualFold(o, w) {
					return o, nil
				}
			}
			return "", fmt.Errorf("expected one of %s", strings.Join(options, ", "))
		},
		SuggestFunc: func(_ *domain.CommandContext, partial string) []string {
			return FilterPrefix(options, partial)
		},
	}
}

// Constant consumes no input and always yields v. Presence flags use it.
func Constant[T any](v T) Mapper[T] {
	return Funcs[T]{MapFunc: func(*domain.CommandContext, *input.Reader) (T, error) {
		return v, nil
	}}
}

// unwrapNum drops the strconv prefix ("strconv.ParseInt: parsing ...") and
// keeps the reason (ErrSyntax or ErrRange).
func unwrapNum(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
