package chain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
	"github.com/aretw0/tendril/pkg/mapper"
)

// Bound is an argument descriptor paired with its resolved mapper.
type Bound struct {
	domain.Argument
	mapper mapper.Erased
}

// Suggest delegates to the mapper.
func (b *Bound) Suggest(cc *domain.CommandContext, partial string) []string {
	return b.mapper.Suggest(cc, partial)
}

// Parse runs the mapper against r and stores the value under the argument key.
// Reader failures are returned as-is; conversion failures become MappingErrors.
func (b *Bound) Parse(cc *domain.CommandContext, r *input.Reader) error {
	r.SkipWhitespace()
	start := r.Cursor()

	v, err := b.mapper.MapAny(cc, r)
	if err != nil {
		var syn *domain.SyntaxError
		if errors.As(err, &syn) {
			return err
		}
		raw := strings.TrimSpace(r.Line()[start:r.Cursor()])
		if raw == "" {
			raw = peek(r)
		}
		return &domain.MappingError{Argument: b.Name, Input: raw, Err: err}
	}

	if err := cc.Store(b.Key, v, false); err != nil {
		if b.IsFlag() {
			return &domain.DuplicateFlagError{Flag: b.Name}
		}
		return err
	}
	return nil
}

func peek(r *input.Reader) string {
	w, _ := r.PeekWord()
	return w
}

// FlagName renders the long form, e.g. "--force".
func (b *Bound) FlagName() string { return "--" + b.Name }

// ShortName renders the short form, e.g. "-f", or "" without a shorthand.
func (b *Bound) ShortName() string {
	if b.Shorthand == 0 {
		return ""
	}
	return "-" + string(b.Shorthand)
}

// Chain is the immutable, resolved argument list of one command.
type Chain struct {
	positional []*Bound
	flags      []*Bound
	byName     map[string]*Bound
	byShort    map[rune]*Bound
}

// reserved holds the keys the dispatcher and hosts fill in themselves.
var reserved = map[domain.KeyID]bool{
	domain.CommandKey.ID(): true,
	domain.SubjectKey.ID(): true,
	domain.OutputKey.ID():  true,
}

// Build resolves every argument of cmd against reg. It fails with a
// RegistrationError before anything is published.
func Build(cmd *domain.Command, reg *mapper.Registry) (*Chain, error) {
	c := &Chain{
		byName:  make(map[string]*Bound),
		byShort: make(map[rune]*Bound),
	}
	keys := make(map[domain.KeyID]string)
	boolType := reflect.TypeFor[bool]()

	invalid := func(arg domain.Argument, format string, args ...any) error {
		return &domain.RegistrationError{
			Reason:   domain.InvalidCommand,
			Route:    cmd.Route,
			Argument: arg.Name,
			Err:      fmt.Errorf(format, args...),
		}
	}

	for _, arg := range cmd.Arguments {
		if arg.Name == "" || strings.HasPrefix(arg.Name, "-") || strings.IndexFunc(arg.Name, unicode.IsSpace) >= 0 {
			return nil, invalid(arg, "invalid argument name %q", arg.Name)
		}
		if arg.Key.Type == nil {
			return nil, invalid(arg, "argument has no key")
		}
		if reserved[arg.Key] {
			return nil, invalid(arg, "key %s is reserved", arg.Key)
		}
		if other, dup := keys[arg.Key]; dup {
			return nil, invalid(arg, "key %s already used by %s", arg.Key, other)
		}
		keys[arg.Key] = arg.Name

		b := &Bound{Argument: arg}
		switch {
		case arg.Presence:
			if !arg.IsFlag() {
				return nil, invalid(arg, "presence is only valid for flags")
			}
			if arg.Key.Type != boolType {
				return nil, invalid(arg, "presence flag key must be bool, got %s", arg.Key.Type)
			}
			b.mapper = mapper.Erase(mapper.Constant(true))
		default:
			m, ok := reg.Lookup(arg.MapperKey)
			if !ok {
				return nil, &domain.RegistrationError{
					Reason:   domain.MissingMapper,
					Route:    cmd.Route,
					Argument: arg.Name,
					Err:      fmt.Errorf("no mapper for %s", arg.MapperKey),
				}
			}
			if m.Type() != arg.Key.Type {
				return nil, invalid(arg, "mapper produces %s but key holds %s", m.Type(), arg.Key.Type)
			}
			b.mapper = m
		}

		if !arg.IsFlag() {
			c.positional = append(c.positional, b)
			continue
		}
		if _, dup := c.byName[arg.Name]; dup {
			return nil, invalid(arg, "duplicate flag --%s", arg.Name)
		}
		c.byName[arg.Name] = b
		if arg.Shorthand != 0 {
			if arg.Shorthand == '-' || unicode.IsSpace(arg.Shorthand) {
				return nil, invalid(arg, "invalid shorthand %q", arg.Shorthand)
			}
			if _, dup := c.byShort[arg.Shorthand]; dup {
				return nil, invalid(arg, "duplicate shorthand -%c", arg.Shorthand)
			}
			c.byShort[arg.Shorthand] = b
		}
		c.flags = append(c.flags, b)
	}
	return c, nil
}

// Positional returns the positional arguments in declaration order.
func (c *Chain) Positional() []*Bound { return c.positional }

// Flags returns the flags in declaration order.
func (c *Chain) Flags() []*Bound { return c.flags }

// FlagByName looks up a flag by its long name (without dashes).
func (c *Chain) FlagByName(name string) (*Bound, bool) {
	b, ok := c.byName[name]
	return b, ok
}

// FlagByShorthand looks up a flag by its shorthand rune.
func (c *Chain) FlagByShorthand(r rune) (*Bound, bool) {
	b, ok := c.byShort[r]
	return b, ok
}

// Usage renders positionals then flags, e.g. "<name> [-f|--force]".
func (c *Chain) Usage() string {
	parts := make([]string, 0, len(c.positional)+len(c.flags))
	for _, b := range c.positional {
		parts = append(parts, b.Usage())
	}
	for _, b := range c.flags {
		parts = append(parts, b.Usage())
	}
	return strings.Join(parts, " ")
}

// ParseFlagGroup decodes "--name" or a cluster of shorthands such as "-abc".
// It reports false when token is not a flag group of c: a bare "-" or "--",
// or any member that is not a known flag.
func ParseFlagGroup(token string, c *Chain) ([]*Bound, bool) {
	if name, ok := strings.CutPrefix(token, "--"); ok {
		if name == "" {
			return nil, false
		}
		b, found := c.FlagByName(name)
		if !found {
			return nil, false
		}
		return []*Bound{b}, true
	}

	cluster, ok := strings.CutPrefix(token, "-")
	if !ok || cluster == "" {
		return nil, false
	}
	group := make([]*Bound, 0, len(cluster))
	for _, r := range cluster {
		b, found := c.FlagByShorthand(r)
		if !found {
			return nil, false
		}
		group = append(group, b)
	}
	return group, true
}

// IsFlagLike reports whether token looks like a flag, known or not.
func IsFlagLike(token string) bool {
	return strings.HasPrefix(token, "-")
}
