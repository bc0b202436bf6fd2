package domain

import (
	"fmt"
	"io"
	"strings"
)

// Handler is the user code bound to a command. It reads its arguments
// from the CommandContext populated by the parse engine.
type Handler func(cc *CommandContext) error

// ArgumentKind distinguishes positional arguments from flags.
type ArgumentKind int

const (
	KindPositional ArgumentKind = iota
	KindFlag
)

func (k ArgumentKind) String() string {
	if k == KindFlag {
		return "flag"
	}
	return "positional"
}

// Argument describes one input of a command.
//
// Positional arguments are claimed in declaration order. Flags are addressed
// by "--Name" or "-Shorthand"; a presence flag consumes no value and stores
// true, a value flag converts the following token(s) with its mapper.
type Argument struct {
	Name        string       `json:"name" yaml:"name"`
	Key         KeyID        `json:"-" yaml:"-"`
	MapperKey   KeyID        `json:"-" yaml:"-"`
	Kind        ArgumentKind `json:"kind" yaml:"kind"`
	Shorthand   rune         `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Presence    bool         `json:"presence,omitempty" yaml:"presence,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Positional declares a required positional argument stored under key and
// converted by the mapper registered under mapperKey.
func Positional[T any](name string, key Key[T], mapperKey Key[T]) Argument {
	return Argument{
		Name:      name,
		Key:       key.ID(),
		MapperKey: mapperKey.ID(),
		Kind:      KindPositional,
	}
}

// ValueFlag declares a flag that takes a value. A zero shorthand means the
// flag is only reachable by its long name.
func ValueFlag[T any](name string, shorthand rune, key Key[T], mapperKey Key[T]) Argument {
	return Argument{
		Name:      name,
		Key:       key.ID(),
		MapperKey: mapperKey.ID(),
		Kind:      KindFlag,
		Shorthand: shorthand,
	}
}

// PresenceFlag declares a boolean switch. Its key holds true when the flag
// was given and is absent otherwise.
func PresenceFlag(name string, shorthand rune, key Key[bool]) Argument {
	return Argument{
		Name:      name,
		Key:       key.ID(),
		MapperKey: key.ID(),
		Kind:      KindFlag,
		Shorthand: shorthand,
		Presence:  true,
	}
}

// WithDescription returns a copy of the argument carrying a help text.
func (a Argument) WithDescription(desc string) Argument {
	a.Description = desc
	return a
}

// IsFlag reports whether the argument is addressed by name.
func (a Argument) IsFlag() bool {
	return a.Kind == KindFlag
}

// Usage renders the argument the way syntax lines show it:
// "<name>" for positionals, "[--name]" or "[--name <name>]" for flags.
func (a Argument) Usage() string {
	if !a.IsFlag() {
		return "<" + a.Name + ">"
	}
	flag := "--" + a.Name
	if a.Shorthand != 0 {
		flag = fmt.Sprintf("-%c|--%s", a.Shorthand, a.Name)
	}
	if a.Presence {
		return "[" + flag + "]"
	}
	return "[" + flag + " <" + a.Name + ">]"
}

// Command is a registered unit of work.
type Command struct {
	// Route is a whitespace separated list of fragments, each written as
	// "primary|alias|alias".
	Route string `json:"route" yaml:"route"`

	// Permission is checked with the configured Authorizer. Empty means public.
	Permission string `json:"permission,omitempty" yaml:"permission,omitempty"`

	Arguments   []Argument `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`

	// Async commands are parsed synchronously but their handler runs on the
	// dispatcher's executor.
	Async bool `json:"async,omitempty" yaml:"async,omitempty"`

	Handler    Handler     `json:"-" yaml:"-"`
	Conditions []Condition `json:"-" yaml:"-"`
}

// Path returns the primary names of the route fragments.
func (c *Command) Path() []string {
	frags, err := ParseRoute(c.Route)
	if err != nil {
		return nil
	}
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.Primary
	}
	return out
}

// Name returns the primary path joined by spaces, e.g. "user add".
func (c *Command) Name() string {
	return strings.Join(c.Path(), " ")
}

// CommandKey holds the matched command during a dispatch.
var CommandKey = NewKey[*Command]("command")

// Arguments returns the values bound for the matched command's arguments,
// keyed by argument name. Arguments that were not given are left out.
func Arguments(cc *CommandContext) map[string]any {
	out := make(map[string]any)
	cmd, ok := Get(cc, CommandKey)
	if !ok || cmd == nil {
		return out
	}
	for _, arg := range cmd.Arguments {
		if v, ok := cc.Lookup(arg.Key); ok {
			out[arg.Name] = v
		}
	}
	return out
}

// SubjectKey is a conventional slot for the caller identity
// (user name, session id, ...). Authorizers read it.
var SubjectKey = NewKey[string]("subject")

// OutputKey is where hosts put the writer handlers should print to.
var OutputKey = NewKey[io.Writer]("output")

// Output returns the writer stored under OutputKey, or io.Discard.
func Output(cc *CommandContext) io.Writer {
	if w, ok := Get(cc, OutputKey); ok && w != nil {
		return w
	}
	return io.Discard
}

// Fragment is one whitespace separated segment of a route.
type Fragment struct {
	Primary string
	Aliases []string
}

// Names returns the primary name followed by the aliases.
func (f Fragment) Names() []string {
	return append([]string{f.Primary}, f.Aliases...)
}

// ParseRoute splits a route into its fragments.
func ParseRoute(route string) ([]Fragment, error) {
	fields := strings.Fields(route)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty route", ErrInvalidRoute)
	}

	frags := make([]Fragment, 0, len(fields))
	for _, field := range fields {
		parts := strings.Split(field, "|")
		for _, p := range parts {
			if p == "" {
				return nil, fmt.Errorf("%w: empty name in fragment %q", ErrInvalidRoute, field)
			}
			if strings.HasPrefix(p, "-") {
				return nil, fmt.Errorf("%w: name %q starts with a flag prefix", ErrInvalidRoute, p)
			}
		}
		frags = append(frags, Fragment{Primary: parts[0], Aliases: parts[1:]})
	}
	return frags, nil
}
