package dsl

import (
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
)

// Registrar is satisfied by *tendril.Dispatcher.
type Registrar interface {
	Register(cmds ...*domain.Command) error
}

// Builder collects command definitions.
type Builder struct {
	order    []string
	commands map[string]*CommandBuilder
}

// New creates a new command set builder.
func New() *Builder {
	return &Builder{
		commands: make(map[string]*CommandBuilder),
	}
}

// Add starts a command under route.
// If the route was already added, it returns the existing builder.
func (b *Builder) Add(route string) *CommandBuilder {
	if cb, ok := b.commands[route]; ok {
		return cb
	}
	cb := &CommandBuilder{cmd: domain.Command{Route: route}}
	b.commands[route] = cb
	b.order = append(b.order, route)
	return cb
}

// Build returns the commands in the order they were added.
// Every command must have a handler.
func (b *Builder) Build() ([]*domain.Command, error) {
	out := make([]*domain.Command, 0, len(b.order))
	var errs []error
	for _, route := range b.order {
		cmd := b.commands[route].Build()
		if cmd.Handler == nil {
			errs = append(errs, fmt.Errorf("command %q has no handler", route))
			continue
		}
		out = append(out, cmd)
	}
	if len(errs) > 0 {
		return nil, &domain.AggregateError{Errors: errs}
	}
	return out, nil
}

// RegisterTo builds the commands and registers them with r.
func (b *Builder) RegisterTo(r Registrar) ([]*domain.Command, error) {
	cmds, err := b.Build()
	if err != nil {
		return nil, err
	}
	return cmds, r.Register(cmds...)
}
