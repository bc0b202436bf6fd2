package dsl

import "github.com/aretw0/tendril/pkg/domain"

// CommandBuilder provides a fluent API for configuring a command.
type CommandBuilder struct {
	cmd domain.Command
}

// Describe sets the help text.
func (c *CommandBuilder) Describe(text string) *CommandBuilder {
	c.cmd.Description = text
	return c
}

// Permission sets the permission checked before dispatch.
func (c *CommandBuilder) Permission(p string) *CommandBuilder {
	c.cmd.Permission = p
	return c
}

// Arg appends argument descriptors built with domain.Positional,
// domain.ValueFlag or domain.PresenceFlag.
func (c *CommandBuilder) Arg(args ...domain.Argument) *CommandBuilder {
	c.cmd.Arguments = append(c.cmd.Arguments, args...)
	return c
}

// Switch appends a presence flag.
func (c *CommandBuilder) Switch(name string, shorthand rune, key domain.Key[bool]) *CommandBuilder {
	return c.Arg(domain.PresenceFlag(name, shorthand, key))
}

// When appends preconditions evaluated after parsing.
func (c *CommandBuilder) When(conds ...domain.Condition) *CommandBuilder {
	c.cmd.Conditions = append(c.cmd.Conditions, conds...)
	return c
}

// Async runs the handler on the dispatcher's executor.
func (c *CommandBuilder) Async() *CommandBuilder {
	c.cmd.Async = true
	return c
}

// Handle sets the handler.
func (c *CommandBuilder) Handle(h domain.Handler) *CommandBuilder {
	c.cmd.Handler = h
	return c
}

// Build returns a fresh copy of the configured command.
// This is primarily used by the Builder, but exposed for advanced usage.
func (c *CommandBuilder) Build() *domain.Command {
	cmd := c.cmd
	cmd.Arguments = append([]domain.Argument(nil), c.cmd.Arguments...)
	cmd.Conditions = append([]domain.Condition(nil), c.cmd.Conditions...)
	return &cmd
}
