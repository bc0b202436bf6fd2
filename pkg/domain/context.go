package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CommandContext stores the values produced during a single dispatch.
// Argument values are written by the parse engine; hosts may pre-populate
// it (e.g. with SubjectKey) before calling Dispatch or Suggest.
//
// A CommandContext is not safe for concurrent use.
type CommandContext struct {
	ctx    context.Context
	id     string
	values map[KeyID]any
}

// NewCommandContext creates an empty context bound to ctx.
func NewCommandContext(ctx context.Context) *CommandContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CommandContext{
		ctx:    ctx,
		id:     uuid.NewString(),
		values: make(map[KeyID]any),
	}
}

// Context returns the Go context the dispatch runs under.
func (c *CommandContext) Context() context.Context {
	return c.ctx
}

// ID returns the unique identifier of this dispatch, used for log correlation.
func (c *CommandContext) ID() string {
	return c.id
}

// Has reports whether a value is stored under key.
func (c *CommandContext) Has(key Identified) bool {
	_, ok := c.values[key.ID()]
	return ok
}

// Lookup returns the raw value stored under id.
func (c *CommandContext) Lookup(id KeyID) (any, bool) {
	v, ok := c.values[id]
	return v, ok
}

// Store writes a raw value. When replace is false and a value already
// exists, ErrKeyExists is returned and the context is left untouched.
func (c *CommandContext) Store(id KeyID, value any, replace bool) error {
	if _, exists := c.values[id]; exists && !replace {
		return fmt.Errorf("%w: %s", ErrKeyExists, id)
	}
	c.values[id] = value
	return nil
}

// Delete removes the value stored under key, if any.
func (c *CommandContext) Delete(key Identified) {
	delete(c.values, key.ID())
}

// Clone returns a context with the same Go context, ID and a copy of the
// values. Writes to the clone do not affect c.
func (c *CommandContext) Clone() *CommandContext {
	return &CommandContext{ctx: c.ctx, id: c.id, values: c.Snapshot()}
}

// WithContext returns a clone of c that runs under ctx.
func (c *CommandContext) WithContext(ctx context.Context) *CommandContext {
	clone := c.Clone()
	if ctx != nil {
		clone.ctx = ctx
	}
	return clone
}

// Snapshot returns a copy of the stored values.
func (c *CommandContext) Snapshot() map[KeyID]any {
	out := make(map[KeyID]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Get returns the value stored under key.
func Get[T any](c *CommandContext, key Key[T]) (T, bool) {
	var zero T
	raw, ok := c.values[key.id]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// GetOr returns the value stored under key, or fallback when absent.
// Presence flags are typically read this way.
func GetOr[T any](c *CommandContext, key Key[T], fallback T) T {
	if v, ok := Get(c, key); ok {
		return v
	}
	return fallback
}

// Require returns the value stored under key or an error wrapping ErrKeyMissing.
func Require[T any](c *CommandContext, key Key[T]) (T, error) {
	v, ok := Get(c, key)
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrKeyMissing, key)
	}
	return v, nil
}

// Put stores value under key, rejecting the write if the key is already set.
func Put[T any](c *CommandContext, key Key[T], value T) error {
	return c.Store(key.id, value, false)
}

// Replace stores value under key, overwriting any previous value.
func Replace[T any](c *CommandContext, key Key[T], value T) {
	c.values[key.id] = value
}
