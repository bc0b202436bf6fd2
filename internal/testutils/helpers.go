package testutils

import (
	"sync"
	"testing"

	"github.com/aretw0/tendril/internal/chain"
	"github.com/aretw0/tendril/internal/graph"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/stretchr/testify/require"
)

// BuildGraph resolves and inserts cmds into a fresh graph.
// A nil registry means the built-in mappers.
// It fails the test immediately on error.
func BuildGraph(t *testing.T, reg *mapper.Registry, cmds ...*domain.Command) *graph.Graph {
	t.Helper()

	if reg == nil {
		reg = mapper.NewDefaultRegistry()
	}
	g := graph.New()
	for _, cmd := range cmds {
		c, err := chain.Build(cmd, reg)
		require.NoError(t, err, "Failed to build chain for %q", cmd.Route)
		require.NoError(t, g.Insert(&graph.Binding{Command: cmd, Chain: c}), "Failed to insert %q", cmd.Route)
	}
	return g
}

// Nop is a handler that does nothing.
func Nop(*domain.CommandContext) error { return nil }

// Recorder captures the contexts its handler is invoked with.
type Recorder struct {
	mu    sync.Mutex
	calls []*domain.CommandContext
	Err   error
}

// Handler returns a handler recording each call and returning r.Err.
func (r *Recorder) Handler() domain.Handler {
	return func(cc *domain.CommandContext) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, cc)
		return r.Err
	}
}

// Calls returns the recorded contexts.
func (r *Recorder) Calls() []*domain.CommandContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.CommandContext(nil), r.calls...)
}
