package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// CommandSource supplies command definitions kept outside the program,
// such as manifest files.
type CommandSource interface {
	// Commands builds the current set of commands. Each call returns fresh values.
	Commands() ([]*domain.Command, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definitions change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
