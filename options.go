package tendril

import (
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/ports"
)

// Option defines a functional option for configuring the Dispatcher.
type Option func(*Dispatcher)

// WithAuthorizer sets the permission check used for commands that declare one.
func WithAuthorizer(auth ports.Authorizer) Option {
	return func(d *Dispatcher) {
		d.auth = auth
	}
}

// WithRegistrationHandler installs a hook consulted for every command
// registered or unregistered.
func WithRegistrationHandler(h ports.RegistrationHandler) Option {
	return func(d *Dispatcher) {
		d.regHook = h
	}
}

// WithMappers replaces the default mapper registry.
func WithMappers(reg *mapper.Registry) Option {
	return func(d *Dispatcher) {
		d.mappers = reg
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithExecutor runs async handlers on exec instead of the built-in pool.
func WithExecutor(exec ports.Executor) Option {
	return func(d *Dispatcher) {
		d.executor = exec
	}
}

// WithWorkerLimit bounds the built-in async pool. Ignored with WithExecutor.
func WithWorkerLimit(n int) Option {
	return func(d *Dispatcher) {
		d.workerLimit = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}
