package tendril

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/chain"
	"github.com/aretw0/tendril/internal/graph"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/runtime"
	"github.com/aretw0/tendril/internal/worker"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/ports"
)

// ErrClosed is returned by Dispatch for async commands once Close has been called.
var ErrClosed = errors.New("dispatcher closed")

// Dispatcher is the high-level entry point for the Tendril library.
// It owns the command graph and turns command lines into handler calls.
//
// Register and Unregister may run concurrently with Dispatch and Suggest;
// readers always see a consistent snapshot of the registered commands.
type Dispatcher struct {
	graph    *graph.Graph
	mappers  *mapper.Registry
	auth     ports.Authorizer
	regHook  ports.RegistrationHandler
	executor ports.Executor
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	workerLimit int
	pool        *worker.Pool

	regMu    sync.Mutex
	closeMu  sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// New initializes a Dispatcher. Without options it uses the built-in
// mappers, grants every permission and runs async handlers on a bounded pool.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{graph: graph.New()}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	if d.mappers == nil {
		d.mappers = mapper.NewDefaultRegistry()
	}
	if d.auth == nil {
		d.auth = ports.AllowAll
	}
	if d.regHook == nil {
		d.regHook = ports.RegistrationFuncs{}
	}
	if d.executor == nil {
		d.pool = worker.New(d.workerLimit, d.logger)
		d.executor = d.pool
	}
	return d
}

// Mappers returns the registry arguments are resolved against.
func (d *Dispatcher) Mappers() *mapper.Registry {
	return d.mappers
}

// Register adds commands one at a time. A failing or skipped command does
// not prevent the others from being registered; failures are collected in
// a *domain.AggregateError.
func (d *Dispatcher) Register(cmds ...*domain.Command) error {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	var errs []error
	for _, cmd := range cmds {
		skipped, err := d.register(cmd)
		route := ""
		if cmd != nil {
			route = cmd.Route
		}
		d.emitRegistration(domain.EventRegister, route, skipped, err)

		switch {
		case err != nil:
			d.logger.Warn("command registration failed", "route", route, "error", err)
			errs = append(errs, err)
		case skipped:
			d.logger.Debug("command registration skipped", "route", route)
		default:
			d.logger.Debug("command registered", "route", route)
		}
	}
	if len(errs) > 0 {
		return &domain.AggregateError{Errors: errs}
	}
	return nil
}

func (d *Dispatcher) register(cmd *domain.Command) (bool, error) {
	if cmd == nil {
		return false, &domain.RegistrationError{Reason: domain.InvalidCommand, Err: errors.New("nil command")}
	}
	if _, err := domain.ParseRoute(cmd.Route); err != nil {
		return false, &domain.RegistrationError{Reason: domain.InvalidRoute, Route: cmd.Route, Err: err}
	}
	if cmd.Handler == nil {
		return false, &domain.RegistrationError{Reason: domain.InvalidCommand, Route: cmd.Route, Err: errors.New("nil handler")}
	}

	c, err := chain.Build(cmd, d.mappers)
	if err != nil {
		return false, err
	}

	b := &graph.Binding{Command: cmd, Chain: c}
	if err := d.graph.Validate(b); err != nil {
		return false, &domain.RegistrationError{Reason: domain.RouteConflict, Route: cmd.Route, Err: err}
	}
	if d.regHook.OnRegister(cmd) == ports.Skip {
		return true, nil
	}
	if err := d.graph.Insert(b); err != nil {
		return false, &domain.RegistrationError{Reason: domain.RouteConflict, Route: cmd.Route, Err: err}
	}
	return false, nil
}

// Unregister removes previously registered commands. Commands are matched by
// identity: the same *domain.Command that was passed to Register.
func (d *Dispatcher) Unregister(cmds ...*domain.Command) error {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	var errs []error
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		skipped := d.regHook.OnUnregister(cmd) == ports.Skip
		var err error
		if !skipped {
			if derr := d.graph.Delete(cmd); derr != nil {
				reason := domain.NotRegistered
				if errors.Is(derr, domain.ErrInvalidRoute) {
					reason = domain.InvalidRoute
				}
				err = &domain.RegistrationError{Reason: reason, Route: cmd.Route, Err: derr}
			}
		}
		d.emitRegistration(domain.EventUnregister, cmd.Route, skipped, err)

		if err != nil {
			d.logger.Warn("command removal failed", "route", cmd.Route, "error", err)
			errs = append(errs, err)
			continue
		}
		d.logger.Debug("command unregistered", "route", cmd.Route, "skipped", skipped)
	}
	if len(errs) > 0 {
		return &domain.AggregateError{Errors: errs}
	}
	return nil
}

// Dispatch routes line, checks permissions, binds arguments into cc,
// evaluates the command's conditions and runs its handler.
//
// A nil cc means a fresh context. Async commands return as soon as the
// handler has been handed to the executor; their handler errors are logged.
// Async handlers receive a copy of cc whose Go context keeps the caller's
// values but is not cancelled with it.
func (d *Dispatcher) Dispatch(cc *domain.CommandContext, line string) (err error) {
	if cc == nil {
		cc = domain.NewCommandContext(context.Background())
	}

	start := time.Now()
	var cmd *domain.Command
	async := false
	defer func() {
		route := ""
		if cmd != nil {
			route = cmd.Route
		}
		if err != nil {
			d.logger.Debug("dispatch failed", "line", line, "route", route, "dispatch_id", cc.ID(), "error", err)
		}
		if d.hooks.OnDispatch != nil {
			d.hooks.OnDispatch(cc.Context(), &domain.DispatchEvent{
				EventBase: domain.EventBase{Timestamp: start, Type: domain.EventDispatch, DispatchID: cc.ID()},
				Line:      line,
				Route:     route,
				Async:     async,
				Err:       err,
				Duration:  time.Since(start),
			})
		}
	}()

	r := input.NewReader(line)
	m := d.graph.Snapshot().Route(r)
	if m.Err != nil {
		return m.Err
	}

	b := m.Binding()
	cmd = b.Command
	if !d.allowed(cmd, cc) {
		return &domain.AuthorizationError{Route: cmd.Route, Permission: cmd.Permission}
	}

	domain.Replace(cc, domain.CommandKey, cmd)
	if _, err := runtime.Parse(cc, b.Chain, r); err != nil {
		return err
	}
	if err := domain.Check(cmd, cc); err != nil {
		return err
	}

	if cmd.Async {
		async = true
		return d.submit(cc, cmd)
	}
	return cmd.Handler(cc)
}

func (d *Dispatcher) submit(cc *domain.CommandContext, cmd *domain.Command) error {
	d.closeMu.RLock()
	if d.closed {
		d.closeMu.RUnlock()
		return ErrClosed
	}
	d.inflight.Add(1)
	d.closeMu.RUnlock()

	// The caller's context usually ends with its request; async work outlives it.
	cc = cc.WithContext(context.WithoutCancel(cc.Context()))
	d.executor.Go(func() {
		defer d.inflight.Done()
		if err := cmd.Handler(cc); err != nil {
			d.logger.Warn("async handler failed", "route", cmd.Route, "dispatch_id", cc.ID(), "error", err)
		}
	})
	return nil
}

// Suggest returns completion candidates for a partially typed line.
// It never mutates cc or the registered commands.
func (d *Dispatcher) Suggest(cc *domain.CommandContext, line string) []string {
	if cc == nil {
		cc = domain.NewCommandContext(context.Background())
	}
	start := time.Now()
	out := runtime.Suggest(cc, d.graph.Snapshot(), line, d.allowed)

	if d.hooks.OnSuggest != nil {
		d.hooks.OnSuggest(cc.Context(), &domain.SuggestEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventSuggest, DispatchID: cc.ID()},
			Line:      line,
			Count:     len(out),
			Duration:  time.Since(start),
		})
	}
	return out
}

// Syntax renders a usage line for the command (or branch) line reaches.
func (d *Dispatcher) Syntax(line string) string {
	return runtime.Syntax(d.graph.Snapshot(), line)
}

// Commands lists the registered commands, depth first in registration order.
func (d *Dispatcher) Commands() []*domain.Command {
	bindings := d.graph.Snapshot().Bindings()
	out := make([]*domain.Command, len(bindings))
	for i, b := range bindings {
		out[i] = b.Command
	}
	return out
}

// Close stops accepting async work and waits for in-flight async handlers,
// or until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeMu.Lock()
	d.closed = true
	d.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		if d.pool != nil {
			_ = d.pool.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) allowed(cmd *domain.Command, cc *domain.CommandContext) bool {
	return cmd.Permission == "" || d.auth.Authorize(cmd.Permission, cc)
}

func (d *Dispatcher) emitRegistration(typ domain.EventType, route string, skipped bool, err error) {
	hook := d.hooks.OnRegister
	if typ == domain.EventUnregister {
		hook = d.hooks.OnUnregister
	}
	if hook == nil {
		return
	}
	hook(context.Background(), &domain.RegistrationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Route:     route,
		Skipped:   skipped,
		Err:       err,
	})
}
