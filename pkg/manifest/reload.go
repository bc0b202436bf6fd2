package manifest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Target is the part of a dispatcher a Reloader drives.
type Target interface {
	Register(cmds ...*domain.Command) error
	Unregister(cmds ...*domain.Command) error
}

// Reloader keeps the commands of a source registered in a target,
// swapping them out whenever the source changes.
type Reloader struct {
	source ports.CommandSource
	target Target
	logger *slog.Logger

	mu      sync.Mutex
	current []*domain.Command
}

// NewReloader creates a reloader. A nil logger discards output.
func NewReloader(source ports.CommandSource, target Target, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reloader{source: source, target: target, logger: logger}
}

// Reload rebuilds the commands and replaces the previously registered set.
// If the source cannot be read the current commands stay in place.
// Registration errors of individual commands are returned after the swap.
func (r *Reloader) Reload() error {
	cmds, err := r.source.Commands()
	if len(cmds) == 0 && err != nil {
		r.logger.Warn("manifest reload failed", "error", err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.current) > 0 {
		if uerr := r.target.Unregister(r.current...); uerr != nil {
			r.logger.Debug("failed to remove previous commands", "error", uerr)
		}
	}
	rerr := r.target.Register(cmds...)
	r.current = cmds
	r.logger.Info("manifest loaded", "commands", len(cmds))

	if err != nil {
		return err
	}
	return rerr
}

// Current returns the commands installed by the last reload.
func (r *Reloader) Current() []*domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Command(nil), r.current...)
}

// Run reloads once and then again on every change signaled by the source,
// until ctx is done. Sources that are not ports.Watchable are loaded once.
func (r *Reloader) Run(ctx context.Context) error {
	if err := r.Reload(); err != nil && len(r.Current()) == 0 {
		return err
	}

	w, ok := r.source.(ports.Watchable)
	if !ok {
		return nil
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			_ = r.Reload()
		}
	}
}
