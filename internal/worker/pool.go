// Package worker runs asynchronous command handlers on a bounded pool.
package worker

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/tendril/internal/logging"
)

// DefaultLimit is the number of handlers allowed to run at once.
const DefaultLimit = 8

// Pool is a bounded executor. Go blocks while the pool is saturated.
type Pool struct {
	group  errgroup.Group
	logger *slog.Logger
}

// New creates a pool running at most limit tasks at once.
// A non-positive limit means DefaultLimit.
func New(limit int, logger *slog.Logger) *Pool {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pool{logger: logger}
	p.group.SetLimit(limit)
	return p
}

// Go schedules task. A panicking task is logged and does not stop the pool.
func (p *Pool) Go(task func()) {
	p.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
				p.logger.Error("async task panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		task()
		return nil
	})
}

// Wait blocks until every scheduled task has returned.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
