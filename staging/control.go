package staging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Control coordinates one stage run: it tracks which steps are still running
// and latches the first failure. Once halted a Control stays halted.
type Control struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	stop   func() bool

	once   sync.Once
	await  sync.Once
	cause  atomic.Pointer[error]
	halted atomic.Bool

	pending  atomic.Int64
	finished chan struct{}

	logger *slog.Logger
}

// newControl returns a Control for steps running steps. Cancelling parent
// halts the run with the parent's cause.
func newControl(parent context.Context, steps int, logger *slog.Logger) *Control {
	ctx, cancel := context.WithCancelCause(parent)
	c := &Control{
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
		logger:   logger,
	}
	c.pending.Store(int64(steps))
	if steps == 0 {
		close(c.finished)
	}
	c.stop = context.AfterFunc(parent, func() {
		c.Fail(context.Cause(parent))
	})
	return c
}

// Fail halts the run. Only the first cause is kept; later calls still halt
// but do not replace it. A nil cause is recorded as ErrHalted.
func (c *Control) Fail(cause error) {
	if cause == nil {
		cause = ErrHalted
	}
	c.once.Do(func() {
		c.cause.Store(&cause)
		c.logger.Error("stage halted", "error", cause)
	})
	c.halted.Store(true)
	c.cancel(cause)
}

// Halted reports whether the run was halted.
func (c *Control) Halted() bool {
	return c.halted.Load()
}

// Err returns the failure cause, or nil while the run was not halted.
func (c *Control) Err() error {
	if p := c.cause.Load(); p != nil {
		return *p
	}
	return nil
}

// Done returns a channel that is closed when the run is halted or, after a
// successful run, once AwaitCompletion returned. Use Halted to tell the two apart.
func (c *Control) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Context returns the run context. It is cancelled with the failure cause on halt.
func (c *Control) Context() context.Context {
	return c.ctx
}

// AwaitCompletion blocks until every step reported done and returns the
// failure cause, or nil if the run was never halted.
func (c *Control) AwaitCompletion() error {
	<-c.finished
	c.await.Do(func() {
		c.stop()
		if c.ctx.Err() != nil {
			// Parent cancelled, and the AfterFunc may not have run yet.
			c.Fail(context.Cause(c.ctx))
		}
		c.cancel(nil)
	})
	return c.Err()
}

// haltCause is Err, falling back to the context cause while Fail is still
// being delivered from a cancelled parent.
func (c *Control) haltCause() error {
	if err := c.Err(); err != nil {
		return err
	}
	if err := context.Cause(c.ctx); err != nil {
		return err
	}
	return ErrHalted
}

// stepDone records that one step exited.
func (c *Control) stepDone() {
	if c.pending.Add(-1) == 0 {
		close(c.finished)
	}
}
