package staging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Feeder is the inlet of a stage. External producers offer records through it.
// Offer, Close and Offered may be called from different goroutines.
type Feeder[T any] struct {
	out       outlet[T]
	batchSize int

	// sendMu serializes sends so sequence numbers match queue order.
	sendMu sync.Mutex
	seq    atomic.Uint64

	mu      sync.Mutex
	control *Control
	closed  bool
	closing chan struct{}
}

// NewFeeder creates the feeder of stage. A stage has exactly one feeder.
func NewFeeder[T any](stage *Stage) (*Feeder[T], error) {
	stage.mu.Lock()
	defer stage.mu.Unlock()

	if stage.started {
		return nil, ErrStageStarted
	}
	if stage.feeder != nil {
		return nil, ErrFeederExists
	}
	f := &Feeder[T]{
		out:       outlet[T]{stage: stage, name: stage.name + ".feeder"},
		batchSize: stage.cfg.BatchSize,
		closing:   make(chan struct{}),
	}
	stage.feeder = f
	return f, nil
}

func (f *Feeder[T]) outlet() *outlet[T] {
	return &f.out
}

// Offer submits records as the next batch. It blocks while the first queue is
// full and fails with the halt cause if the stage halts, or with
// ErrFeederClosed if the feeder is closed meanwhile. Ownership of records
// passes to the stage. Empty offers are ignored.
func (f *Feeder[T]) Offer(ctx context.Context, records []T) error {
	if len(records) > f.batchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(records), f.batchSize)
	}
	if len(records) == 0 {
		return nil
	}

	f.mu.Lock()
	control, closed := f.control, f.closed
	f.mu.Unlock()

	switch {
	case control == nil:
		return ErrNotStarted
	case closed:
		return ErrFeederClosed
	case control.Halted():
		return control.haltCause()
	}

	f.sendMu.Lock()
	defer f.sendMu.Unlock()

	select {
	case <-f.closing:
		return ErrFeederClosed
	default:
	}

	batch := Batch[T]{Seq: f.seq.Load(), Records: records}
	select {
	case f.out.ch <- batch:
		f.seq.Add(1)
		return nil
	case <-f.closing:
		return ErrFeederClosed
	case <-control.Done():
		return control.haltCause()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the input. A blocked Offer returns ErrFeederClosed. Close is
// idempotent.
func (f *Feeder[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.closing)
	f.mu.Unlock()

	// Wait for an in-flight send before closing the queue.
	f.sendMu.Lock()
	f.out.close()
	f.sendMu.Unlock()
}

// Offered returns the number of batches accepted so far.
func (f *Feeder[T]) Offered() uint64 {
	return f.seq.Load()
}

func (f *Feeder[T]) bind(control *Control) {
	f.mu.Lock()
	f.control = control
	f.mu.Unlock()
}

func (f *Feeder[T]) connected() bool {
	return f.out.ch != nil
}

func (f *Feeder[T]) queueDepth() int {
	return len(f.out.ch)
}
