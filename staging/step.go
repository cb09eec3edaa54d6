package staging

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProcessFunc transforms one batch. It may call send zero or more times.
// A returned error halts the stage.
type ProcessFunc[In, Out any] func(ctx context.Context, batch Batch[In], send Sender[Out]) error

// Sender pushes a batch to the next step. It blocks while the downstream queue
// is full and returns the halt cause if the stage halts meanwhile.
type Sender[T any] func(batch Batch[T]) error

// Upstream is a source a step can be wired to: a Feeder or another step.
type Upstream[T any] interface {
	outlet() *outlet[T]
}

// outlet is the output side of a feeder or step. ch stays nil until a
// downstream step is wired to it.
type outlet[T any] struct {
	stage *Stage
	name  string
	ch    chan Batch[T]
}

func (o *outlet[T]) connect(capacity int) (chan Batch[T], error) {
	if o.ch != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyConnected, o.name)
	}
	o.ch = make(chan Batch[T], capacity)
	return o.ch, nil
}

func (o *outlet[T]) close() {
	if o.ch != nil {
		close(o.ch)
	}
}

// ProcessorStep is a pipeline step that runs a ProcessFunc on a fixed number
// of workers.
type ProcessorStep[In, Out any] struct {
	name    string
	workers int
	fn      ProcessFunc[In, Out]
	in      <-chan Batch[In]
	out     outlet[Out]

	control  *Control
	observer BatchObserver
	stats    stepCounters
}

// AddStep appends a step to stage that consumes the output of upstream.
// workers <= 0 selects Config.Workers.
func AddStep[In, Out any](stage *Stage, upstream Upstream[In], name string, workers int, fn ProcessFunc[In, Out]) (*ProcessorStep[In, Out], error) {
	stage.mu.Lock()
	defer stage.mu.Unlock()

	if stage.started {
		return nil, ErrStageStarted
	}
	up := upstream.outlet()
	if up.stage != stage {
		return nil, ErrForeignUpstream
	}
	in, err := up.connect(stage.cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = stage.cfg.Workers
	}
	p := &ProcessorStep[In, Out]{
		name:     name,
		workers:  workers,
		fn:       fn,
		in:       in,
		out:      outlet[Out]{stage: stage, name: name},
		observer: stage.observer,
	}
	stage.steps = append(stage.steps, p)
	return p, nil
}

func (p *ProcessorStep[In, Out]) outlet() *outlet[Out] {
	return &p.out
}

// Name returns the step name.
func (p *ProcessorStep[In, Out]) Name() string {
	return p.name
}

// Workers returns the number of workers of the step.
func (p *ProcessorStep[In, Out]) Workers() int {
	return p.workers
}

// Stats returns a snapshot of the step's progress.
func (p *ProcessorStep[In, Out]) Stats() StepStats {
	return p.stats.snapshot(p.name, p.workers, len(p.in))
}

// start launches the workers. The output queue is closed and the step
// reported done once all of them exited.
func (p *ProcessorStep[In, Out]) start(control *Control) {
	p.control = control

	g := new(errgroup.Group)
	for range p.workers {
		g.Go(p.work)
	}

	go func() {
		_ = g.Wait()
		p.out.close()
		p.stats.done.Store(true)
		p.control.stepDone()
	}()
}

func (p *ProcessorStep[In, Out]) work() error {
	for {
		if p.control.Halted() {
			return nil
		}

		var (
			batch Batch[In]
			ok    bool
		)
		select {
		case <-p.control.Done():
			return nil
		case batch, ok = <-p.in:
			if !ok {
				return nil
			}
		}

		if err := p.process(batch); err != nil {
			p.control.Fail(err)
			return err
		}
	}
}

func (p *ProcessorStep[In, Out]) process(batch Batch[In]) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &ProcessError{Step: p.name, Seq: batch.Seq, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	if err := p.fn(p.control.Context(), batch, p.send); err != nil {
		return &ProcessError{Step: p.name, Seq: batch.Seq, Err: err}
	}

	elapsed := time.Since(start)
	p.stats.busy.Add(int64(elapsed))
	p.stats.records.Add(uint64(batch.Len()))
	p.stats.batches.Add(1)
	if p.observer != nil {
		p.observer(p.name, batch.Len(), elapsed)
	}
	return nil
}

func (p *ProcessorStep[In, Out]) send(batch Batch[Out]) error {
	if p.out.ch == nil {
		return ErrNoDownstream
	}
	if p.control.Halted() {
		return p.control.haltCause()
	}
	select {
	case p.out.ch <- batch:
		p.stats.sent.Add(1)
		return nil
	case <-p.control.Done():
		return p.control.haltCause()
	}
}
