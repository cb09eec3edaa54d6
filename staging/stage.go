package staging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BatchObserver is called after every batch a step processed successfully.
// It is called concurrently from all workers.
type BatchObserver func(step string, records int, elapsed time.Duration)

// ProduceFunc feeds a stage. ctx is cancelled when the stage halts.
type ProduceFunc func(ctx context.Context) error

type runner interface {
	Name() string
	Stats() StepStats
	start(control *Control)
}

type inlet interface {
	bind(control *Control)
	connected() bool
	queueDepth() int
	Close()
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithLogger sets the logger. Defaults to a logger that discards output.
func WithLogger(logger *slog.Logger) StageOption {
	return func(s *Stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBatchObserver registers a callback for processed batches.
func WithBatchObserver(observer BatchObserver) StageOption {
	return func(s *Stage) {
		s.observer = observer
	}
}

// WithMonitorInterval logs the progress of every step at the given interval.
// Zero disables the monitor.
func WithMonitorInterval(d time.Duration) StageOption {
	return func(s *Stage) {
		s.monitorInterval = d
	}
}

// Stage is an ordered chain of steps connected by bounded queues.
// A Stage runs once.
type Stage struct {
	name            string
	cfg             Config
	logger          *slog.Logger
	observer        BatchObserver
	monitorInterval time.Duration

	mu      sync.Mutex
	feeder  inlet
	steps   []runner
	started bool
	control *Control
	monitor chan struct{}
	began   time.Time
}

// NewStage creates an empty stage. Zero config fields select defaults.
func NewStage(name string, cfg Config, opts ...StageOption) *Stage {
	s := &Stage{
		name:   name,
		cfg:    cfg.withDefaults(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("stage", name)
	return s
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.name
}

// Config returns the effective configuration.
func (s *Stage) Config() Config {
	return s.cfg
}

// Start validates the wiring and starts the workers of every step.
// ctx bounds the whole run: cancelling it halts the stage.
func (s *Stage) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.started:
		return ErrStageStarted
	case s.feeder == nil:
		return ErrNoFeeder
	case len(s.steps) == 0 || !s.feeder.connected():
		return ErrNoSteps
	}
	s.started = true
	s.began = time.Now()

	s.control = newControl(ctx, len(s.steps), s.logger)
	for _, step := range s.steps {
		step.start(s.control)
	}
	s.feeder.bind(s.control)

	s.logger.Debug("stage started", "steps", len(s.steps))

	if s.monitorInterval > 0 {
		s.monitor = make(chan struct{})
		go s.runMonitor(s.monitor)
	}
	return nil
}

// Control returns the run's Control, nil before Start.
func (s *Stage) Control() *Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// Wait blocks until every step is done and returns the failure cause, if any.
func (s *Stage) Wait() error {
	s.mu.Lock()
	control, monitor := s.control, s.monitor
	s.mu.Unlock()

	if control == nil {
		return ErrNotStarted
	}
	err := control.AwaitCompletion()
	if monitor != nil {
		<-monitor
	}

	if err != nil {
		s.logger.Debug("stage failed", "error", err, "elapsed", time.Since(s.began))
	} else {
		s.logger.Debug("stage completed", "elapsed", time.Since(s.began))
	}
	return err
}

// Run starts the stage, calls produce on the calling goroutine, closes the
// feeder and waits for completion. It returns exactly one failure cause.
// A panic in produce halts the stage and is returned as ErrPanic.
func (s *Stage) Run(ctx context.Context, produce ProduceFunc) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	if err := s.produce(produce); err != nil {
		s.control.Fail(err)
	}
	s.feeder.Close()
	return s.Wait()
}

func (s *Stage) produce(produce ProduceFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: producer: %v", ErrPanic, r)
		}
	}()
	return produce(s.control.Context())
}

// Stats returns the progress of every step in wiring order.
func (s *Stage) Stats() []StepStats {
	s.mu.Lock()
	steps := s.steps
	s.mu.Unlock()

	out := make([]StepStats, 0, len(steps))
	for _, step := range steps {
		out = append(out, step.Stats())
	}
	return out
}
