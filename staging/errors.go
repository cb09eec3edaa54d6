package staging

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted is the failure cause recorded when a stage is halted without a cause.
	ErrHalted = errors.New("staging: halted")

	// ErrInvalidConfig is returned for negative configuration values.
	ErrInvalidConfig = errors.New("staging: invalid config")

	// ErrBatchTooLarge is returned when a producer offers more than Config.BatchSize records.
	ErrBatchTooLarge = errors.New("staging: batch exceeds batch size")

	// ErrAlreadyConnected is returned when an outlet is wired to a second step.
	ErrAlreadyConnected = errors.New("staging: outlet already connected")

	// ErrForeignUpstream is returned when a step is wired to an outlet of another stage.
	ErrForeignUpstream = errors.New("staging: upstream belongs to another stage")

	// ErrStageStarted is returned when a started stage is modified or started again.
	ErrStageStarted = errors.New("staging: stage already started")

	// ErrNotStarted is returned when a feeder is used before its stage was started.
	ErrNotStarted = errors.New("staging: stage not started")

	// ErrNoFeeder is returned when a stage without a feeder is started.
	ErrNoFeeder = errors.New("staging: stage has no feeder")

	// ErrFeederExists is returned when a second feeder is created for a stage.
	ErrFeederExists = errors.New("staging: stage already has a feeder")

	// ErrNoSteps is returned when a stage without steps is started.
	ErrNoSteps = errors.New("staging: stage has no steps")

	// ErrFeederClosed is returned by Offer after Close.
	ErrFeederClosed = errors.New("staging: feeder closed")

	// ErrNoDownstream is returned by the sender of a terminal step.
	ErrNoDownstream = errors.New("staging: step has no downstream")

	// ErrPanic wraps a value recovered from a panicking process or produce function.
	ErrPanic = errors.New("staging: panic")
)

// ProcessError is the failure of one step on one batch.
type ProcessError struct {
	Step string
	Seq  uint64
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("step %s: batch %d: %v", e.Step, e.Seq, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
