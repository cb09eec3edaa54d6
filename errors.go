package batchimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/batchimport/groupcache"
	"github.com/hupe1980/batchimport/resource"
	"github.com/hupe1980/batchimport/staging"
)

var (
	// ErrCapacity is returned when a record addresses a node id beyond the cache capacity.
	ErrCapacity = errors.New("node id exceeds cache capacity")

	// ErrResourceExhausted is returned when memory for a run could not be reserved or allocated.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrAborted is returned when a run was cancelled.
	ErrAborted = errors.New("import aborted")

	// ErrCacheNotSealed is returned when a cache is read before its writing stage completed.
	ErrCacheNotSealed = errors.New("cache not sealed")
)

// StageError is the failure of a stage run.
//
// The original underlying error can be accessed via errors.Unwrap.
type StageError struct {
	Stage string
	cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.cause)
}

func (e *StageError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Capacity violations are caller bugs.
	if errors.Is(err, groupcache.ErrOutOfRange) {
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	}

	// Resource exhaustion.
	var ae *groupcache.AllocationError
	if errors.As(err, &ae) {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	// Cancellation.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, staging.ErrHalted) {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}

	return err
}
