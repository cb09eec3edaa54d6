package groupcache

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange matches every CapacityError.
	ErrOutOfRange = errors.New("groupcache: node id out of range")
	// ErrInvalidCapacity is returned by New for a zero capacity.
	ErrInvalidCapacity = errors.New("groupcache: capacity must be positive")
	// ErrSealed is returned by Put after Seal.
	ErrSealed = errors.New("groupcache: cache is sealed")
	// ErrClosed is returned by Put after Close.
	ErrClosed = errors.New("groupcache: cache is closed")
)

// CapacityError reports a write addressing a node beyond the allocated capacity.
// It signals an upstream invariant violation: the node count used to size the
// cache was wrong.
type CapacityError struct {
	NodeID   uint64
	Capacity uint64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("groupcache: node id %d out of range [0, %d)", e.NodeID, e.Capacity)
}

// Is makes errors.Is(err, ErrOutOfRange) hold.
func (e *CapacityError) Is(target error) bool { return target == ErrOutOfRange }

// AllocationError reports that the backing store could not be reserved.
//
// The original underlying error can be accessed via errors.Unwrap.
type AllocationError struct {
	Capacity uint64
	Bytes    uint64
	cause    error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("groupcache: allocating %d slots (%d bytes): %v", e.Capacity, e.Bytes, e.cause)
}

func (e *AllocationError) Unwrap() error { return e.cause }
