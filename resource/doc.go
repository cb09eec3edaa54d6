// Package resource implements the Controller that bounds what an import run
// may consume from the host.
//
// The Controller governs three resources:
//
//   - Memory: off-heap scratch structures (the relationship group cache) reserve
//     their full size before allocation. Reservation is non-blocking and fails
//     fast with ErrMemoryLimitExceeded, which an import treats as fatal.
//   - Stages: the number of stages that may run at the same time when several
//     importers share one Controller.
//   - IO: a token bucket limiting the bytes per second written by export sinks
//     so a bulk export does not starve other tenants of the blob store.
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   8 << 30, // 8GiB of off-heap scratch
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    return err // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(size)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
