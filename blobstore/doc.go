// Package blobstore provides the storage abstraction export sinks write to.
//
// Store is the interface for writing and reading immutable blobs (exported
// group blocks). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and dry runs
//   - LocalStore: local filesystem, atomic writes via rename
//   - minio.Store: MinIO and other S3-compatible object stores
//   - s3.Store: Amazon S3 with multipart uploads and CRC32C checksums
//
// # Custom Implementations
//
//	type Store interface {
//	    Put(ctx, name, data) error          // Atomic write
//	    Get(ctx, name) ([]byte, error)      // Whole-blob read
//	    List(ctx, prefix) ([]string, error) // Sorted names
//	    Delete(ctx, name) error
//	}
package blobstore
