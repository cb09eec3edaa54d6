// Package batchimport is the bulk-ingestion core of a graph database.
//
// An import run is a sequence of stages. Each stage is a staged, parallel
// pipeline (see package staging) that moves batches of records through
// steps with their own worker pools, connected by bounded queues and sharing
// one failure latch. Stages that need random access to per-node state write
// into large off-heap caches that later stages read back.
//
// # Quick Start
//
//	im, err := batchimport.New(staging.Config{BatchSize: 10_000},
//	    batchimport.WithLogger(batchimport.NewTextLogger(slog.LevelInfo)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Grouping phase: fill the relationship group cache.
//	cache, err := im.CacheGroups(ctx, maxNodeID, func(ctx context.Context, offer func([]record.Group) error) error {
//	    for groups := range source {
//	        if err := offer(groups); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	// Linking logic reads the sealed cache.
//	g, ok := cache.Get(42)
//
// # Run Sequencing
//
// The cache is written by a single CACHE worker. CacheGroups seals it only
// after the GROUPS stage completed, so readers never observe a partially
// written cache. A failed stage closes the cache and returns the single
// failure cause of the run.
//
// # Export
//
// ExportGroups streams a sealed cache through an ENCODE and a WRITE step into
// a blobstore.Store (local directory, memory, MinIO or S3). Blocks are framed
// and optionally compressed with LZ4 or ZSTD; ReadGroupBlock decodes them.
//
// # Errors
//
// Errors returned by the Importer can be classified with errors.Is:
//
//   - ErrCapacity: a group addressed a node id beyond the cache capacity
//   - ErrResourceExhausted: the cache could not be allocated within the memory budget
//   - ErrAborted: the run was cancelled
//   - ErrCacheNotSealed: export of a cache that is still being written
//
// The underlying cause (for example *staging.ProcessError) stays reachable
// through errors.As.
package batchimport
