// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("imports/run-42/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	res, err := importer.ExportGroups(ctx, cache, store)
//
// # Features
//
//   - Multipart uploads (feature/s3/manager) for blobs above the part size
//   - CRC32C integrity checksums validated by S3 on upload
//   - Automatic pagination for listing
//   - Configurable prefix for per-run isolation
package s3
