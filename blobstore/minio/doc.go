// Package minio provides a blobstore.Store backed by the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This
// package uses the official MinIO Go client and works with any S3-compatible
// store (Ceph, SeaweedFS, Garage), which makes it the air-gap friendly export
// target for on-premise imports.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "imports", "run-42/")
//	res, err := importer.ExportGroups(ctx, cache, store)
package minio
