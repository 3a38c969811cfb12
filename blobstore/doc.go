// Package blobstore abstracts where reconstruction inputs and outputs live.
//
// Spectrum datasets, coefficient stores and real-space maps are stored as
// named blobs. Names use forward slashes (for example "glm/iswREC.run.isw")
// regardless of backend.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads via mmap
//   - MemoryStore: in-process map, for tests
//   - minio.Store: MinIO and other S3-compatible services
//   - s3.Store: Amazon S3 with multipart uploads
//
// All implementations are safe for concurrent use.
package blobstore
