// Package s3 implements blobstore.BlobStore on Amazon S3.
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil { ... }
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "isw/")
//
// Reads use ranged GETs; streaming writes go through the multipart
// uploader from feature/s3/manager.
package s3
