// Package minio stores reconstruction inputs and outputs in MinIO or any
// other S3-compatible service through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "isw", "runs/2026/")
//	rec := iswrec.New(iswrec.WithStore(store))
package minio
