package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/iswrec/blobstore"
	"github.com/minio/minio-go/v7"
)

// DefaultPartSize is the multipart chunk size for streamed uploads. Streams
// of unknown length are buffered one part at a time.
const DefaultPartSize = 16 << 20

var errClosed = errors.New("minio: blob already closed")

// Option configures a Store.
type Option func(*Store)

// WithPartSize sets the multipart chunk size used by Create.
func WithPartSize(n uint64) Option {
	return func(s *Store) {
		if n > 0 {
			s.partSize = n
		}
	}
}

// WithUserMetadata attaches metadata to every uploaded object, e.g. the
// producing run or host.
func WithUserMetadata(md map[string]string) Option {
	return func(s *Store) {
		s.metadata = md
	}
}

// Store keeps datasets, coefficient files, maps and rho tables as objects of
// one bucket. Blob names are object keys relative to the store prefix.
type Store struct {
	client   *minio.Client
	bucket   string
	prefix   string
	partSize uint64
	metadata map[string]string
}

// NewStore creates a store for bucket. rootPrefix is prepended to every
// blob name.
func NewStore(client *minio.Client, bucket, rootPrefix string, optFns ...Option) *Store {
	s := &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		partSize: DefaultPartSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(s)
		}
	}
	return s
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// name maps an object key back to a blob name. ok is false for keys outside
// the store prefix.
func (s *Store) name(key string) (string, bool) {
	prefix := strings.TrimSuffix(s.prefix, "/")
	if prefix == "" {
		return key, key != ""
	}
	rest, found := strings.CutPrefix(key, prefix+"/")
	return rest, found && rest != ""
}

// contentType derives the object content type from the blob extension.
func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".rho.dat"):
		return "text/plain; charset=utf-8"
	case strings.HasSuffix(name, ".fits"):
		return "application/fits"
	default:
		return "application/octet-stream"
	}
}

func (s *Store) putOptions(name string, partSize uint64) minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType:  contentType(name),
		UserMetadata: s.metadata,
		PartSize:     partSize,
	}
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open returns a handle that reads the object in ranges.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return &object{client: s.client, bucket: s.bucket, key: key, size: info.Size}, nil
}

// Put uploads data as a single object.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), s.putOptions(name, 0))
	return err
}

// Create streams writes into a multipart upload. The object becomes visible
// when Close returns without error.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	w := &upload{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, s.putOptions(name, s.partSize))
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete removes an object. Missing objects are ignored.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted blob names starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name, ok := s.name(obj.Key); ok && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// object is an opened blob. Each read is a ranged GET.
type object struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (o *object) Size() int64 { return o.size }

func (o *object) Close() error { return nil }

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= o.size {
		return 0, io.EOF
	}

	rc, err := o.ReadRange(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	want := min(int64(len(p)), o.size-off)
	n, err := io.ReadFull(rc, p[:want])
	if err == nil && want < int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= o.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, min(off+length, o.size)-1); err != nil {
		return nil, err
	}
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// upload feeds a background PutObject through a pipe.
type upload struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (u *upload) Write(p []byte) (int, error) { return u.pw.Write(p) }

// Sync is a no-op; data is durable once Close succeeds.
func (u *upload) Sync() error { return nil }

func (u *upload) Close() error {
	if !u.closed.CompareAndSwap(false, true) {
		return errClosed
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.done
}
