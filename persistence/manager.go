package persistence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/iswrec/blobstore"
	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/codec"
	"github.com/hupe1980/iswrec/glm"
	"github.com/hupe1980/iswrec/resource"
)

const (
	// DatasetDir holds spectrum datasets.
	DatasetDir = "cl/"
	// StoreDir holds coefficient stores.
	StoreDir = "glm/"
	// Ext is the file extension of persisted files.
	Ext = ".isw"
)

// DatasetName returns the blob name of the dataset with the given tag.
func DatasetName(tag string) string {
	return DatasetDir + tag + Ext
}

// StoreName returns the blob name of a coefficient store:
// glm/<filetag>.<runtag>.isw. Multiple file tags are joined with "_"; a
// store without file tags is named after its maps.
func StoreName(st *glm.Store) string {
	tag := strings.Join(st.FileTags, "_")
	if tag == "" {
		tag = strings.Join(st.MapTags(), "_")
	}
	if st.RunTag != "" {
		tag += "." + st.RunTag
	}
	return StoreDir + tag + Ext
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Codec encodes file metadata. Defaults to codec.Default.
	Codec codec.Codec
	// Compression is applied to payload blocks.
	Compression Compression
	// BlockSize is the uncompressed payload block size.
	BlockSize int
	// Resources throttles reads and writes. Nil means unlimited.
	Resources *resource.Controller
	// Logger receives save/load events. Defaults to a discard logger.
	Logger *slog.Logger
}

// Manager saves and loads datasets and coefficient stores in a blob store.
type Manager struct {
	store  blobstore.BlobStore
	opts   []Option
	rc     *resource.Controller
	logger *slog.Logger
}

// NewManager creates a manager writing to store.
func NewManager(store blobstore.BlobStore, opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		store: store,
		opts: []Option{
			WithCodec(opts.Codec),
			WithCompression(opts.Compression),
			WithBlockSize(opts.BlockSize),
		},
		rc:     opts.Resources,
		logger: logger,
	}
}

// Store returns the underlying blob store.
func (m *Manager) Store() blobstore.BlobStore {
	return m.store
}

// SaveDataset writes ds under DatasetName(tag).
func (m *Manager) SaveDataset(ctx context.Context, tag string, ds *cldata.Dataset) (string, error) {
	name := DatasetName(tag)
	return name, m.save(ctx, name, func(w io.Writer) error {
		return EncodeDataset(w, ds, m.opts...)
	})
}

// LoadDataset reads the dataset saved under tag.
func (m *Manager) LoadDataset(ctx context.Context, tag string) (*cldata.Dataset, error) {
	return m.LoadDatasetFile(ctx, DatasetName(tag))
}

// LoadDatasetFile reads a dataset by blob name.
func (m *Manager) LoadDatasetFile(ctx context.Context, name string) (*cldata.Dataset, error) {
	data, err := m.load(ctx, name)
	if err != nil {
		return nil, err
	}
	ds, err := DecodeDataset(data)
	if err != nil {
		return nil, fmt.Errorf("persistence: %s: %w", name, err)
	}
	return ds, nil
}

// SaveStore writes st under StoreName(st) and returns the name.
func (m *Manager) SaveStore(ctx context.Context, st *glm.Store) (string, error) {
	name := StoreName(st)
	return name, m.save(ctx, name, func(w io.Writer) error {
		return EncodeStore(w, st, m.opts...)
	})
}

// LoadStore reads a coefficient store by blob name.
func (m *Manager) LoadStore(ctx context.Context, name string) (*glm.Store, error) {
	data, err := m.load(ctx, name)
	if err != nil {
		return nil, err
	}
	st, err := DecodeStore(data)
	if err != nil {
		return nil, fmt.Errorf("persistence: %s: %w", name, err)
	}
	return st, nil
}

// ListStores returns the names of all persisted coefficient stores.
func (m *Manager) ListStores(ctx context.Context) ([]string, error) {
	return m.list(ctx, StoreDir)
}

// ListDatasets returns the names of all persisted datasets.
func (m *Manager) ListDatasets(ctx context.Context) ([]string, error) {
	return m.list(ctx, DatasetDir)
}

func (m *Manager) list(ctx context.Context, dir string) ([]string, error) {
	names, err := m.store.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, Ext) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Manager) save(ctx context.Context, name string, encode func(io.Writer) error) error {
	start := time.Now()

	wb, err := m.store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("persistence: create %s: %w", name, err)
	}

	cw := NewChecksumWriter(resource.NewRateLimitedWriter(ctx, wb, m.rc))
	if err := encode(cw); err != nil {
		_ = wb.Close()
		_ = m.store.Delete(ctx, name)
		return fmt.Errorf("persistence: write %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("persistence: commit %s: %w", name, err)
	}

	m.logger.Debug("saved",
		slog.String("name", name),
		slog.Int64("bytes", cw.BytesWritten()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (m *Manager) load(ctx context.Context, name string) ([]byte, error) {
	blob, err := m.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", name, err)
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(resource.NewRateLimitedReader(ctx, rc, m.rc))
	if err != nil {
		return nil, fmt.Errorf("persistence: read %s: %w", name, err)
	}

	m.logger.Debug("loaded", slog.String("name", name), slog.Int("bytes", len(data)))
	return data, nil
}
