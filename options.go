package iswrec

import (
	"log/slog"

	"github.com/hupe1980/iswrec/blobstore"
	"github.com/hupe1980/iswrec/codec"
	"github.com/hupe1980/iswrec/persistence"
	"github.com/hupe1980/iswrec/resource"
)

// DefaultOutputTag is the file tag of combined batch output.
const DefaultOutputTag = "iswREC"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	workers          int
	persister        Persister
	store            blobstore.BlobStore
	codec            codec.Codec
	compression      persistence.Compression
	resources        *resource.Controller
	mapMaker         MapMaker
	nside            int
	plot             bool
	runTag           string
}

// Option configures a Reconstructor.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable logging.
//
//	rec := iswrec.New(iswrec.WithLogger(iswrec.NewJSONLogger(slog.LevelInfo)))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel sets a text logger with the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWorkers sets how many multipoles are estimated concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPersister saves every reconstruction through p.
func WithPersister(p Persister) Option {
	return func(o *options) {
		o.persister = p
	}
}

// WithStore saves reconstructions as persistence files in store. It is
// ignored when WithPersister is also given.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCodec sets the metadata codec for files written through WithStore.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithCompression sets the payload compression for files written through
// WithStore.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithResourceController bounds IO throughput and concurrent map loads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMapMaker turns every saved reconstruction into real-space maps at the
// given HEALPix NSIDE, optionally with plots.
func WithMapMaker(mm MapMaker, nside int, plot bool) Option {
	return func(o *options) {
		o.mapMaker = mm
		o.nside = nside
		o.plot = plot
	}
}

// WithRunTag overrides the run tag of batch output. By default the run tag
// of the first input store is kept.
func WithRunTag(tag string) Option {
	return func(o *options) {
		o.runTag = tag
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		workers:          1,
		nside:            32,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.persister == nil && o.store != nil {
		o.persister = persistence.NewManager(o.store, persistence.ManagerOptions{
			Codec:       o.codec,
			Compression: o.compression,
			Resources:   o.resources,
			Logger:      o.logger.Logger,
		})
	}
	return o
}
