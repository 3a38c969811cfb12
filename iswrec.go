package iswrec

import (
	"context"
	"time"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/covariance"
	"github.com/hupe1980/iswrec/estimator"
	"github.com/hupe1980/iswrec/glm"
	"github.com/hupe1980/iswrec/resource"
	"github.com/hupe1980/iswrec/rho"
)

// Persister saves coefficient stores and returns the name they were saved
// under. *persistence.Manager implements it.
type Persister interface {
	SaveStore(ctx context.Context, st *glm.Store) (string, error)
}

// MapMaker synthesizes real-space maps from coefficients. Map files follow
// the rho naming convention, {mapdir}{filebase}.r{realization:05d}.fits.
type MapMaker interface {
	MakeMaps(ctx context.Context, st *glm.Store, nside int, plot bool) error
}

// Reconstructor runs ISW reconstructions and handles their side effects.
// It is safe for concurrent use.
type Reconstructor struct {
	opts   options
	engine *estimator.Engine
}

// New creates a Reconstructor.
func New(optFns ...Option) *Reconstructor {
	o := applyOptions(optFns)
	return &Reconstructor{
		opts: o,
		engine: estimator.New(
			estimator.WithLogger(o.logger.Logger),
			estimator.WithWorkers(o.workers),
		),
	}
}

// Logger returns the configured logger.
func (r *Reconstructor) Logger() *Logger {
	return r.opts.logger
}

// Estimate runs one reconstruction. When a persister or map maker is
// configured, the result is saved and mapped after the computation
// completes.
func (r *Reconstructor) Estimate(ctx context.Context, ds *cldata.Dataset, store *glm.Store, job estimator.Job) (*estimator.Result, error) {
	res, err := r.estimate(ctx, ds, store, job)
	if err != nil {
		return nil, err
	}
	if err := r.emit(ctx, res.Store); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Reconstructor) estimate(ctx context.Context, ds *cldata.Dataset, store *glm.Store, job estimator.Job) (*estimator.Result, error) {
	if ds == nil || store == nil {
		return nil, ErrNilInput
	}

	start := time.Now()
	res, err := r.engine.Estimate(ctx, ds, store, job)
	r.opts.metricsCollector.RecordEstimate(store.NReal(), time.Since(start), err)

	mapTag, recTag := job.OutputMapTag(), job.RecTag
	if res != nil {
		mapTag, recTag = res.MapTag, res.RecTag
	}
	r.opts.logger.LogEstimate(ctx, mapTag, recTag, store.NReal(), err)
	return res, err
}

// emit persists st and synthesizes its maps, whichever is configured.
func (r *Reconstructor) emit(ctx context.Context, st *glm.Store) error {
	if r.opts.persister != nil {
		start := time.Now()
		name, err := r.opts.persister.SaveStore(ctx, st)
		r.opts.metricsCollector.RecordPersist(time.Since(start), err)
		r.opts.logger.LogPersist(ctx, name, err)
		if err != nil {
			return err
		}
	}
	if r.opts.mapMaker != nil {
		if err := r.opts.mapMaker.MakeMaps(ctx, st, r.opts.nside, r.opts.plot); err != nil {
			return err
		}
	}
	return nil
}

// ExpectedRho predicts the mean rho of a reconstruction from its spectra.
func (r *Reconstructor) ExpectedRho(ds *cldata.Dataset, job estimator.Job) (float64, error) {
	return estimator.ExpectedRho(ds, job, covariance.WithLogger(r.opts.logger.Logger))
}

// Rho compares two map sequences realization by realization. Map loads are
// bounded by the configured resource controller, or by the worker count when
// none is set.
func (r *Reconstructor) Rho(ctx context.Context, reader rho.MapReader, mapdir, base1, base2 string, nreal int, realizations []int) (*rho.Data, error) {
	rc := r.opts.resources
	if rc == nil {
		rc = resource.NewController(resource.Config{MaxWorkers: int64(r.opts.workers)})
	}
	e := rho.New(reader,
		rho.WithLogger(r.opts.logger.Logger),
		rho.WithResourceController(rc),
	)
	rlzns := rho.Realizations(nreal, realizations)
	vals, err := e.ManyReal(ctx, mapdir, base1, base2, nreal, rlzns)
	if err != nil {
		return nil, err
	}
	return &rho.Data{Map1: base1, Map2: base2, Realizations: rlzns, Rho: vals}, nil
}
