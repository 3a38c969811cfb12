package estimator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/covariance"
	"github.com/hupe1980/iswrec/glm"
	"golang.org/x/sync/errgroup"
)

// Result is the output of one reconstruction.
type Result struct {
	// Store holds the single reconstructed map, with the realizations and
	// lmax of the input coefficients.
	Store *glm.Store
	// MapTag is the output map tag (OutputPrefix + Job.MapTag).
	MapTag string
	// RecTag is the effective method label.
	RecTag string
	// Tags are the covariance tags, target first.
	Tags []string
	// SkippedSpectra are spectra include entries missing from the dataset.
	SkippedSpectra []string
	// SkippedCoefficients are coefficient include entries missing from the store.
	SkippedCoefficients []glm.MapID
}

// FileTag returns the file tag the result is persisted under.
func (r *Result) FileTag() string {
	return r.MapTag + "." + r.RecTag
}

// Engine computes ISW estimates.
type Engine struct {
	logger  *slog.Logger
	workers int
}

// New creates an engine.
func New(optFns ...Option) *Engine {
	e := &Engine{
		logger:  slog.New(slog.DiscardHandler),
		workers: 1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(e)
		}
	}
	return e
}

// Estimate reconstructs job.Target from the tracer coefficients in store,
// weighting them with the inverse covariance built from ds.
//
// ds must contain the target; store need not. Both inputs are only read.
func (e *Engine) Estimate(ctx context.Context, ds *cldata.Dataset, store *glm.Store, job Job) (*Result, error) {
	job = job.withDefaults()

	tr, err := job.resolve(ds, store)
	if err != nil {
		return nil, err
	}
	recTag := tr.RecTag
	for _, t := range tr.SkippedSpectra {
		e.logger.WarnContext(ctx, "tag not in C_l data; disregarding", slog.String("tag", t))
	}
	for _, id := range tr.SkippedCoefficients {
		e.logger.WarnContext(ctx, "map not in coefficient data; disregarding", slog.String("map", id.String()))
	}

	e.logger.InfoContext(ctx, "computing ISW estimator",
		slog.String("maptag", OutputPrefix+job.MapTag),
		slog.String("rectag", recTag),
	)

	d, err := covariance.Build(ds, cldata.Tags(tr.Spectra...), job.Target, covariance.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	inv, err := covariance.Invert(d, covariance.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}

	sel := store.Select(tr.Coefficients, job.Target)
	if ntr := d.N() - 1; ntr != len(sel.Indices) {
		return nil, &IncludeMismatchError{Coefficients: len(sel.Indices), Spectra: ntr}
	}

	lmax := store.Lmax
	if job.LMax > 0 && job.LMax < lmax {
		lmax = job.LMax
	}
	lmin := max(job.LMin, 1)
	if lmin <= lmax && lmax >= d.NEll() {
		return nil, fmt.Errorf("%w: reconstructing up to l=%d but spectra stop at l=%d", ErrMultipoleRange, lmax, d.NEll()-1)
	}

	res := &Result{
		MapTag:              OutputPrefix + job.MapTag,
		RecTag:              recTag,
		Tags:                d.Tags,
		SkippedSpectra:      tr.SkippedSpectra,
		SkippedCoefficients: tr.SkippedCoefficients,
	}
	out, err := glm.New(store.Lmax, store.Realizations, []glm.MapID{{Map: res.MapTag, Mod: recTag, Mask: glm.DefaultMask}})
	if err != nil {
		return nil, err
	}
	out.RunTag = store.RunTag
	out.FileTags = []string{res.FileTag()}
	res.Store = out

	byL := glm.IndicesByL(store.Lmax)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for l := lmin; l <= lmax; l++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.applyMultipole(gctx, inv, sel.Store, out, l, byL[l])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// applyMultipole writes the estimate for every m of multipole l and every
// realization. Different multipoles touch disjoint coefficients of out.
func (e *Engine) applyMultipole(ctx context.Context, inv *covariance.Inverse, tracers, out *glm.Store, l int, lms []int) {
	d00 := inv.At(l, 0, 0)
	if d00 == 0 {
		e.logger.WarnContext(ctx, "target has no power; leaving multipole at zero", slog.Int("l", l))
		return
	}
	nl := 1 / d00

	ntr := tracers.NMap()
	for r := 0; r < out.NReal(); r++ {
		dst := out.Row(r, 0)
		for _, lm := range lms {
			var acc complex128
			for i := 0; i < ntr; i++ {
				acc -= complex(inv.At(l, 0, i+1), 0) * tracers.At(r, i, lm)
			}
			dst[lm] = acc * complex(nl, 0)
		}
	}
}
