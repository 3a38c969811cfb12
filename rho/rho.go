package rho

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/hupe1980/iswrec/resource"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrSizeMismatch is returned when two maps have different pixel counts.
var ErrSizeMismatch = errors.New("rho: maps have different pixel counts")

// Correlate returns the correlation coefficient of a and b,
// cov(a,b)/(sigma_a sigma_b) with population statistics.
//
// The covariance is mean-subtracted, unlike the raw <ab> product used by
// earlier ISW pipelines. The two agree for maps without a monopole, which
// HEALPix maps synthesized from l >= 1 coefficients are; for maps with a
// monopole this form keeps Correlate(m, m) = 1.
//
// Maps with zero variance have no defined correlation; Correlate returns 0
// for them.
func Correlate(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrSizeMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}

	meanA, varA := stat.PopMeanVariance(a, nil)
	meanB, varB := stat.PopMeanVariance(b, nil)
	if varA == 0 || varB == 0 {
		return 0, nil
	}

	cov := floats.Dot(a, b)/float64(len(a)) - meanA*meanB
	return cov / (math.Sqrt(varA) * math.Sqrt(varB)), nil
}

// MapReader loads a real-space map by file name.
type MapReader interface {
	ReadMap(ctx context.Context, name string) ([]float64, error)
}

// FileName returns the file name of one realization of a map.
func FileName(mapdir, filebase string, realization int) string {
	return fmt.Sprintf("%s%s.r%05d.fits", mapdir, filebase, realization)
}

// Realizations returns rlzns if it is non-empty and 0..nreal-1 otherwise.
func Realizations(nreal int, rlzns []int) []int {
	if len(rlzns) > 0 {
		return rlzns
	}
	out := make([]int, nreal)
	for i := range out {
		out[i] = i
	}
	return out
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger for the evaluator.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithResourceController bounds how many realizations are loaded at once.
// Without it realizations are loaded one at a time.
func WithResourceController(rc *resource.Controller) Option {
	return func(e *Evaluator) {
		if rc != nil {
			e.rc = rc
		}
	}
}

// Evaluator computes rho for single maps and for realization sequences.
type Evaluator struct {
	reader MapReader
	logger *slog.Logger
	rc     *resource.Controller
}

// New creates an evaluator that loads maps through reader.
func New(reader MapReader, optFns ...Option) *Evaluator {
	e := &Evaluator{
		reader: reader,
		logger: slog.New(slog.DiscardHandler),
		rc:     resource.NewController(resource.Config{MaxWorkers: 1}),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(e)
		}
	}
	return e
}

// OneReal returns the correlation of two maps. Maps of different size cannot
// be compared; the mismatch is logged and 0 is returned.
func (e *Evaluator) OneReal(a, b []float64) float64 {
	r, err := Correlate(a, b)
	if err != nil {
		e.logger.Error("can't compute correlation between maps with different NSIDE",
			slog.Int("npix_a", len(a)),
			slog.Int("npix_b", len(b)),
		)
		return 0
	}
	return r
}

// ManyReal computes rho between filebase1 and filebase2 for every
// realization in rlzns (or 0..nreal-1 when rlzns is empty). Results are in
// realization order.
func (e *Evaluator) ManyReal(ctx context.Context, mapdir, filebase1, filebase2 string, nreal int, rlzns []int) ([]float64, error) {
	rlzns = Realizations(nreal, rlzns)
	out := make([]float64, len(rlzns))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range rlzns {
		if err := e.rc.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer e.rc.ReleaseWorker()

			m1, err := e.reader.ReadMap(gctx, FileName(mapdir, filebase1, r))
			if err != nil {
				return err
			}
			m2, err := e.reader.ReadMap(gctx, FileName(mapdir, filebase2, r))
			if err != nil {
				return err
			}
			out[i] = e.OneReal(m1, m2)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
