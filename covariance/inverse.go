package covariance

import (
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
)

// Inverse is Dinv[l,i,j], the per-multipole inverse of a Matrix restricted to
// its non-degenerate rows and columns.
type Inverse struct {
	// Tags are the map tags along both axes; Tags[0] is the target.
	Tags []string

	nell       int
	n          int
	data       []float64
	degenerate []*roaring.Bitmap
}

// NEll returns the number of multipoles.
func (inv *Inverse) NEll() int { return inv.nell }

// N returns the matrix dimension.
func (inv *Inverse) N() int { return inv.n }

// At returns Dinv[l,i,j].
func (inv *Inverse) At(l, i, j int) float64 {
	return inv.data[(l*inv.n+i)*inv.n+j]
}

func (inv *Inverse) set(l, i, j int, v float64) {
	inv.data[(l*inv.n+i)*inv.n+j] = v
}

// Block returns a copy of Dinv_l.
func (inv *Inverse) Block(l int) *mat.Dense {
	off := l * inv.n * inv.n
	return mat.NewDense(inv.n, inv.n, slices.Clone(inv.data[off:off+inv.n*inv.n]))
}

// Degenerate returns the indices whose D_l row was entirely zero. Multipole 0
// reports no indices; it is excluded as a whole.
func (inv *Inverse) Degenerate(l int) []int {
	bm := inv.degenerate[l]
	if bm == nil {
		return nil
	}
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// IsDegenerate reports whether index i was excluded at multipole l.
func (inv *Inverse) IsDegenerate(l, i int) bool {
	bm := inv.degenerate[l]
	return bm != nil && bm.Contains(uint32(i))
}

// Invert computes Dinv for every multipole of d.
//
// Dinv[0] is zero. For l >= 1, indices with an all-zero row are removed, the
// reduced matrix is solved against the identity and the result is scattered
// back to the original indices; removed rows and columns stay zero. A singular
// reduced matrix is a fatal *SingularError.
func Invert(d *Matrix, optFns ...Option) (*Inverse, error) {
	o := applyOptions(optFns)

	inv := &Inverse{
		Tags:       d.Tags,
		nell:       d.nell,
		n:          d.n,
		data:       make([]float64, len(d.data)),
		degenerate: make([]*roaring.Bitmap, d.nell),
	}

	keep := make([]int, 0, d.n)
	for l := 1; l < d.nell; l++ {
		keep = keep[:0]
		deg := roaring.New()
		for i := 0; i < d.n; i++ {
			if d.rowIsZero(l, i) {
				deg.Add(uint32(i))
			} else {
				keep = append(keep, i)
			}
		}
		inv.degenerate[l] = deg

		k := len(keep)
		if k == 0 {
			continue
		}

		reduced := mat.NewDense(k, k, nil)
		for a, i := range keep {
			for b, j := range keep {
				reduced.Set(a, b, d.At(l, i, j))
			}
		}

		var x mat.Dense
		if err := x.Solve(reduced, identity(k)); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return nil, &SingularError{L: l, Tags: d.Tags, cause: err}
			}
			o.logger.Warn("ill-conditioned covariance", slog.Int("l", l), slog.Float64("condition", float64(cond)))
		}

		for a, i := range keep {
			for b := a; b < k; b++ {
				j := keep[b]
				inv.set(l, i, j, x.At(a, b))
				inv.set(l, j, i, x.At(b, a))
			}
		}
	}

	return inv, nil
}

func identity(k int) *mat.DiagDense {
	ones := make([]float64, k)
	for i := range ones {
		ones[i] = 1
	}
	return mat.NewDiagDense(k, ones)
}
