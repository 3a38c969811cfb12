package covariance

import (
	"log/slog"
	"slices"

	"github.com/hupe1980/iswrec/cldata"
	"gonum.org/v1/gonum/mat"
)

// Matrix is the covariance D[l,i,j] over an ordered tag list.
type Matrix struct {
	// Tags are the map tags along both axes; Tags[0] is the target.
	Tags []string
	// Skipped are include-list tags that were not found in the dataset.
	Skipped []string

	nell int
	n    int
	data []float64
}

func newMatrix(tags []string, nell int) *Matrix {
	n := len(tags)
	return &Matrix{
		Tags: tags,
		nell: nell,
		n:    n,
		data: make([]float64, nell*n*n),
	}
}

// NEll returns the number of multipoles.
func (m *Matrix) NEll() int { return m.nell }

// N returns the matrix dimension.
func (m *Matrix) N() int { return m.n }

// At returns D[l,i,j].
func (m *Matrix) At(l, i, j int) float64 {
	return m.data[(l*m.n+i)*m.n+j]
}

func (m *Matrix) set(l, i, j int, v float64) {
	m.data[(l*m.n+i)*m.n+j] = v
}

// Block returns a copy of D_l.
func (m *Matrix) Block(l int) *mat.SymDense {
	off := l * m.n * m.n
	return mat.NewSymDense(m.n, slices.Clone(m.data[off:off+m.n*m.n]))
}

// rowIsZero reports whether row i of D_l is exactly zero.
func (m *Matrix) rowIsZero(l, i int) bool {
	off := (l*m.n + i) * m.n
	for _, v := range m.data[off : off+m.n] {
		if v != 0 {
			return false
		}
	}
	return true
}

// Build assembles D[l,i,j] = C_l(tag_i, tag_j) from ds.
//
// An empty include-list selects every tag in ds. target is always placed at
// index 0 and never duplicated. Include entries that are not in ds are
// dropped with a warning and reported in Matrix.Skipped.
func Build(ds *cldata.Dataset, include []cldata.Identifier, target string, optFns ...Option) (*Matrix, error) {
	o := applyOptions(optFns)

	if !ds.Has(target) {
		return nil, ErrUnknownTarget
	}
	if len(include) == 0 {
		include = cldata.Tags(ds.Tags()...)
	}

	res := ds.Resolve(append([]cldata.Identifier{cldata.Tag(target)}, include...))
	for _, t := range res.Skipped {
		o.logger.Warn("tag not in C_l data; disregarding", "tag", t)
	}

	m := newMatrix(res.Tags, ds.NEll())
	m.Skipped = res.Skipped

	clind := make([]int, m.n)
	for k, t := range m.Tags {
		clind[k], _ = ds.TagIndex(t)
	}

	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			cl := ds.Spectrum(clind[i], clind[j])
			for l, v := range cl {
				m.set(l, i, j, v)
				if i != j {
					m.set(l, j, i, v)
				}
			}
		}
	}

	o.logger.Debug("built covariance", slog.Int("maps", m.n), slog.Int("nell", m.nell), slog.Any("tags", m.Tags))
	return m, nil
}
