package covariance

import (
	"testing"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-12

func constCl(nell int, v float64) []float64 {
	cl := make([]float64, nell)
	for l := 1; l < nell; l++ {
		cl[l] = v
	}
	return cl
}

// twoMapDataset returns the closed-form scenario: C_TT=2, C_AA=4, C_TA=1 for
// l >= 1 and zero at l = 0.
func twoMapDataset(t *testing.T, nell int) *cldata.Dataset {
	t.Helper()
	ds, err := cldata.New([]string{"isw_bin0", "a"}, nell)
	require.NoError(t, err)
	require.NoError(t, ds.Set("isw_bin0", "isw_bin0", constCl(nell, 2)))
	require.NoError(t, ds.Set("a", "a", constCl(nell, 4)))
	require.NoError(t, ds.Set("isw_bin0", "a", constCl(nell, 1)))
	return ds
}

func threeMapDataset(t *testing.T, nell int) *cldata.Dataset {
	t.Helper()
	ds, err := cldata.New([]string{"a", "isw_bin0", "b", "c"}, nell)
	require.NoError(t, err)
	require.NoError(t, ds.Set("isw_bin0", "isw_bin0", constCl(nell, 3)))
	require.NoError(t, ds.Set("a", "a", constCl(nell, 5)))
	require.NoError(t, ds.Set("b", "b", constCl(nell, 7)))
	require.NoError(t, ds.Set("isw_bin0", "a", constCl(nell, 1)))
	require.NoError(t, ds.Set("isw_bin0", "b", constCl(nell, 0.5)))
	require.NoError(t, ds.Set("a", "b", constCl(nell, 2)))

	// c only carries power at odd multipoles.
	cc := make([]float64, nell)
	ci := make([]float64, nell)
	for l := 1; l < nell; l += 2 {
		cc[l] = 6
		ci[l] = 0.25
	}
	require.NoError(t, ds.Set("c", "c", cc))
	require.NoError(t, ds.Set("c", "isw_bin0", ci))
	return ds
}

func TestBuild_TargetFirstAndSymmetric(t *testing.T) {
	ds := threeMapDataset(t, 6)

	d, err := Build(ds, cldata.Tags("b", "a", "isw_bin0", "b"), "isw_bin0")
	require.NoError(t, err)
	assert.Equal(t, []string{"isw_bin0", "b", "a"}, d.Tags)
	assert.Empty(t, d.Skipped)
	assert.Equal(t, 3, d.N())
	assert.Equal(t, 6, d.NEll())

	for l := 0; l < d.NEll(); l++ {
		for i := 0; i < d.N(); i++ {
			for j := 0; j < d.N(); j++ {
				assert.Equal(t, d.At(l, i, j), d.At(l, j, i))
			}
		}
	}
	assert.Equal(t, 0.5, d.At(2, 0, 1))
	assert.Equal(t, 2.0, d.At(2, 1, 2))
	assert.Equal(t, 0.0, d.At(0, 0, 0))
}

func TestBuild_DefaultsAndSkipped(t *testing.T) {
	ds := threeMapDataset(t, 4)

	d, err := Build(ds, nil, "isw_bin0")
	require.NoError(t, err)
	assert.Equal(t, []string{"isw_bin0", "a", "b", "c"}, d.Tags)

	d, err = Build(ds, []cldata.Identifier{
		cldata.MapGroup{Name: "survey", BinTags: []string{"a", "nope"}},
		cldata.Bin{Tag: "b"},
	}, "isw_bin0")
	require.NoError(t, err)
	assert.Equal(t, []string{"isw_bin0", "a", "b"}, d.Tags)
	assert.Equal(t, []string{"nope"}, d.Skipped)
}

func TestBuild_UnknownTarget(t *testing.T) {
	ds := threeMapDataset(t, 4)
	_, err := Build(ds, nil, "isw_bin9")
	require.ErrorIs(t, err, ErrUnknownTarget)
}

func TestInvert_ClosedForm(t *testing.T) {
	ds := twoMapDataset(t, 5)
	d, err := Build(ds, cldata.Tags("a"), "isw_bin0")
	require.NoError(t, err)

	inv, err := Invert(d)
	require.NoError(t, err)

	for l := 1; l < 5; l++ {
		assert.InDelta(t, 4.0/7, inv.At(l, 0, 0), tol)
		assert.InDelta(t, -1.0/7, inv.At(l, 0, 1), tol)
		assert.InDelta(t, -1.0/7, inv.At(l, 1, 0), tol)
		assert.InDelta(t, 2.0/7, inv.At(l, 1, 1), tol)
	}
}

func TestInvert_MonopoleIsZero(t *testing.T) {
	ds := threeMapDataset(t, 4)
	// Give the monopole real power; it must still be excluded.
	require.NoError(t, ds.Set("a", "a", []float64{9, 5, 5, 5}))

	d, err := Build(ds, nil, "isw_bin0")
	require.NoError(t, err)
	inv, err := Invert(d)
	require.NoError(t, err)

	for i := 0; i < inv.N(); i++ {
		for j := 0; j < inv.N(); j++ {
			assert.Zero(t, inv.At(0, i, j))
		}
	}
	assert.Nil(t, inv.Degenerate(0))
}

func TestInvert_DegenerateRows(t *testing.T) {
	ds := threeMapDataset(t, 6)
	d, err := Build(ds, cldata.Tags("c", "a", "b"), "isw_bin0")
	require.NoError(t, err)
	require.Equal(t, []string{"isw_bin0", "c", "a", "b"}, d.Tags)

	inv, err := Invert(d)
	require.NoError(t, err)

	for l := 1; l < d.NEll(); l++ {
		if l%2 == 0 {
			assert.Equal(t, []int{1}, inv.Degenerate(l))
			assert.True(t, inv.IsDegenerate(l, 1))
			for k := 0; k < inv.N(); k++ {
				assert.Zero(t, inv.At(l, 1, k))
				assert.Zero(t, inv.At(l, k, 1))
			}
		} else {
			assert.Empty(t, inv.Degenerate(l))
		}
	}
}

func TestInvert_ReducedProductIsIdentity(t *testing.T) {
	ds := threeMapDataset(t, 6)
	d, err := Build(ds, cldata.Tags("a", "c", "b"), "isw_bin0")
	require.NoError(t, err)
	inv, err := Invert(d)
	require.NoError(t, err)

	for l := 1; l < d.NEll(); l++ {
		var keep []int
		for i := 0; i < d.N(); i++ {
			if !inv.IsDegenerate(l, i) {
				keep = append(keep, i)
			}
		}
		k := len(keep)
		dr := mat.NewDense(k, k, nil)
		ir := mat.NewDense(k, k, nil)
		for a, i := range keep {
			for b, j := range keep {
				dr.Set(a, b, d.At(l, i, j))
				ir.Set(a, b, inv.At(l, i, j))
			}
		}
		var prod mat.Dense
		prod.Mul(dr, ir)
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				want := 0.0
				if a == b {
					want = 1
				}
				assert.InDelta(t, want, prod.At(a, b), 1e-10, "l=%d (%d,%d)", l, a, b)
			}
		}

		for i := 0; i < inv.N(); i++ {
			for j := 0; j < inv.N(); j++ {
				assert.InDelta(t, inv.At(l, i, j), inv.At(l, j, i), 1e-10)
			}
		}
	}
}

func TestInvert_Singular(t *testing.T) {
	nell := 3
	ds, err := cldata.New([]string{"isw_bin0", "a", "b"}, nell)
	require.NoError(t, err)
	require.NoError(t, ds.Set("isw_bin0", "isw_bin0", constCl(nell, 2)))
	for _, p := range [][2]string{{"a", "a"}, {"b", "b"}, {"a", "b"}} {
		require.NoError(t, ds.Set(p[0], p[1], constCl(nell, 4)))
	}
	require.NoError(t, ds.Set("isw_bin0", "a", constCl(nell, 1)))
	require.NoError(t, ds.Set("isw_bin0", "b", constCl(nell, 1)))

	d, err := Build(ds, nil, "isw_bin0")
	require.NoError(t, err)

	_, err = Invert(d)
	require.ErrorIs(t, err, ErrSingular)

	var se *SingularError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.L)
}

func TestInvert_AllZeroMultipole(t *testing.T) {
	ds, err := cldata.New([]string{"isw_bin0", "a"}, 3)
	require.NoError(t, err)
	require.NoError(t, ds.Set("isw_bin0", "isw_bin0", []float64{0, 1, 0}))
	require.NoError(t, ds.Set("a", "a", []float64{0, 2, 0}))

	d, err := Build(ds, nil, "isw_bin0")
	require.NoError(t, err)
	inv, err := Invert(d)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, inv.Degenerate(2))
	assert.InDelta(t, 1.0, inv.At(1, 0, 0), tol)
	assert.InDelta(t, 0.5, inv.At(1, 1, 1), tol)
	assert.Zero(t, inv.At(2, 0, 0))
}
