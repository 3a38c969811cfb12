package estimator

import (
	"fmt"
	"math"

	"github.com/hupe1980/iswrec/cldata"
	"github.com/hupe1980/iswrec/covariance"
)

// ExpectedRho predicts the mean pixel-space correlation between the target
// map and its reconstruction for job, using only the spectra in ds:
//
//	rho = sum_l (2l+1) C_l^TR / sqrt(sum_l (2l+1) C_l^TT * sum_l (2l+1) C_l^RR)
//
// over the job's multipole range. It returns 0 when either map carries no
// power in that range.
func ExpectedRho(ds *cldata.Dataset, job Job, optFns ...covariance.Option) (float64, error) {
	job = job.withDefaults()

	tr, err := job.resolve(ds, nil)
	if err != nil {
		return 0, err
	}
	d, err := covariance.Build(ds, cldata.Tags(tr.Spectra...), job.Target, optFns...)
	if err != nil {
		return 0, err
	}
	inv, err := covariance.Invert(d, optFns...)
	if err != nil {
		return 0, err
	}

	lmax := d.NEll() - 1
	if job.LMax > 0 {
		if job.LMax > lmax {
			return 0, fmt.Errorf("%w: lmax %d beyond spectra lmax %d", ErrMultipoleRange, job.LMax, lmax)
		}
		lmax = job.LMax
	}

	n := d.N()
	w := make([]float64, n)
	var sumTR, sumTT, sumRR float64
	for l := max(job.LMin, 1); l <= lmax; l++ {
		d00 := inv.At(l, 0, 0)
		if d00 == 0 {
			continue
		}
		nl := 1 / d00
		for i := 1; i < n; i++ {
			w[i] = -nl * inv.At(l, 0, i)
		}

		var ctr, crr float64
		for i := 1; i < n; i++ {
			ctr += w[i] * d.At(l, 0, i)
			for j := 1; j < n; j++ {
				crr += w[i] * w[j] * d.At(l, i, j)
			}
		}
		g := float64(2*l + 1)
		sumTR += g * ctr
		sumTT += g * d.At(l, 0, 0)
		sumRR += g * crr
	}

	if sumTT <= 0 || sumRR <= 0 {
		return 0, nil
	}
	return sumTR / math.Sqrt(sumTT*sumRR), nil
}
