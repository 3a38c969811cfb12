// Package testutil provides deterministic fixtures for iswrec tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Spectra
//
//	ds := testutil.ConstantDataset(nell, map[[2]string]float64{
//	    {"isw_bin0", "isw_bin0"}: 2,
//	    {"gal", "gal"}:           4,
//	    {"isw_bin0", "gal"}:      1,
//	})
//
// # Coefficients and maps
//
//	rng := testutil.NewRNG(seed)
//	store := rng.GaussianStore(lmax, nreal, glm.IDs("gal"))
//	pix := rng.GaussianMap(npix)
package testutil
