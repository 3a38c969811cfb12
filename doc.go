// Package iswrec reconstructs the Integrated Sachs-Wolfe (ISW) temperature
// signal from large-scale-structure tracer maps.
//
// The reconstruction is a minimum-variance linear estimator in harmonic
// space. For every multipole l the cross-power spectra of the target and the
// tracers form a covariance matrix D_l; its inverse weights the tracer
// coefficients,
//
//	a_lm(ISW) = -(1/Dinv_l[0,0]) * sum_i Dinv_l[0,i] * g_lm(i)
//
// and the result is compared with the true map through the pixel-space
// correlation coefficient rho.
//
// # Quick Start
//
//	ds := ...    // *cldata.Dataset with the target and tracer spectra
//	glms := ...  // *glm.Store with tracer coefficients per realization
//
//	rec := iswrec.New(
//	    iswrec.WithStore(blobstore.NewLocalStore("./output")),
//	    iswrec.WithLogger(iswrec.NewTextLogger(slog.LevelInfo)),
//	)
//	res, err := rec.Estimate(ctx, ds, glms, estimator.Job{
//	    Coefficients: glm.IDs("gal_bin0", "gal_bin1"),
//	})
//
// # Batches
//
// RunBatch runs several jobs against shared (or per-job) inputs and stores
// all reconstructions side by side in one coefficient file:
//
//	out, err := rec.RunBatch(ctx, []iswrec.Input{{Dataset: ds, Store: glms}}, jobs, "")
//
// # Packages
//
//   - cldata: cross-power spectra and include-list identifiers
//   - glm: harmonic coefficients and coefficient selection
//   - covariance: covariance construction and singular-safe inversion
//   - estimator: the estimator itself
//   - rho: correlation between reconstructed and true maps
//   - persistence, blobstore: storage of inputs and outputs
package iswrec
