// Package covariance builds and inverts the per-multipole covariance matrix
// D_l used by the minimum-variance ISW estimator.
//
// Index 0 of every matrix is reserved for the reconstruction target; indices
// 1..N-1 are the tracers in include-list order.
//
// Invert is robust against tracers that carry no cross-power at a multipole:
// rows that are exactly zero are removed before the solve and come back as
// zero rows and columns of the inverse, so such a tracer gets zero weight
// instead of making the whole multipole singular.
package covariance
