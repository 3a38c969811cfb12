// Package estimator applies the minimum-variance linear ISW estimator.
//
// For every multipole l the estimator builds D_l over [target, tracers...],
// inverts it with covariance.Invert and combines the tracer coefficients as
//
//	a_lm = -N_l * sum_i Dinv_l[0,i+1] * g_lm^i,   N_l = 1/Dinv_l[0,0]
//
// Multipoles below the job's minimum (and above its maximum) are left at zero.
// Multipoles are independent, so Engine may process them concurrently; the
// result does not depend on the worker count.
package estimator
