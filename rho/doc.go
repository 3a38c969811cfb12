// Package rho measures how well a reconstructed map matches the true map.
//
// rho is the pixel-space correlation coefficient between two maps,
//
//	rho = <(A-<A>)(B-<B>)> / (sigma_A * sigma_B)
//
// with population statistics over all pixels. ManyReal evaluates it for a
// sequence of realizations whose maps follow the naming convention
// {mapdir}{filebase}.r{realization:05d}.fits.
package rho
