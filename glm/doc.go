// Package glm stores spherical-harmonic coefficients of sky maps.
//
// A Store holds complex coefficients for every realization, map and (l,m)
// pair. Coefficients of one map are laid out in HEALPix order
// (m-major, idx = m*(2*lmax+1-m)/2 + l), the layout used by healpy.
//
// Maps are addressed by a MapID triple (map tag, modification tag, mask tag).
// Missing modification and mask tags default to "unmod" and "fullsky".
package glm
