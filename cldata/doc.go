// Package cldata holds cross-power spectrum datasets.
//
// A Dataset stores C_l for every unordered pair of map tags. Pairs are
// addressed through a flat upper-triangular index so that (i,j) and (j,i)
// always share storage, which makes symmetry a structural property rather than
// something callers have to maintain.
//
// Include-lists used to select maps from a Dataset are built from
// Identifier values: a plain Tag, a MapGroup that expands to its bin tags, or
// a single Bin descriptor.
package cldata
