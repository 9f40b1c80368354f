// Package cancorr computes canonical correlations between two sets of
// variables measured on the same individuals (typically two trait
// groups of a genotype panel).
//
// Both sets are column-standardized; with correlation blocks R11, R22
// and R12, the canonical structure comes from the symmetric eigenvalue
// problem
//
//	K = R11^{-1/2}·R12·R22⁻¹·R21·R11^{-1/2}
//
// whose eigenvalues are the squared canonical correlations. The first
// set's coefficients are a = R11^{-1/2}·w, the second's
// b = R22⁻¹·R21·a / r, both unit-variance on the standardized scale.
// Loadings are the correlations of each original variable with its own
// canonical variate, cross-loadings with the opposite variate.
//
// Each pair set i is tested on Wilks' Λᵢ = Π_{j≥i}(1−rⱼ²), either with
// Bartlett's χ² approximation (default) or with Rao's F approximation;
// Options.Test selects between them.
package cancorr
