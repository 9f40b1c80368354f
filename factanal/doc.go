// Package factanal stratifies trial environments by factor analysis of
// the genotype × environment mean matrix.
//
// Pipeline (per trait):
//
//  1. Aggregate cell means with environments as variables and
//     genotypes as observations, then standardize each column.
//  2. Pearson correlation matrix R of the environments.
//  3. Eigen-decomposition of R, eigenvalues sorted descending.
//  4. Retain the factors whose eigenvalue meets Options.MinEigenvalue
//     (Kaiser criterion at the default threshold of 1).
//  5. Initial loadings Lᵢₖ = vᵢₖ·√λₖ, rotated by Varimax.
//  6. Canonical coefficients A = R⁻¹·L; genotype scores F = Z·A.
//
// Environments cluster to the factor holding their largest absolute
// rotated loading; communality is the per-environment sum of squared
// rotated loadings. The matrix-level pipeline (Decompose) and the
// rotation kernel (Varimax) are exported separately for reuse by the
// selection-index package.
package factanal
