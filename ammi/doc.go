// Package ammi fits the Additive Main effects and Multiplicative
// Interaction (AMMI) model to multi-environment trial data and
// reconstructs predicted cell means at a chosen interaction rank.
//
// Algorithm outline (Fit):
//  1. Drop rows with a missing trait value (count reported as a warning).
//  2. Fit the joint two-way ANOVA (anova.Joint) to obtain the residual
//     mean square and degrees of freedom. Unbalanced genotype ×
//     environment matrices are rejected unless Options.Impute is set,
//     in which case the empty cells are filled by trial.ImputeEM and
//     the model records an imputation warning; the matrix analyzed is
//     then no longer the literal input.
//  3. Form the doubly-centered interaction residual
//     res[i,j] = mean[i,j] − genMean[i] − envMean[j] + grand
//     and take its singular value decomposition.
//  4. With g genotypes, e environments and r replicates, the model
//     keeps at most minimo = min(g,e)−1 interaction principal
//     component axes (IPCA). Axis k carries
//     DF_k = (g−1)+(e−1)−(2k−1), SS_k = d_k²·r, MS = SS/DF,
//     F = MS/residualMS, p from F(DF_k, residualDF); retention stops at
//     the first non-positive DF_k. Percent and cumulative percent of
//     the interaction sum of squares are reported per axis.
//  5. Genotype scores are U·√d and environment scores V·√d, so the
//     inner product of a genotype row and an environment row restores
//     the full d·u·v interaction term of that cell.
//
// Guard: both factors need at least three levels (minimo ≥ 2);
// anything smaller is an unsupported design for AMMI.
//
// Predict reconstructs cell means at truncation rank naxis ∈ [1, minimo]:
//
//	YpredAMMI[i,j] = additive[i,j] + Σ_{k≤naxis} d_k·U[i,k]·V[j,k]
//
// where additive[i,j] = genMean[i] + envMean[j] − grand. naxis = 0 is
// rejected; the purely additive prediction is always available on the
// Prediction object. At full rank the reconstruction equals the
// observed cell means up to floating-point error.
package ammi
