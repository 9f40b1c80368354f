// Package stability computes genotype stability indices over
// multi-environment trial data. Both are deterministic closed-form
// aggregations over the genotype × environment cell-mean matrix, with
// no iteration and no approximation.
//
//   - Fox — nonparametric: TOP counts how many environments place the
//     genotype in the top third (first three ranks) of the response.
//     Within one environment exactly min(3, g) genotypes score a point.
//
//   - Shukla — the stability variance
//     σ²ᵢ = g/((g−2)(e−1))·Wᵢ − ΣW/((g−1)(g−2)(e−1)), with
//     Wᵢ = Σⱼ (x̄ᵢⱼ − x̄ᵢ· − x̄·ⱼ + x̄··)², plus the combined selection
//     index SSI = rank(mean, descending) + rank(σ², ascending).
//     Ranks are ordinal (ties broken by table order), so each rank
//     vector is a permutation of 1..g.
//
// Both require a complete GE matrix; unbalanced data must be repaired
// upstream (trial.ImputeEM) first.
package stability
