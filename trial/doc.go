// Package trial defines the data model shared by every met analysis:
// a validated long-format trial table of Environment × Genotype ×
// Replicate (optionally Block) records carrying one or more numeric
// trait columns, plus the genotype-by-environment (GE) matrix of cell
// means derived from it.
//
// Lifecycle:
//
//	records → New → *Table → GEMatrix(trait) → *GEMatrix
//
// The table is the sole externally supplied input of the library; GE
// matrices and everything downstream are derived per call and never
// mutated afterwards. Missing trait values are represented as NaN and
// are either dropped row-wise (DropMissing, with a removal count the
// caller can surface as a warning) or, at the GE-matrix level, filled
// by ImputeEM when an analysis explicitly opts in.
//
// Design principles:
//   - Deterministic: level order is first-appearance order, loops are
//     fixed-order, no map iteration leaks into results.
//   - No logging, no panics on user input; only sentinel errors.
package trial
