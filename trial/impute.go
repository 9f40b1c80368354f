package trial

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ImputeEM fills the empty cells of an unbalanced GE matrix in place
// using an EM-SVD scheme so that a singular value decomposition can be
// applied downstream.
//
// Algorithm outline:
//  1. Initialize every empty cell with its additive expectation
//     genMean + envMean − grand (margins over observed cells only).
//  2. E-step: form the doubly-centered interaction residual of the
//     current matrix and take its SVD.
//  3. M-step: rebuild each empty cell as additive expectation plus the
//     rank-truncated interaction Σ_{k<rank} d_k·U[i,k]·V[j,k].
//  4. Repeat until the largest cell change falls below tol or maxIter
//     sweeps have run.
//
// rank 0 keeps the purely additive fill (step 1 only). Observed cells
// are never modified. Returns the number of cells imputed.
//
// Errors: ErrTooFewLevels (fewer than two genotypes or environments
// leave no interaction structure to estimate from), ErrNoMissingCells,
// ErrImputeRank, ErrEmptyMargin (a genotype or environment with no
// observation at all cannot be recovered).
func ImputeEM(g *GEMatrix, rank, maxIter int, tol float64) (int, error) {
	rows, cols := g.Means.Dims()
	if rows < 2 || cols < 2 {
		return 0, ErrTooFewLevels
	}
	minimo := rows
	if cols < minimo {
		minimo = cols
	}
	minimo--
	if rank < 0 || rank > minimo {
		return 0, ErrImputeRank
	}

	missing := g.MissingCells()
	if missing == 0 {
		return 0, ErrNoMissingCells
	}

	genMeans, envMeans, grand, err := g.Margins()
	if err != nil {
		return 0, err
	}

	// Additive initialization of the empty cells.
	empty := make([][2]int, 0, missing)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if g.Counts[i][j] == 0 {
				empty = append(empty, [2]int{i, j})
				g.Means.Set(i, j, genMeans[i]+envMeans[j]-grand)
			}
		}
	}
	if rank == 0 || maxIter == 0 {
		return missing, nil
	}

	resid := mat.NewDense(rows, cols, nil)
	for iter := 0; iter < maxIter; iter++ {
		gm, em, gr := margins(g.Means)

		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				resid.Set(i, j, g.Means.At(i, j)-gm[i]-em[j]+gr)
			}
		}

		var svd mat.SVD
		if !svd.Factorize(resid, mat.SVDThin) {
			// A degenerate residual leaves the additive fill in place.
			return missing, nil
		}
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		d := svd.Values(nil)

		delta := 0.0
		for _, cell := range empty {
			i, j := cell[0], cell[1]
			inter := 0.0
			for k := 0; k < rank && k < len(d); k++ {
				inter += d[k] * u.At(i, k) * v.At(j, k)
			}
			next := gm[i] + em[j] - gr + inter
			if change := math.Abs(next - g.Means.At(i, j)); change > delta {
				delta = change
			}
			g.Means.Set(i, j, next)
		}
		if delta < tol {
			break
		}
	}

	return missing, nil
}

// margins computes row means, column means and the grand mean of a
// complete matrix (callers guarantee completeness, no NaN handling).
func margins(m *mat.Dense) (rowMeans, colMeans []float64, grand float64) {
	rows, cols := m.Dims()
	rowMeans = make([]float64, rows)
	colMeans = make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			rowMeans[i] += v
			colMeans[j] += v
			grand += v
		}
	}
	for i := range rowMeans {
		rowMeans[i] /= float64(cols)
	}
	for j := range colMeans {
		colMeans[j] /= float64(rows)
	}
	grand /= float64(rows * cols)
	return rowMeans, colMeans, grand
}
