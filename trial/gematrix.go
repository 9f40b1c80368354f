package trial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GEMatrix is the genotype-by-environment table of mean trait values:
// genotypes as rows, environments as columns, cell = mean over
// replicates. Cells with no observation hold NaN in Means and 0 in
// Counts; analyses either reject such matrices or fill them via
// ImputeEM before any decomposition.
type GEMatrix struct {
	Trait string
	Gens  []string
	Envs  []string

	// Means is the g×e cell-mean matrix (NaN = empty cell).
	Means *mat.Dense

	// Counts holds the number of replicates aggregated into each cell.
	Counts [][]int
}

// GEMatrix aggregates the table into a genotype × environment matrix
// of cell means for the given trait. Missing values (NaN) do not
// contribute to a cell; a cell with no contributing row stays NaN.
//
// Errors: ErrUnknownTrait.
func (t *Table) GEMatrix(trait string) (*GEMatrix, error) {
	col, ok := t.traits[trait]
	if !ok {
		return nil, fmt.Errorf("%q: %w", trait, ErrUnknownTrait)
	}

	g, e := len(t.genLevels), len(t.envLevels)
	genIdx, envIdx := index(t.genLevels), index(t.envLevels)

	sums := make([][]float64, g)
	counts := make([][]int, g)
	for i := range sums {
		sums[i] = make([]float64, e)
		counts[i] = make([]int, e)
	}

	for row, v := range col {
		if math.IsNaN(v) {
			continue
		}
		i, j := genIdx[t.gens[row]], envIdx[t.envs[row]]
		sums[i][j] += v
		counts[i][j]++
	}

	means := mat.NewDense(g, e, nil)
	for i := 0; i < g; i++ {
		for j := 0; j < e; j++ {
			if counts[i][j] == 0 {
				means.Set(i, j, math.NaN())
				continue
			}
			means.Set(i, j, sums[i][j]/float64(counts[i][j]))
		}
	}

	return &GEMatrix{
		Trait:  trait,
		Gens:   append([]string(nil), t.genLevels...),
		Envs:   append([]string(nil), t.envLevels...),
		Means:  means,
		Counts: counts,
	}, nil
}

// MissingCells returns the number of genotype × environment cells with
// no observation.
func (g *GEMatrix) MissingCells() int {
	missing := 0
	for i := range g.Counts {
		for j := range g.Counts[i] {
			if g.Counts[i][j] == 0 {
				missing++
			}
		}
	}
	return missing
}

// Balanced reports whether every cell has the same positive replicate
// count, the precondition for the closed-form ANOVA decompositions.
func (g *GEMatrix) Balanced() bool {
	if len(g.Counts) == 0 {
		return false
	}
	r := g.Counts[0][0]
	if r == 0 {
		return false
	}
	for i := range g.Counts {
		for j := range g.Counts[i] {
			if g.Counts[i][j] != r {
				return false
			}
		}
	}
	return true
}

// Margins returns the genotype means, environment means and grand mean
// of the cell-mean matrix, ignoring NaN cells. A genotype or
// environment whose every cell is missing yields ErrEmptyMargin.
func (g *GEMatrix) Margins() (genMeans, envMeans []float64, grand float64, err error) {
	rows, cols := g.Means.Dims()
	genMeans = make([]float64, rows)
	envMeans = make([]float64, cols)
	genN := make([]int, rows)
	envN := make([]int, cols)

	total, n := 0.0, 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := g.Means.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			genMeans[i] += v
			envMeans[j] += v
			genN[i]++
			envN[j]++
			total += v
			n++
		}
	}
	for i := range genMeans {
		if genN[i] == 0 {
			return nil, nil, 0, fmt.Errorf("genotype %q: %w", g.Gens[i], ErrEmptyMargin)
		}
		genMeans[i] /= float64(genN[i])
	}
	for j := range envMeans {
		if envN[j] == 0 {
			return nil, nil, 0, fmt.Errorf("environment %q: %w", g.Envs[j], ErrEmptyMargin)
		}
		envMeans[j] /= float64(envN[j])
	}

	return genMeans, envMeans, total / float64(n), nil
}
