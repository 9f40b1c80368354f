package factanal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/agrostat/met/trial"
)

// GEFactanal runs the environment stratification for the given traits
// (nil = all traits of the table). Rows carrying NaN for a trait are
// dropped; the surviving genotype × environment matrix must be
// complete.
//
// Errors: trial.ErrUnknownTrait, ErrIncomplete, ErrTooFewEnvs,
// ErrNoFactorRetained, ErrSingularCorr.
func GEFactanal(t *trial.Table, traits []string, opts Options) (*Result, error) {
	if traits == nil {
		traits = t.Traits()
	}

	res := &Result{Traits: make([]TraitFactors, 0, len(traits))}
	for ti, trait := range traits {
		if opts.Progress != nil {
			opts.Progress(trait, ti, len(traits))
		}
		tf, err := analyzeTrait(t, trait, opts)
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", trait, err)
		}
		res.Traits = append(res.Traits, *tf)
	}
	return res, nil
}

func analyzeTrait(t *trial.Table, trait string, opts Options) (*TraitFactors, error) {
	clean, _, err := t.DropMissing(trait)
	if err != nil {
		return nil, err
	}
	ge, err := clean.GEMatrix(trait)
	if err != nil {
		return nil, err
	}
	if missing := ge.MissingCells(); missing > 0 {
		return nil, fmt.Errorf("%d empty cell(s): %w", missing, ErrIncomplete)
	}
	if len(ge.Envs) < 3 {
		return nil, ErrTooFewEnvs
	}

	f, err := Decompose(ge.Means, opts)
	if err != nil {
		return nil, err
	}
	return &TraitFactors{
		Trait:   trait,
		Envs:    ge.Envs,
		Gens:    ge.Gens,
		Factors: *f,
	}, nil
}

// Decompose runs the factor pipeline on an observations × variables
// matrix: correlation → eigen → retain λ ≥ Options.MinEigenvalue →
// varimax → canonical coefficients R⁻¹·L → scores Z·A.
//
// Errors: ErrTooFewVars, ErrNoFactorRetained, ErrSingularCorr,
// ErrRotateConfig.
func Decompose(x *mat.Dense, opts Options) (*Factors, error) {
	_, nv := x.Dims()
	if nv < 2 {
		return nil, ErrTooFewVars
	}

	z, means, sds, err := standardize(x)
	if err != nil {
		return nil, err
	}

	corr := mat.NewSymDense(nv, nil)
	stat.CorrelationMatrix(corr, x, nil)

	values, vectors, err := eigenDesc(corr)
	if err != nil {
		return nil, err
	}

	nf := 0
	for _, v := range values {
		if v >= opts.MinEigenvalue {
			nf++
		}
	}
	if nf == 0 {
		return nil, fmt.Errorf("threshold %g: %w", opts.MinEigenvalue, ErrNoFactorRetained)
	}

	// Initial loadings L[i,k] = v[i,k]·√λ_k over the retained factors.
	loadings := mat.NewDense(nv, nf, nil)
	for k := 0; k < nf; k++ {
		scale := math.Sqrt(math.Max(values[k], 0))
		for i := 0; i < nv; i++ {
			loadings.Set(i, k, vectors.At(i, k)*scale)
		}
	}

	rotated, err := Varimax(loadings, opts.RotateMaxIter, opts.RotateTol)
	if err != nil {
		return nil, err
	}

	var inv mat.Dense
	if err := inv.Inverse(corr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCorr, err)
	}
	var coeff mat.Dense
	coeff.Mul(&inv, rotated)

	var scores mat.Dense
	scores.Mul(z, &coeff)

	explained := make([]float64, nf)
	cumulative := make([]float64, nf)
	run := 0.0
	for k := 0; k < nf; k++ {
		explained[k] = values[k] / float64(nv) * 100
		run += explained[k]
		cumulative[k] = run
	}

	communality := make([]float64, nv)
	cluster := make([]int, nv)
	for i := 0; i < nv; i++ {
		best := 0.0
		for k := 0; k < nf; k++ {
			l := rotated.At(i, k)
			communality[i] += l * l
			if a := math.Abs(l); a > best {
				best = a
				cluster[i] = k
			}
		}
	}

	return &Factors{
		Eigenvalues:  values,
		Explained:    explained,
		Cumulative:   cumulative,
		NFactors:     nf,
		Loadings:     rotated,
		Communality:  communality,
		Coefficients: &coeff,
		Scores:       &scores,
		Cluster:      cluster,
		colMeans:     means,
		colSDs:       sds,
	}, nil
}

// standardize returns the column-standardized copy of x (sample
// standard deviation) plus the column statistics. A constant column
// makes the correlation structure singular.
func standardize(x *mat.Dense) (*mat.Dense, []float64, []float64, error) {
	r, c := x.Dims()
	z := mat.NewDense(r, c, nil)
	means := make([]float64, c)
	sds := make([]float64, c)
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		mat.Col(col, j, x)
		mean, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			return nil, nil, nil, fmt.Errorf("constant column %d: %w", j, ErrSingularCorr)
		}
		means[j], sds[j] = mean, sd
		for i := 0; i < r; i++ {
			z.Set(i, j, (col[i]-mean)/sd)
		}
	}
	return z, means, sds, nil
}

// eigenDesc decomposes a symmetric matrix and returns eigenvalues and
// eigenvectors sorted by descending eigenvalue.
func eigenDesc(s *mat.SymDense) ([]float64, *mat.Dense, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(s, true); !ok {
		return nil, nil, fmt.Errorf("eigen decomposition failed: %w", ErrSingularCorr)
	}
	n, _ := s.Dims()
	asc := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	values := make([]float64, n)
	sorted := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		src := n - 1 - k // EigenSym reports ascending order
		values[k] = asc[src]
		for i := 0; i < n; i++ {
			sorted.Set(i, k, vecs.At(i, src))
		}
	}
	return values, sorted, nil
}
