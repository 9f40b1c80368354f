package factanal

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/agrostat/met/trial"
)

var (
	// ErrIncomplete marks a genotype × environment matrix with empty
	// cells; fill them upstream (trial.ImputeEM) first.
	ErrIncomplete = errors.New("factanal: incomplete genotype × environment matrix")

	// ErrTooFewEnvs marks a design with fewer than 3 environments; an
	// environment correlation structure needs at least that many
	// variables to stratify.
	ErrTooFewEnvs = errors.New("factanal: at least 3 environments required")

	// ErrTooFewVars marks a matrix with fewer than 2 columns.
	ErrTooFewVars = errors.New("factanal: at least 2 variables required")

	// ErrNoFactorRetained means no eigenvalue reached the retention
	// threshold.
	ErrNoFactorRetained = errors.New("factanal: no factor retained at the eigenvalue threshold")

	// ErrSingularCorr marks a correlation matrix that cannot be
	// inverted for the canonical coefficients (collinear or constant
	// variables).
	ErrSingularCorr = errors.New("factanal: singular correlation matrix")
)

// Options configures the factor analysis.
type Options struct {
	// MinEigenvalue is the retention threshold; factors with a smaller
	// eigenvalue are discarded.
	MinEigenvalue float64

	// RotateMaxIter bounds the varimax sweeps.
	RotateMaxIter int

	// RotateTol stops the rotation once the varimax criterion gain per
	// sweep drops below it.
	RotateTol float64

	// Progress, when non-nil, is invoked once per trait.
	Progress trial.ProgressFunc
}

// DefaultOptions returns the Kaiser-criterion configuration.
func DefaultOptions() Options {
	return Options{
		MinEigenvalue: 1,
		RotateMaxIter: 100,
		RotateTol:     1e-8,
	}
}

// Factors is a factor decomposition of an observations × variables
// matrix: variables correlate, factors with a large enough eigenvalue
// survive, loadings get a varimax rotation, observations are scored
// through the canonical coefficients.
type Factors struct {
	// Eigenvalues of the variable correlation matrix, descending (all
	// of them, not only the retained ones).
	Eigenvalues []float64

	// Explained and Cumulative hold percent variance per retained
	// factor.
	Explained  []float64
	Cumulative []float64

	// NFactors is the number of retained factors.
	NFactors int

	// Loadings is the vars × NFactors varimax-rotated loading matrix.
	Loadings *mat.Dense

	// Communality per variable: sum of squared rotated loadings.
	Communality []float64

	// Coefficients is the vars × NFactors canonical coefficient matrix
	// R⁻¹·L used for scoring.
	Coefficients *mat.Dense

	// Scores is the obs × NFactors score matrix Z·A.
	Scores *mat.Dense

	// Cluster assigns each variable (by index) the retained factor
	// (0-based) holding its largest absolute loading.
	Cluster []int

	// colMeans and colSDs of the analyzed matrix, kept so external
	// points can be projected onto the same score space.
	colMeans []float64
	colSDs   []float64
}

// Project maps rows of x (same variables as the analyzed matrix) into
// the factor score space, standardizing with the analysis' own column
// statistics.
func (f *Factors) Project(x *mat.Dense) *mat.Dense {
	r, c := x.Dims()
	z := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			z.Set(i, j, (x.At(i, j)-f.colMeans[j])/f.colSDs[j])
		}
	}
	var out mat.Dense
	out.Mul(z, f.Coefficients)
	return &out
}

// TraitFactors is the environment stratification of one trait.
type TraitFactors struct {
	Trait string
	Envs  []string
	Gens  []string
	Factors
}

// Result groups the per-trait factor analyses.
type Result struct {
	Traits []TraitFactors
}
