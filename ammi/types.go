package ammi

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/agrostat/met/anova"
	"github.com/agrostat/met/trial"
)

var (
	// ErrUnsupportedDesign indicates fewer than three genotype or
	// environment levels; AMMI needs minimo = min(g,e)−1 ≥ 2.
	ErrUnsupportedDesign = errors.New("ammi: design needs at least 3 genotypes and 3 environments")

	// ErrUnbalanced indicates missing genotype × environment cells with
	// imputation declined (Options.Impute == false).
	ErrUnbalanced = errors.New("ammi: unbalanced GE matrix (set Options.Impute to fill missing cells)")

	// ErrAxisOutOfRange indicates a Predict rank outside [1, minimo].
	ErrAxisOutOfRange = errors.New("ammi: naxis out of range")

	// ErrSVDFailed indicates that the SVD of the interaction residual
	// did not converge.
	ErrSVDFailed = errors.New("ammi: SVD of interaction residual failed")
)

// Options configures an AMMI fit.
//
// Fields:
//   - Impute        — fill missing GE cells via trial.ImputeEM instead of
//     failing with ErrUnbalanced. Opt-in: the analyzed matrix then
//     deviates from the literal input and the model says so.
//   - ImputeRank    — interaction rank of the EM-SVD fill (0 = additive).
//   - ImputeMaxIter — EM sweep cap.
//   - ImputeTol     — EM convergence threshold on the largest cell change.
//   - Progress      — per-trait progress callback for FitAll.
type Options struct {
	Impute        bool
	ImputeRank    int
	ImputeMaxIter int
	ImputeTol     float64
	Progress      trial.ProgressFunc
}

// DefaultOptions returns the standard configuration: no imputation,
// and rank-1 EM with 100 sweeps at 1e-8 when imputation is enabled.
func DefaultOptions() Options {
	return Options{ImputeRank: 1, ImputeMaxIter: 100, ImputeTol: 1e-8}
}

// Axis is one retained interaction principal component.
type Axis struct {
	Index         int // 1-based IPCA number
	DF            int
	SingularValue float64
	SS            float64
	MS            float64
	F             float64
	P             float64
	Percent       float64
	CumPercent    float64
}

// Observation is one plot with its full-model fit, for residual-plot
// consumption.
type Observation struct {
	Env      string
	Gen      string
	Rep      string
	Value    float64
	Fitted   float64
	Residual float64
}

// Model is a fitted AMMI decomposition for one trait.
//
// GenScores (g × retained) and EnvScores (e × retained) use the
// symmetric √d scaling; row i of GenScores dotted with row j of
// EnvScores equals the modeled interaction of cell (i,j).
type Model struct {
	Trait      string
	Gens       []string
	Envs       []string
	Replicates float64 // effective replicate count (non-integral after imputation)

	// Anova is the AMMI-augmented table: main effects, one row per
	// IPCA axis, the SVD remainder and the error term.
	Anova []anova.Row
	Axes  []Axis

	GenScores *mat.Dense
	EnvScores *mat.Dense

	Means     *trial.GEMatrix
	GrandMean float64
	GenMeans  []float64
	EnvMeans  []float64

	Diagnostics []Observation

	// Dropped and ImputedCells are the data-repair warning surface.
	Dropped      int
	ImputedCells int
	Warnings     []string

	residMS float64
	residDF int

	// Retained SVD factors for Predict.
	u, v *mat.Dense
	d    []float64
}

// Minimo returns the maximum number of interpretable interaction axes,
// min(g,e) − 1.
func (m *Model) Minimo() int { return len(m.d) }

// ResidualMS returns the ANOVA residual mean square used by the axis
// F-tests.
func (m *Model) ResidualMS() float64 { return m.residMS }

// Prediction holds reconstructed cell means at a truncation rank.
type Prediction struct {
	Trait string
	Gens  []string
	Envs  []string
	NAxes int

	// Additive is the main-effects-only prediction
	// genMean + envMean − grand.
	Additive *mat.Dense

	// YpredAMMI is Additive plus the rank-NAxes interaction.
	YpredAMMI *mat.Dense
}
