package anova

import (
	"errors"

	"github.com/agrostat/met/trial"
)

var (
	// ErrUnbalanced indicates unequal replicate counts across cells; the
	// closed-form decomposition does not apply.
	ErrUnbalanced = errors.New("anova: unbalanced design")

	// ErrTooFewLevels indicates fewer than two levels of a factor.
	ErrTooFewLevels = errors.New("anova: factor needs at least two levels")

	// ErrZeroResidualDF indicates a saturated model with no residual
	// degrees of freedom left to test against.
	ErrZeroResidualDF = errors.New("anova: zero residual degrees of freedom")
)

// Design tags the randomization layout inferred from the table.
type Design int

const (
	// RCBD is a randomized complete block design (replicates only).
	RCBD Design = iota

	// Lattice is a resolvable incomplete-block (alpha-lattice) design,
	// selected by the presence of block labels.
	Lattice
)

// String implements fmt.Stringer for report headers.
func (d Design) String() string {
	if d == Lattice {
		return "ALPHA-LATTICE"
	}
	return "RCBD"
}

// Row is one source line of an ANOVA table. F and P are NaN for
// sources without a test (residual, total).
type Row struct {
	Source string
	DF     int
	SS     float64
	MS     float64
	F      float64
	P      float64
}

// Options configures an ANOVA run.
type Options struct {
	// Progress receives per-trait progress in multi-trait calls.
	Progress trial.ProgressFunc
}

// DefaultOptions returns the zero configuration (silent).
func DefaultOptions() Options { return Options{} }

// JointResult is the fitted joint two-way model for one trait.
type JointResult struct {
	Trait  string
	Design Design
	Rows   []Row

	GrandMean float64
	CV        float64 // coefficient of variation, percent

	// Dropped counts rows removed for missing trait values (warning surface).
	Dropped int

	// Residual mean square and degrees of freedom, consumed by the
	// AMMI axis F-tests.
	ResidMS float64
	ResidDF int

	NGen, NEnv, NRep int
}

// EnvResult is the within-environment model for one environment.
type EnvResult struct {
	Env  string
	Rows []Row

	Mean float64
	CV   float64

	// Heritability is the broad-sense estimate (MSG−MSE)/MSG, clamped
	// to [0, 1]; GenVar is the genotypic variance component (MSG−MSE)/r.
	Heritability float64
	GenVar       float64
	ResidVar     float64
}

// IndividualResult groups per-environment fits for each trait.
type IndividualResult struct {
	Traits []TraitEnvs
}

// TraitEnvs holds the per-environment results of a single trait.
type TraitEnvs struct {
	Trait string
	Envs  []EnvResult
}
