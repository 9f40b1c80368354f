package faiblup

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/agrostat/met/factanal"
)

var (
	// ErrDimension means gens/traits labels do not match the matrix
	// shape.
	ErrDimension = errors.New("faiblup: label/matrix dimension mismatch")

	// ErrNonFinite marks NaN or ±Inf in the input values.
	ErrNonFinite = errors.New("faiblup: non-finite value in input")

	// ErrTooFewGens means fewer than 3 genotypes; the trait correlation
	// structure needs at least that many observations.
	ErrTooFewGens = errors.New("faiblup: at least 3 genotypes required")

	// ErrDirections means Options.Desirable does not carry one
	// direction per trait.
	ErrDirections = errors.New("faiblup: one direction per trait required")

	// ErrZeroVariance marks a trait whose values are all equal; it
	// cannot be rescaled to 0–100.
	ErrZeroVariance = errors.New("faiblup: zero-variance trait")

	// ErrIntensity marks a selection intensity outside (0, 100].
	ErrIntensity = errors.New("faiblup: selection intensity out of range")
)

// Direction states which end of a trait's scale is desirable.
type Direction int

const (
	// Max marks higher-is-better traits (yield).
	Max Direction = iota
	// Min marks lower-is-better traits (lodging, disease score).
	Min
)

// Options configures the index.
type Options struct {
	// Desirable gives the preferred direction per trait; nil means Max
	// for every trait.
	Desirable []Direction

	// MinEigenvalue is the factor retention threshold (default 1).
	MinEigenvalue float64

	// SelectionIntensity is the selected fraction in percent
	// (default 15).
	SelectionIntensity float64
}

// DefaultOptions returns the conventional configuration: every trait
// Max-desirable, Kaiser retention, 15 % selection intensity.
func DefaultOptions() Options {
	return Options{
		MinEigenvalue:      1,
		SelectionIntensity: 15,
	}
}

// Differential is the per-trait effect of the selection, on the
// original value scale.
type Differential struct {
	Trait        string
	MeanAll      float64
	MeanSelected float64
	Differential float64 // MeanSelected − MeanAll
	Percent      float64 // Differential / MeanAll · 100
}

// Result is the full FAI-BLUP output.
type Result struct {
	Gens   []string
	Traits []string

	// Rescaled is the g × f matrix after the 0–100 desirability
	// rescale.
	Rescaled *mat.Dense

	// Factors is the decomposition of the rescaled matrix.
	Factors *factanal.Factors

	// Ideotypes names the 2^k combinations of the k retained factors;
	// index 0 ("ID1") is the all-desirable one.
	Ideotypes []string

	// IdeotypeTargets is the 2^k × f matrix of ideotype positions in
	// the rescaled trait space: a trait sits at 100 when its dominant
	// factor is desirable in the combination, at 0 otherwise.
	IdeotypeTargets *mat.Dense

	// Probabilities is the g × 2^k proximity matrix; every column sums
	// to 1 over genotypes.
	Probabilities *mat.Dense

	// Ranks[i][k] is the 1-based rank of genotype i toward ideotype k
	// (1 = closest).
	Ranks [][]int

	// Selected lists the genotypes picked for the all-desirable
	// ideotype, best first.
	Selected []string

	// Differentials reports the selection response per trait.
	Differentials []Differential

	// SelectionIntensity echoes the applied percentage.
	SelectionIntensity float64
}
