package cancorr

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrRowMismatch means the two sets describe different numbers of
	// individuals.
	ErrRowMismatch = errors.New("cancorr: sets have different row counts")

	// ErrNonFinite marks NaN or ±Inf in the input.
	ErrNonFinite = errors.New("cancorr: non-finite value in input")

	// ErrTooFewRows means the sample is too small for the significance
	// approximations.
	ErrTooFewRows = errors.New("cancorr: too few rows")

	// ErrSingular marks a correlation block that cannot be inverted
	// (constant or collinear variables).
	ErrSingular = errors.New("cancorr: singular correlation block")

	// ErrUnknownTest marks an unrecognized Options.Test value.
	ErrUnknownTest = errors.New("cancorr: unknown significance test")
)

// Test selects the significance approximation for the canonical pairs.
type Test string

const (
	// Bartlett is the χ² approximation on Wilks' Λ.
	Bartlett Test = "bartlett"
	// Rao is the F approximation on Wilks' Λ.
	Rao Test = "rao"
)

// Options configures a canonical correlation run.
type Options struct {
	// Test selects the significance approximation (default Bartlett).
	Test Test
}

// DefaultOptions returns the Bartlett configuration.
func DefaultOptions() Options { return Options{Test: Bartlett} }

// Names carries optional variable labels for the two sets; nil slices
// fall back to positional labels (X1…, Y1…).
type Names struct {
	First  []string
	Second []string
}

// TestRow is the significance test of one shrinking pair set: pair i
// tests the hypothesis that canonical correlations i..m are all zero.
type TestRow struct {
	Pair        int // 1-based
	WilksLambda float64
	Statistic   float64 // χ² (Bartlett) or F (Rao)
	DF1         float64
	DF2         float64 // 0 for Bartlett
	P           float64
}

// Result is the full canonical structure.
type Result struct {
	// FirstVars and SecondVars are the resolved variable labels.
	FirstVars  []string
	SecondVars []string

	// Correlations holds the min(p, q) canonical correlations,
	// descending, clamped to [0, 1].
	Correlations []float64

	// FirstCoef (p × m) and SecondCoef (q × m) are the canonical
	// coefficients on the standardized scale.
	FirstCoef  *mat.Dense
	SecondCoef *mat.Dense

	// Loadings: correlation of each variable with its own canonical
	// variate; CrossLoadings: with the opposite set's variate.
	FirstLoadings       *mat.Dense
	SecondLoadings      *mat.Dense
	FirstCrossLoadings  *mat.Dense
	SecondCrossLoadings *mat.Dense

	// FirstScores and SecondScores are the n × m canonical variates.
	FirstScores  *mat.Dense
	SecondScores *mat.Dense

	// Tests holds one row per shrinking pair set, using the selected
	// approximation.
	Test  Test
	Tests []TestRow
}
