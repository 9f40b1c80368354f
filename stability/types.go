package stability

import (
	"errors"

	"github.com/agrostat/met/trial"
)

var (
	// ErrIncomplete marks a genotype × environment matrix with empty
	// cells; indices are only defined over complete matrices.
	ErrIncomplete = errors.New("stability: incomplete genotype × environment matrix")

	// ErrTooFewGens marks a design with fewer genotypes than the
	// Shukla variance denominator (g−2) tolerates.
	ErrTooFewGens = errors.New("stability: at least 3 genotypes required")

	// ErrTooFewEnvs marks a single-environment design; stability across
	// environments is undefined there.
	ErrTooFewEnvs = errors.New("stability: at least 2 environments required")
)

// Options configures the stability runs.
type Options struct {
	// Progress, when non-nil, is invoked once per trait before that
	// trait is processed.
	Progress trial.ProgressFunc
}

// DefaultOptions returns the baseline configuration.
func DefaultOptions() Options { return Options{} }

// FoxEntry is one genotype line of the Fox table.
type FoxEntry struct {
	Gen  string
	Mean float64
	// TOP counts the environments where the genotype ranked within the
	// first three positions of the response.
	TOP int
}

// FoxTrait is the Fox table of a single trait, genotypes in table
// order.
type FoxTrait struct {
	Trait   string
	Entries []FoxEntry
}

// FoxResult groups the per-trait Fox tables.
type FoxResult struct {
	Traits []FoxTrait
}

// ShuklaEntry is one genotype line of the Shukla table.
type ShuklaEntry struct {
	Gen      string
	Mean     float64
	Variance float64 // Shukla stability variance σ²ᵢ
	RankMean int     // rank of Mean, descending (1 = highest)
	RankVar  int     // rank of Variance, ascending (1 = most stable)
	SSI      int     // RankMean + RankVar
}

// ShuklaTrait is the Shukla table of a single trait, genotypes in
// table order.
type ShuklaTrait struct {
	Trait   string
	Entries []ShuklaEntry
}

// ShuklaResult groups the per-trait Shukla tables.
type ShuklaResult struct {
	Traits []ShuklaTrait
}
