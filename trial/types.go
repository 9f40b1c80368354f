package trial

import "errors"

var (
	// ErrEmptyTable indicates that no records were supplied.
	ErrEmptyTable = errors.New("trial: empty table")

	// ErrMissingLabel indicates a record with an empty Env, Gen or Rep label.
	ErrMissingLabel = errors.New("trial: empty environment, genotype or replicate label")

	// ErrDuplicateKey indicates two records sharing the same
	// Environment × Genotype × Replicate key.
	ErrDuplicateKey = errors.New("trial: duplicate environment/genotype/replicate key")

	// ErrUnknownTrait indicates a trait name absent from the table.
	ErrUnknownTrait = errors.New("trial: unknown trait")

	// ErrAllMissing indicates that dropping missing rows left nothing to analyze.
	ErrAllMissing = errors.New("trial: all rows missing for trait")

	// ErrTooFewLevels indicates fewer factor levels than an analysis requires.
	ErrTooFewLevels = errors.New("trial: too few factor levels")

	// ErrNoMissingCells indicates an imputation request on a complete GE matrix.
	ErrNoMissingCells = errors.New("trial: GE matrix has no missing cells")

	// ErrImputeRank indicates an imputation rank outside [0, min(g,e)-1].
	ErrImputeRank = errors.New("trial: imputation rank out of range")

	// ErrEmptyMargin indicates a genotype or environment with no observed
	// cells at all, which no imputation can recover.
	ErrEmptyMargin = errors.New("trial: genotype or environment has no observed cells")
)

// Record is one long-format observation: a single plot value per trait
// for one Environment × Genotype × Replicate combination. Block is the
// incomplete-block label of resolvable (alpha-lattice) designs and is
// left empty for randomized complete blocks. Traits absent from Values
// are treated as missing.
type Record struct {
	Env    string
	Gen    string
	Rep    string
	Block  string
	Values map[string]float64
}

// ProgressFunc reports per-trait progress of a multi-trait analysis:
// index is zero-based, total is the trait count. A nil ProgressFunc
// disables reporting.
type ProgressFunc func(trait string, index, total int)
