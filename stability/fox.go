package stability

import (
	"fmt"
	"sort"

	"github.com/agrostat/met/trial"
)

// Fox computes the nonparametric Fox stability table for the given
// traits (nil = all traits of the table): per genotype the mean
// response across environments and TOP, the number of environments
// where the genotype ranked among the top three responses. Within one
// environment exactly min(3, g) genotypes collect a point.
//
// Rows carrying NaN for a trait are dropped before aggregation; the
// surviving genotype × environment matrix must be complete.
//
// Errors: trial.ErrUnknownTrait, ErrIncomplete, ErrTooFewEnvs.
func Fox(t *trial.Table, traits []string, opts Options) (*FoxResult, error) {
	if traits == nil {
		traits = t.Traits()
	}

	res := &FoxResult{Traits: make([]FoxTrait, 0, len(traits))}
	for ti, trait := range traits {
		if opts.Progress != nil {
			opts.Progress(trait, ti, len(traits))
		}
		ft, err := foxOne(t, trait)
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", trait, err)
		}
		res.Traits = append(res.Traits, *ft)
	}
	return res, nil
}

func foxOne(t *trial.Table, trait string) (*FoxTrait, error) {
	ge, err := completeMatrix(t, trait)
	if err != nil {
		return nil, err
	}
	g, e := len(ge.Gens), len(ge.Envs)

	top := make([]int, g)
	for j := 0; j < e; j++ {
		// Order genotypes by response within the environment; the first
		// three positions collect a TOP point.
		order := make([]int, g)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return ge.Means.At(order[a], j) > ge.Means.At(order[b], j)
		})
		limit := 3
		if g < limit {
			limit = g
		}
		for _, i := range order[:limit] {
			top[i]++
		}
	}

	ft := &FoxTrait{Trait: trait, Entries: make([]FoxEntry, g)}
	for i := 0; i < g; i++ {
		sum := 0.0
		for j := 0; j < e; j++ {
			sum += ge.Means.At(i, j)
		}
		ft.Entries[i] = FoxEntry{Gen: ge.Gens[i], Mean: sum / float64(e), TOP: top[i]}
	}
	return ft, nil
}

// completeMatrix drops missing rows for the trait and aggregates the
// remainder into a genotype × environment matrix, rejecting empty
// cells and single-environment designs.
func completeMatrix(t *trial.Table, trait string) (*trial.GEMatrix, error) {
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
	if len(ge.Envs) < 2 {
		return nil, ErrTooFewEnvs
	}
	return ge, nil
}
