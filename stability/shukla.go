package stability

import (
	"fmt"
	"sort"

	"github.com/agrostat/met/trial"
)

// Shukla computes the Shukla stability variance table for the given
// traits (nil = all traits of the table). Per genotype:
//
//	Wᵢ  = Σⱼ (x̄ᵢⱼ − x̄ᵢ· − x̄·ⱼ + x̄··)²
//	σ²ᵢ = g/((g−2)(e−1))·Wᵢ − ΣW/((g−1)(g−2)(e−1))
//
// plus the combined simultaneous selection index
// SSI = rank(mean, descending) + rank(σ², ascending). Ranks are
// ordinal with ties broken by table order, so each rank column is a
// permutation of 1..g.
//
// Errors: trial.ErrUnknownTrait, ErrIncomplete, ErrTooFewGens,
// ErrTooFewEnvs.
func Shukla(t *trial.Table, traits []string, opts Options) (*ShuklaResult, error) {
	if traits == nil {
		traits = t.Traits()
	}

	res := &ShuklaResult{Traits: make([]ShuklaTrait, 0, len(traits))}
	for ti, trait := range traits {
		if opts.Progress != nil {
			opts.Progress(trait, ti, len(traits))
		}
		st, err := shuklaOne(t, trait)
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", trait, err)
		}
		res.Traits = append(res.Traits, *st)
	}
	return res, nil
}

func shuklaOne(t *trial.Table, trait string) (*ShuklaTrait, error) {
	ge, err := completeMatrix(t, trait)
	if err != nil {
		return nil, err
	}
	g, e := len(ge.Gens), len(ge.Envs)
	if g < 3 {
		return nil, ErrTooFewGens
	}

	genMeans, envMeans, grand, err := ge.Margins()
	if err != nil {
		return nil, err
	}

	w := make([]float64, g)
	sumW := 0.0
	for i := 0; i < g; i++ {
		for j := 0; j < e; j++ {
			d := ge.Means.At(i, j) - genMeans[i] - envMeans[j] + grand
			w[i] += d * d
		}
		sumW += w[i]
	}

	gf, ef := float64(g), float64(e)
	variance := make([]float64, g)
	for i := 0; i < g; i++ {
		variance[i] = gf/((gf-2)*(ef-1))*w[i] - sumW/((gf-1)*(gf-2)*(ef-1))
	}

	rankMean := rankOf(genMeans, true)
	rankVar := rankOf(variance, false)

	st := &ShuklaTrait{Trait: trait, Entries: make([]ShuklaEntry, g)}
	for i := 0; i < g; i++ {
		st.Entries[i] = ShuklaEntry{
			Gen:      ge.Gens[i],
			Mean:     genMeans[i],
			Variance: variance[i],
			RankMean: rankMean[i],
			RankVar:  rankVar[i],
			SSI:      rankMean[i] + rankVar[i],
		}
	}
	return st, nil
}

// rankOf assigns ordinal ranks 1..n to values, descending when desc is
// set; ties keep their input order.
func rankOf(values []float64, desc bool) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if desc {
			return values[order[a]] > values[order[b]]
		}
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]int, len(values))
	for pos, i := range order {
		ranks[i] = pos + 1
	}
	return ranks
}
