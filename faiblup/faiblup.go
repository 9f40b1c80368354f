package faiblup

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/agrostat/met/factanal"
	"github.com/agrostat/met/trial"
)

// FAI computes the FAI-BLUP index over a genotype × trait matrix of
// predicted values. gens and traits label the rows and columns.
//
// Errors: ErrDimension, ErrNonFinite, ErrTooFewGens, ErrDirections,
// ErrZeroVariance, ErrIntensity, plus whatever factanal.Decompose
// reports on a degenerate trait structure.
func FAI(blups *mat.Dense, gens, traits []string, opts Options) (*Result, error) {
	g, f := blups.Dims()
	if len(gens) != g || len(traits) != f {
		return nil, fmt.Errorf("%d×%d matrix, %d gens, %d traits: %w",
			g, f, len(gens), len(traits), ErrDimension)
	}
	if g < 3 {
		return nil, ErrTooFewGens
	}
	if opts.SelectionIntensity <= 0 || opts.SelectionIntensity > 100 {
		return nil, fmt.Errorf("%g%%: %w", opts.SelectionIntensity, ErrIntensity)
	}
	directions := opts.Desirable
	if directions == nil {
		directions = make([]Direction, f)
	}
	if len(directions) != f {
		return nil, fmt.Errorf("%d directions for %d traits: %w",
			len(directions), f, ErrDirections)
	}
	for i := 0; i < g; i++ {
		for j := 0; j < f; j++ {
			if v := blups.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("genotype %q, trait %q: %w",
					gens[i], traits[j], ErrNonFinite)
			}
		}
	}

	rescaled, err := rescale(blups, traits, directions)
	if err != nil {
		return nil, err
	}

	fOpts := factanal.DefaultOptions()
	fOpts.MinEigenvalue = opts.MinEigenvalue
	factors, err := factanal.Decompose(rescaled, fOpts)
	if err != nil {
		return nil, err
	}

	// Every desirable/undesirable combination of the retained factors
	// becomes an ideotype, expressed in the rescaled trait space via
	// each trait's dominant factor: 100 on traits clustering to a
	// desirable factor, 0 on the rest. Combination 0 is the
	// all-desirable one.
	nIdeo := 1 << factors.NFactors
	ideoNames := make([]string, nIdeo)
	ideoPoints := mat.NewDense(nIdeo, f, nil)
	for b := 0; b < nIdeo; b++ {
		ideoNames[b] = fmt.Sprintf("ID%d", b+1)
		for t := 0; t < f; t++ {
			if b&(1<<factors.Cluster[t]) == 0 {
				ideoPoints.Set(b, t, 100)
			}
		}
	}
	ideoScores := factors.Project(ideoPoints)

	probs := mat.NewDense(g, nIdeo, nil)
	for k := 0; k < nIdeo; k++ {
		total := 0.0
		inv := make([]float64, g)
		for i := 0; i < g; i++ {
			d := scoreDistance(factors.Scores, ideoScores, i, k, factors.NFactors)
			if d < 1e-12 {
				d = 1e-12
			}
			inv[i] = 1 / d
			total += inv[i]
		}
		for i := 0; i < g; i++ {
			probs.Set(i, k, inv[i]/total)
		}
	}

	ranks := make([][]int, g)
	for i := range ranks {
		ranks[i] = make([]int, nIdeo)
	}
	for k := 0; k < nIdeo; k++ {
		col := make([]float64, g)
		mat.Col(col, k, probs)
		for i, r := range rankDesc(col) {
			ranks[i][k] = r
		}
	}

	nSel := int(math.Ceil(float64(g) * opts.SelectionIntensity / 100))
	order := orderDesc(probs, 0)
	selected := make([]string, nSel)
	for i := 0; i < nSel; i++ {
		selected[i] = gens[order[i]]
	}

	diffs := make([]Differential, f)
	for j := 0; j < f; j++ {
		var all, sel float64
		for i := 0; i < g; i++ {
			all += blups.At(i, j)
		}
		all /= float64(g)
		for i := 0; i < nSel; i++ {
			sel += blups.At(order[i], j)
		}
		sel /= float64(nSel)
		diffs[j] = Differential{
			Trait:        traits[j],
			MeanAll:      all,
			MeanSelected: sel,
			Differential: sel - all,
			Percent:      (sel - all) / all * 100,
		}
	}

	return &Result{
		Gens:               append([]string(nil), gens...),
		Traits:             append([]string(nil), traits...),
		Rescaled:           rescaled,
		Factors:            factors,
		Ideotypes:          ideoNames,
		IdeotypeTargets:    ideoPoints,
		Probabilities:      probs,
		Ranks:              ranks,
		Selected:           selected,
		Differentials:      diffs,
		SelectionIntensity: opts.SelectionIntensity,
	}, nil
}

// FromTable runs FAI on the genotype means of a trial table (the mean
// over environments as the BLUP surrogate). traits nil = all traits.
//
// Errors: trial.ErrUnknownTrait, trial.ErrEmptyMargin, plus the FAI
// validation errors.
func FromTable(t *trial.Table, traits []string, opts Options) (*Result, error) {
	if traits == nil {
		traits = t.Traits()
	}
	gens := t.Gens()

	blups := mat.NewDense(len(gens), len(traits), nil)
	for j, trait := range traits {
		ge, err := t.GEMatrix(trait)
		if err != nil {
			return nil, err
		}
		genMeans, _, _, err := ge.Margins()
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", trait, err)
		}
		for i := range gens {
			blups.Set(i, j, genMeans[i])
		}
	}
	return FAI(blups, gens, traits, opts)
}

// rescale maps each trait column to 0–100 with 100 at the desirable
// end.
func rescale(x *mat.Dense, traits []string, directions []Direction) (*mat.Dense, error) {
	g, f := x.Dims()
	out := mat.NewDense(g, f, nil)
	for j := 0; j < f; j++ {
		lo, hi := x.At(0, j), x.At(0, j)
		for i := 1; i < g; i++ {
			v := x.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi == lo {
			return nil, fmt.Errorf("trait %q: %w", traits[j], ErrZeroVariance)
		}
		span := hi - lo
		for i := 0; i < g; i++ {
			v := (x.At(i, j) - lo) / span * 100
			if directions[j] == Min {
				v = 100 - v
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// scoreDistance is the Euclidean distance between genotype row i of
// scores and ideotype row k of ideoScores over nf factors.
func scoreDistance(scores, ideoScores *mat.Dense, i, k, nf int) float64 {
	sum := 0.0
	for c := 0; c < nf; c++ {
		d := scores.At(i, c) - ideoScores.At(k, c)
		sum += d * d
	}
	return math.Sqrt(sum)
}

// rankDesc assigns ordinal ranks 1..n by descending value, ties broken
// by input order.
func rankDesc(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})
	ranks := make([]int, len(values))
	for pos, i := range order {
		ranks[i] = pos + 1
	}
	return ranks
}

// orderDesc returns row indices sorted by descending value of column k.
func orderDesc(m *mat.Dense, k int) []int {
	r, _ := m.Dims()
	order := make([]int, r)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.At(order[a], k) > m.At(order[b], k)
	})
	return order
}
