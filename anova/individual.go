package anova

import (
	"fmt"
	"math"

	"github.com/agrostat/met/trial"
)

// Individual fits the within-environment model trait ~ GEN + REP for
// every environment of every requested trait. traits == nil analyzes
// all trait columns. Each environment must form a complete g × r
// layout after missing rows are removed.
//
// A per-trait failure aborts the whole call (fail-fast, no partial
// multi-trait results).
func Individual(t *trial.Table, traits []string, opts Options) (*IndividualResult, error) {
	if traits == nil {
		traits = t.Traits()
	}

	res := &IndividualResult{Traits: make([]TraitEnvs, 0, len(traits))}
	for ti, trait := range traits {
		if opts.Progress != nil {
			opts.Progress(trait, ti, len(traits))
		}
		sub, _, err := t.DropMissing(trait)
		if err != nil {
			return nil, err
		}

		te := TraitEnvs{Trait: trait}
		for _, env := range sub.Envs() {
			er, err := oneEnvironment(sub, trait, env)
			if err != nil {
				return nil, err
			}
			te.Envs = append(te.Envs, *er)
		}
		res.Traits = append(res.Traits, te)
	}

	return res, nil
}

// oneEnvironment runs the g × r randomized-block decomposition for a
// single environment.
func oneEnvironment(t *trial.Table, trait, env string) (*EnvResult, error) {
	type cell struct{ gen, rep string }

	var (
		total, sumSq float64
		n            int
		tGen         = make(map[string]float64)
		tRep         = make(map[string]float64)
		seen         = make(map[cell]struct{})
		genOrder     []string
		repOrder     []string
	)
	for i := 0; i < t.Len(); i++ {
		rowEnv, gen, rep, _, y, err := t.Row(i, trait)
		if err != nil {
			return nil, err
		}
		if rowEnv != env || math.IsNaN(y) {
			continue
		}
		if _, ok := tGen[gen]; !ok {
			genOrder = append(genOrder, gen)
		}
		if _, ok := tRep[rep]; !ok {
			repOrder = append(repOrder, rep)
		}
		tGen[gen] += y
		tRep[rep] += y
		seen[cell{gen, rep}] = struct{}{}
		total += y
		sumSq += y * y
		n++
	}

	g, r := len(genOrder), len(repOrder)
	if g < 2 || r < 2 {
		return nil, fmt.Errorf("environment %q: genotype=%d replicate=%d: %w",
			env, g, r, ErrTooFewLevels)
	}
	if n != g*r || len(seen) != g*r {
		return nil, fmt.Errorf("environment %q: %d plots for %d×%d layout: %w",
			env, n, g, r, ErrUnbalanced)
	}

	cf := total * total / float64(n)
	ssTotal := sumSq - cf
	ssGen := -cf
	for _, gen := range genOrder {
		ssGen += tGen[gen] * tGen[gen] / float64(r)
	}
	ssRep := -cf
	for _, rep := range repOrder {
		ssRep += tRep[rep] * tRep[rep] / float64(g)
	}
	ssResid := ssTotal - ssGen - ssRep
	if ssResid < 0 {
		ssResid = 0
	}

	dfGen, dfRep := g-1, r-1
	dfResid := dfGen * dfRep
	msGen := ssGen / float64(dfGen)
	msResid := ssResid / float64(dfResid)

	rows := []Row{
		testedRow("GEN", dfGen, ssGen, msResid, dfResid),
		testedRow("REP", dfRep, ssRep, msResid, dfResid),
		{Source: "Residual", DF: dfResid, SS: ssResid, MS: msResid, F: math.NaN(), P: math.NaN()},
		{Source: "Total", DF: n - 1, SS: ssTotal, MS: math.NaN(), F: math.NaN(), P: math.NaN()},
	}

	mean := total / float64(n)
	cv := math.NaN()
	if mean != 0 {
		cv = 100 * math.Sqrt(msResid) / mean
	}

	h2 := 0.0
	if msGen > 0 && msGen > msResid {
		h2 = (msGen - msResid) / msGen
	}
	genVar := (msGen - msResid) / float64(r)
	if genVar < 0 {
		genVar = 0
	}

	return &EnvResult{
		Env:          env,
		Rows:         rows,
		Mean:         mean,
		CV:           cv,
		Heritability: h2,
		GenVar:       genVar,
		ResidVar:     msResid,
	}, nil
}
