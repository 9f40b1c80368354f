package anova

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/agrostat/met/trial"
)

// Joint fits the joint two-way fixed-effects model for one trait:
//
//	trait ~ ENV + REP(ENV) [+ BLOCK(ENV×REP)] + GEN + GEN:ENV
//
// over a balanced table (same replicate count in every cell). Rows with
// a missing trait value are dropped first; the count is reported in
// JointResult.Dropped so callers can warn. ENV is tested against
// REP(ENV), all other sources against the residual.
//
// Errors: trial.ErrUnknownTrait, trial.ErrAllMissing, ErrTooFewLevels,
// ErrUnbalanced, ErrZeroResidualDF.
func Joint(t *trial.Table, trait string, opts Options) (*JointResult, error) {
	sub, dropped, err := t.DropMissing(trait)
	if err != nil {
		return nil, err
	}

	gens, envs, reps := sub.Gens(), sub.Envs(), sub.Reps()
	g, e, r := len(gens), len(envs), len(reps)
	if g < 2 || e < 2 {
		return nil, fmt.Errorf("genotype=%d environment=%d: %w", g, e, ErrTooFewLevels)
	}
	if r < 2 {
		return nil, fmt.Errorf("replicate=%d: %w", r, ErrTooFewLevels)
	}

	ge, err := sub.GEMatrix(trait)
	if err != nil {
		return nil, err
	}
	if !ge.Balanced() {
		return nil, fmt.Errorf("trait %q: %w", trait, ErrUnbalanced)
	}
	if ge.Counts[0][0] != r {
		return nil, fmt.Errorf("trait %q: cells hold %d replicates, table has %d: %w",
			trait, ge.Counts[0][0], r, ErrUnbalanced)
	}

	design := RCBD
	if sub.HasBlocks() {
		design = Lattice
	}

	genIdx := indexOf(gens)
	envIdx := indexOf(envs)

	// Marginal and cell totals for the balanced decomposition.
	var (
		total, sumSq float64
		n            int

		tEnv = make([]float64, e)
		tGen = make([]float64, g)
		tGE  = make([][]float64, g)
		tER  = make(map[[2]string]float64)  // env, rep
		tERB = make(map[[3]string]float64)  // env, rep, block
		nER  = make(map[[2]string]int)      // plots per env×rep
		nERB = make(map[[3]string]int)      // plots per block
	)
	for i := range tGE {
		tGE[i] = make([]float64, e)
	}

	for i := 0; i < sub.Len(); i++ {
		env, gen, rep, block, y, rowErr := sub.Row(i, trait)
		if rowErr != nil {
			return nil, rowErr
		}
		total += y
		sumSq += y * y
		n++
		tEnv[envIdx[env]] += y
		tGen[genIdx[gen]] += y
		tGE[genIdx[gen]][envIdx[env]] += y
		tER[[2]string{env, rep}] += y
		nER[[2]string{env, rep}]++
		if design == Lattice {
			tERB[[3]string{env, rep, block}] += y
			nERB[[3]string{env, rep, block}]++
		}
	}

	// Every env×rep group must contain all genotypes exactly once.
	for key, count := range nER {
		if count != g {
			return nil, fmt.Errorf("environment %q replicate %q has %d plots, want %d: %w",
				key[0], key[1], count, g, ErrUnbalanced)
		}
	}

	cf := total * total / float64(n)
	ssTotal := sumSq - cf

	ssEnv := -cf
	for _, v := range tEnv {
		ssEnv += v * v / float64(g*r)
	}
	ssGen := -cf
	for _, v := range tGen {
		ssGen += v * v / float64(e*r)
	}

	ssRepEnv := -cf - ssEnv
	for _, v := range tER {
		ssRepEnv += v * v / float64(g)
	}

	ssGE := -cf - ssEnv - ssGen
	for i := range tGE {
		for j := range tGE[i] {
			ssGE += tGE[i][j] * tGE[i][j] / float64(r)
		}
	}

	ssBlock, dfBlock := 0.0, 0
	if design == Lattice {
		for key, v := range tERB {
			ssBlock += v * v / float64(nERB[key])
		}
		for _, v := range tER {
			ssBlock -= v * v / float64(g)
		}
		blocksPerRep := make(map[[2]string]int)
		for key := range tERB {
			blocksPerRep[[2]string{key[0], key[1]}]++
		}
		for _, b := range blocksPerRep {
			dfBlock += b - 1
		}
	}

	dfEnv := e - 1
	dfRepEnv := e * (r - 1)
	dfGen := g - 1
	dfGE := (g - 1) * (e - 1)
	dfResid := n - 1 - dfEnv - dfRepEnv - dfBlock - dfGen - dfGE
	if dfResid < 1 {
		return nil, fmt.Errorf("trait %q: %w", trait, ErrZeroResidualDF)
	}
	ssResid := ssTotal - ssEnv - ssRepEnv - ssBlock - ssGen - ssGE
	if ssResid < 0 {
		ssResid = 0 // floating-point guard on near-saturated fits
	}

	msRepEnv := ssRepEnv / float64(dfRepEnv)
	msResid := ssResid / float64(dfResid)

	rows := make([]Row, 0, 7)
	rows = append(rows, testedRow("ENV", dfEnv, ssEnv, msRepEnv, dfRepEnv))
	rows = append(rows, testedRow("REP(ENV)", dfRepEnv, ssRepEnv, msResid, dfResid))
	if design == Lattice {
		rows = append(rows, testedRow("BLOCK(ENV:REP)", dfBlock, ssBlock, msResid, dfResid))
	}
	rows = append(rows,
		testedRow("GEN", dfGen, ssGen, msResid, dfResid),
		testedRow("GEN:ENV", dfGE, ssGE, msResid, dfResid),
		Row{Source: "Residual", DF: dfResid, SS: ssResid, MS: msResid, F: math.NaN(), P: math.NaN()},
		Row{Source: "Total", DF: n - 1, SS: ssTotal, MS: math.NaN(), F: math.NaN(), P: math.NaN()},
	)

	grand := total / float64(n)
	cv := math.NaN()
	if grand != 0 {
		cv = 100 * math.Sqrt(msResid) / grand
	}

	return &JointResult{
		Trait:     trait,
		Design:    design,
		Rows:      rows,
		GrandMean: grand,
		CV:        cv,
		Dropped:   dropped,
		ResidMS:   msResid,
		ResidDF:   dfResid,
		NGen:      g,
		NEnv:      e,
		NRep:      r,
	}, nil
}

// testedRow builds an ANOVA row tested against the given error term.
func testedRow(source string, df int, ss, msErr float64, dfErr int) Row {
	ms := ss / float64(df)
	f, p := fTest(ms, msErr, df, dfErr)
	return Row{Source: source, DF: df, SS: ss, MS: ms, F: f, P: p}
}

// fTest computes the F statistic ms/msErr and its upper-tail p-value,
// clamped to [0, 1]. Degenerate inputs yield F=0, p=1.
func fTest(ms, msErr float64, df1, df2 int) (float64, float64) {
	if msErr <= 0 || df1 <= 0 || df2 <= 0 {
		return 0, 1
	}
	f := ms / msErr
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, 1
	}
	dist := distuv.F{D1: float64(df1), D2: float64(df2)}
	p := 1 - dist.CDF(f)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return f, p
}

// indexOf builds a label → position lookup.
func indexOf(levels []string) map[string]int {
	m := make(map[string]int, len(levels))
	for i, s := range levels {
		m[s] = i
	}
	return m
}
