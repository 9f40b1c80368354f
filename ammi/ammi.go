package ammi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/agrostat/met/anova"
	"github.com/agrostat/met/trial"
)

// Fit runs the AMMI decomposition for one trait. See the package
// documentation for the algorithm outline.
//
// Errors: trial.ErrUnknownTrait, trial.ErrAllMissing,
// ErrUnsupportedDesign, ErrUnbalanced (imputation declined), ErrSVDFailed,
// plus anova errors on balanced tables.
func Fit(t *trial.Table, trait string, opts Options) (*Model, error) {
	sub, dropped, err := t.DropMissing(trait)
	if err != nil {
		return nil, err
	}

	ge, err := sub.GEMatrix(trait)
	if err != nil {
		return nil, err
	}
	g, e := len(ge.Gens), len(ge.Envs)
	minimo := g
	if e < minimo {
		minimo = e
	}
	minimo--
	if minimo < 2 {
		return nil, fmt.Errorf("genotypes=%d environments=%d: %w", g, e, ErrUnsupportedDesign)
	}

	model := &Model{
		Trait:   trait,
		Gens:    ge.Gens,
		Envs:    ge.Envs,
		Means:   ge,
		Dropped: dropped,
	}
	if dropped > 0 {
		model.Warnings = append(model.Warnings,
			fmt.Sprintf("dropped %d row(s) with missing %q values", dropped, trait))
	}

	// Residual mean square: exact joint ANOVA on balanced data, pooled
	// within-cell variance after imputation (replicate effects are not
	// separable once cells are missing).
	var mainRows []anova.Row
	if ge.Balanced() {
		joint, jerr := anova.Joint(sub, trait, anova.Options{})
		if jerr != nil {
			return nil, jerr
		}
		model.residMS, model.residDF = joint.ResidMS, joint.ResidDF
		model.Replicates = float64(joint.NRep)
		mainRows = mainEffectRows(joint.Rows)
	} else {
		if !opts.Impute {
			return nil, fmt.Errorf("trait %q has %d missing cell(s): %w",
				trait, ge.MissingCells(), ErrUnbalanced)
		}
		rank := opts.ImputeRank
		if rank > minimo {
			rank = minimo
		}
		imputed, ierr := trial.ImputeEM(ge, rank, opts.ImputeMaxIter, opts.ImputeTol)
		if ierr != nil {
			return nil, ierr
		}
		model.ImputedCells = imputed
		model.Warnings = append(model.Warnings,
			fmt.Sprintf("imputed %d missing GE cell(s); the decomposition no longer reflects the literal input", imputed))

		ms, df, reff, perr := pooledResidual(sub, trait, ge)
		if perr != nil {
			return nil, perr
		}
		model.residMS, model.residDF = ms, df
		model.Replicates = reff
	}

	genMeans, envMeans, grand, err := ge.Margins()
	if err != nil {
		return nil, err
	}
	model.GenMeans, model.EnvMeans, model.GrandMean = genMeans, envMeans, grand

	// Doubly-centered interaction residual.
	resid := mat.NewDense(g, e, nil)
	for i := 0; i < g; i++ {
		for j := 0; j < e; j++ {
			resid.Set(i, j, ge.Means.At(i, j)-genMeans[i]-envMeans[j]+grand)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(resid, mat.SVDThin) {
		return nil, ErrSVDFailed
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	model.u = keepColumns(&u, minimo)
	model.v = keepColumns(&v, minimo)
	model.d = append([]float64(nil), values[:minimo]...)

	model.Axes = axisTable(model.d, g, e, model.Replicates, model.residMS, model.residDF)
	model.GenScores, model.EnvScores = scaledScores(model.u, model.v, model.d)
	if mainRows == nil {
		// Imputed path: reconstruct the main-effect partition from the
		// filled cell means. REP(ENV) is omitted, replicate effects are
		// not separable after imputation.
		mainRows = mainRowsFromMeans(genMeans, envMeans, grand, resid,
			model.Replicates, model.residMS, model.residDF)
	}
	model.Anova = augmentedTable(mainRows, model.Axes, model.d, g, e,
		model.Replicates, model.residMS, model.residDF)
	model.Diagnostics = diagnostics(sub, trait, ge)

	return model, nil
}

// FitAll fits every requested trait sequentially (nil = all traits),
// reporting progress through opts.Progress. The first failing trait
// aborts the whole call.
func FitAll(t *trial.Table, traits []string, opts Options) ([]*Model, error) {
	if traits == nil {
		traits = t.Traits()
	}
	models := make([]*Model, 0, len(traits))
	for i, trait := range traits {
		if opts.Progress != nil {
			opts.Progress(trait, i, len(traits))
		}
		m, err := Fit(t, trait, opts)
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", trait, err)
		}
		models = append(models, m)
	}
	return models, nil
}

// axisTable computes DF, SS, F-tests and explained variance per IPCA
// axis, stopping at the first non-positive DF.
func axisTable(d []float64, g, e int, r, residMS float64, residDF int) []Axis {
	ssTotal := 0.0
	for _, dk := range d {
		ssTotal += dk * dk * r
	}

	axes := make([]Axis, 0, len(d))
	cum := 0.0
	for k, dk := range d {
		df := (g - 1) + (e - 1) - (2*(k+1) - 1)
		if df <= 0 {
			break
		}
		ss := dk * dk * r
		ms := ss / float64(df)
		f, p := fTest(ms, residMS, df, residDF)
		percent := 0.0
		if ssTotal > 0 {
			percent = 100 * ss / ssTotal
		}
		cum += percent
		axes = append(axes, Axis{
			Index:         k + 1,
			DF:            df,
			SingularValue: dk,
			SS:            ss,
			MS:            ms,
			F:             f,
			P:             p,
			Percent:       percent,
			CumPercent:    cum,
		})
	}
	return axes
}

// scaledScores applies the symmetric √d scaling to the singular vectors.
func scaledScores(u, v *mat.Dense, d []float64) (*mat.Dense, *mat.Dense) {
	g, k := u.Dims()
	e, _ := v.Dims()
	gs := mat.NewDense(g, k, nil)
	es := mat.NewDense(e, k, nil)
	for col := 0; col < k; col++ {
		s := math.Sqrt(d[col])
		for i := 0; i < g; i++ {
			gs.Set(i, col, u.At(i, col)*s)
		}
		for j := 0; j < e; j++ {
			es.Set(j, col, v.At(j, col)*s)
		}
	}
	return gs, es
}

// augmentedTable appends the IPCA rows, the SVD remainder and the
// error term to the main-effect ANOVA rows.
func augmentedTable(main []anova.Row, axes []Axis, d []float64, g, e int,
	r, residMS float64, residDF int) []anova.Row {

	rows := append([]anova.Row(nil), main...)

	retainedSS, retainedDF := 0.0, 0
	for _, ax := range axes {
		rows = append(rows, anova.Row{
			Source: fmt.Sprintf("PC%d", ax.Index),
			DF:     ax.DF, SS: ax.SS, MS: ax.MS, F: ax.F, P: ax.P,
		})
		retainedSS += ax.SS
		retainedDF += ax.DF
	}

	ssAll := 0.0
	for _, dk := range d {
		ssAll += dk * dk * r
	}
	dfGE := (g - 1) * (e - 1)
	if rem := dfGE - retainedDF; rem > 0 {
		rows = append(rows, anova.Row{
			Source: "PC residual",
			DF:     rem,
			SS:     ssAll - retainedSS,
			MS:     (ssAll - retainedSS) / float64(rem),
			F:      math.NaN(), P: math.NaN(),
		})
	}

	rows = append(rows, anova.Row{
		Source: "Residual",
		DF:     residDF,
		SS:     residMS * float64(residDF),
		MS:     residMS,
		F:      math.NaN(), P: math.NaN(),
	})
	return rows
}

// mainRowsFromMeans builds the ENV, GEN and GEN:ENV rows from imputed
// cell means, F-tested against the pooled residual.
func mainRowsFromMeans(genMeans, envMeans []float64, grand float64,
	resid *mat.Dense, r, residMS float64, residDF int) []anova.Row {

	g, e := len(genMeans), len(envMeans)

	ssEnv := 0.0
	for _, m := range envMeans {
		ssEnv += (m - grand) * (m - grand)
	}
	ssEnv *= r * float64(g)

	ssGen := 0.0
	for _, m := range genMeans {
		ssGen += (m - grand) * (m - grand)
	}
	ssGen *= r * float64(e)

	ssGE := 0.0
	for i := 0; i < g; i++ {
		for j := 0; j < e; j++ {
			v := resid.At(i, j)
			ssGE += v * v
		}
	}
	ssGE *= r

	rows := make([]anova.Row, 0, 3)
	for _, src := range []struct {
		name string
		df   int
		ss   float64
	}{
		{"ENV", e - 1, ssEnv},
		{"GEN", g - 1, ssGen},
		{"GEN:ENV", (g - 1) * (e - 1), ssGE},
	} {
		ms := src.ss / float64(src.df)
		f, p := fTest(ms, residMS, src.df, residDF)
		rows = append(rows, anova.Row{
			Source: src.name, DF: src.df, SS: src.ss, MS: ms, F: f, P: p,
		})
	}
	return rows
}

// mainEffectRows strips the residual/total rows from a joint ANOVA
// table, keeping the sources that precede the IPCA block.
func mainEffectRows(rows []anova.Row) []anova.Row {
	out := make([]anova.Row, 0, len(rows))
	for _, row := range rows {
		if row.Source == "Residual" || row.Source == "Total" {
			continue
		}
		out = append(out, row)
	}
	return out
}

// pooledResidual estimates the residual variance of unbalanced data as
// the pooled within-cell variance, with the mean cell fill as the
// effective replicate count for the axis SS scaling.
func pooledResidual(t *trial.Table, trait string, ge *trial.GEMatrix) (ms float64, df int, reff float64, err error) {
	genIdx := indexOf(ge.Gens)
	envIdx := indexOf(ge.Envs)

	ss, n, cells := 0.0, 0, 0
	for i := range ge.Counts {
		for j := range ge.Counts[i] {
			if ge.Counts[i][j] > 0 {
				cells++
			}
		}
	}
	for i := 0; i < t.Len(); i++ {
		env, gen, _, _, y, rowErr := t.Row(i, trait)
		if rowErr != nil {
			return 0, 0, 0, rowErr
		}
		if math.IsNaN(y) {
			continue
		}
		mean := ge.Means.At(genIdx[gen], envIdx[env])
		ss += (y - mean) * (y - mean)
		n++
	}

	df = n - cells
	if df < 1 {
		return 0, 0, 0, fmt.Errorf("trait %q: %w", trait, anova.ErrZeroResidualDF)
	}
	return ss / float64(df), df, float64(n) / float64(cells), nil
}

// diagnostics computes per-observation fitted values and residuals of
// the full model: cell mean plus the replicate effect within its
// environment.
func diagnostics(t *trial.Table, trait string, ge *trial.GEMatrix) []Observation {
	genIdx := indexOf(ge.Gens)
	envIdx := indexOf(ge.Envs)

	// Replicate-within-environment and environment observation means.
	type er struct{ env, rep string }
	sumER := make(map[er]float64)
	nER := make(map[er]int)
	sumE := make(map[string]float64)
	nE := make(map[string]int)
	for i := 0; i < t.Len(); i++ {
		env, _, rep, _, y, err := t.Row(i, trait)
		if err != nil || math.IsNaN(y) {
			continue
		}
		sumER[er{env, rep}] += y
		nER[er{env, rep}]++
		sumE[env] += y
		nE[env]++
	}

	obs := make([]Observation, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		env, gen, rep, _, y, err := t.Row(i, trait)
		if err != nil || math.IsNaN(y) {
			continue
		}
		repEffect := sumER[er{env, rep}]/float64(nER[er{env, rep}]) -
			sumE[env]/float64(nE[env])
		fitted := ge.Means.At(genIdx[gen], envIdx[env]) + repEffect
		obs = append(obs, Observation{
			Env: env, Gen: gen, Rep: rep,
			Value: y, Fitted: fitted, Residual: y - fitted,
		})
	}
	return obs
}

// keepColumns copies the first k columns of m.
func keepColumns(m *mat.Dense, k int) *mat.Dense {
	rows, _ := m.Dims()
	out := mat.NewDense(rows, k, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}

// fTest mirrors the ANOVA helper: upper-tail F p-value clamped to [0,1].
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

func indexOf(levels []string) map[string]int {
	m := make(map[string]int, len(levels))
	for i, s := range levels {
		m[s] = i
	}
	return m
}
