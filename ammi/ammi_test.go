package ammi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/ammi"
	"github.com/agrostat/met/anova"
	"github.com/agrostat/met/trial"
)

// metTable builds the canonical 3-environment × 4-genotype ×
// 2-replicate trial with genotype, environment, interaction and
// replicate structure plus a fixed wiggle.
func metTable(t *testing.T) *trial.Table {
	t.Helper()
	envs := []string{"E1", "E2", "E3"}
	gens := []string{"G1", "G2", "G3", "G4"}
	reps := []string{"R1", "R2"}
	noise := []float64{
		0.3, -0.1, 0.2, 0.4, -0.2, 0.1, 0.5, -0.3,
		0.2, 0.6, -0.4, 0.1, 0.3, -0.2, 0.4, 0.2,
		-0.1, 0.5, 0.2, -0.3, 0.1, 0.4, -0.2, 0.3,
	}

	var records []trial.Record
	idx := 0
	for ei, env := range envs {
		for gi, gen := range gens {
			for ri, rep := range reps {
				y := 20 + 3*float64(gi) + 2*float64(ei) +
					0.9*float64(gi)*float64(ei) - 0.4*float64(gi*gi)*float64(ei) +
					0.5*float64(ri) + noise[idx]
				idx++
				records = append(records, trial.Record{
					Env: env, Gen: gen, Rep: rep,
					Values: map[string]float64{"Y": y},
				})
			}
		}
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)
	return tbl
}

// TestFit_CanonicalScenario checks minimo, axis count and the Gollob
// degrees of freedom of the 3×4×2 design: DF_k = (g−1)+(e−1)−(2k−1)
// gives 4 and 2, and their sum equals the interaction DF (g−1)(e−1)=6.
func TestFit_CanonicalScenario(t *testing.T) {
	m, err := ammi.Fit(metTable(t), "Y", ammi.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, m.Minimo(), "min(4,3)-1 = 2 interpretable axes")
	require.Len(t, m.Axes, 2, "both axes have positive DF")
	assert.Equal(t, 4, m.Axes[0].DF)
	assert.Equal(t, 2, m.Axes[1].DF)
	assert.Equal(t, 6, m.Axes[0].DF+m.Axes[1].DF, "axis DF sum to the interaction DF")

	assert.InDelta(t, 100.0, m.Axes[len(m.Axes)-1].CumPercent, 1e-9,
		"retained axes explain the whole interaction at full rank")
	for _, ax := range m.Axes {
		assert.GreaterOrEqual(t, ax.P, 0.0)
		assert.LessOrEqual(t, ax.P, 1.0)
		assert.GreaterOrEqual(t, ax.SingularValue, 0.0)
	}
}

// TestFit_EnergyConservation verifies that the axis sums of squares
// (d²·r) plus any SVD remainder equal the GEN:ENV interaction SS of
// the joint ANOVA.
func TestFit_EnergyConservation(t *testing.T) {
	tbl := metTable(t)
	m, err := ammi.Fit(tbl, "Y", ammi.DefaultOptions())
	require.NoError(t, err)

	joint, err := anova.Joint(tbl, "Y", anova.DefaultOptions())
	require.NoError(t, err)
	var ssInt float64
	for _, row := range joint.Rows {
		if row.Source == "GEN:ENV" {
			ssInt = row.SS
		}
	}
	require.Greater(t, ssInt, 0.0)

	ssAxes := 0.0
	for _, ax := range m.Axes {
		ssAxes += ax.SS
	}
	for _, row := range m.Anova {
		if row.Source == "PC residual" {
			ssAxes += row.SS
		}
	}
	assert.InDelta(t, ssInt, ssAxes, 1e-8, "SVD energy must match the interaction SS")
}

// TestFit_ScoreScaling checks that genotype·environment score inner
// products restore the full interaction residual of each cell.
func TestFit_ScoreScaling(t *testing.T) {
	m, err := ammi.Fit(metTable(t), "Y", ammi.DefaultOptions())
	require.NoError(t, err)

	full, err := m.Predict(m.Minimo())
	require.NoError(t, err)

	for i := range m.Gens {
		for j := range m.Envs {
			dot := 0.0
			for k := 0; k < m.Minimo(); k++ {
				dot += m.GenScores.At(i, k) * m.EnvScores.At(j, k)
			}
			wantInter := full.YpredAMMI.At(i, j) - full.Additive.At(i, j)
			assert.InDelta(t, wantInter, dot, 1e-9,
				"scores of cell (%d,%d) must reproduce its interaction", i, j)
		}
	}
}

// TestFit_Diagnostics verifies residuals sum to ~0 and fitted+residual
// reproduces each observation.
func TestFit_Diagnostics(t *testing.T) {
	m, err := ammi.Fit(metTable(t), "Y", ammi.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, m.Diagnostics, 24)

	sum := 0.0
	for _, obs := range m.Diagnostics {
		assert.InDelta(t, obs.Value, obs.Fitted+obs.Residual, 1e-12)
		sum += obs.Residual
	}
	assert.InDelta(t, 0.0, sum, 1e-9, "residuals sum to zero")
}

// TestFit_UnsupportedDesign rejects two-genotype data.
func TestFit_UnsupportedDesign(t *testing.T) {
	var records []trial.Record
	for _, env := range []string{"E1", "E2", "E3"} {
		for _, gen := range []string{"G1", "G2"} {
			for ri, rep := range []string{"R1", "R2"} {
				records = append(records, trial.Record{
					Env: env, Gen: gen, Rep: rep,
					Values: map[string]float64{"Y": float64(ri) + 1},
				})
			}
		}
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)

	_, err = ammi.Fit(tbl, "Y", ammi.DefaultOptions())
	assert.ErrorIs(t, err, ammi.ErrUnsupportedDesign)
}

// TestFit_UnbalancedRequiresOptIn verifies the imputation policy: an
// unbalanced matrix fails unless Impute is set, and the imputed model
// reports what it repaired.
func TestFit_UnbalancedRequiresOptIn(t *testing.T) {
	tbl := metTable(t)

	// Rebuild without both replicates of one cell (E3/G4).
	var records []trial.Record
	for i := 0; i < tbl.Len(); i++ {
		env, gen, rep, _, y, err := tbl.Row(i, "Y")
		require.NoError(t, err)
		if env == "E3" && gen == "G4" {
			continue
		}
		records = append(records, trial.Record{
			Env: env, Gen: gen, Rep: rep, Values: map[string]float64{"Y": y},
		})
	}
	unb, err := trial.New(records)
	require.NoError(t, err)

	_, err = ammi.Fit(unb, "Y", ammi.DefaultOptions())
	assert.ErrorIs(t, err, ammi.ErrUnbalanced, "imputation is opt-in")

	opts := ammi.DefaultOptions()
	opts.Impute = true
	m, err := ammi.Fit(unb, "Y", opts)
	require.NoError(t, err)
	assert.Equal(t, 1, m.ImputedCells)
	assert.NotEmpty(t, m.Warnings, "imputation must leave a warning")
	assert.Equal(t, 2, m.Minimo())

	// The imputed table still carries the main-effect partition, rebuilt
	// from the filled cell means; REP(ENV) is gone because replicate
	// effects are not separable after imputation.
	var sources []string
	for _, row := range m.Anova {
		sources = append(sources, row.Source)
	}
	assert.Equal(t,
		[]string{"ENV", "GEN", "GEN:ENV", "PC1", "PC2", "Residual"},
		sources)

	var ssGE, ssAxes float64
	for _, row := range m.Anova {
		switch row.Source {
		case "ENV", "GEN", "GEN:ENV":
			assert.Greater(t, row.SS, 0.0, "%s carries a sum of squares", row.Source)
			assert.Greater(t, row.F, 0.0, "%s is F-tested", row.Source)
			assert.GreaterOrEqual(t, row.P, 0.0)
			assert.LessOrEqual(t, row.P, 1.0)
			if row.Source == "GEN:ENV" {
				assert.Equal(t, 6, row.DF)
				ssGE = row.SS
			}
		case "PC1", "PC2":
			ssAxes += row.SS
		}
	}
	assert.InDelta(t, ssGE, ssAxes, 1e-8,
		"interaction SS must match the axis SS at full rank")
}

// TestFitAll_ProgressAndHardStop exercises the multi-trait loop.
func TestFitAll_ProgressAndHardStop(t *testing.T) {
	tbl := metTable(t)

	var seen []string
	opts := ammi.DefaultOptions()
	opts.Progress = func(trait string, index, total int) {
		seen = append(seen, trait)
		assert.Equal(t, 1, total)
	}
	models, err := ammi.FitAll(tbl, nil, opts)
	require.NoError(t, err)
	assert.Len(t, models, 1)
	assert.Equal(t, []string{"Y"}, seen)

	_, err = ammi.FitAll(tbl, []string{"Y", "Nope"}, ammi.DefaultOptions())
	assert.ErrorIs(t, err, trial.ErrUnknownTrait, "a failing trait aborts the whole call")
}

// TestFit_AnovaTableShape checks the augmented table layout.
func TestFit_AnovaTableShape(t *testing.T) {
	m, err := ammi.Fit(metTable(t), "Y", ammi.DefaultOptions())
	require.NoError(t, err)

	var sources []string
	for _, row := range m.Anova {
		sources = append(sources, row.Source)
	}
	assert.Equal(t,
		[]string{"ENV", "REP(ENV)", "GEN", "GEN:ENV", "PC1", "PC2", "Residual"},
		sources, "full-rank 3×4 fit has no PC residual row")

	for _, row := range m.Anova {
		if row.Source == "Residual" {
			assert.False(t, math.IsNaN(row.MS))
			assert.True(t, math.IsNaN(row.F))
		}
	}
}
