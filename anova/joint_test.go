package anova_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/anova"
	"github.com/agrostat/met/trial"
)

// metRecords builds the canonical 3-environment × 4-genotype ×
// 2-replicate scenario with a fixed non-additive wiggle so every ANOVA
// source carries some sum of squares.
func metRecords(withBlocks bool) []trial.Record {
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
					0.7*float64(gi)*float64(ei) + // interaction
					0.5*float64(ri) + noise[idx]
				idx++
				block := ""
				if withBlocks {
					// Two incomplete blocks of two genotypes per replicate.
					block = "B1"
					if gi >= 2 {
						block = "B2"
					}
				}
				records = append(records, trial.Record{
					Env: env, Gen: gen, Rep: rep, Block: block,
					Values: map[string]float64{"Y": y},
				})
			}
		}
	}
	return records
}

// findRow fetches an ANOVA row by source name.
func findRow(t *testing.T, rows []anova.Row, source string) anova.Row {
	t.Helper()
	for _, r := range rows {
		if r.Source == source {
			return r
		}
	}
	t.Fatalf("source %q not in table", source)
	return anova.Row{}
}

// TestJoint_RCBDDegreesOfFreedom verifies the canonical 3×4×2 degrees
// of freedom: ENV=2, REP(ENV)=3, GEN=3, GEN:ENV=6, Residual=9, Total=23.
func TestJoint_RCBDDegreesOfFreedom(t *testing.T) {
	tbl, err := trial.New(metRecords(false))
	require.NoError(t, err)

	res, err := anova.Joint(tbl, "Y", anova.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, anova.RCBD, res.Design)
	assert.Equal(t, 4, res.NGen)
	assert.Equal(t, 3, res.NEnv)
	assert.Equal(t, 2, res.NRep)

	assert.Equal(t, 2, findRow(t, res.Rows, "ENV").DF)
	assert.Equal(t, 3, findRow(t, res.Rows, "REP(ENV)").DF)
	assert.Equal(t, 3, findRow(t, res.Rows, "GEN").DF)
	assert.Equal(t, 6, findRow(t, res.Rows, "GEN:ENV").DF)
	assert.Equal(t, 9, findRow(t, res.Rows, "Residual").DF)
	assert.Equal(t, 23, findRow(t, res.Rows, "Total").DF)
}

// TestJoint_SumOfSquaresAdditivity checks that the partition sums to
// the total sum of squares.
func TestJoint_SumOfSquaresAdditivity(t *testing.T) {
	tbl, err := trial.New(metRecords(false))
	require.NoError(t, err)

	res, err := anova.Joint(tbl, "Y", anova.DefaultOptions())
	require.NoError(t, err)

	parts := 0.0
	for _, row := range res.Rows {
		if row.Source == "Total" {
			continue
		}
		parts += row.SS
	}
	assert.InDelta(t, findRow(t, res.Rows, "Total").SS, parts, 1e-9,
		"source SS must sum to the total SS")
}

// TestJoint_Tests checks that tested sources carry finite F and p in
// [0,1] and that the residual row has no test.
func TestJoint_Tests(t *testing.T) {
	tbl, err := trial.New(metRecords(false))
	require.NoError(t, err)

	res, err := anova.Joint(tbl, "Y", anova.DefaultOptions())
	require.NoError(t, err)

	for _, source := range []string{"ENV", "REP(ENV)", "GEN", "GEN:ENV"} {
		row := findRow(t, res.Rows, source)
		assert.False(t, math.IsNaN(row.F), "%s F must be finite", source)
		assert.GreaterOrEqual(t, row.P, 0.0)
		assert.LessOrEqual(t, row.P, 1.0)
	}
	assert.True(t, math.IsNaN(findRow(t, res.Rows, "Residual").F))

	// The genotype effect in the synthetic data is strong.
	assert.Less(t, findRow(t, res.Rows, "GEN").P, 0.01, "genotype effect must be significant")
	assert.Greater(t, res.ResidMS, 0.0)
	assert.Equal(t, 9, res.ResidDF)
}

// TestJoint_Lattice adds incomplete blocks and expects the
// BLOCK(ENV:REP) source with df = envs·reps·(blocks-1) = 6.
func TestJoint_Lattice(t *testing.T) {
	tbl, err := trial.New(metRecords(true))
	require.NoError(t, err)

	res, err := anova.Joint(tbl, "Y", anova.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, anova.Lattice, res.Design)
	assert.Equal(t, 6, findRow(t, res.Rows, "BLOCK(ENV:REP)").DF)
	assert.Equal(t, 3, findRow(t, res.Rows, "Residual").DF)

	parts := 0.0
	for _, row := range res.Rows {
		if row.Source == "Total" {
			continue
		}
		parts += row.SS
	}
	assert.InDelta(t, findRow(t, res.Rows, "Total").SS, parts, 1e-9)
}

// TestJoint_Unbalanced rejects a table with a removed plot.
func TestJoint_Unbalanced(t *testing.T) {
	records := metRecords(false)
	_, err := trial.New(records)
	require.NoError(t, err)

	tbl, err := trial.New(records[1:]) // drop one plot
	require.NoError(t, err)

	_, err = anova.Joint(tbl, "Y", anova.DefaultOptions())
	assert.ErrorIs(t, err, anova.ErrUnbalanced)
}

// TestJoint_TooFewLevels rejects single-replicate data.
func TestJoint_TooFewLevels(t *testing.T) {
	var records []trial.Record
	for _, rec := range metRecords(false) {
		if rec.Rep == "R1" {
			records = append(records, rec)
		}
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)

	_, err = anova.Joint(tbl, "Y", anova.DefaultOptions())
	assert.ErrorIs(t, err, anova.ErrTooFewLevels)
}
