package trial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/trial"
)

// additiveRecords builds a 4-gen × 3-env single-replicate table whose
// cell values are purely additive: y = 10*g + e. One cell is omitted so
// the additive EM fill can recover it exactly.
func additiveRecords(skipGen, skipEnv int) []trial.Record {
	var records []trial.Record
	gens := []string{"G1", "G2", "G3", "G4"}
	envs := []string{"E1", "E2", "E3"}
	for gi, g := range gens {
		for ei, e := range envs {
			if gi == skipGen && ei == skipEnv {
				continue
			}
			records = append(records, rec(e, g, "R1", float64(10*(gi+1)+(ei+1))))
		}
	}
	return records
}

// TestImputeEM_AdditiveRecovery verifies that a purely additive matrix
// with one missing cell is recovered exactly by the additive fill.
func TestImputeEM_AdditiveRecovery(t *testing.T) {
	tbl, err := trial.New(additiveRecords(1, 2))
	require.NoError(t, err)
	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)

	imputed, err := trial.ImputeEM(ge, 1, 50, 1e-10)
	require.NoError(t, err)
	assert.Equal(t, 1, imputed, "one cell was filled")
	// True value: 10*2 + 3 = 23.
	assert.InDelta(t, 23.0, ge.Means.At(1, 2), 1e-6, "additive cell recovered")
	assert.Equal(t, 0, ge.Counts[1][2], "counts still mark the cell as unobserved")
}

// TestImputeEM_Complete rejects imputation on a complete matrix.
func TestImputeEM_Complete(t *testing.T) {
	tbl, err := trial.New(additiveRecords(-1, -1))
	require.NoError(t, err)
	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)

	_, err = trial.ImputeEM(ge, 1, 10, 1e-8)
	assert.ErrorIs(t, err, trial.ErrNoMissingCells)
}

// TestImputeEM_RankRange rejects out-of-range truncation ranks.
func TestImputeEM_RankRange(t *testing.T) {
	tbl, err := trial.New(additiveRecords(0, 0))
	require.NoError(t, err)
	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)

	_, err = trial.ImputeEM(ge, -1, 10, 1e-8)
	assert.ErrorIs(t, err, trial.ErrImputeRank, "negative rank")

	_, err = trial.ImputeEM(ge, 3, 10, 1e-8) // min(4,3)-1 = 2 is the cap
	assert.ErrorIs(t, err, trial.ErrImputeRank, "rank above min(g,e)-1")
}

// TestImputeEM_TooFewLevels rejects a single-environment matrix: with
// one column there is no interaction structure to estimate from.
func TestImputeEM_TooFewLevels(t *testing.T) {
	records := []trial.Record{
		rec("E1", "G1", "R1", 10),
		rec("E1", "G2", "R1", 20),
		{Env: "E1", Gen: "G3", Rep: "R1", Values: map[string]float64{}},
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)
	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)

	_, err = trial.ImputeEM(ge, 0, 10, 1e-8)
	assert.ErrorIs(t, err, trial.ErrTooFewLevels)
}

// TestImputeEM_EmptyMargin fails when a whole genotype is unobserved.
func TestImputeEM_EmptyMargin(t *testing.T) {
	records := []trial.Record{
		rec("E1", "G1", "R1", 10), rec("E2", "G1", "R1", 11),
		rec("E1", "G2", "R1", 20),
		// G3 appears only via an empty-valued record: both its cells missing.
		{Env: "E1", Gen: "G3", Rep: "R1", Values: map[string]float64{}},
		{Env: "E2", Gen: "G3", Rep: "R1", Values: map[string]float64{}},
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)
	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)

	_, err = trial.ImputeEM(ge, 0, 10, 1e-8)
	assert.ErrorIs(t, err, trial.ErrEmptyMargin)
}
