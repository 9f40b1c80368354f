package trial_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/trial"
)

// balancedTable builds a 2-env × 2-gen × 2-rep table with known means.
func balancedTable(t *testing.T) *trial.Table {
	t.Helper()
	tbl, err := trial.New([]trial.Record{
		rec("E1", "G1", "R1", 10), rec("E1", "G1", "R2", 12),
		rec("E1", "G2", "R1", 20), rec("E1", "G2", "R2", 22),
		rec("E2", "G1", "R1", 30), rec("E2", "G1", "R2", 34),
		rec("E2", "G2", "R1", 40), rec("E2", "G2", "R2", 44),
	})
	require.NoError(t, err)
	return tbl
}

// TestGEMatrix_Means verifies per-cell replicate averaging.
func TestGEMatrix_Means(t *testing.T) {
	ge, err := balancedTable(t).GEMatrix("Y")
	require.NoError(t, err)

	assert.Equal(t, []string{"G1", "G2"}, ge.Gens)
	assert.Equal(t, []string{"E1", "E2"}, ge.Envs)
	assert.InDelta(t, 11.0, ge.Means.At(0, 0), 1e-12, "mean of 10 and 12")
	assert.InDelta(t, 21.0, ge.Means.At(1, 0), 1e-12)
	assert.InDelta(t, 32.0, ge.Means.At(0, 1), 1e-12)
	assert.InDelta(t, 42.0, ge.Means.At(1, 1), 1e-12)
	assert.True(t, ge.Balanced(), "two replicates everywhere")
	assert.Equal(t, 0, ge.MissingCells())
}

// TestGEMatrix_MissingCell verifies NaN marking and balance detection.
func TestGEMatrix_MissingCell(t *testing.T) {
	tbl, err := trial.New([]trial.Record{
		rec("E1", "G1", "R1", 10),
		rec("E1", "G2", "R1", 20),
		rec("E2", "G1", "R1", 30),
		// E2/G2 never observed.
	})
	require.NoError(t, err)

	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ge.Means.At(1, 1)), "unobserved cell is NaN")
	assert.Equal(t, 1, ge.MissingCells())
	assert.False(t, ge.Balanced())
}

// TestGEMatrix_Margins checks genotype/environment/grand means over
// observed cells only.
func TestGEMatrix_Margins(t *testing.T) {
	ge, err := balancedTable(t).GEMatrix("Y")
	require.NoError(t, err)

	genMeans, envMeans, grand, err := ge.Margins()
	require.NoError(t, err)
	assert.InDelta(t, (11.0+32.0)/2, genMeans[0], 1e-12)
	assert.InDelta(t, (21.0+42.0)/2, genMeans[1], 1e-12)
	assert.InDelta(t, (11.0+21.0)/2, envMeans[0], 1e-12)
	assert.InDelta(t, (32.0+42.0)/2, envMeans[1], 1e-12)
	assert.InDelta(t, 26.5, grand, 1e-12)
}
