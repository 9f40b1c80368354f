package stability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/stability"
	"github.com/agrostat/met/trial"
)

// TestShukla_AdditiveDataHasZeroVariance: with no genotype ×
// environment interaction every Wᵢ is zero, so every stability
// variance collapses to zero exactly.
func TestShukla_AdditiveDataHasZeroVariance(t *testing.T) {
	cells := map[string]map[string]float64{}
	for ei, env := range []string{"E1", "E2", "E3"} {
		cells[env] = map[string]float64{}
		for gi, gen := range []string{"G1", "G2", "G3", "G4", "G5"} {
			cells[env][gen] = 20 + 3*float64(gi) + 2*float64(ei)
		}
	}
	tbl := stabilityTable(t, cells)

	res, err := stability.Shukla(tbl, []string{"Y"}, stability.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Traits, 1)

	for _, e := range res.Traits[0].Entries {
		assert.InDelta(t, 0.0, e.Variance, 1e-12, "genotype %s", e.Gen)
	}
}

// TestShukla_RanksAndSSI checks the rank/index contracts: RankMean
// orders means descending, RankVar orders variances ascending, each
// rank column is a permutation of 1..g and SSI is their sum. An
// interaction injected on G5 must make it the least stable genotype.
func TestShukla_RanksAndSSI(t *testing.T) {
	cells := map[string]map[string]float64{}
	for ei, env := range []string{"E1", "E2", "E3"} {
		cells[env] = map[string]float64{}
		for gi, gen := range []string{"G1", "G2", "G3", "G4", "G5"} {
			y := 20 + 3*float64(gi) + 2*float64(ei)
			if gen == "G5" {
				y += 4 * float64(ei) * float64(1-ei) // crossover wiggle
			}
			cells[env][gen] = y
		}
	}
	tbl := stabilityTable(t, cells)

	res, err := stability.Shukla(tbl, nil, stability.DefaultOptions())
	require.NoError(t, err)
	entries := res.Traits[0].Entries
	require.Len(t, entries, 5)

	seenMean := map[int]bool{}
	seenVar := map[int]bool{}
	var worst stability.ShuklaEntry
	for _, e := range entries {
		assert.Equal(t, e.RankMean+e.RankVar, e.SSI, "genotype %s", e.Gen)
		seenMean[e.RankMean] = true
		seenVar[e.RankVar] = true
		if e.RankVar == 5 {
			worst = e
		}
	}
	for r := 1; r <= 5; r++ {
		assert.True(t, seenMean[r], "RankMean must cover %d", r)
		assert.True(t, seenVar[r], "RankVar must cover %d", r)
	}
	assert.Equal(t, "G5", worst.Gen, "the injected interaction makes G5 least stable")
}

// TestShukla_VarianceIdentity recomputes σ²ᵢ from first principles
// (interaction residuals of the cell-mean matrix) and compares against
// the reported variances and means.
func TestShukla_VarianceIdentity(t *testing.T) {
	cells := map[string]map[string]float64{
		"E1": {"G1": 50, "G2": 45, "G3": 40, "G4": 30, "G5": 20},
		"E2": {"G1": 55, "G2": 48, "G3": 35, "G4": 44, "G5": 25},
		"E3": {"G1": 60, "G2": 30, "G3": 50, "G4": 28, "G5": 42},
	}
	tbl := stabilityTable(t, cells)

	res, err := stability.Shukla(tbl, nil, stability.DefaultOptions())
	require.NoError(t, err)
	entries := res.Traits[0].Entries

	ge, err := tbl.GEMatrix("Y")
	require.NoError(t, err)
	genMeans, envMeans, grand, err := ge.Margins()
	require.NoError(t, err)

	g, e := 5.0, 3.0
	w := make([]float64, 5)
	sumW := 0.0
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			d := ge.Means.At(i, j) - genMeans[i] - envMeans[j] + grand
			w[i] += d * d
		}
		sumW += w[i]
	}
	for i, entry := range entries {
		want := g/((g-2)*(e-1))*w[i] - sumW/((g-1)*(g-2)*(e-1))
		assert.InDelta(t, want, entry.Variance, 1e-10, "genotype %s", entry.Gen)
		assert.InDelta(t, genMeans[i], entry.Mean, 1e-12)
	}
}

// TestShukla_TooFewGenotypes rejects g < 3.
func TestShukla_TooFewGenotypes(t *testing.T) {
	var records []trial.Record
	for _, env := range []string{"E1", "E2", "E3"} {
		for gi, gen := range []string{"G1", "G2"} {
			records = append(records, trial.Record{
				Env: env, Gen: gen, Rep: "R1",
				Values: map[string]float64{"Y": float64(gi + 1)},
			})
		}
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)

	_, err = stability.Shukla(tbl, nil, stability.DefaultOptions())
	assert.ErrorIs(t, err, stability.ErrTooFewGens)
}
