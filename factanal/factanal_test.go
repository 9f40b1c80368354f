package factanal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrostat/met/factanal"
	"github.com/agrostat/met/trial"
)

// twoClusterTable builds 6 environments over 8 genotypes where the
// first three environments respond to one latent genotype signal and
// the last three to another, plus a small per-environment wiggle so
// the correlation matrix stays invertible.
func twoClusterTable(t *testing.T) *trial.Table {
	t.Helper()
	s1 := []float64{2, -1, 0, 3, -2, 1, -3, 0}
	s2 := []float64{0, 1, -2, 0, 2, -1, 1, -1}
	wiggle := [][]float64{
		{0.3, -0.1, 0.2, -0.3, 0.1, 0.2, -0.2, 0.1},
		{-0.2, 0.3, -0.1, 0.1, -0.3, 0.2, 0.1, -0.1},
		{0.1, -0.2, 0.3, -0.1, 0.2, -0.3, 0.1, 0.2},
		{0.2, 0.1, -0.3, 0.3, -0.1, 0.1, -0.2, 0.2},
		{-0.1, 0.2, 0.1, -0.2, 0.3, -0.1, 0.2, -0.3},
		{0.3, -0.3, 0.1, 0.2, -0.2, 0.3, -0.1, 0.1},
	}

	var records []trial.Record
	envs := []string{"E1", "E2", "E3", "E4", "E5", "E6"}
	for j, env := range envs {
		for i := 0; i < 8; i++ {
			var y float64
			if j < 3 {
				y = 40 + float64(j) + (2+0.3*float64(j))*s1[i]
			} else {
				y = 50 + float64(j) + (2+0.3*float64(j-3))*s2[i]
			}
			y += 0.2 * wiggle[j][i]
			records = append(records, trial.Record{
				Env: env, Gen: genName(i), Rep: "R1",
				Values: map[string]float64{"Y": y},
			})
		}
	}
	tbl, err := trial.New(records)
	require.NoError(t, err)
	return tbl
}

func genName(i int) string {
	return string(rune('A' + i))
}

// TestGEFactanal_TwoClusters verifies that two latent signals are
// recovered as two retained factors and that the environments cluster
// accordingly.
func TestGEFactanal_TwoClusters(t *testing.T) {
	res, err := factanal.GEFactanal(twoClusterTable(t), []string{"Y"}, factanal.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Traits, 1)
	tf := res.Traits[0]

	assert.Equal(t, 2, tf.NFactors)
	require.Len(t, tf.Cluster, 6)
	assert.Equal(t, tf.Cluster[0], tf.Cluster[1])
	assert.Equal(t, tf.Cluster[0], tf.Cluster[2])
	assert.Equal(t, tf.Cluster[3], tf.Cluster[4])
	assert.Equal(t, tf.Cluster[3], tf.Cluster[5])
	assert.NotEqual(t, tf.Cluster[0], tf.Cluster[3], "the groups load on different factors")
}

// TestGEFactanal_SpectrumAndVariance checks the eigenvalue ordering
// and the explained/cumulative variance bookkeeping.
func TestGEFactanal_SpectrumAndVariance(t *testing.T) {
	res, err := factanal.GEFactanal(twoClusterTable(t), nil, factanal.DefaultOptions())
	require.NoError(t, err)
	tf := res.Traits[0]

	require.Len(t, tf.Eigenvalues, 6, "the full spectrum is reported")
	for k := 1; k < len(tf.Eigenvalues); k++ {
		assert.LessOrEqual(t, tf.Eigenvalues[k], tf.Eigenvalues[k-1], "descending order")
	}

	sum := 0.0
	for _, v := range tf.Eigenvalues {
		sum += v
	}
	assert.InDelta(t, 6.0, sum, 1e-9, "correlation eigenvalues sum to the variable count")

	run := 0.0
	for k := 0; k < tf.NFactors; k++ {
		assert.InDelta(t, tf.Eigenvalues[k]/6*100, tf.Explained[k], 1e-9)
		run += tf.Explained[k]
		assert.InDelta(t, run, tf.Cumulative[k], 1e-9)
	}
	assert.Greater(t, tf.Cumulative[tf.NFactors-1], 90.0,
		"two factors carry nearly all the structure of this design")
}

// TestGEFactanal_ScoresShape verifies score and communality dimensions
// and that communalities stay within (0, 1].
func TestGEFactanal_ScoresShape(t *testing.T) {
	res, err := factanal.GEFactanal(twoClusterTable(t), nil, factanal.DefaultOptions())
	require.NoError(t, err)
	tf := res.Traits[0]

	r, c := tf.Scores.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, tf.NFactors, c)

	for i, h := range tf.Communality {
		assert.Greater(t, h, 0.0, "environment %s", tf.Envs[i])
		assert.LessOrEqual(t, h, 1.0+1e-9, "environment %s", tf.Envs[i])
	}
}

// TestGEFactanal_Errors covers the guard paths: too few environments
// and an unreachable retention threshold.
func TestGEFactanal_Errors(t *testing.T) {
	var records []trial.Record
	for _, env := range []string{"E1", "E2"} {
		for i := 0; i < 4; i++ {
			records = append(records, trial.Record{
				Env: env, Gen: genName(i), Rep: "R1",
				Values: map[string]float64{"Y": float64(i)},
			})
		}
	}
	small, err := trial.New(records)
	require.NoError(t, err)

	_, err = factanal.GEFactanal(small, nil, factanal.DefaultOptions())
	assert.ErrorIs(t, err, factanal.ErrTooFewEnvs)

	opts := factanal.DefaultOptions()
	opts.MinEigenvalue = 100
	_, err = factanal.GEFactanal(twoClusterTable(t), nil, opts)
	assert.ErrorIs(t, err, factanal.ErrNoFactorRetained)
}
