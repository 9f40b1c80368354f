package ammi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Predict reconstructs a predicted mean for every genotype ×
// environment cell at truncation rank naxis:
//
//	YpredAMMI[i,j] = genMean[i] + envMean[j] − grand + Σ_{k≤naxis} d_k·U[i,k]·V[j,k]
//
// naxis must lie in [1, Minimo()]. naxis = 0 is invalid by contract:
// the additive-only prediction is returned alongside on every
// Prediction, so callers never need a zero-rank reconstruction.
//
// Errors: ErrAxisOutOfRange.
func (m *Model) Predict(naxis int) (*Prediction, error) {
	if naxis < 1 || naxis > len(m.d) {
		return nil, fmt.Errorf("naxis=%d, valid range [1,%d]: %w", naxis, len(m.d), ErrAxisOutOfRange)
	}

	g, e := len(m.Gens), len(m.Envs)
	additive := mat.NewDense(g, e, nil)
	pred := mat.NewDense(g, e, nil)

	for i := 0; i < g; i++ {
		for j := 0; j < e; j++ {
			add := m.GenMeans[i] + m.EnvMeans[j] - m.GrandMean
			inter := 0.0
			for k := 0; k < naxis; k++ {
				inter += m.d[k] * m.u.At(i, k) * m.v.At(j, k)
			}
			additive.Set(i, j, add)
			pred.Set(i, j, add+inter)
		}
	}

	return &Prediction{
		Trait:     m.Trait,
		Gens:      append([]string(nil), m.Gens...),
		Envs:      append([]string(nil), m.Envs...),
		NAxes:     naxis,
		Additive:  additive,
		YpredAMMI: pred,
	}, nil
}
