package factanal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrRotateConfig marks invalid varimax parameters.
var ErrRotateConfig = errors.New("factanal: invalid rotation parameters")

// Varimax rotates a p × k loading matrix to maximize the variance of
// the squared loadings within each column (Kaiser-normalized pairwise
// planar rotations). The input is not modified; a matrix with a single
// column is returned as a copy, already being maximally simple.
//
// maxIter bounds the full sweeps over all column pairs, tol stops the
// iteration once the relative gain of the varimax criterion per sweep
// drops below it.
//
// Errors: ErrRotateConfig.
func Varimax(l *mat.Dense, maxIter int, tol float64) (*mat.Dense, error) {
	if maxIter < 1 || tol <= 0 {
		return nil, fmt.Errorf("maxIter=%d tol=%g: %w", maxIter, tol, ErrRotateConfig)
	}

	p, k := l.Dims()
	out := mat.DenseCopyOf(l)
	if k < 2 {
		return out, nil
	}

	// Kaiser normalization: weight each row to unit communality so
	// variables with small communality do not dominate the criterion.
	h := make([]float64, p)
	for i := 0; i < p; i++ {
		sum := 0.0
		for j := 0; j < k; j++ {
			v := out.At(i, j)
			sum += v * v
		}
		h[i] = math.Sqrt(sum)
		if h[i] > 0 {
			for j := 0; j < k; j++ {
				out.Set(i, j, out.At(i, j)/h[i])
			}
		}
	}

	prev := varimaxCriterion(out)
	for iter := 0; iter < maxIter; iter++ {
		for a := 0; a < k-1; a++ {
			for b := a + 1; b < k; b++ {
				rotatePair(out, a, b)
			}
		}
		cur := varimaxCriterion(out)
		if cur-prev <= tol*math.Max(prev, 1) {
			break
		}
		prev = cur
	}

	for i := 0; i < p; i++ {
		if h[i] > 0 {
			for j := 0; j < k; j++ {
				out.Set(i, j, out.At(i, j)*h[i])
			}
		}
	}
	return out, nil
}

// rotatePair applies the closed-form optimal planar rotation to
// columns a and b.
func rotatePair(l *mat.Dense, a, b int) {
	p, _ := l.Dims()
	pf := float64(p)

	var sumU, sumV, sumC, sumD float64
	for i := 0; i < p; i++ {
		x, y := l.At(i, a), l.At(i, b)
		u := x*x - y*y
		v := 2 * x * y
		sumU += u
		sumV += v
		sumC += u*u - v*v
		sumD += 2 * u * v
	}
	num := sumD - 2*sumU*sumV/pf
	den := sumC - (sumU*sumU-sumV*sumV)/pf
	phi := 0.25 * math.Atan2(num, den)
	if math.Abs(phi) < 1e-12 {
		return
	}

	sin, cos := math.Sincos(phi)
	for i := 0; i < p; i++ {
		x, y := l.At(i, a), l.At(i, b)
		l.Set(i, a, x*cos+y*sin)
		l.Set(i, b, -x*sin+y*cos)
	}
}

// varimaxCriterion is the raw varimax objective: per-column variance
// of the squared loadings, summed over columns.
func varimaxCriterion(l *mat.Dense) float64 {
	p, k := l.Dims()
	pf := float64(p)

	total := 0.0
	for j := 0; j < k; j++ {
		var s2, s4 float64
		for i := 0; i < p; i++ {
			v := l.At(i, j)
			s2 += v * v
			s4 += v * v * v * v
		}
		total += (pf*s4 - s2*s2) / (pf * pf)
	}
	return total
}
