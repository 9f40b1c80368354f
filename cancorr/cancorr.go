package cancorr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CanCorr computes the canonical correlation structure between two
// variable sets observed on the same individuals (rows). Labels in
// names are optional; nil slices get positional fallbacks.
//
// Errors: ErrUnknownTest, ErrRowMismatch, ErrNonFinite, ErrTooFewRows,
// ErrSingular.
func CanCorr(first, second *mat.Dense, names Names, opts Options) (*Result, error) {
	if opts.Test != Bartlett && opts.Test != Rao {
		return nil, fmt.Errorf("%q: %w", opts.Test, ErrUnknownTest)
	}

	n, p := first.Dims()
	n2, q := second.Dims()
	if n != n2 {
		return nil, fmt.Errorf("first has %d rows, second %d: %w", n, n2, ErrRowMismatch)
	}
	if err := checkFinite(first, "first"); err != nil {
		return nil, err
	}
	if err := checkFinite(second, "second"); err != nil {
		return nil, err
	}
	if n < 4 || float64(n-1)-float64(p+q+1)/2 <= 0 {
		return nil, fmt.Errorf("n=%d, p=%d, q=%d: %w", n, p, q, ErrTooFewRows)
	}

	zx, err := standardize(first, "first")
	if err != nil {
		return nil, err
	}
	zy, err := standardize(second, "second")
	if err != nil {
		return nil, err
	}

	r11 := crossCorr(zx, zx) // p×p
	r22 := crossCorr(zy, zy) // q×q
	r12 := crossCorr(zx, zy) // p×q

	invSqrt11, err := invSqrtSym(r11)
	if err != nil {
		return nil, err
	}
	var inv22 mat.Dense
	if err := inv22.Inverse(r22); err != nil {
		return nil, fmt.Errorf("%w: second-set block: %v", ErrSingular, err)
	}

	// K = R11^{-1/2}·R12·R22⁻¹·R21·R11^{-1/2}, symmetrized against
	// floating-point drift before the eigen solve.
	var t1, t2, k mat.Dense
	t1.Mul(r12, &inv22)
	t2.Mul(&t1, r12.T())
	t1.Mul(invSqrt11, &t2)
	k.Mul(&t1, invSqrt11)
	kSym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			kSym.SetSym(i, j, (k.At(i, j)+k.At(j, i))/2)
		}
	}

	values, vectors, err := eigenDesc(kSym)
	if err != nil {
		return nil, err
	}

	m := p
	if q < m {
		m = q
	}
	corr := make([]float64, m)
	for i := 0; i < m; i++ {
		corr[i] = math.Sqrt(math.Min(math.Max(values[i], 0), 1))
	}

	// First-set coefficients A = R11^{-1/2}·W, already unit-variance
	// because the eigenvectors are orthonormal.
	var aFull mat.Dense
	aFull.Mul(invSqrt11, vectors)
	aCoef := mat.NewDense(p, m, nil)
	for k := 0; k < m; k++ {
		for i := 0; i < p; i++ {
			aCoef.Set(i, k, aFull.At(i, k))
		}
	}

	// Second-set coefficients b_k = R22⁻¹·R21·a_k / r_k.
	var r21a mat.Dense
	r21a.Mul(r12.T(), aCoef)
	var bRaw mat.Dense
	bRaw.Mul(&inv22, &r21a)
	bCoef := mat.NewDense(q, m, nil)
	for k := 0; k < m; k++ {
		if corr[k] < 1e-12 {
			continue
		}
		for j := 0; j < q; j++ {
			bCoef.Set(j, k, bRaw.At(j, k)/corr[k])
		}
	}

	var uScores, vScores mat.Dense
	uScores.Mul(zx, aCoef)
	vScores.Mul(zy, bCoef)

	var loadX, loadY, crossX, crossY mat.Dense
	loadX.Mul(r11, aCoef)      // corr(Xj, U)
	loadY.Mul(r22, bCoef)      // corr(Yj, V)
	crossX.Mul(r12, bCoef)     // corr(Xj, V)
	crossY.Mul(r12.T(), aCoef) // corr(Yj, U)

	tests, err := significance(corr, n, p, q, opts.Test)
	if err != nil {
		return nil, err
	}

	return &Result{
		FirstVars:           resolveNames(names.First, p, "X"),
		SecondVars:          resolveNames(names.Second, q, "Y"),
		Correlations:        corr,
		FirstCoef:           aCoef,
		SecondCoef:          bCoef,
		FirstLoadings:       &loadX,
		SecondLoadings:      &loadY,
		FirstCrossLoadings:  &crossX,
		SecondCrossLoadings: &crossY,
		FirstScores:         &uScores,
		SecondScores:        &vScores,
		Test:                opts.Test,
		Tests:               tests,
	}, nil
}

// significance builds one test row per shrinking pair set i, on
// Λᵢ = Π_{j≥i}(1−rⱼ²).
func significance(corr []float64, n, p, q int, kind Test) ([]TestRow, error) {
	m := len(corr)
	rows := make([]TestRow, 0, m)
	for i := 1; i <= m; i++ {
		lambda := 1.0
		for j := i - 1; j < m; j++ {
			f := 1 - corr[j]*corr[j]
			if f < 1e-12 {
				f = 1e-12
			}
			lambda *= f
		}

		row := TestRow{Pair: i, WilksLambda: lambda}
		switch kind {
		case Bartlett:
			df := float64((p - i + 1) * (q - i + 1))
			chi := -(float64(n-1) - float64(p+q+1)/2) * math.Log(lambda)
			row.Statistic = chi
			row.DF1 = df
			row.P = upperTail(distuv.ChiSquared{K: df}.CDF(chi))
		case Rao:
			pi, qi := float64(p-i+1), float64(q-i+1)
			s := 1.0
			if den := pi*pi + qi*qi - 5; den > 0 {
				s = math.Sqrt((pi*pi*qi*qi - 4) / den)
			}
			df1 := pi * qi
			df2 := (float64(n-1)-(pi+qi+1)/2)*s - pi*qi/2 + 1
			if df2 <= 0 {
				return nil, fmt.Errorf("pair %d: %w", i, ErrTooFewRows)
			}
			ls := math.Pow(lambda, 1/s)
			f := (1 - ls) / ls * df2 / df1
			row.Statistic = f
			row.DF1 = df1
			row.DF2 = df2
			row.P = upperTail(distuv.F{D1: df1, D2: df2}.CDF(f))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// standardize returns the column-standardized copy of x (sample
// standard deviation).
func standardize(x *mat.Dense, set string) (*mat.Dense, error) {
	r, c := x.Dims()
	z := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		mat.Col(col, j, x)
		mean, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			return nil, fmt.Errorf("%w: constant column %d of %s set", ErrSingular, j, set)
		}
		for i := 0; i < r; i++ {
			z.Set(i, j, (col[i]-mean)/sd)
		}
	}
	return z, nil
}

// crossCorr computes aᵀb/(n−1) over standardized inputs.
func crossCorr(a, b *mat.Dense) *mat.Dense {
	n, _ := a.Dims()
	var out mat.Dense
	out.Mul(a.T(), b)
	out.Scale(1/float64(n-1), &out)
	return &out
}

// invSqrtSym builds S^{-1/2} = V·diag(1/√λ)·Vᵀ of a symmetric
// positive-definite matrix.
func invSqrtSym(s *mat.Dense) (*mat.Dense, error) {
	n, _ := s.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (s.At(i, j)+s.At(j, i))/2)
		}
	}
	values, vectors, err := eigenDesc(sym)
	if err != nil {
		return nil, err
	}
	d := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		if values[k] <= 1e-12 {
			return nil, fmt.Errorf("%w: first-set block (eigenvalue %g)", ErrSingular, values[k])
		}
		d.Set(k, k, 1/math.Sqrt(values[k]))
	}
	var t, out mat.Dense
	t.Mul(vectors, d)
	out.Mul(&t, vectors.T())
	return &out, nil
}

// eigenDesc decomposes a symmetric matrix, eigenvalues descending.
func eigenDesc(s *mat.SymDense) ([]float64, *mat.Dense, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(s, true); !ok {
		return nil, nil, fmt.Errorf("%w: eigen decomposition failed", ErrSingular)
	}
	n, _ := s.Dims()
	asc := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	values := make([]float64, n)
	sorted := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		src := n - 1 - k
		values[k] = asc[src]
		for i := 0; i < n; i++ {
			sorted.Set(i, k, vecs.At(i, src))
		}
	}
	return values, sorted, nil
}

func upperTail(cdf float64) float64 {
	p := 1 - cdf
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func resolveNames(given []string, n int, prefix string) []string {
	if len(given) == n {
		return append([]string(nil), given...)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

// checkFinite rejects NaN and ±Inf anywhere in the matrix.
func checkFinite(x *mat.Dense, set string) error {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s set at (%d,%d)", ErrNonFinite, set, i, j)
			}
		}
	}
	return nil
}
