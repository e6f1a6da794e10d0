package degreeday

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// olsFit is an ordinary least-squares fit solved through the singular value
// decomposition of the design matrix, tolerating rank deficiency.
type olsFit struct {
	coef   []float64
	fitted []float64
	sigma2 float64    // SSE / max(n-p, 1)
	cov    *mat.Dense // (XᵗX)⁺, unscaled
	n, p   int
}

// fitOLS solves y = Xβ by least squares. Returns nil when the decomposition
// fails or produces non-finite coefficients.
func fitOLS(x *mat.Dense, y []float64) *olsFit {
	n, p := x.Dims()
	if n == 0 || p == 0 || len(y) != n {
		return nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	tol := 1e-12 * s[0]
	if tol <= 0 {
		return nil
	}

	// β = V Σ⁺ Uᵀ y over the retained singular values.
	k := len(s)
	coord := make([]float64, k)
	for i := 0; i < k; i++ {
		if s[i] <= tol {
			continue
		}
		dot := 0.0
		for r := 0; r < n; r++ {
			dot += u.At(r, i) * y[r]
		}
		coord[i] = dot / s[i]
	}

	coef := make([]float64, p)
	for j := 0; j < p; j++ {
		sum := 0.0
		for i := 0; i < k; i++ {
			sum += v.At(j, i) * coord[i]
		}
		coef[j] = sum
	}
	for _, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil
		}
	}

	fitted := make([]float64, n)
	sse := 0.0
	for r := 0; r < n; r++ {
		f := 0.0
		for j := 0; j < p; j++ {
			f += x.At(r, j) * coef[j]
		}
		fitted[r] = f
		d := f - y[r]
		sse += d * d
	}

	// (XᵗX)⁺ = V Σ⁻² Vᵀ over the retained singular values.
	cov := mat.NewDense(p, p, nil)
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			sum := 0.0
			for i := 0; i < k; i++ {
				if s[i] <= tol {
					continue
				}
				sum += v.At(a, i) * v.At(b, i) / (s[i] * s[i])
			}
			cov.Set(a, b, sum)
			cov.Set(b, a, sum)
		}
	}

	dof := n - p
	if dof < 1 {
		dof = 1
	}
	return &olsFit{
		coef:   coef,
		fitted: fitted,
		sigma2: sse / float64(dof),
		cov:    cov,
		n:      n,
		p:      p,
	}
}

// predictSE returns the standard error of the fitted mean at predictor
// vector x: sqrt(xᵗ (XᵗX)⁺ x · σ²).
func (f *olsFit) predictSE(x []float64) float64 {
	if len(x) != f.p {
		return math.NaN()
	}
	q := 0.0
	for a := 0; a < f.p; a++ {
		for b := 0; b < f.p; b++ {
			q += x[a] * f.cov.At(a, b) * x[b]
		}
	}
	if q < 0 {
		q = 0
	}
	return math.Sqrt(q * f.sigma2)
}

// predict evaluates the fitted mean at predictor vector x.
func (f *olsFit) predict(x []float64) float64 {
	sum := 0.0
	for j := range x {
		sum += x[j] * f.coef[j]
	}
	return sum
}

// tTable holds the canonical two-sided 95% Student-t critical values for
// df 1..10; beyond that the normal value 1.96 applies.
var tTable = []float64{12.706, 4.303, 3.182, 2.776, 2.571, 2.447, 2.365, 2.306, 2.262, 2.228}

// tCritical returns the 97.5th-percentile Student-t quantile for the given
// degrees of freedom, using the canonical table when the exact quantile is
// unavailable.
func tCritical(df int) float64 {
	if df < 1 {
		df = 1
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.Quantile(0.975)
	if !math.IsNaN(t) && !math.IsInf(t, 0) && t > 0 {
		return t
	}
	if df <= len(tTable) {
		return tTable[df-1]
	}
	return 1.96
}
