package impute

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/fenixforecast/annualref/timeseries"
)

// structuralFill fills missing values with the smoothed level of a
// local-linear-trend state-space model, adding a stochastic seasonal
// component when period > 1 and the series is longer than two full periods
// (the basic structural model). Variance parameters are estimated by
// maximum likelihood with a deterministic Nelder-Mead search. Falls back to
// LinearFill when fewer than 3 points are known, the fit fails to converge,
// or the smoothed result contains non-finite values.
func structuralFill(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	copy(out, values)

	if timeseries.CountKnown(values) == n {
		return out
	}
	if timeseries.CountKnown(values) < 3 {
		return LinearFill(values)
	}

	missing := make([]bool, n)
	for i, v := range values {
		missing[i] = math.IsNaN(v)
	}

	// The state-space fit runs on a linearly prefilled series; only the
	// originally missing positions take the smoothed level afterwards.
	filled := LinearFill(values)

	seasonal := period > 1 && n > 2*period
	smoothedLevel, ok := fitAndSmooth(filled, period, seasonal)
	if !ok {
		return LinearFill(values)
	}

	for i := 0; i < n; i++ {
		if missing[i] {
			out[i] = smoothedLevel[i]
		}
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return LinearFill(values)
		}
	}
	return out
}

// structuralModel is a linear Gaussian state-space model with a single
// observation series: y_t = Z a_t + eps, a_t = T a_{t-1} + eta.
type structuralModel struct {
	dim int
	t   *mat.Dense // transition
	z   *mat.VecDense
	q   *mat.Dense // state noise covariance
	h   float64    // observation noise variance
}

// newStructuralModel builds a local-linear-trend model, optionally extended
// with a stochastic dummy seasonal block of period-1 states.
func newStructuralModel(period int, seasonal bool, obsVar, levelVar, slopeVar, seasVar float64) *structuralModel {
	dim := 2
	if seasonal {
		dim += period - 1
	}

	t := mat.NewDense(dim, dim, nil)
	// Level and slope: level_t = level_{t-1} + slope_{t-1}.
	t.Set(0, 0, 1)
	t.Set(0, 1, 1)
	t.Set(1, 1, 1)

	z := mat.NewVecDense(dim, nil)
	z.SetVec(0, 1)

	q := mat.NewDense(dim, dim, nil)
	q.Set(0, 0, levelVar)
	q.Set(1, 1, slopeVar)

	if seasonal {
		// s_t = -(s_{t-1} + ... + s_{t-period+1}) + noise, remaining
		// seasonal states shift down by one.
		for j := 2; j < dim; j++ {
			t.Set(2, j, -1)
		}
		for j := 3; j < dim; j++ {
			t.Set(j, j-1, 1)
		}
		z.SetVec(2, 1)
		q.Set(2, 2, seasVar)
	}

	return &structuralModel{dim: dim, t: t, z: z, q: q, h: obsVar}
}

// filter runs the Kalman filter over y and returns the negative
// log-likelihood together with the per-step predicted and filtered moments.
func (m *structuralModel) filter(y []float64) (nll float64, apred, afilt []*mat.VecDense, ppred, pfilt []*mat.Dense, ok bool) {
	n := len(y)
	apred = make([]*mat.VecDense, n)
	afilt = make([]*mat.VecDense, n)
	ppred = make([]*mat.Dense, n)
	pfilt = make([]*mat.Dense, n)

	// Diffuse-ish prior around the first observation.
	a := mat.NewVecDense(m.dim, nil)
	a.SetVec(0, y[0])
	p := mat.NewDense(m.dim, m.dim, nil)
	for i := 0; i < m.dim; i++ {
		p.Set(i, i, 1e7)
	}

	for t := 0; t < n; t++ {
		// Predict.
		ap := mat.NewVecDense(m.dim, nil)
		ap.MulVec(m.t, a)
		var tp mat.Dense
		tp.Mul(m.t, p)
		pp := mat.NewDense(m.dim, m.dim, nil)
		pp.Mul(&tp, m.t.T())
		pp.Add(pp, m.q)

		apred[t], ppred[t] = ap, pp

		// Innovation.
		var pz mat.VecDense
		pz.MulVec(pp, m.z)
		f := mat.Dot(m.z, &pz) + m.h
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, nil, nil, nil, nil, false
		}
		v := y[t] - mat.Dot(m.z, ap)
		nll += 0.5 * (math.Log(2*math.Pi) + math.Log(f) + v*v/f)

		// Update.
		k := mat.NewVecDense(m.dim, nil)
		k.ScaleVec(1/f, &pz)

		af := mat.NewVecDense(m.dim, nil)
		af.AddScaledVec(ap, v, k)

		var kz mat.Dense
		kz.Outer(1, k, &pz)
		pf := mat.NewDense(m.dim, m.dim, nil)
		pf.Sub(pp, &kz)

		afilt[t], pfilt[t] = af, pf
		a, p = af, pf
	}

	if math.IsNaN(nll) || math.IsInf(nll, 0) {
		return 0, nil, nil, nil, nil, false
	}
	return nll, apred, afilt, ppred, pfilt, true
}

// smooth applies the backward (RTS) pass and returns the smoothed level.
func (m *structuralModel) smooth(y []float64) ([]float64, bool) {
	n := len(y)
	_, apred, afilt, ppred, pfilt, ok := m.filter(y)
	if !ok {
		return nil, false
	}

	level := make([]float64, n)
	as := afilt[n-1]
	level[n-1] = as.AtVec(0)

	for t := n - 2; t >= 0; t-- {
		var ppInv mat.Dense
		if err := ppInv.Inverse(ppred[t+1]); err != nil {
			return nil, false
		}
		var pt mat.Dense
		pt.Mul(pfilt[t], m.t.T())
		var j mat.Dense
		j.Mul(&pt, &ppInv)

		diff := mat.NewVecDense(m.dim, nil)
		diff.SubVec(as, apred[t+1])
		corr := mat.NewVecDense(m.dim, nil)
		corr.MulVec(&j, diff)

		next := mat.NewVecDense(m.dim, nil)
		next.AddVec(afilt[t], corr)

		as = next
		level[t] = as.AtVec(0)
	}
	return level, true
}

// fitAndSmooth estimates the model variances by maximum likelihood and
// returns the smoothed level series.
func fitAndSmooth(y []float64, period int, seasonal bool) ([]float64, bool) {
	// Scale-aware starting point: variance of the first differences.
	diffs := make([]float64, 0, len(y)-1)
	for i := 1; i < len(y); i++ {
		diffs = append(diffs, y[i]-y[i-1])
	}
	v0 := timeseries.Variance(diffs)
	if !(v0 > 0) {
		v0 = 1
	}
	logV := math.Log(v0)

	nParams := 3
	if seasonal {
		nParams = 4
	}
	x0 := make([]float64, nParams)
	x0[0] = logV            // observation variance
	x0[1] = logV - 1        // level variance
	x0[2] = logV - 4        // slope variance
	if seasonal {
		x0[3] = logV - 2 // seasonal variance
	}

	build := func(x []float64) *structuralModel {
		seasVar := 0.0
		if seasonal {
			seasVar = math.Exp(clamp(x[3], -30, 30))
		}
		return newStructuralModel(period, seasonal,
			math.Exp(clamp(x[0], -30, 30)),
			math.Exp(clamp(x[1], -30, 30)),
			math.Exp(clamp(x[2], -30, 30)),
			seasVar)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			nll, _, _, _, _, ok := build(x).filter(y)
			if !ok {
				return math.Inf(1)
			}
			return nll
		},
	}

	settings := &optimize.Settings{FuncEvaluations: 500, Converger: &optimize.FunctionConverge{
		Absolute:   1e-8,
		Iterations: 50,
	}}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})

	params := x0
	if result != nil && err == nil && isAllFinite(result.X) && !math.IsInf(result.F, 0) {
		params = result.X
	}

	return build(params).smooth(y)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isAllFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
