package stats

import (
	"math"
	"sort"
)

// AdaptiveSpan returns the LOWESS span fraction used by the outlier
// detector's smoothing step: wide and flat for short series so noise is not
// fitted as trend, narrowing as the sample grows.
func AdaptiveSpan(n int) float64 {
	switch {
	case n < 40:
		return 0.5
	case n < 100:
		return 0.2
	default:
		return 0.15
	}
}

// SmoothSeries smooths values over the implicit grid 1..n with a locally
// weighted scatterplot smoother whose span adapts to the sample size. Series
// no longer than one period are fitted with a robust Theil–Sen line instead.
// Degenerate input degrades to a constant mean line; the function never
// returns non-finite values for finite input.
func SmoothSeries(values []float64, period int) []float64 {
	n := len(values)
	tt := make([]float64, n)
	for i := range tt {
		tt[i] = float64(i + 1)
	}

	if n <= period {
		if fit, ok := theilSenLine(tt, values); ok {
			return fit
		}
	}

	if fit, ok := Lowess(tt, values, AdaptiveSpan(n)); ok {
		return fit
	}
	if fit, ok := theilSenLine(tt, values); ok {
		return fit
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	out := make([]float64, n)
	for i := range out {
		out[i] = mean
	}
	return out
}

// Lowess computes a locally weighted linear regression smooth of y over x
// with tricube weights and the given span fraction, without robustness
// iterations. Returns ok=false when the input is degenerate.
func Lowess(x, y []float64, span float64) ([]float64, bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return nil, false
	}
	for i := 0; i < n; i++ {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return nil, false
		}
	}

	k := int(math.Ceil(span * float64(n)))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	fitted := make([]float64, n)
	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dists[j] = math.Abs(x[j] - x[i])
		}
		sorted := make([]float64, n)
		copy(sorted, dists)
		sort.Float64s(sorted)
		h := sorted[k-1]
		if h <= 0 {
			h = 1e-12
		}

		// Weighted linear fit around x[i].
		var sw, swx, swy, swxx, swxy float64
		for j := 0; j < n; j++ {
			u := dists[j] / h
			if u >= 1 {
				continue
			}
			w := 1 - u*u*u
			w = w * w * w
			sw += w
			swx += w * x[j]
			swy += w * y[j]
			swxx += w * x[j] * x[j]
			swxy += w * x[j] * y[j]
		}
		if sw == 0 {
			fitted[i] = y[i]
			continue
		}
		det := sw*swxx - swx*swx
		if math.Abs(det) < 1e-12 {
			fitted[i] = swy / sw
			continue
		}
		beta := (sw*swxy - swx*swy) / det
		alpha := (swy - beta*swx) / sw
		fitted[i] = alpha + beta*x[i]
	}
	return fitted, true
}

// theilSenLine fits a robust line by the Theil–Sen median-of-slopes
// estimator and evaluates it on x.
func theilSenLine(x, y []float64) ([]float64, bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return nil, false
	}

	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[j] - x[i]
			if dx == 0 || !isFinite(y[i]) || !isFinite(y[j]) {
				continue
			}
			slopes = append(slopes, (y[j]-y[i])/dx)
		}
	}
	if len(slopes) == 0 {
		return nil, false
	}
	slope := medianOf(slopes)

	intercepts := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(y[i]) {
			intercepts = append(intercepts, y[i]-slope*x[i])
		}
	}
	if len(intercepts) == 0 {
		return nil, false
	}
	intercept := medianOf(intercepts)

	out := make([]float64, n)
	for i := range out {
		out[i] = intercept + slope*x[i]
	}
	return out, true
}
