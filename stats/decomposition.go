package stats

import (
	"math"
	"sort"
)

// Decomposition holds the additive seasonal-trend decomposition of a series:
// value = Trend + Seasonal + Remainder, position-aligned with the input.
type Decomposition struct {
	Trend     []float64
	Seasonal  []float64
	Remainder []float64
	Period    int
}

// Decompose performs a robust locally weighted seasonal-trend decomposition
// (STL-like) of an additive series. Returns nil when the series is shorter
// than two full periods or contains non-finite values.
//
// robustIters controls the number of biweight-reweighting iterations; values
// below 1 default to 2.
func Decompose(values []float64, period, robustIters int) *Decomposition {
	n := len(values)
	if period < 2 || n < 2*period {
		return nil
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	if robustIters < 1 {
		robustIters = 2
	}

	trend := make([]float64, n)
	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0
	}

	for iter := 0; iter < robustIters; iter++ {
		// Seasonal pass: weighted average of the detrended values within
		// each position of the period, centered to mean zero.
		pattern := make([]float64, period)
		counts := make([]float64, period)
		for i := 0; i < n; i++ {
			idx := i % period
			pattern[idx] += (values[i] - trend[i]) * weights[i]
			counts[idx] += weights[i]
		}
		patternMean := 0.0
		for i := 0; i < period; i++ {
			if counts[i] > 0 {
				pattern[i] /= counts[i]
			}
			patternMean += pattern[i]
		}
		patternMean /= float64(period)
		for i := range pattern {
			pattern[i] -= patternMean
		}
		for i := 0; i < n; i++ {
			seasonal[i] = pattern[i%period]
		}

		// Trend pass: triangular-kernel weighted moving average of the
		// deseasonalized series, window of one period (forced odd).
		window := period
		if window%2 == 0 {
			window++
		}
		half := window / 2
		for i := 0; i < n; i++ {
			sum, wsum := 0.0, 0.0
			for j := -half; j <= half; j++ {
				k := i + j
				if k < 0 || k >= n {
					continue
				}
				w := weights[k] * (1 - math.Abs(float64(j))/float64(half+1))
				sum += (values[k] - seasonal[k]) * w
				wsum += w
			}
			if wsum > 0 {
				trend[i] = sum / wsum
			}
		}

		for i := 0; i < n; i++ {
			remainder[i] = values[i] - trend[i] - seasonal[i]
		}

		// Biweight robustness weights from the remainder for the next pass.
		if iter < robustIters-1 {
			abs := make([]float64, n)
			for i, r := range remainder {
				abs[i] = math.Abs(r)
			}
			h := 6 * medianOf(abs)
			if h > 0 {
				for i := 0; i < n; i++ {
					u := math.Abs(remainder[i]) / h
					if u < 1 {
						weights[i] = (1 - u*u) * (1 - u*u)
					} else {
						weights[i] = 0
					}
				}
			}
		}
	}

	return &Decomposition{
		Trend:     trend,
		Seasonal:  seasonal,
		Remainder: remainder,
		Period:    period,
	}
}

// SeasonalStrength computes 1 − var(remainder)/var(detrended) for the
// decomposition of values at the given period. Returns 0 when the series is
// too short to decompose or the detrended variance vanishes.
func SeasonalStrength(values []float64, period int) float64 {
	dec := Decompose(values, period, 2)
	if dec == nil {
		return 0
	}
	return dec.Strength(values)
}

// Strength computes the seasonal strength of the decomposition against the
// original series it was built from.
func (d *Decomposition) Strength(values []float64) float64 {
	n := len(values)
	if n != len(d.Trend) {
		return 0
	}
	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		detrended[i] = values[i] - d.Trend[i]
	}
	varRem := populationVariance(d.Remainder)
	varDet := populationVariance(detrended)
	if !isFinite(varRem) || !isFinite(varDet) || varDet <= 0 {
		return 0
	}
	return 1 - varRem/varDet
}

func populationVariance(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)
	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n)
}

func medianOf(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
