package stats

import (
	"math"
	"sort"
)

// Quantile7 computes the quantile of the finite values in x using the R
// type-7 definition: with the sorted values x[0..n-1], index = (n−1)p,
// j = floor(index), γ = index − j, result = (1−γ)·x[j] + γ·x[j+1].
// Returns NaN when no finite values exist.
func Quantile7(x []float64, p float64) float64 {
	vals := make([]float64, 0, len(x))
	for _, v := range x {
		if isFinite(v) {
			vals = append(vals, v)
		}
	}
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if n == 1 {
		return vals[0]
	}

	index := float64(n-1) * p
	j := int(math.Floor(index))
	gamma := index - float64(j)
	if j >= n-1 {
		return vals[n-1]
	}
	return (1-gamma)*vals[j] + gamma*vals[j+1]
}

// IQRBounds holds the robust outlier bounds derived from type-7 quartiles.
type IQRBounds struct {
	Low  float64
	High float64
	Q1   float64
	Q3   float64
}

// ComputeIQRBounds returns [Q1−k·IQR, Q3+k·IQR] over the finite residuals.
// Returns nil when the quartiles are undefined, the IQR is non-positive, or
// the bound interval collapses (high−low ≤ 1e−14), in which case no outliers
// should be reported.
func ComputeIQRBounds(resid []float64, k float64) *IQRBounds {
	q1 := Quantile7(resid, 0.25)
	q3 := Quantile7(resid, 0.75)
	if !isFinite(q1) || !isFinite(q3) {
		return nil
	}

	iqr := q3 - q1
	if iqr <= 0 {
		return nil
	}

	low := q1 - k*iqr
	high := q3 + k*iqr
	if high-low <= 1e-14 {
		return nil
	}
	return &IQRBounds{Low: low, High: high, Q1: q1, Q3: q3}
}
