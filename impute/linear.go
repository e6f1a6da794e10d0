package impute

import (
	"math"

	"github.com/fenixforecast/annualref/timeseries"
)

// LinearFill interpolates missing values linearly between known neighbours.
// Gaps at the edges are filled by repeating the nearest known value
// (constant extrapolation, the R approx rule=2 behaviour), never by
// extending the slope. With a single known point every gap takes that value;
// with none the input is returned unchanged.
func LinearFill(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	copy(out, values)

	known := timeseries.CountKnown(values)
	if known == n {
		return out
	}
	if known == 0 {
		return out
	}
	if known == 1 {
		m := timeseries.Mean(values)
		for i := range out {
			if math.IsNaN(out[i]) {
				out[i] = m
			}
		}
		return out
	}

	// Interior gaps: linear interpolation between surrounding known points.
	prev := -1
	for i := 0; i < n; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (values[i] - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = values[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}

	// Leading gap: repeat first known value.
	first := 0
	for first < n && math.IsNaN(values[first]) {
		first++
	}
	for j := 0; j < first; j++ {
		out[j] = values[first]
	}

	// Trailing gap: repeat last known value.
	last := n - 1
	for last >= 0 && math.IsNaN(values[last]) {
		last--
	}
	for j := last + 1; j < n; j++ {
		out[j] = values[last]
	}

	return out
}
