package impute

import (
	"math"

	"github.com/fenixforecast/annualref/stats"
)

// SeasonalFill imputes by decomposing the series, interpolating the
// deseasonalized part linearly, and adding the seasonal component back at the
// missing positions. The decomposition runs on a linearly prefilled copy so
// gaps do not distort the seasonal estimate. Falls back to LinearFill when the
// series cannot be decomposed.
func SeasonalFill(values []float64, period int) []float64 {
	n := len(values)

	filled := LinearFill(values)
	d := stats.Decompose(filled, period, 2)
	if d == nil {
		return filled
	}

	// Deseasonalize only the known positions, keep the gaps.
	desea := make([]float64, n)
	for i, v := range values {
		if math.IsNaN(v) {
			desea[i] = math.NaN()
		} else {
			desea[i] = v - d.Seasonal[i]
		}
	}

	out := LinearFill(desea)
	for i := range out {
		out[i] += d.Seasonal[i]
	}
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i] = v
		}
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return filled
		}
	}
	return out
}
