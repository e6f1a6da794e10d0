// Package impute fills gaps in monthly series using three independent
// estimators (linear interpolation, structural state-space smoothing, and a
// seasonal decomposition fill) combined into a weighted estimate.
//
// The combination follows a ranking approach: every eligible estimator fills
// the series, and the headline output is the row-wise mean across the
// computed columns. Positions that were never missing are returned
// bit-identical to the input in every column, and any internal failure
// degrades to the linear estimate rather than erroring.
package impute

import "math"

// Result bundles the independent fills and their weighted combination, all
// position-aligned with the input series.
type Result struct {
	Linear     []float64
	Structural []float64
	// Seasonal is nil when the series is too short for a seasonal fill
	// (period <= 1 or length <= 2*period).
	Seasonal []float64
	Weighted []float64
}

// RankImpute fills the missing (NaN) values of the series with every
// eligible estimator and combines them. period is the seasonal period of the
// data (12 for monthly series); the seasonal column is only produced when
// period > 1 and the series is longer than two full periods.
func RankImpute(values []float64, period int) Result {
	n := len(values)

	linear := LinearFill(values)
	structural := structuralFill(values, period)

	res := Result{Linear: linear, Structural: structural}

	columns := [][]float64{linear, structural}
	if period > 1 && n > 2*period {
		seasonal := SeasonalFill(values, period)
		res.Seasonal = seasonal
		columns = append(columns, seasonal)
	}

	weighted := make([]float64, n)
	for i := 0; i < n; i++ {
		// Known positions pass through bit-identical.
		if !math.IsNaN(values[i]) {
			weighted[i] = values[i]
			continue
		}
		sum, cnt := 0.0, 0
		for _, col := range columns {
			if !math.IsNaN(col[i]) {
				sum += col[i]
				cnt++
			}
		}
		if cnt > 0 {
			weighted[i] = sum / float64(cnt)
		} else {
			weighted[i] = math.NaN()
		}
	}
	res.Weighted = weighted
	return res
}
