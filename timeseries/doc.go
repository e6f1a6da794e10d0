// Package timeseries provides the monthly series data structure and
// month-key utilities used throughout the modeling pipeline.
//
// A MonthlySeries is an ordered sequence of "YYYY-MM" month keys with one
// float64 value per month. Missing observations are represented as NaN, so a
// series always has one entry per expected month and positional alignment is
// preserved across imputation and outlier detection.
//
// Create a series and inspect it:
//
//	s := timeseries.New([]string{"2024-01", "2024-02"}, []float64{120, math.NaN()})
//	s.CountKnown() // 1
//	s.Mean()       // 120
//
// Month keys sort lexicographically in chronological order, which the rest
// of the pipeline relies on.
package timeseries
