package outlier

import (
	"math"

	"github.com/fenixforecast/annualref/impute"
	"github.com/fenixforecast/annualref/stats"
	"github.com/fenixforecast/annualref/timeseries"
)

// Defaults used by the training pipeline.
const (
	DefaultPeriod     = 12
	DefaultThreshold  = 3.0
	DefaultIterations = 2
)

// PassDetail records what a single detection pass saw and decided.
type PassDetail struct {
	Pass     int
	Flagged  int
	Strength float64
	Adjusted bool
	Bounds   *stats.IQRBounds
}

// Debug carries the bounds and seasonal strength of the last executed pass
// plus per-pass detail for reporting.
type Debug struct {
	Low      float64
	High     float64
	Q1       float64
	Q3       float64
	Strength float64
	Passes   []PassDetail
}

// Result is the outcome of anomaly detection, position-aligned with the
// input series.
type Result struct {
	// Mask is true at positions flagged anomalous. Always false at
	// positions that were missing in the input.
	Mask []bool
	// Cleaned is the input with every flagged position set to NaN.
	Cleaned []float64
	Debug   Debug
}

// Detect runs up to iterations detection passes over the series. Each pass
// works on a copy of the original with all cumulatively flagged positions
// set to missing, so earlier outliers do not bias later smoothing or
// quartiles; the final mask is the union across passes. Detection stops
// early once a pass finds nothing new.
func Detect(values []float64, period int, threshold float64, iterations int) Result {
	n := len(values)
	if period < 1 {
		period = DefaultPeriod
	}
	if iterations < 1 {
		iterations = DefaultIterations
	}

	missing := make([]bool, n)
	for i, v := range values {
		missing[i] = math.IsNaN(v)
	}

	mask := make([]bool, n)
	res := Result{Mask: mask}

	for pass := 1; pass <= iterations; pass++ {
		working := make([]float64, n)
		copy(working, values)
		for i := range working {
			if mask[i] {
				working[i] = math.NaN()
			}
		}

		detail, newMask := detectPass(working, missing, period, threshold)
		detail.Pass = pass
		res.Debug.Passes = append(res.Debug.Passes, detail)
		res.Debug.Strength = detail.Strength
		if detail.Bounds != nil {
			res.Debug.Low = detail.Bounds.Low
			res.Debug.High = detail.Bounds.High
			res.Debug.Q1 = detail.Bounds.Q1
			res.Debug.Q3 = detail.Bounds.Q3
		}

		found := false
		for i, flag := range newMask {
			if flag && !mask[i] {
				mask[i] = true
				found = true
			}
		}
		if !found {
			break
		}
	}

	cleaned := make([]float64, n)
	copy(cleaned, values)
	for i, flag := range mask {
		if flag {
			cleaned[i] = math.NaN()
		}
	}
	res.Cleaned = cleaned
	return res
}

// detectPass runs one detection round over a working series (cumulative
// outliers already blanked). It returns the pass detail and the flags found
// in this round; flags at originally-missing positions are always false.
func detectPass(working []float64, missing []bool, period int, threshold float64) (PassDetail, []bool) {
	n := len(working)
	detail := PassDetail{}
	flags := make([]bool, n)

	if timeseries.CountKnown(working) == 0 {
		return detail, flags
	}

	filled := impute.SeasonalFill(working, period)
	if timeseries.Variance(filled) == 0 {
		return detail, flags
	}

	adjusted := filled
	if dec := stats.Decompose(filled, period, 2); dec != nil {
		detail.Strength = dec.Strength(filled)
		if detail.Strength >= 0.6 {
			detail.Adjusted = true
			adjusted = make([]float64, n)
			for i := range filled {
				adjusted[i] = filled[i] - dec.Seasonal[i]
			}
		}
	}

	smooth := stats.SmoothSeries(adjusted, period)

	// Residuals at positions that are missing in the working copy are set
	// non-finite so they neither enter the quartiles nor get flagged.
	resid := make([]float64, n)
	for i := range resid {
		if math.IsNaN(working[i]) {
			resid[i] = math.NaN()
			continue
		}
		resid[i] = adjusted[i] - smooth[i]
	}

	bounds := stats.ComputeIQRBounds(resid, threshold)
	detail.Bounds = bounds
	if bounds == nil {
		return detail, flags
	}

	for i, r := range resid {
		if missing[i] || math.IsNaN(r) {
			continue
		}
		if r < bounds.Low || r > bounds.High {
			flags[i] = true
			detail.Flagged++
		}
	}
	return detail, flags
}
