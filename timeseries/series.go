package timeseries

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MonthlySeries represents a monthly time series with "YYYY-MM" month keys.
// Missing values are NaN. Months are expected to be unique and sorted.
type MonthlySeries struct {
	Months []string
	Values []float64
	Name   string
}

// New creates a monthly series. Months and values must have the same length;
// mismatched input yields an empty series.
func New(months []string, values []float64) *MonthlySeries {
	if len(months) != len(values) {
		return &MonthlySeries{}
	}
	m := make([]string, len(months))
	v := make([]float64, len(values))
	copy(m, months)
	copy(v, values)
	return &MonthlySeries{Months: m, Values: v}
}

// Len returns the number of months in the series.
func (s *MonthlySeries) Len() int {
	return len(s.Values)
}

// IsMissing reports whether the value at position i is missing (NaN).
func (s *MonthlySeries) IsMissing(i int) bool {
	return math.IsNaN(s.Values[i])
}

// MissingMask returns a boolean mask aligned to the series, true at missing
// positions.
func (s *MonthlySeries) MissingMask() []bool {
	mask := make([]bool, len(s.Values))
	for i, v := range s.Values {
		mask[i] = math.IsNaN(v)
	}
	return mask
}

// CountKnown returns the number of non-missing values.
func (s *MonthlySeries) CountKnown() int {
	return CountKnown(s.Values)
}

// Known returns the non-missing values in order.
func (s *MonthlySeries) Known() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the mean of the non-missing values, NaN when none exist.
func (s *MonthlySeries) Mean() float64 {
	return Mean(s.Values)
}

// Std returns the sample standard deviation (ddof=1) of the non-missing
// values, NaN when fewer than two exist.
func (s *MonthlySeries) Std() float64 {
	return Std(s.Values)
}

// Copy returns a deep copy of the series.
func (s *MonthlySeries) Copy() *MonthlySeries {
	c := New(s.Months, s.Values)
	c.Name = s.Name
	return c
}

// CountKnown returns the number of finite values in vals.
func CountKnown(vals []float64) int {
	n := 0
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// Mean returns the mean over finite values, NaN when none exist.
func Mean(vals []float64) float64 {
	known := finite(vals)
	if len(known) == 0 {
		return math.NaN()
	}
	return stat.Mean(known, nil)
}

// Std returns the sample standard deviation (ddof=1) over finite values,
// NaN when fewer than two exist.
func Std(vals []float64) float64 {
	known := finite(vals)
	if len(known) < 2 {
		return math.NaN()
	}
	return stat.StdDev(known, nil)
}

// Variance returns the population variance (ddof=0) over finite values,
// matching the variance convention of the seasonal-strength computation.
// NaN when no finite values exist.
func Variance(vals []float64) float64 {
	known := finite(vals)
	if len(known) == 0 {
		return math.NaN()
	}
	m := stat.Mean(known, nil)
	sum := 0.0
	for _, v := range known {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(known))
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
