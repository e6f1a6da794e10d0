package dataset

import (
	"math"

	"github.com/fenixforecast/annualref/diag"
)

// UsageObservation is one recorded usage-factor reading (occupancy rate,
// opening days, production volume) for a month. Several readings of the same
// factor in one month are averaged.
type UsageObservation struct {
	Month  string
	Factor string
	Value  float64
}

// MonthlyUsageFactors pivots usage readings into per-factor monthly means
// over the month grid. Factors that are constant across every observed month
// carry no information for a regression and are dropped; when nothing usable
// remains (and some readings existed), note_012 is reported.
//
// The result maps factor name to month to mean value; months without a
// reading are absent from the inner map.
func MonthlyUsageFactors(obs []UsageObservation, months []string, log *diag.Log) map[string]map[string]float64 {
	onGrid := make(map[string]bool, len(months))
	for _, m := range months {
		onGrid[m] = true
	}

	sums := make(map[string]map[string]float64)
	counts := make(map[string]map[string]int)
	for _, o := range obs {
		if math.IsNaN(o.Value) || !onGrid[o.Month] {
			continue
		}
		if sums[o.Factor] == nil {
			sums[o.Factor] = make(map[string]float64)
			counts[o.Factor] = make(map[string]int)
		}
		sums[o.Factor][o.Month] += o.Value
		counts[o.Factor][o.Month]++
	}

	out := make(map[string]map[string]float64)
	for factor, monthSums := range sums {
		col := make(map[string]float64, len(monthSums))
		first, constant := math.NaN(), true
		for m, sum := range monthSums {
			v := sum / float64(counts[factor][m])
			col[m] = v
			if math.IsNaN(first) {
				first = v
			} else if v != first {
				constant = false
			}
		}
		if constant {
			continue
		}
		out[factor] = col
	}

	if len(sums) > 0 && len(out) == 0 {
		log.Appendf(diag.CodeNoUsageFactors,
			"usage factors were provided but none varies over the period, all were discarded")
	}
	return out
}
