package dataset

import (
	"math"

	"github.com/fenixforecast/annualref/diag"
)

// DegreeDayObservation is one monthly degree-day value for a reference base
// temperature ("hdd15", "cdd24", ...).
type DegreeDayObservation struct {
	Month     string
	Reference string
	Value     float64
}

// PivotDegreeDays arranges degree-day observations into per-month columns
// over the given month grid, keeping only the candidate references that are
// fully populated.
//
// Diagnostics: a candidate reference with no observations at all reports
// error_008; a reference present but with missing months is dropped with
// error_009; when every candidate is lost, error_010 is reported and the
// result is empty.
func PivotDegreeDays(obs []DegreeDayObservation, months []string, log *diag.Log) map[string]map[string]float64 {
	candidates := append(append([]string{}, HeatingColumns...), CoolingColumns...)

	byRef := make(map[string]map[string]float64)
	for _, o := range obs {
		if math.IsNaN(o.Value) {
			continue
		}
		if byRef[o.Reference] == nil {
			byRef[o.Reference] = make(map[string]float64)
		}
		byRef[o.Reference][o.Month] = o.Value
	}

	out := make(map[string]map[string]float64, len(months))
	for _, m := range months {
		out[m] = make(map[string]float64)
	}

	kept := 0
	for _, ref := range candidates {
		values, ok := byRef[ref]
		if !ok {
			log.AppendOncef(diag.CodeDegreeDayRefEmpty,
				"degree-day reference %s has no data over the requested period", ref)
			continue
		}

		var missing []string
		for _, m := range months {
			if _, ok := values[m]; !ok {
				missing = append(missing, m)
			}
		}
		if len(missing) > 0 {
			log.AppendOncef(diag.CodeDegreeDayGaps,
				"degree-day reference %s is missing %d of %d months and was discarded", ref, len(missing), len(months))
			continue
		}

		for _, m := range months {
			out[m][ref] = values[m]
		}
		kept++
	}

	if kept == 0 {
		log.Appendf(diag.CodeAllDegreeDaysLost,
			"no usable degree-day reference over the requested period, the model cannot use weather predictors")
		return map[string]map[string]float64{}
	}
	return out
}
