package degreeday

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/stats"
)

// MinRows is the minimum number of complete rows required both to score a
// candidate column and to fit the final model.
const MinRows = 6

// ChooseBest scores every heating and cooling candidate independently by the
// adjusted R² of a univariate fit of values on the candidate, over the rows
// where both are present, and returns the winners. Either result may be
// empty when no candidate achieves a finite score on at least MinRows rows.
func ChooseBest(table dataset.Table, values []float64) (heating, cooling string) {
	heating = bestOf(table, values, dataset.HeatingColumns)
	cooling = bestOf(table, values, dataset.CoolingColumns)
	return heating, cooling
}

func bestOf(table dataset.Table, values []float64, candidates []string) string {
	best, bestScore := "", math.Inf(-1)
	for _, cand := range candidates {
		if !table.HasColumn(cand) {
			continue
		}
		score := Score(table, values, cand, "")
		if !math.IsNaN(score) && score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

// Score fits values on an intercept plus the given degree-day columns (empty
// names are skipped) over the complete rows and returns the adjusted R².
// NaN when fewer than MinRows complete rows exist or the fit is unusable.
func Score(table dataset.Table, values []float64, heating, cooling string) float64 {
	fit, _, used := columnFit(table, values, degreeDayColumns(heating, cooling))
	if fit == nil {
		return math.NaN()
	}
	actual := make([]float64, len(used))
	for i, r := range used {
		actual[i] = values[r]
	}
	_, adj := stats.RSquared(actual, fit.fitted, fit.p-1)
	return adj
}

// Fitted fits values on an intercept plus the given degree-day columns and
// evaluates the fit at every table row, NaN where a predictor is missing.
// fitRows restricts the rows entering the fit (nil means every row); the
// evaluation always covers the whole table, so excluded rows still get a
// fitted value. Returns nil when the fit is unusable.
func Fitted(table dataset.Table, values []float64, heating, cooling string, fitRows []bool) []float64 {
	cols := degreeDayColumns(heating, cooling)

	fitValues := values
	if fitRows != nil {
		fv := append([]float64(nil), values...)
		for i := range fv {
			if i < len(fitRows) && !fitRows[i] {
				fv[i] = math.NaN()
			}
		}
		fitValues = fv
	}

	fit, _, _ := columnFit(table, fitValues, cols)
	if fit == nil {
		return nil
	}

	out := make([]float64, table.Len())
	for i, row := range table.Rows {
		x, ok := predictorVector(row, cols)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = fit.predict(x)
	}
	return out
}

func degreeDayColumns(heating, cooling string) []string {
	var cols []string
	if heating != "" {
		cols = append(cols, heating)
	}
	if cooling != "" {
		cols = append(cols, cooling)
	}
	return cols
}

// columnFit assembles the design matrix (intercept first) over the rows
// where the target and every column are finite, and fits it when at least
// MinRows such rows exist. Returns the fit, the column order and the row
// indices used.
func columnFit(table dataset.Table, values []float64, cols []string) (*olsFit, []string, []int) {
	if len(cols) == 0 || len(values) != table.Len() {
		return nil, nil, nil
	}

	var used []int
	for i, row := range table.Rows {
		if math.IsNaN(values[i]) {
			continue
		}
		if _, ok := predictorVector(row, cols); ok {
			used = append(used, i)
		}
	}
	if len(used) < MinRows {
		return nil, nil, nil
	}

	p := len(cols) + 1
	x := mat.NewDense(len(used), p, nil)
	y := make([]float64, len(used))
	for r, idx := range used {
		vec, _ := predictorVector(table.Rows[idx], cols)
		x.SetRow(r, vec)
		y[r] = values[idx]
	}

	fit := fitOLS(x, y)
	if fit == nil {
		return nil, nil, nil
	}
	return fit, cols, used
}

// predictorVector builds [1, row[cols]...]; ok is false when any column is
// missing or non-finite for this row.
func predictorVector(row dataset.Row, cols []string) ([]float64, bool) {
	x := make([]float64, len(cols)+1)
	x[0] = 1
	for j, c := range cols {
		v := row.Covariate(c)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		x[j+1] = v
	}
	return x, true
}
