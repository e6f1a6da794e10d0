package degreeday

import (
	"math"
	"strings"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/diag"
	"github.com/fenixforecast/annualref/stats"
)

// Options controls predictor selection for Run.
type Options struct {
	// Heating and Cooling name the degree-day columns to use. When Forced
	// is false and both are empty, the best candidates are selected from
	// the training data.
	Heating string
	Cooling string
	// Forced marks Heating/Cooling as externally chosen; a forced column
	// absent from train or test is dropped with a diagnostic note instead
	// of re-selecting.
	Forced bool
	// Usage and Influencing list additional covariate columns; only those
	// present in the training schema enter the design matrix, influencing
	// columns first.
	Usage       []string
	Influencing []string
}

// Coefficients holds the fitted model coefficients, intercept first.
type Coefficients struct {
	Names  []string
	Values []float64
}

// PredictionRow is one test month's prediction with 95% confidence bounds.
// Predicted and the bounds are NaN when a required predictor is missing.
type PredictionRow struct {
	Month     string
	Actual    float64
	Predicted float64
	Lower     float64
	Upper     float64
}

// Result is a fitted reference model.
type Result struct {
	Heating         string
	Cooling         string
	Coefficients    Coefficients
	Accuracy        stats.Accuracy
	R2              float64
	AdjR2           float64
	AnnualReference float64
	Predictions     []PredictionRow
}

// Run fits the degree-day model of y over the training table and predicts
// every test month. It returns nil, never an error, when the model is
// unusable (no usable degree-day predictor, or fewer than MinRows complete
// rows); the caller is expected to fall back to the mean model.
func Run(train, test dataset.Table, y []float64, opts Options, log *diag.Log) *Result {
	if len(y) != train.Len() || train.Len() == 0 {
		return nil
	}

	heating, cooling := opts.Heating, opts.Cooling
	if opts.Forced {
		heating = keepForced(heating, train, test, log)
		cooling = keepForced(cooling, train, test, log)
	} else if heating == "" && cooling == "" {
		heating, cooling = ChooseBest(train, y)
	}
	if heating == "" && cooling == "" {
		return nil
	}

	cols := degreeDayColumns(heating, cooling)
	for _, c := range append(append([]string{}, opts.Influencing...), opts.Usage...) {
		if train.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	// Every predictor must also exist in the test schema; a model that can
	// predict nothing is unusable and the caller falls back.
	var absent []string
	for _, c := range cols {
		if !test.HasColumn(c) {
			absent = append(absent, c)
		}
	}
	if len(absent) > 0 {
		log.Appendf(diag.CodeNote,
			"test table misses required predictor columns %s, the degree-day model is unusable",
			strings.Join(absent, ", "))
		return nil
	}

	fit, cols, used := columnFit(train, y, cols)
	if fit == nil {
		return nil
	}

	actual := make([]float64, len(used))
	for i, r := range used {
		actual[i] = y[r]
	}
	r2, adjR2 := stats.RSquared(actual, fit.fitted, fit.p-1)

	fittedMean := 0.0
	for _, f := range fit.fitted {
		fittedMean += f
	}
	fittedMean /= float64(len(fit.fitted))

	res := &Result{
		Heating:         heating,
		Cooling:         cooling,
		Coefficients:    Coefficients{Names: append([]string{"intercept"}, cols...), Values: fit.coef},
		Accuracy:        stats.Regression(actual, fit.fitted),
		R2:              r2,
		AdjR2:           adjR2,
		AnnualReference: 12 * fittedMean,
	}

	t := tCritical(fit.n - fit.p)
	var unpredictable []string
	for _, row := range test.Rows {
		pr := PredictionRow{Month: row.Month, Actual: row.Value}
		if x, ok := predictorVector(row, cols); ok {
			pr.Predicted = fit.predict(x)
			se := fit.predictSE(x)
			pr.Lower = pr.Predicted - t*se
			pr.Upper = pr.Predicted + t*se
		} else {
			pr.Predicted = math.NaN()
			pr.Lower = math.NaN()
			pr.Upper = math.NaN()
			unpredictable = append(unpredictable, row.Month)
		}
		res.Predictions = append(res.Predictions, pr)
	}
	if len(unpredictable) > 0 {
		log.Appendf(diag.CodeNote,
			"months %s miss a model predictor and were predicted as NaN",
			strings.Join(unpredictable, ", "))
	}
	return res
}

// keepForced validates one externally chosen degree-day column against both
// tables, dropping it with a note when absent.
func keepForced(col string, train, test dataset.Table, log *diag.Log) string {
	if col == "" {
		return ""
	}
	if !train.HasColumn(col) || !test.HasColumn(col) {
		log.Appendf(diag.CodeNote,
			"selected degree-day column %s is absent from the model table and was dropped", col)
		return ""
	}
	return col
}
