package model

import (
	"math"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/degreeday"
	"github.com/fenixforecast/annualref/stats"
	"github.com/fenixforecast/annualref/timeseries"
)

// MeanModel fits the trivial fallback model: every test month is predicted
// with the training mean, bounded by m ± 1.96·sd (sample standard deviation,
// normal approximation). Accuracy metrics carry no information for a
// constant model and are reported as NaN. Never fails; empty input
// degenerates to NaN outputs.
func MeanModel(train, test dataset.Table) *degreeday.Result {
	values := train.Values()
	m := timeseries.Mean(values)
	sd := timeseries.Std(values)

	nan := math.NaN()
	res := &degreeday.Result{
		Coefficients:    degreeday.Coefficients{Names: []string{"intercept"}, Values: []float64{m}},
		Accuracy:        stats.Accuracy{ME: nan, RMSE: nan, MAE: nan, MPE: nan, MAPE: nan, R2: nan},
		R2:              nan,
		AdjR2:           nan,
		AnnualReference: 12 * m,
	}

	for _, row := range test.Rows {
		res.Predictions = append(res.Predictions, degreeday.PredictionRow{
			Month:     row.Month,
			Actual:    row.Value,
			Predicted: m,
			Lower:     m - 1.96*sd,
			Upper:     m + 1.96*sd,
		})
	}
	return res
}
