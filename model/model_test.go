package model

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/diag"
)

// referenceTable builds months of value = 20 + 3*hdd15 with a seasonal
// degree-day profile.
func referenceTable(months int, startYear int) dataset.Table {
	t := dataset.Table{Columns: []string{"hdd15"}}
	for i := 0; i < months; i++ {
		hdd := 120 + 100*math.Sin(2*math.Pi*float64(i)/12)
		t.Rows = append(t.Rows, dataset.Row{
			Month:      fmt.Sprintf("%d-%02d", startYear+i/12, i%12+1),
			Value:      20 + 3*hdd,
			Covariates: map[string]float64{"hdd15": hdd},
		})
	}
	return t
}

func TestDecideTable(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name   string
		values []float64
		want   TrainStatus
		code   string
	}{
		{"empty", nil, StatusNoReferenceData, diag.CodeNoReferenceData},
		{"all missing", []float64{nan, nan, nan, nan, nan, nan}, StatusNoReferenceData, diag.CodeNoReferenceData},
		{"all zero", []float64{0, 0, 0, 0, 0, 0}, StatusNoReferenceData, diag.CodeNoReferenceData},
		{"five valid rows", []float64{1, 2, 3, 4, 5}, StatusTooFewObservations, diag.CodeTooFewObservations},
		{"six mixed rows", []float64{1, 0, nan, 4, 5, 6}, StatusOkAnnualReference, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			table := dataset.Table{}
			for i, v := range c.values {
				table.Rows = append(table.Rows, dataset.Row{Month: fmt.Sprintf("2023-%02d", i+1), Value: v})
			}
			var log diag.Log
			got := Decide(table, "elec", "pdl1", &log)
			assert.Equal(t, c.want, got)
			if c.code != "" {
				assert.True(t, log.HasCode(c.code))
			}
		})
	}
}

func TestMeanModelConstantTrain(t *testing.T) {
	train := dataset.Table{}
	for i := 0; i < 6; i++ {
		train.Rows = append(train.Rows, dataset.Row{Month: fmt.Sprintf("2023-%02d", i+1), Value: 10})
	}
	test := dataset.Table{Rows: []dataset.Row{{Month: "2024-01"}, {Month: "2024-02"}}}

	res := MeanModel(train, test)

	assert.InDelta(t, 120.0, res.AnnualReference, 1e-12)
	assert.True(t, math.IsNaN(res.Accuracy.RMSE))
	assert.True(t, math.IsNaN(res.AdjR2))
	require.Len(t, res.Predictions, 2)
	for _, pr := range res.Predictions {
		assert.Equal(t, 10.0, pr.Predicted)
		assert.Equal(t, 10.0, pr.Lower)
		assert.Equal(t, 10.0, pr.Upper)
	}
}

func TestMeanModelEmptyTrain(t *testing.T) {
	res := MeanModel(dataset.Table{}, dataset.Table{Rows: []dataset.Row{{Month: "2024-01"}}})
	assert.True(t, math.IsNaN(res.AnnualReference))
	assert.True(t, math.IsNaN(res.Predictions[0].Predicted))
}

func TestBuildYCleanSeriesIsRaw(t *testing.T) {
	train := referenceTable(24, 2022)
	var log diag.Log

	post := BuildY(train, "hdd15", "", &log)

	require.Equal(t, train.Len(), post.Table.Len())
	raw := train.Values()
	for i := range raw {
		assert.InDelta(t, raw[i], post.Y[i], 1e-9, "clean data should pass through unchanged")
	}
	assert.Empty(t, post.OutlierRows)
	assert.False(t, log.HasCode(diag.CodeMissingData))
	assert.False(t, log.HasCode(diag.CodeAnomalies))
	assert.True(t, log.HasCode(diag.CodeBestOutcome))
}

func TestBuildYImputesMissingMonths(t *testing.T) {
	train := referenceTable(36, 2021)
	truth := train.Rows[15].Value
	train.Rows[15].Value = math.NaN()
	var log diag.Log

	post := BuildY(train, "hdd15", "", &log)

	assert.True(t, log.HasCode(diag.CodeMissingData))
	if post.Table.Len() == train.Len() {
		// Imputation kept: the gap should be filled close to the truth.
		assert.False(t, math.IsNaN(post.Y[15]))
		assert.InDelta(t, truth, post.Y[15], math.Abs(truth)*0.5)
	} else {
		// Raw preferred: the missing row must be gone.
		assert.Equal(t, train.Len()-1, post.Table.Len())
		assert.True(t, log.HasCode(diag.CodeDebug))
	}
	for _, y := range post.Y {
		assert.False(t, math.IsNaN(y), "training target must have no gaps")
	}
}

func TestBuildYHighMissingWarning(t *testing.T) {
	train := referenceTable(10, 2023)
	train.Rows[1].Value = math.NaN()
	train.Rows[4].Value = math.NaN()
	var log diag.Log

	BuildY(train, "hdd15", "", &log)
	assert.True(t, log.HasCode(diag.CodeHighMissingFraction))
}

func TestBuildYFlagsSpike(t *testing.T) {
	train := referenceTable(36, 2021)
	truth := train.Rows[20].Value
	train.Rows[20].Value = 100000 // gross anomaly
	var log diag.Log

	post := BuildY(train, "hdd15", "", &log)

	require.NotEmpty(t, post.OutlierRows)
	assert.True(t, log.HasCode(diag.CodeAnomalies))

	row := post.OutlierRows[0]
	assert.Equal(t, train.Rows[20].Month, row.Month)
	assert.Equal(t, 100000.0, row.Original)
	assert.True(t, row.Anomaly)
	// The replacement comes from a fit over the sound rows only, which are
	// exactly on the reference line, so the spike month lands back on it.
	assert.InDelta(t, truth, row.Corrected, 1e-3)
}

func TestBuildYIsAFixedPoint(t *testing.T) {
	train := referenceTable(24, 2022)
	var log diag.Log
	first := BuildY(train, "hdd15", "", &log)

	// Feeding the output back as raw values must change nothing.
	again := first.Table.WithValues(first.Y)
	var log2 diag.Log
	second := BuildY(again, "hdd15", "", &log2)

	require.Equal(t, first.Table.Len(), second.Table.Len())
	for i := range first.Y {
		assert.Equal(t, first.Y[i], second.Y[i])
	}
	assert.Empty(t, second.OutlierRows)
	assert.False(t, log2.HasCode(diag.CodeMissingData))
	assert.False(t, log2.HasCode(diag.CodeAnomalies))
}

func TestTrainNoReferenceData(t *testing.T) {
	var log diag.Log
	res := Train(dataset.Table{}, dataset.Table{}, "elec", "pdl1", nil, nil, &log)

	assert.Equal(t, StatusNoReferenceData, res.Status)
	assert.Nil(t, res.Model)
	require.NotEmpty(t, res.Messages)
	assert.Equal(t, diag.CodeNoReferenceData, res.Messages[0].Code)
}

func TestTrainTooFewObservationsUsesMeanModel(t *testing.T) {
	train := dataset.Table{}
	for i := 0; i < 4; i++ {
		train.Rows = append(train.Rows, dataset.Row{Month: fmt.Sprintf("2023-%02d", i+1), Value: 100})
	}
	test := dataset.Table{Rows: []dataset.Row{{Month: "2024-01"}}}
	var log diag.Log

	res := Train(train, test, "elec", "pdl1", nil, nil, &log)

	assert.Equal(t, StatusTooFewObservations, res.Status)
	require.NotNil(t, res.Model)
	assert.True(t, res.MeanFallback)
	assert.Equal(t, 100.0, res.Model.Predictions[0].Predicted)
	assert.True(t, log.HasCode(diag.CodeAnnualReference))
}

func TestTrainFullPipeline(t *testing.T) {
	train := referenceTable(24, 2022)
	test := referenceTable(12, 2024)
	var log diag.Log

	res := Train(train, test, "elec", "pdl1", nil, nil, &log)

	assert.Equal(t, StatusOkAnnualReference, res.Status)
	require.NotNil(t, res.Model)
	assert.False(t, res.MeanFallback)
	assert.Equal(t, "hdd15", res.Model.Heating)
	assert.InDelta(t, 1.0, res.Model.AdjR2, 1e-6)

	require.Len(t, res.Model.Predictions, 12)
	for i, pr := range res.Model.Predictions {
		assert.InDelta(t, test.Rows[i].Value, pr.Predicted, 1e-6)
	}
	assert.True(t, log.HasCode(diag.CodeAnnualReference))
}

func TestTrainFallsBackWhenNoDegreeDays(t *testing.T) {
	// Values without any degree-day column: regression is unusable.
	train := dataset.Table{}
	for i := 0; i < 12; i++ {
		train.Rows = append(train.Rows, dataset.Row{Month: fmt.Sprintf("2023-%02d", i+1), Value: float64(100 + i)})
	}
	test := dataset.Table{Rows: []dataset.Row{{Month: "2024-01"}}}
	var log diag.Log

	res := Train(train, test, "elec", "pdl1", nil, nil, &log)

	assert.Equal(t, StatusOkAnnualReference, res.Status)
	require.NotNil(t, res.Model)
	assert.True(t, res.MeanFallback)
	assert.True(t, log.HasCode(diag.CodeNote))
}
