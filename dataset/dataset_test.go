package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenixforecast/annualref/diag"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProrateInvoiceSingleMonth(t *testing.T) {
	inv := Invoice{PDL: "pdl1", Fluid: "elec", Start: date(2024, 3, 5), End: date(2024, 3, 28), Value: 1200}
	got := ProrateInvoice(inv)

	require.Len(t, got, 1)
	assert.Equal(t, "2024-03", got[0].Month)
	assert.Equal(t, 1200.0, got[0].Value)
	assert.Equal(t, inv.Start, got[0].Start)
	assert.Equal(t, inv.End, got[0].End)
}

func TestProrateInvoiceDailyProrata(t *testing.T) {
	// 2024-01-16 .. 2024-02-14 inclusive: 30 days, 16 in January, 14 in February.
	inv := Invoice{PDL: "pdl1", Fluid: "gas", Start: date(2024, 1, 16), End: date(2024, 2, 14), Value: 3000}
	got := ProrateInvoice(inv)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Month)
	assert.InDelta(t, 3000.0/30*16, got[0].Value, 1e-9)
	assert.Equal(t, "2024-02", got[1].Month)
	assert.InDelta(t, 3000.0/30*14, got[1].Value, 1e-9)
	assert.InDelta(t, 3000.0, got[0].Value+got[1].Value, 1e-9)

	assert.Equal(t, date(2024, 1, 16), got[0].Start)
	assert.Equal(t, date(2024, 1, 31), got[0].End)
	assert.Equal(t, date(2024, 2, 1), got[1].Start)
	assert.Equal(t, date(2024, 2, 14), got[1].End)
}

func TestBuildMonthlyInvoicesAggregates(t *testing.T) {
	invoices := []Invoice{
		{PDL: "a", Fluid: "elec", Start: date(2024, 1, 1), End: date(2024, 1, 15), Value: 100},
		{PDL: "a", Fluid: "elec", Start: date(2024, 1, 16), End: date(2024, 1, 31), Value: 150},
		{PDL: "a", Fluid: "elec", Start: date(2024, 2, 1), End: date(2024, 2, 29), Value: 200},
	}
	got := BuildMonthlyInvoices(invoices)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Month)
	assert.InDelta(t, 250.0, got[0].Value, 1e-9)
	assert.Equal(t, date(2024, 1, 1), got[0].Start)
	assert.Equal(t, date(2024, 1, 31), got[0].End)
	assert.Equal(t, "2024-02", got[1].Month)
}

func TestSplitTrainTestWindows(t *testing.T) {
	table := monthsTable("2023-01", "2023-02", "2023-03", "2024-01", "2024-02")
	var log diag.Log

	train, test, err := SplitTrainTest(table,
		date(2023, 1, 1), date(2023, 12, 31),
		date(2024, 1, 1), date(2024, 12, 31), &log)

	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01", "2023-02", "2023-03"}, train.Months())
	assert.Equal(t, []string{"2024-01", "2024-02"}, test.Months())
}

func TestSplitTrainTestTrainRequiresInvoiceValue(t *testing.T) {
	// A full 12-month grid where only three months carry an invoice.
	table := monthsTable(
		"2023-01", "2023-02", "2023-03", "2023-04", "2023-05", "2023-06",
		"2023-07", "2023-08", "2023-09", "2023-10", "2023-11", "2023-12")
	for i := range table.Rows {
		if i != 0 && i != 4 && i != 8 {
			table.Rows[i].Value = math.NaN()
		}
	}
	var log diag.Log

	train, _, err := SplitTrainTest(table,
		date(2023, 1, 1), date(2023, 12, 31),
		date(2024, 1, 1), date(2024, 12, 31), &log)

	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01", "2023-05", "2023-09"}, train.Months(),
		"months without an invoice must not enter the training set")
}

func TestSplitTrainTestTrainExcludesOverflowingPeriods(t *testing.T) {
	table := monthsTable("2023-11", "2023-12")
	// December's billed period runs into January.
	table.Rows[1].End = date(2024, 1, 3)
	var log diag.Log

	train, _, err := SplitTrainTest(table,
		date(2023, 1, 1), date(2023, 12, 31),
		date(2024, 1, 1), date(2024, 3, 31), &log)

	require.NoError(t, err)
	assert.Equal(t, []string{"2023-11"}, train.Months(),
		"periods extending past the reference window must be excluded")
}

func TestSplitTrainTestRejectsWidePredictionWindow(t *testing.T) {
	table := monthsTable("2024-01")
	var log diag.Log

	train, test, err := SplitTrainTest(table,
		date(2023, 1, 1), date(2023, 12, 31),
		date(2024, 7, 1), date(2025, 6, 30), &log)

	require.ErrorIs(t, err, ErrPredictionWindow)
	assert.Zero(t, train.Len())
	assert.Zero(t, test.Len())
	assert.True(t, log.HasCode(diag.CodePredWindowTooWide))
}

func TestClassifyColumns(t *testing.T) {
	got := ClassifyColumns([]string{"hdd15", "occupancy", "fi_production", "cdd24", "opening_days"})

	assert.Equal(t, []string{"cdd24", "hdd15"}, got.DegreeDay)
	assert.Equal(t, []string{"fi_production"}, got.Influencing)
	assert.Equal(t, []string{"occupancy", "opening_days"}, got.Usage)
}

func TestPivotDegreeDaysDiagnostics(t *testing.T) {
	months := []string{"2023-01", "2023-02"}
	obs := []DegreeDayObservation{
		{Month: "2023-01", Reference: "hdd15", Value: 300},
		{Month: "2023-02", Reference: "hdd15", Value: 280},
		{Month: "2023-01", Reference: "cdd24", Value: 0}, // missing 2023-02
	}
	var log diag.Log

	got := PivotDegreeDays(obs, months, &log)

	assert.Equal(t, 300.0, got["2023-01"]["hdd15"])
	assert.Equal(t, 280.0, got["2023-02"]["hdd15"])
	_, hasCdd := got["2023-01"]["cdd24"]
	assert.False(t, hasCdd, "incomplete reference should be discarded")

	assert.True(t, log.HasCode(diag.CodeDegreeDayRefEmpty), "absent references should report error_008")
	assert.True(t, log.HasCode(diag.CodeDegreeDayGaps), "gappy reference should report error_009")
	assert.False(t, log.HasCode(diag.CodeAllDegreeDaysLost))
}

func TestPivotDegreeDaysAllLost(t *testing.T) {
	var log diag.Log
	got := PivotDegreeDays(nil, []string{"2023-01"}, &log)

	assert.Empty(t, got)
	assert.True(t, log.HasCode(diag.CodeAllDegreeDaysLost))
}

func TestMonthlyUsageFactors(t *testing.T) {
	months := []string{"2023-01", "2023-02"}
	obs := []UsageObservation{
		{Month: "2023-01", Factor: "occupancy", Value: 0.8},
		{Month: "2023-01", Factor: "occupancy", Value: 0.6}, // averaged to 0.7
		{Month: "2023-02", Factor: "occupancy", Value: 0.9},
		{Month: "2023-01", Factor: "surface", Value: 1200},
		{Month: "2023-02", Factor: "surface", Value: 1200}, // constant, dropped
	}
	var log diag.Log

	got := MonthlyUsageFactors(obs, months, &log)

	require.Contains(t, got, "occupancy")
	assert.InDelta(t, 0.7, got["occupancy"]["2023-01"], 1e-12)
	assert.InDelta(t, 0.9, got["occupancy"]["2023-02"], 1e-12)
	assert.NotContains(t, got, "surface")
	assert.False(t, log.HasCode(diag.CodeNoUsageFactors))
}

func TestMonthlyUsageFactorsAllConstant(t *testing.T) {
	obs := []UsageObservation{
		{Month: "2023-01", Factor: "surface", Value: 1200},
		{Month: "2023-02", Factor: "surface", Value: 1200},
	}
	var log diag.Log

	got := MonthlyUsageFactors(obs, []string{"2023-01", "2023-02"}, &log)
	assert.Empty(t, got)
	assert.True(t, log.HasCode(diag.CodeNoUsageFactors))
}

func TestBuildModelTableJoins(t *testing.T) {
	months := []string{"2023-01", "2023-02", "2023-03"}
	invoices := []MonthlyInvoice{
		{PDL: "a", Fluid: "elec", Month: "2023-01", Start: date(2023, 1, 1), End: date(2023, 1, 31), Value: 500},
		{PDL: "a", Fluid: "elec", Month: "2023-03", Start: date(2023, 3, 1), End: date(2023, 3, 31), Value: 450},
	}
	degreeDays := map[string]map[string]float64{
		"2023-01": {"hdd15": 300},
		"2023-02": {"hdd15": 280},
		"2023-03": {"hdd15": 200},
	}
	usage := map[string]map[string]float64{
		"occupancy": {"2023-01": 0.6, "2023-03": 0.8}, // gap in February
	}
	var log diag.Log

	got := BuildModelTable("a", "elec", invoices, degreeDays, usage, months, &log)

	require.Equal(t, 3, got.Len())
	assert.Equal(t, []string{"hdd15", "occupancy"}, got.Columns)

	assert.Equal(t, 500.0, got.Rows[0].Value)
	assert.True(t, math.IsNaN(got.Rows[1].Value), "month without invoice should be missing")
	assert.Equal(t, date(2023, 2, 1), got.Rows[1].Start)
	assert.Equal(t, date(2023, 2, 28), got.Rows[1].End)

	// Usage gap interpolated linearly between 0.6 and 0.8.
	assert.InDelta(t, 0.7, got.Rows[1].Covariate("occupancy"), 1e-12)
	assert.Equal(t, 300.0, got.Rows[0].Covariate("hdd15"))
}

func TestBuildModelTableNoInvoices(t *testing.T) {
	var log diag.Log
	got := BuildModelTable("a", "elec", nil, nil, nil, []string{"2023-01"}, &log)

	assert.Zero(t, got.Len())
	assert.True(t, log.HasCode(diag.CodeInvoicesMissing))
}

// monthsTable builds invoiced rows spanning their full calendar month.
func monthsTable(months ...string) Table {
	t := Table{}
	for _, m := range months {
		start, err := time.Parse("2006-01", m)
		if err != nil {
			panic(err)
		}
		t.Rows = append(t.Rows, Row{
			Month: m,
			Start: start.UTC(),
			End:   start.UTC().AddDate(0, 1, -1),
			Value: 1,
		})
	}
	return t
}
