package dataset

import (
	"math"
	"sort"

	"github.com/fenixforecast/annualref/diag"
	"github.com/fenixforecast/annualref/impute"
	"github.com/fenixforecast/annualref/timeseries"
)

// BuildModelTable joins one delivery point's monthly invoices with the
// degree-day and usage-factor pivots over the month grid. Months without an
// invoice get a NaN value and the calendar month bounds; usage columns are
// linearly interpolated across grid gaps so sparse readings still serve as
// predictors. When the delivery point has no invoices at all, error_014 is
// reported and an empty table is returned.
func BuildModelTable(pdl, fluid string, invoices []MonthlyInvoice, degreeDays map[string]map[string]float64, usage map[string]map[string]float64, months []string, log *diag.Log) Table {
	if len(invoices) == 0 {
		log.Appendf(diag.CodeInvoicesMissing,
			"delivery point %s (%s) has no invoices over the requested period", pdl, fluid)
		return Table{}
	}

	byMonth := make(map[string]MonthlyInvoice, len(invoices))
	for _, inv := range invoices {
		byMonth[inv.Month] = inv
	}

	usageCols := make([]string, 0, len(usage))
	for factor := range usage {
		usageCols = append(usageCols, factor)
	}
	sort.Strings(usageCols)

	// Interpolate each usage column over the grid before assembling rows.
	usageFilled := make(map[string][]float64, len(usageCols))
	for _, factor := range usageCols {
		col := make([]float64, len(months))
		for i, m := range months {
			if v, ok := usage[factor][m]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		usageFilled[factor] = impute.LinearFill(col)
	}

	ddCols := make(map[string]bool)
	rows := make([]Row, 0, len(months))
	for i, m := range months {
		row := Row{Month: m, Covariates: make(map[string]float64)}

		if inv, ok := byMonth[m]; ok {
			row.Start, row.End, row.Value = inv.Start, inv.End, inv.Value
		} else {
			t, err := timeseries.ParseMonth(m)
			if err != nil {
				continue
			}
			row.Start, row.End = timeseries.MonthStart(t), timeseries.MonthEnd(t)
			row.Value = math.NaN()
		}

		for ref, v := range degreeDays[m] {
			row.Covariates[ref] = v
			ddCols[ref] = true
		}
		for _, factor := range usageCols {
			if v := usageFilled[factor][i]; !math.IsNaN(v) {
				row.Covariates[factor] = v
			}
		}
		rows = append(rows, row)
	}

	columns := make([]string, 0, len(ddCols)+len(usageCols))
	for ref := range ddCols {
		columns = append(columns, ref)
	}
	sort.Strings(columns)
	columns = append(columns, usageCols...)

	return Table{Rows: rows, Columns: columns}
}
