package dataset

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fenixforecast/annualref/diag"
	"github.com/fenixforecast/annualref/timeseries"
)

// Degree-day candidate columns, by heating/cooling base temperature.
var (
	HeatingColumns = []string{"hdd10", "hdd15", "hdd18"}
	CoolingColumns = []string{"cdd21", "cdd24", "cdd26"}
)

// InfluencingPrefix marks covariate columns describing influencing factors
// (occupancy, production volume). Everything else that is neither standard
// nor a degree-day column is a usage factor.
const InfluencingPrefix = "fi_"

// Row is one month of the model table. Value is NaN when the month has no
// invoice; Covariates holds degree-day and usage/influencing values and may
// omit columns that are missing for this month.
type Row struct {
	Month      string
	Start      time.Time
	End        time.Time
	Value      float64
	Covariates map[string]float64
}

// Covariate returns the named covariate, NaN when absent.
func (r Row) Covariate(name string) float64 {
	if v, ok := r.Covariates[name]; ok {
		return v
	}
	return math.NaN()
}

// Table is an ordered set of monthly rows sharing a covariate schema.
type Table struct {
	Rows    []Row
	Columns []string
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Values returns the invoice values in row order.
func (t Table) Values() []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Value
	}
	return out
}

// Column returns the named covariate in row order, NaN where absent.
func (t Table) Column(name string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Covariate(name)
	}
	return out
}

// HasColumn reports whether the schema carries the named covariate.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Months returns the month keys in row order.
func (t Table) Months() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Month
	}
	return out
}

// WithValues returns a copy of the table with the invoice values replaced.
// The input must be row-aligned; the table is returned unchanged otherwise.
func (t Table) WithValues(values []float64) Table {
	if len(values) != len(t.Rows) {
		return t
	}
	out := Table{Columns: t.Columns, Rows: make([]Row, len(t.Rows))}
	copy(out.Rows, t.Rows)
	for i := range out.Rows {
		out.Rows[i].Value = values[i]
	}
	return out
}

// Classification groups the covariate columns of a model table by role.
type Classification struct {
	DegreeDay   []string
	Influencing []string
	Usage       []string
}

// ClassifyColumns splits covariate column names into degree-day columns,
// influencing columns (fi_ prefix) and usage columns (the rest).
func ClassifyColumns(columns []string) Classification {
	isDegreeDay := make(map[string]bool)
	for _, c := range HeatingColumns {
		isDegreeDay[c] = true
	}
	for _, c := range CoolingColumns {
		isDegreeDay[c] = true
	}

	var out Classification
	for _, c := range columns {
		switch {
		case isDegreeDay[c]:
			out.DegreeDay = append(out.DegreeDay, c)
		case strings.HasPrefix(c, InfluencingPrefix):
			out.Influencing = append(out.Influencing, c)
		default:
			out.Usage = append(out.Usage, c)
		}
	}
	sort.Strings(out.DegreeDay)
	sort.Strings(out.Influencing)
	sort.Strings(out.Usage)
	return out
}

// ErrPredictionWindow is returned when the prediction window crosses a
// calendar-year boundary. Training must not start in that case.
var ErrPredictionWindow = errors.New("prediction window spans more than one calendar year")

// SplitTrainTest slices the model table into the reference (training) and
// prediction (test) sets. Training rows must carry an invoice value and a
// billed period lying fully inside [startRef, endRef]; test rows are picked
// by month alone, invoiced or not. The prediction window must stay inside a
// single calendar year; otherwise no split is produced, an error_000
// diagnostic is appended and ErrPredictionWindow is returned.
func SplitTrainTest(table Table, startRef, endRef, startPred, endPred time.Time, log *diag.Log) (train, test Table, err error) {
	if startPred.Year() != endPred.Year() {
		log.Appendf(diag.CodePredWindowTooWide,
			"prediction window %s to %s spans more than one calendar year, no reference can be computed",
			startPred.Format("2006-01-02"), endPred.Format("2006-01-02"))
		return Table{Columns: table.Columns}, Table{Columns: table.Columns}, ErrPredictionWindow
	}

	train = referenceRows(table, startRef, endRef)
	test = sliceWindow(table, startPred, endPred)
	if train.Len() == 0 {
		log.AppendOncef(diag.CodeNote, "train is empty for the given reference period, no invoice values inside the window")
	}
	if test.Len() == 0 {
		log.AppendOncef(diag.CodeNote, "test is empty for the given prediction period")
	}
	return train, test, nil
}

// referenceRows keeps the rows with an actual invoice value whose billed
// period lies fully inside [start, end].
func referenceRows(table Table, start, end time.Time) Table {
	out := Table{Columns: table.Columns}
	for _, r := range table.Rows {
		if math.IsNaN(r.Value) {
			continue
		}
		if r.Start.Before(start) || r.End.After(end) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func sliceWindow(table Table, start, end time.Time) Table {
	wanted := make(map[string]bool)
	for _, m := range timeseries.MonthRange(start, end) {
		wanted[m] = true
	}
	out := Table{Columns: table.Columns}
	for _, r := range table.Rows {
		if wanted[r.Month] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
