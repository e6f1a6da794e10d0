package dataset

import (
	"sort"
	"time"

	"github.com/fenixforecast/annualref/timeseries"
)

// Invoice is one billed consumption record for a delivery point, possibly
// covering several months.
type Invoice struct {
	PDL   string
	Fluid string
	Start time.Time
	End   time.Time
	Value float64
}

// MonthlyInvoice is an invoice amount attributed to a single month.
type MonthlyInvoice struct {
	PDL   string
	Fluid string
	Month string
	Start time.Time
	End   time.Time
	Value float64
}

// ProrateInvoice splits an invoice across the months it covers by daily
// prorata: the billed value divided by the inclusive day count, times the
// number of covered days falling in each month. Single-month invoices pass
// through unchanged. Invoices with a reversed period are skipped.
func ProrateInvoice(inv Invoice) []MonthlyInvoice {
	if inv.End.Before(inv.Start) {
		return nil
	}

	startMonth := timeseries.MonthStart(inv.Start)
	endMonth := timeseries.MonthStart(inv.End)

	if startMonth.Equal(endMonth) {
		return []MonthlyInvoice{{
			PDL:   inv.PDL,
			Fluid: inv.Fluid,
			Month: timeseries.FormatMonth(inv.Start),
			Start: inv.Start,
			End:   inv.End,
			Value: inv.Value,
		}}
	}

	totalDays := int(inv.End.Sub(inv.Start).Hours()/24) + 1
	perDay := inv.Value / float64(totalDays)

	var out []MonthlyInvoice
	for cur := startMonth; !cur.After(endMonth); cur = cur.AddDate(0, 1, 0) {
		bucketStart := cur
		if inv.Start.After(bucketStart) {
			bucketStart = inv.Start
		}
		bucketEnd := timeseries.MonthEnd(cur)
		if inv.End.Before(bucketEnd) {
			bucketEnd = inv.End
		}
		days := int(bucketEnd.Sub(bucketStart).Hours()/24) + 1

		out = append(out, MonthlyInvoice{
			PDL:   inv.PDL,
			Fluid: inv.Fluid,
			Month: timeseries.FormatMonth(cur),
			Start: bucketStart,
			End:   bucketEnd,
			Value: perDay * float64(days),
		})
	}
	return out
}

// BuildMonthlyInvoices prorates every invoice and aggregates the monthly
// buckets per (delivery point, fluid, month): values are summed, the period
// is the envelope of the contributing buckets. Output is sorted by delivery
// point, fluid and month.
func BuildMonthlyInvoices(invoices []Invoice) []MonthlyInvoice {
	type key struct {
		pdl, fluid, month string
	}
	agg := make(map[key]MonthlyInvoice)

	for _, inv := range invoices {
		for _, b := range ProrateInvoice(inv) {
			k := key{b.PDL, b.Fluid, b.Month}
			cur, ok := agg[k]
			if !ok {
				agg[k] = b
				continue
			}
			cur.Value += b.Value
			if b.Start.Before(cur.Start) {
				cur.Start = b.Start
			}
			if b.End.After(cur.End) {
				cur.End = b.End
			}
			agg[k] = cur
		}
	}

	out := make([]MonthlyInvoice, 0, len(agg))
	for _, b := range agg {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PDL != out[j].PDL {
			return out[i].PDL < out[j].PDL
		}
		if out[i].Fluid != out[j].Fluid {
			return out[i].Fluid < out[j].Fluid
		}
		return out[i].Month < out[j].Month
	})
	return out
}
