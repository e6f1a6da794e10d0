package main

import (
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/diag"
	"github.com/fenixforecast/annualref/model"
	"github.com/fenixforecast/annualref/timeseries"
)

// JSON shapes of the predict output. NaN is not representable in JSON, so
// every optional numeric field is a pointer that is nil when unavailable.
type predictionJSON struct {
	Month     string   `json:"month"`
	Real      *float64 `json:"real"`
	Predicted *float64 `json:"predicted"`
	Lower     *float64 `json:"lower"`
	Upper     *float64 `json:"upper"`
}

type outlierJSON struct {
	Month     string   `json:"month"`
	Original  *float64 `json:"original"`
	Imputed   *float64 `json:"imputed"`
	Corrected *float64 `json:"corrected"`
}

type pairJSON struct {
	PDL             string           `json:"pdl"`
	Fluid           string           `json:"fluid"`
	Status          string           `json:"status"`
	Heating         string           `json:"heating,omitempty"`
	Cooling         string           `json:"cooling,omitempty"`
	AdjR2           *float64         `json:"adj_r2"`
	AnnualReference *float64         `json:"annual_reference"`
	Predictions     []predictionJSON `json:"predictions,omitempty"`
	OutlierRows     []outlierJSON    `json:"outlier_rows,omitempty"`
	Messages        []string         `json:"messages"`
}

func newPredictCmd() *cobra.Command {
	var (
		invoicesPath   string
		degreeDaysPath string
		usagePath      string
		refStartFlag   string
		refEndFlag     string
		predStartFlag  string
		predEndFlag    string
		logLevel       string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Train from CSV silver extracts and print the results as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(logLevel)

			refStart, err := parseDate(refStartFlag)
			if err != nil {
				return err
			}
			refEnd, err := parseDate(refEndFlag)
			if err != nil {
				return err
			}
			predStart, err := parseDate(predStartFlag)
			if err != nil {
				return err
			}
			predEnd, err := parseDate(predEndFlag)
			if err != nil {
				return err
			}

			invoices, err := dataset.LoadInvoicesCSV(invoicesPath)
			if err != nil {
				return err
			}
			degreeDays, err := dataset.LoadDegreeDaysCSV(degreeDaysPath)
			if err != nil {
				return err
			}
			var usage []dataset.UsageObservation
			if usagePath != "" {
				if usage, err = dataset.LoadUsageCSV(usagePath); err != nil {
					return err
				}
			}

			months := monthGrid(refStart, refEnd, predStart, predEnd)
			monthly := dataset.BuildMonthlyInvoices(invoices)
			pairs := groupByPair(monthly)
			logger.Info().Int("pairs", len(pairs)).Int("months", len(months)).Msg("training from files")

			var out []pairJSON
			for _, p := range pairs {
				log := &diag.Log{}
				ddPivot := dataset.PivotDegreeDays(degreeDays, months, log)
				usagePivot := dataset.MonthlyUsageFactors(usage, months, log)
				table := dataset.BuildModelTable(p.pdl, p.fluid, p.invoices, ddPivot, usagePivot, months, log)

				train, test, err := dataset.SplitTrainTest(table, refStart, refEnd, predStart, predEnd, log)
				if err != nil {
					return err
				}

				cls := dataset.ClassifyColumns(table.Columns)
				res := model.Train(train, test, p.fluid, p.pdl, cls.Influencing, cls.Usage, log)
				out = append(out, toPairJSON(res))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&invoicesPath, "invoices", "", "invoices CSV (pdl,fluid,start,end,value)")
	cmd.Flags().StringVar(&degreeDaysPath, "degree-days", "", "degree-day CSV (month,reference,value)")
	cmd.Flags().StringVar(&usagePath, "usage", "", "usage-factor CSV (month,factor,value), optional")
	cmd.Flags().StringVar(&refStartFlag, "ref-start", "", "reference window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&refEndFlag, "ref-end", "", "reference window end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&predStartFlag, "pred-start", "", "prediction window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&predEndFlag, "pred-end", "", "prediction window end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	for _, f := range []string{"invoices", "degree-days", "ref-start", "ref-end", "pred-start", "pred-end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func monthGrid(refStart, refEnd, predStart, predEnd time.Time) []string {
	return timeseries.UnionMonths(
		timeseries.MonthRange(refStart, refEnd),
		timeseries.MonthRange(predStart, predEnd),
	)
}

type filePair struct {
	pdl, fluid string
	invoices   []dataset.MonthlyInvoice
}

func groupByPair(monthly []dataset.MonthlyInvoice) []filePair {
	index := make(map[string]int)
	var out []filePair
	for _, inv := range monthly {
		key := inv.PDL + "\x00" + inv.Fluid
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, filePair{pdl: inv.PDL, fluid: inv.Fluid})
		}
		out[i].invoices = append(out[i].invoices, inv)
	}
	return out
}

func toPairJSON(res model.TrainingResult) pairJSON {
	out := pairJSON{
		PDL:    res.PDL,
		Fluid:  res.Fluid,
		Status: res.Status.String(),
	}
	for _, m := range res.Messages {
		out.Messages = append(out.Messages, m.String())
	}
	for _, r := range res.OutlierRows {
		out.OutlierRows = append(out.OutlierRows, outlierJSON{
			Month:     r.Month,
			Original:  fptr(r.Original),
			Imputed:   fptr(r.Imputed),
			Corrected: fptr(r.Corrected),
		})
	}
	if res.Model == nil {
		return out
	}

	out.Heating = res.Model.Heating
	out.Cooling = res.Model.Cooling
	out.AdjR2 = fptr(res.Model.AdjR2)
	out.AnnualReference = fptr(res.Model.AnnualReference)
	for _, pr := range res.Model.Predictions {
		out.Predictions = append(out.Predictions, predictionJSON{
			Month:     pr.Month,
			Real:      fptr(pr.Actual),
			Predicted: fptr(pr.Predicted),
			Lower:     fptr(pr.Lower),
			Upper:     fptr(pr.Upper),
		})
	}
	return out
}

// fptr maps NaN to nil for JSON encoding.
func fptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
