// Package service orchestrates training runs over a building: it loads the
// silver data, preprocesses it into model tables, trains every (delivery
// point, fluid) pair independently in parallel and persists the results.
package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/diag"
	"github.com/fenixforecast/annualref/model"
	"github.com/fenixforecast/annualref/store"
	"github.com/fenixforecast/annualref/timeseries"
)

// Silver is the persistence surface the runner needs. *store.Store
// implements it; tests substitute a fake.
type Silver interface {
	Invoices(ctx context.Context, buildingID string, from, to time.Time) ([]dataset.Invoice, error)
	DegreeDays(ctx context.Context, buildingID string, months []string) ([]dataset.DegreeDayObservation, error)
	UsageFactors(ctx context.Context, buildingID string, months []string) ([]dataset.UsageObservation, error)
	SaveResults(ctx context.Context, buildingID string, runID uuid.UUID, preds []store.PredictionRecord, models []store.ModelRecord) error
}

// Windows bounds one run: the reference (training) period and the
// prediction period.
type Windows struct {
	RefStart, RefEnd   time.Time
	PredStart, PredEnd time.Time
}

// Runner trains and persists annual references for whole buildings.
type Runner struct {
	silver  Silver
	log     zerolog.Logger
	workers int
}

// NewRunner builds a runner; workers bounds the number of pairs trained
// concurrently (minimum 1).
func NewRunner(silver Silver, log zerolog.Logger, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{silver: silver, log: log, workers: workers}
}

// RunResult aggregates one building run.
type RunResult struct {
	RunID   uuid.UUID
	Results []model.TrainingResult
	// OutlierNotes are the anomaly messages across all pairs,
	// deduplicated in first-seen order, for API reporting.
	OutlierNotes []string
}

// RunBuilding trains every (delivery point, fluid) pair of the building
// over the given windows and persists predictions and models under a fresh
// run id. The prediction window must stay inside one calendar year.
func (r *Runner) RunBuilding(ctx context.Context, buildingID string, w Windows) (*RunResult, error) {
	if w.PredStart.Year() != w.PredEnd.Year() {
		return nil, fmt.Errorf("prediction window %s to %s spans more than one calendar year",
			w.PredStart.Format("2006-01-02"), w.PredEnd.Format("2006-01-02"))
	}

	refMonths := timeseries.MonthRange(w.RefStart, w.RefEnd)
	predMonths := timeseries.MonthRange(w.PredStart, w.PredEnd)
	months := timeseries.UnionMonths(refMonths, predMonths)

	invoices, err := r.silver.Invoices(ctx, buildingID, w.RefStart, w.PredEnd)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	degreeDays, err := r.silver.DegreeDays(ctx, buildingID, months)
	if err != nil {
		return nil, fmt.Errorf("load degree days: %w", err)
	}
	usage, err := r.silver.UsageFactors(ctx, buildingID, months)
	if err != nil {
		return nil, fmt.Errorf("load usage factors: %w", err)
	}

	monthly := dataset.BuildMonthlyInvoices(invoices)
	pairs := groupPairs(monthly)
	r.log.Info().Str("building", buildingID).Int("pairs", len(pairs)).
		Int("months", len(months)).Msg("training building")

	runID := uuid.New()
	var (
		mu      sync.Mutex
		results []model.TrainingResult
		preds   []store.PredictionRecord
		records []store.ModelRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.trainPair(pair, degreeDays, usage, months, w)
			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			preds = append(preds, predictionRecords(res)...)
			records = append(records, modelRecord(res))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Restore a deterministic order; workers finish in any order.
	sort.Slice(results, func(i, j int) bool {
		if results[i].PDL != results[j].PDL {
			return results[i].PDL < results[j].PDL
		}
		return results[i].Fluid < results[j].Fluid
	})

	if err := r.silver.SaveResults(ctx, buildingID, runID, preds, records); err != nil {
		return nil, fmt.Errorf("persist results: %w", err)
	}
	r.log.Info().Str("building", buildingID).Str("run_id", runID.String()).
		Int("predictions", len(preds)).Msg("run persisted")

	return &RunResult{
		RunID:        runID,
		Results:      results,
		OutlierNotes: collectOutlierNotes(results),
	}, nil
}

type pairInvoices struct {
	pdl, fluid string
	invoices   []dataset.MonthlyInvoice
}

func groupPairs(monthly []dataset.MonthlyInvoice) []pairInvoices {
	index := make(map[string]int)
	var out []pairInvoices
	for _, inv := range monthly {
		key := inv.PDL + "\x00" + inv.Fluid
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, pairInvoices{pdl: inv.PDL, fluid: inv.Fluid})
		}
		out[i].invoices = append(out[i].invoices, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].pdl != out[j].pdl {
			return out[i].pdl < out[j].pdl
		}
		return out[i].fluid < out[j].fluid
	})
	return out
}

// trainPair preprocesses and trains one (delivery point, fluid) pair. It
// never returns an error: a pair's failure is captured in its own result
// and must not abort the other pairs.
func (r *Runner) trainPair(pair pairInvoices, degreeDays []dataset.DegreeDayObservation, usage []dataset.UsageObservation, months []string, w Windows) model.TrainingResult {
	log := &diag.Log{}

	ddPivot := dataset.PivotDegreeDays(degreeDays, months, log)
	usagePivot := dataset.MonthlyUsageFactors(usage, months, log)
	table := dataset.BuildModelTable(pair.pdl, pair.fluid, pair.invoices, ddPivot, usagePivot, months, log)

	train, test, err := dataset.SplitTrainTest(table, w.RefStart, w.RefEnd, w.PredStart, w.PredEnd, log)
	if err != nil {
		// error_000 is already in the log; report the pair as untrainable.
		return model.TrainingResult{
			PDL:      pair.pdl,
			Fluid:    pair.fluid,
			Status:   model.StatusNoReferenceData,
			Messages: log.Messages(),
		}
	}

	cls := dataset.ClassifyColumns(table.Columns)
	res := model.Train(train, test, pair.fluid, pair.pdl, cls.Influencing, cls.Usage, log)

	pairsTrained.WithLabelValues(res.Status.String()).Inc()
	if res.MeanFallback {
		meanFallbacks.Inc()
	}
	outlierMonths.Add(float64(len(res.OutlierRows)))

	event := r.log.Debug().Str("pdl", pair.pdl).Str("fluid", pair.fluid).
		Str("status", res.Status.String()).Bool("mean_fallback", res.MeanFallback)
	if res.Model != nil {
		event = event.Float64("annual_reference", res.Model.AnnualReference)
	}
	event.Msg("pair trained")
	return res
}

func predictionRecords(res model.TrainingResult) []store.PredictionRecord {
	if res.Model == nil {
		return nil
	}
	out := make([]store.PredictionRecord, 0, len(res.Model.Predictions))
	for _, pr := range res.Model.Predictions {
		out = append(out, store.PredictionRecord{
			PDL:       res.PDL,
			Fluid:     res.Fluid,
			Month:     pr.Month,
			Real:      pr.Actual,
			Predicted: pr.Predicted,
			Lower:     pr.Lower,
			Upper:     pr.Upper,
		})
	}
	return out
}

func modelRecord(res model.TrainingResult) store.ModelRecord {
	rec := store.ModelRecord{
		PDL:             res.PDL,
		Fluid:           res.Fluid,
		Status:          res.Status.String(),
		OutlierRows:     res.OutlierRows,
		AdjR2:           math.NaN(),
		AnnualReference: math.NaN(),
	}
	for _, m := range res.Messages {
		rec.Messages = append(rec.Messages, m.String())
	}
	if res.Model != nil {
		rec.Heating = res.Model.Heating
		rec.Cooling = res.Model.Cooling
		rec.Coefficients = res.Model.Coefficients
		rec.Accuracy = res.Model.Accuracy
		rec.AdjR2 = res.Model.AdjR2
		rec.AnnualReference = res.Model.AnnualReference
	}
	return rec
}

// collectOutlierNotes gathers the anomaly messages and their debug lines
// across pairs, deduplicated in first-seen order.
func collectOutlierNotes(results []model.TrainingResult) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, res := range results {
		for _, m := range res.Messages {
			if m.Code != diag.CodeAnomalies && m.Code != diag.CodeDebug {
				continue
			}
			s := m.String()
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
