package model

import (
	"math"
	"strings"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/degreeday"
	"github.com/fenixforecast/annualref/diag"
	"github.com/fenixforecast/annualref/impute"
	"github.com/fenixforecast/annualref/outlier"
)

// highMissingFraction is the share of missing reference months above which
// a low-confidence warning is emitted.
const highMissingFraction = 0.2

// OutlierRow is one training month flagged anomalous, with the value it had
// at each stage of the postprocessing.
type OutlierRow struct {
	Month     string
	Original  float64
	Imputed   float64
	Corrected float64
	Anomaly   bool
}

// PostResult is the postprocessor's output: a possibly row-filtered training
// table, the training target aligned with it, and the audit table of
// anomalous rows.
type PostResult struct {
	Table       dataset.Table
	Y           []float64
	OutlierRows []OutlierRow
}

// BuildY resolves missingness and anomalies in the raw training values and
// selects the best training target, re-validating every transformation
// against the degree-day explanatory power of the given heating/cooling
// columns. Each branch taken is recorded in the log.
func BuildY(train dataset.Table, heating, cooling string, log *diag.Log) PostResult {
	n := train.Len()
	raw := train.Values()

	missing := make([]bool, n)
	missingCount := 0
	var missingMonths []string
	for i, v := range raw {
		if math.IsNaN(v) {
			missing[i] = true
			missingCount++
			missingMonths = append(missingMonths, train.Rows[i].Month)
		}
	}
	if n > 0 && float64(missingCount)/float64(n) >= highMissingFraction {
		log.Appendf(diag.CodeHighMissingFraction,
			"%d of %d reference months are missing, the reference is low-confidence", missingCount, n)
	}

	// Imputation stage: weighted combination first, degree-day fitted
	// values for whatever the combination could not reach. The refit uses
	// only the originally present rows, so imputed values never enter it.
	imputed := append([]float64(nil), raw...)
	if missingCount > 0 {
		log.Appendf(diag.CodeMissingData,
			"missing invoices imputed for months %s", strings.Join(missingMonths, ", "))
		imputed = impute.RankImpute(raw, 12).Weighted
		present := make([]bool, n)
		for i := range present {
			present[i] = !missing[i]
		}
		if fitted := degreeday.Fitted(train, imputed, heating, cooling, present); fitted != nil {
			for i := range imputed {
				if math.IsNaN(imputed[i]) && !math.IsNaN(fitted[i]) {
					imputed[i] = fitted[i]
				}
			}
		}
	}

	// Raw-vs-imputed: when the raw series explains degree days strictly
	// better than the imputation, trust the raw data and drop the missing
	// rows entirely.
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	if missingCount > 0 {
		sRaw := degreeday.Score(train, raw, heating, cooling)
		sImp := degreeday.Score(train, imputed, heating, cooling)
		if !math.IsNaN(sRaw) && (math.IsNaN(sImp) || sRaw > sImp) {
			log.Appendf(diag.CodeDebug,
				"raw invoices explain degree days better than the imputation (%.4f vs %.4f), missing months dropped", sRaw, sImp)
			for i := range keep {
				keep[i] = !missing[i]
			}
			imputed = append([]float64(nil), raw...)
		}
	}

	table := filterTable(train, keep)
	imputedK := filterValues(imputed, keep)
	rawK := filterValues(raw, keep)

	// Outlier stage.
	det := outlier.Detect(imputedK, outlier.DefaultPeriod, outlier.DefaultThreshold, outlier.DefaultIterations)
	corrected := append([]float64(nil), rawK...)
	var outlierRows []OutlierRow
	anomalies := 0
	for _, flag := range det.Mask {
		if flag {
			anomalies++
		}
	}
	if anomalies > 0 {
		reimp := impute.RankImpute(det.Cleaned, 12).Weighted
		// Refit on the non-anomalous rows only; the re-imputed values must
		// not shape the coefficients that replace them.
		sound := make([]bool, len(det.Mask))
		for i, flag := range det.Mask {
			sound[i] = !flag
		}
		if fitted := degreeday.Fitted(table, reimp, heating, cooling, sound); fitted != nil {
			for i := range reimp {
				if det.Mask[i] && !math.IsNaN(fitted[i]) {
					reimp[i] = fitted[i]
				}
			}
		}
		corrected = reimp

		var flaggedMonths []string
		for i, flag := range det.Mask {
			if !flag {
				continue
			}
			flaggedMonths = append(flaggedMonths, table.Rows[i].Month)
			outlierRows = append(outlierRows, OutlierRow{
				Month:     table.Rows[i].Month,
				Original:  rawK[i],
				Imputed:   imputedK[i],
				Corrected: corrected[i],
				Anomaly:   true,
			})
		}
		log.Appendf(diag.CodeAnomalies,
			"anomalous invoices corrected for months %s", strings.Join(flaggedMonths, ", "))
		log.Appendf(diag.CodeDebug,
			"anomaly residual bounds [%.4f, %.4f] (q1 %.4f, q3 %.4f)",
			det.Debug.Low, det.Debug.High, det.Debug.Q1, det.Debug.Q3)
	}

	// Zero-handling: the reference scores are compared with and without
	// exact-zero months; equal-or-better without zeros filters them out.
	zeroKeep := make([]bool, table.Len())
	zeros := 0
	for i, v := range imputedK {
		zeroKeep[i] = v != 0
		if v == 0 {
			zeros++
		}
	}
	if zeros > 0 {
		sWith := degreeday.Score(table, imputedK, heating, cooling)
		sWithout := degreeday.Score(filterTable(table, zeroKeep), filterValues(imputedK, zeroKeep), heating, cooling)
		if !math.IsNaN(sWithout) && (math.IsNaN(sWith) || sWithout >= sWith) {
			log.Appendf(diag.CodeWithoutZeros,
				"zero-consumption months excluded from the reference (adjR2 %.4f vs %.4f)", sWithout, sWith)
			table = filterTable(table, zeroKeep)
			imputedK = filterValues(imputedK, zeroKeep)
			corrected = filterValues(corrected, zeroKeep)
		} else {
			log.Appendf(diag.CodeWithZeros,
				"zero-consumption months kept in the reference (adjR2 %.4f vs %.4f)", sWith, sWithout)
		}
	}

	// Final selection between the imputed and the corrected series; ties
	// favor the imputation.
	sImp := degreeday.Score(table, imputedK, heating, cooling)
	sCor := degreeday.Score(table, corrected, heating, cooling)
	y, choice := imputedK, "imputed"
	if !math.IsNaN(sCor) && (math.IsNaN(sImp) || sCor > sImp) {
		y, choice = corrected, "corrected"
	}
	log.Appendf(diag.CodeBestOutcome,
		"best training target is the %s series (adjR2 imputed %.4f, corrected %.4f)", choice, sImp, sCor)

	return PostResult{Table: table, Y: y, OutlierRows: outlierRows}
}

func filterTable(t dataset.Table, keep []bool) dataset.Table {
	out := dataset.Table{Columns: t.Columns}
	for i, r := range t.Rows {
		if keep[i] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

func filterValues(v []float64, keep []bool) []float64 {
	out := make([]float64, 0, len(v))
	for i, x := range v {
		if keep[i] {
			out = append(out, x)
		}
	}
	return out
}
