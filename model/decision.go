package model

import (
	"math"

	"github.com/fenixforecast/annualref/dataset"
	"github.com/fenixforecast/annualref/diag"
)

// TrainStatus classifies how far training can proceed for a pair.
type TrainStatus int

const (
	// StatusNoReferenceData means no usable reference invoices exist; no
	// model of any kind is produced.
	StatusNoReferenceData TrainStatus = iota
	// StatusTooFewObservations means some reference data exists but not
	// enough for regression; the mean model applies.
	StatusTooFewObservations
	// StatusOkAnnualReference means regression training can proceed.
	StatusOkAnnualReference
)

func (s TrainStatus) String() string {
	switch s {
	case StatusNoReferenceData:
		return "no_reference_data"
	case StatusTooFewObservations:
		return "too_few_observations"
	case StatusOkAnnualReference:
		return "ok_annual_reference"
	}
	return "unknown"
}

// minRegressionRows is the observation count below which only the mean
// model applies.
const minRegressionRows = 6

// Decide classifies the training table. Rules are evaluated in order, first
// match wins, and every terminal status is explained with a diagnostic.
func Decide(train dataset.Table, fluid, pdl string, log *diag.Log) TrainStatus {
	if train.Len() == 0 {
		log.Appendf(diag.CodeNoReferenceData,
			"no reference data for %s (%s)", pdl, fluid)
		return StatusNoReferenceData
	}

	known, nonZero := 0, 0
	for _, r := range train.Rows {
		if math.IsNaN(r.Value) {
			continue
		}
		known++
		if r.Value != 0 {
			nonZero++
		}
	}

	if known == 0 {
		log.Appendf(diag.CodeNoReferenceData,
			"all reference invoices of %s (%s) are missing", pdl, fluid)
		return StatusNoReferenceData
	}
	if nonZero == 0 {
		log.Appendf(diag.CodeNoReferenceData,
			"all reference invoices of %s (%s) are null", pdl, fluid)
		return StatusNoReferenceData
	}
	if train.Len() < minRegressionRows {
		log.Appendf(diag.CodeTooFewObservations,
			"%s (%s) has only %d reference months, the mean model applies", pdl, fluid, train.Len())
		return StatusTooFewObservations
	}
	return StatusOkAnnualReference
}
