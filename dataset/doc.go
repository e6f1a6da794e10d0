// Package dataset assembles the tabular inputs of the training pipeline.
//
// It prorates multi-month invoices into monthly buckets, pivots degree-day
// observations and usage factors onto the month grid, joins everything into
// a model table, and splits it into reference (train) and prediction (test)
// windows. All preprocessing diagnostics are reported through a diag.Log.
package dataset
