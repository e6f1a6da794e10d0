// Package model ties the training pipeline together: it decides whether a
// delivery point has enough reference data, builds the best possible
// training target out of raw invoices (imputing gaps and correcting
// anomalies), fits the degree-day model and falls back to the trivial mean
// model when regression is not usable.
//
// Every decision taken along the way is appended to the pair's diag.Log so
// the returned TrainingResult explains its own provenance.
package model
