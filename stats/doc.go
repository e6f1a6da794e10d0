// Package stats provides the numeric building blocks of the modeling
// pipeline: robust seasonal-trend decomposition, seasonal strength, R-style
// type-7 quantiles with IQR bounds, locally weighted smoothing, and the
// accuracy metrics used to score fitted reference models.
//
// The quantile and metric conventions replicate the legacy reference
// algorithm exactly and are covered by unit tests with reference values;
// see Quantile7 and Regression for the binding definitions.
package stats
